// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"fmt"
	"time"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/store"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	RecordLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	users *store.Collection[User]
}

func NewRepository(s store.Store) Repository {
	return &repository{users: store.NewCollection[User](s, Collection)}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	err := r.users.Modify(ctx, func(users []User) ([]User, error) {
		for _, u := range users {
			if u.Username == user.Username {
				return nil, core.ErrDuplicateKey
			}
		}
		return append(users, *user), nil
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.find(ctx, "get user", func(u *User) bool { return u.ID == id })
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	return r.find(ctx, "get user by username", func(u *User) bool {
		return u.Username == username
	})
}

func (r *repository) find(
	ctx context.Context,
	op string,
	match func(*User) bool,
) (*User, error) {
	users, err := r.users.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range users {
		if match(&users[i]) {
			return &users[i], nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
}

func (r *repository) RecordLogin(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	return r.update(ctx, "record login", id, func(u *User) {
		u.LastLogin = &at
	})
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return r.update(ctx, "update password", id, func(u *User) {
		u.PasswordHash = passwordHash
	})
}

func (r *repository) update(
	ctx context.Context,
	op, id string,
	apply func(*User),
) error {
	err := r.users.Modify(ctx, func(users []User) ([]User, error) {
		for i := range users {
			if users[i].ID == id {
				apply(&users[i])
				return users, nil
			}
		}
		return nil, core.ErrNotFound
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	users, err := r.users.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return len(users), nil
}
