// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/auth"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByUsername(
	ctx context.Context,
	username string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	username, email, passwordHash string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// RecordLogin stamps last_login and, when the stored hash used outdated
// parameters, swaps in the rehashed password.
func (s *Service) RecordLogin(
	ctx context.Context,
	userID, newPasswordHash string,
) error {
	if err := s.repo.RecordLogin(ctx, userID, s.now().UTC()); err != nil {
		return err
	}
	if newPasswordHash != "" {
		return s.repo.UpdatePassword(ctx, userID, newPasswordHash)
	}
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}
}

var _ auth.UserProvider = (*Service)(nil)
