// AngelaMos | 2026
// repository.go

package upload

import (
	"context"
	"fmt"
	"slices"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/store"
)

type Repository interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]File, error)
	GetByID(ctx context.Context, id string) (*File, error)
	Create(ctx context.Context, file *File) error
	Delete(ctx context.Context, id string) (*File, error)
}

type repository struct {
	files *store.Collection[File]
}

func NewRepository(s store.Store) Repository {
	return &repository{files: store.NewCollection[File](s, Collection)}
}

func (r *repository) ListBySubmission(
	ctx context.Context,
	submissionID string,
) ([]File, error) {
	all, err := r.files.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	out := make([]File, 0)
	for _, f := range all {
		if f.SubmissionID != nil && *f.SubmissionID == submissionID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*File, error) {
	all, err := r.files.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("get file: %w", core.ErrNotFound)
}

func (r *repository) Create(ctx context.Context, file *File) error {
	err := r.files.Modify(ctx, func(all []File) ([]File, error) {
		return append(all, *file), nil
	})
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// Delete removes the metadata record and returns it so the caller can clean
// up the stored asset.
func (r *repository) Delete(ctx context.Context, id string) (*File, error) {
	var removed File

	err := r.files.Modify(ctx, func(all []File) ([]File, error) {
		idx := slices.IndexFunc(all, func(f File) bool { return f.ID == id })
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		removed = all[idx]
		return slices.Delete(all, idx, idx+1), nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete file: %w", err)
	}

	return &removed, nil
}
