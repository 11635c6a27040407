// AngelaMos | 2026
// repository.go

package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/store"
)

type Repository interface {
	List(ctx context.Context, params ListParams) ([]Submission, error)
	GetByID(ctx context.Context, id string) (*Submission, error)
	Create(ctx context.Context, sub *Submission) error
	Update(ctx context.Context, id string, patch Patch) (*Submission, error)
	Delete(ctx context.Context, id string) error
	CountBy(ctx context.Context) (*Counts, error)
}

type repository struct {
	submissions *store.Collection[Submission]
}

func NewRepository(s store.Store) Repository {
	return &repository{
		submissions: store.NewCollection[Submission](s, Collection),
	}
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Submission, error) {
	all, err := r.submissions.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	search := strings.ToLower(params.Search)
	out := make([]Submission, 0, len(all))
	for _, s := range all {
		if matches(&s, params, search) {
			out = append(out, s)
		}
	}

	slices.SortStableFunc(out, func(a, b Submission) int {
		return b.SubmittedAt.Compare(a.SubmittedAt)
	})

	return out, nil
}

func matches(s *Submission, p ListParams, search string) bool {
	if p.Status != "" && s.Status != p.Status {
		return false
	}
	if p.Package != "" && s.Package != p.Package {
		return false
	}
	if p.StartDate != nil && s.SubmittedAt.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && s.SubmittedAt.After(*p.EndDate) {
		return false
	}
	if search != "" {
		return strings.Contains(strings.ToLower(s.Name), search) ||
			strings.Contains(strings.ToLower(s.Email), search) ||
			strings.Contains(strings.ToLower(s.BusinessName), search)
	}
	return true
}

func (r *repository) GetByID(ctx context.Context, id string) (*Submission, error) {
	all, err := r.submissions.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}

	return nil, fmt.Errorf("get submission: %w", core.ErrNotFound)
}

func (r *repository) Create(ctx context.Context, sub *Submission) error {
	err := r.submissions.Modify(ctx, func(all []Submission) ([]Submission, error) {
		return append(all, *sub), nil
	})
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	patch Patch,
) (*Submission, error) {
	var updated Submission

	err := r.submissions.Modify(ctx, func(all []Submission) ([]Submission, error) {
		idx := slices.IndexFunc(all, func(s Submission) bool { return s.ID == id })
		if idx < 0 {
			return nil, core.ErrNotFound
		}

		merged, err := mergePatch(all[idx], patch)
		if err != nil {
			return nil, err
		}

		all[idx] = merged
		updated = merged
		return all, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}

	return &updated, nil
}

// mergePatch overlays the patch onto the record's JSON form. Keys the record
// does not have are ignored, and so are id and submitted_at.
func mergePatch(current Submission, patch Patch) (Submission, error) {
	base, err := json.Marshal(current)
	if err != nil {
		return Submission{}, fmt.Errorf("encode submission: %w", err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &fields); err != nil {
		return Submission{}, fmt.Errorf("decode submission: %w", err)
	}

	for key, value := range patch {
		if slices.Contains(immutableFields, key) {
			continue
		}
		if _, known := fields[key]; !known {
			continue
		}
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return Submission{}, fmt.Errorf("encode merged submission: %w", err)
	}

	var out Submission
	if err := json.Unmarshal(merged, &out); err != nil {
		return Submission{}, fmt.Errorf("%w: %s", core.ErrInvalidInput, err.Error())
	}

	return out, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	err := r.submissions.Modify(ctx, func(all []Submission) ([]Submission, error) {
		idx := slices.IndexFunc(all, func(s Submission) bool { return s.ID == id })
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		return slices.Delete(all, idx, idx+1), nil
	})
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}

func (r *repository) CountBy(ctx context.Context) (*Counts, error) {
	all, err := r.submissions.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	counts := &Counts{
		Total:     len(all),
		ByStatus:  make(map[string]int, len(Statuses)),
		ByPackage: make(map[string]int, len(Packages)),
	}
	for _, s := range Statuses {
		counts.ByStatus[s] = 0
	}
	for _, p := range Packages {
		counts.ByPackage[p] = 0
	}

	for _, s := range all {
		counts.ByStatus[s.Status]++
		counts.ByPackage[s.Package]++
	}

	return counts, nil
}
