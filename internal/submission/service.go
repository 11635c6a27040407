// AngelaMos | 2026
// service.go

package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/metrics"
)

// Notifier receives every newly stored submission. Implementations must not
// block the caller.
type Notifier interface {
	SubmissionCreated(ctx context.Context, sub Submission, calendarLink string)
}

type CalendarLinker interface {
	Link(name, email, businessName, pkg string) string
}

type Service struct {
	repo     Repository
	calendar CalendarLinker
	notifier Notifier
	now      func() time.Time
}

func NewService(
	repo Repository,
	calendar CalendarLinker,
	notifier Notifier,
) *Service {
	return &Service{
		repo:     repo,
		calendar: calendar,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Submission, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Get(ctx context.Context, id string) (*Submission, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores the intake form as a new submission and hands it to the
// notifier once persisted.
func (s *Service) Create(
	ctx context.Context,
	req CreateRequest,
) (*CreatedResponse, error) {
	sub := req.toSubmission()
	sub.ID = uuid.New().String()
	sub.Status = StatusNew
	sub.SubmittedAt = s.now().UTC()

	if err := s.repo.Create(ctx, &sub); err != nil {
		return nil, err
	}
	metrics.SubmissionsCreated.Inc()

	link := s.calendar.Link(sub.Name, sub.Email, sub.BusinessName, sub.Package)

	if s.notifier != nil {
		s.notifier.SubmissionCreated(ctx, sub, link)
	}

	return &CreatedResponse{Submission: sub, CalendarLink: link}, nil
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	patch Patch,
) (*Submission, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	stamp, err := json.Marshal(s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("encode updated_at: %w", err)
	}

	merged := make(Patch, len(patch)+1)
	for k, v := range patch {
		merged[k] = v
	}
	merged["updated_at"] = stamp

	return s.repo.Update(ctx, id, merged)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Counts(ctx context.Context) (*Counts, error) {
	return s.repo.CountBy(ctx)
}
