// AngelaMos | 2026
// dispatcher.go

package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/metrics"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/submission"
)

const (
	KindConfirmation = "confirmation_email"
	KindOperator     = "operator_email"
	KindMailingList  = "mailing_list"
)

var tracer = otel.Tracer("github.com/BeCreativeRuben/StudioThielmanV2/internal/notification")

type DispatcherConfig struct {
	OperatorEmail string
	FrontendURL   string
}

// Dispatcher fans a new submission out to the confirmation email, the
// operator email and the mailing list. Each task runs in its own goroutine
// and its failure is logged and counted, never returned.
type Dispatcher struct {
	mailer    Mailer
	list      ListClient
	templates *TemplateStore
	cfg       DispatcherConfig
	logger    *slog.Logger

	wg sync.WaitGroup
}

func NewDispatcher(
	mailer Mailer,
	list ListClient,
	templates *TemplateStore,
	cfg DispatcherConfig,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		mailer:    mailer,
		list:      list,
		templates: templates,
		cfg:       cfg,
		logger:    logger,
	}
}

// SubmissionCreated returns immediately. The tasks keep running after the
// request that triggered them has finished.
func (d *Dispatcher) SubmissionCreated(
	ctx context.Context,
	sub submission.Submission,
	calendarLink string,
) {
	ctx = context.WithoutCancel(ctx)

	d.spawn(ctx, KindConfirmation, sub.ID, func(ctx context.Context) (bool, error) {
		return true, d.sendConfirmation(ctx, sub, calendarLink)
	})
	d.spawn(ctx, KindOperator, sub.ID, func(ctx context.Context) (bool, error) {
		return true, d.sendOperatorAlert(ctx, sub)
	})
	d.spawn(ctx, KindMailingList, sub.ID, func(ctx context.Context) (bool, error) {
		return d.addToList(ctx, sub)
	})
}

// Wait blocks until every task started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) spawn(
	ctx context.Context,
	kind, submissionID string,
	task func(ctx context.Context) (bool, error),
) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, span := tracer.Start(ctx, "notification."+kind,
			trace.WithAttributes(attribute.String("submission.id", submissionID)),
		)
		defer span.End()

		ran, err := runGuarded(ctx, task)
		outcome := metrics.OutcomeSuccess
		switch {
		case err != nil:
			outcome = metrics.OutcomeFailure
			core.SetSpanError(ctx, err)
			d.logger.ErrorContext(ctx, "notification failed",
				"kind", kind,
				"submission_id", submissionID,
				"error", err,
			)
		case !ran:
			outcome = metrics.OutcomeSkipped
		}
		metrics.Notifications.WithLabelValues(kind, outcome).Inc()
	}()
}

func runGuarded(
	ctx context.Context,
	task func(ctx context.Context) (bool, error),
) (ran bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			ran, err = true, fmt.Errorf("panic: %v", p)
		}
	}()
	return task(ctx)
}

type confirmationData struct {
	Submission   submission.Submission
	CalendarLink string
}

type operatorData struct {
	Submission submission.Submission
	AdminLink  string
}

func (d *Dispatcher) sendConfirmation(
	ctx context.Context,
	sub submission.Submission,
	calendarLink string,
) error {
	body, err := d.templates.Render(TemplateConfirmation, confirmationData{
		Submission:   sub,
		CalendarLink: calendarLink,
	})
	if err != nil {
		return err
	}

	return d.mailer.Send(ctx, Email{
		To:      sub.Email,
		Subject: "We got your info! Next step: book a call",
		HTML:    body,
	})
}

func (d *Dispatcher) sendOperatorAlert(
	ctx context.Context,
	sub submission.Submission,
) error {
	if d.cfg.OperatorEmail == "" {
		return fmt.Errorf("no operator address configured")
	}

	body, err := d.templates.Render(TemplateOperator, operatorData{
		Submission: sub,
		AdminLink:  d.AdminLink(sub.ID),
	})
	if err != nil {
		return err
	}

	return d.mailer.Send(ctx, Email{
		To:      d.cfg.OperatorEmail,
		Subject: fmt.Sprintf("New submission from %s - %s", sub.Name, sub.Package),
		HTML:    body,
	})
}

func (d *Dispatcher) AdminLink(submissionID string) string {
	return strings.TrimSuffix(d.cfg.FrontendURL, "/") + "/admin/submissions/" + submissionID
}

func (d *Dispatcher) addToList(
	ctx context.Context,
	sub submission.Submission,
) (bool, error) {
	if d.list == nil || !d.list.Enabled() {
		return false, nil
	}

	first, last := splitName(sub.Name)
	err := d.list.Upsert(ctx, Member{
		Email:     sub.Email,
		FirstName: first,
		LastName:  last,
		Phone:     sub.Phone,
		Business:  sub.BusinessName,
		Tags:      []string{sub.Package},
	})
	return true, err
}

var _ submission.Notifier = (*Dispatcher)(nil)
