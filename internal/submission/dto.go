// AngelaMos | 2026
// dto.go

package submission

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
)

const dateOnly = "2006-01-02"

// CreateRequest is the public intake form. Server-owned fields such as id,
// status and submitted_at are not part of it, so values sent for them are
// dropped during decoding.
type CreateRequest struct {
	BusinessName string `json:"business_name" validate:"required,max=200"`
	Name         string `json:"name"          validate:"required,max=200"`
	Email        string `json:"email"         validate:"required,email,max=255"`
	Phone        string `json:"phone"         validate:"max=50"`
	Country      string `json:"country"`
	Language     string `json:"language"`
	Package      string `json:"package"       validate:"required,oneof=starter growth pro-max"`

	BusinessDescription string   `json:"business_description"`
	Industry            string   `json:"industry"`
	HasExistingWebsite  bool     `json:"has_existing_website"`
	ExistingWebsiteURL  string   `json:"existing_website_url"`
	Goals               []string `json:"goals"`
	IdealCustomer       string   `json:"ideal_customer"`
	HasBranding         bool     `json:"has_branding"`
	BrandingDetails     string   `json:"branding_details"`
	BiggestChallenge    string   `json:"biggest_challenge"`
	Timeline            string   `json:"timeline"`
	BrandColors         string   `json:"brand_colors"`
	References          string   `json:"references"`

	PreferredContact string `json:"preferred_contact" validate:"omitempty,oneof=email phone video-call"`
	BestTime         string `json:"best_time"`
	Timezone         string `json:"timezone"`
	AdditionalNotes  string `json:"additional_notes"`

	UnderstandsPricing   bool `json:"understands_pricing"`
	ReadyToDiscuss       bool `json:"ready_to_discuss"`
	AcceptsPrivacyPolicy bool `json:"accepts_privacy_policy"`
	WantsUpdates         bool `json:"wants_updates"`
}

func (r CreateRequest) toSubmission() Submission {
	return Submission{
		BusinessName:         r.BusinessName,
		Name:                 r.Name,
		Email:                r.Email,
		Phone:                r.Phone,
		Country:              r.Country,
		Language:             r.Language,
		Package:              r.Package,
		BusinessDescription:  r.BusinessDescription,
		Industry:             r.Industry,
		HasExistingWebsite:   r.HasExistingWebsite,
		ExistingWebsiteURL:   r.ExistingWebsiteURL,
		Goals:                r.Goals,
		IdealCustomer:        r.IdealCustomer,
		HasBranding:          r.HasBranding,
		BrandingDetails:      r.BrandingDetails,
		BiggestChallenge:     r.BiggestChallenge,
		Timeline:             r.Timeline,
		BrandColors:          r.BrandColors,
		References:           r.References,
		PreferredContact:     r.PreferredContact,
		BestTime:             r.BestTime,
		Timezone:             r.Timezone,
		AdditionalNotes:      r.AdditionalNotes,
		UnderstandsPricing:   r.UnderstandsPricing,
		ReadyToDiscuss:       r.ReadyToDiscuss,
		AcceptsPrivacyPolicy: r.AcceptsPrivacyPolicy,
		WantsUpdates:         r.WantsUpdates,
	}
}

// CreatedResponse is the stored submission plus the booking link shown on
// the confirmation page.
type CreatedResponse struct {
	Submission
	CalendarLink string `json:"calendarLink"`
}

// Patch is a partial submission keyed by JSON field name. Merging replaces
// whole top-level fields.
type Patch map[string]json.RawMessage

var immutableFields = []string{"id", "submitted_at"}

func (p Patch) stringField(key string) (string, bool, error) {
	raw, ok := p[key]
	if !ok {
		return "", false, nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", true, fmt.Errorf("%s must be a string: %w", key, core.ErrInvalidInput)
	}
	return v, true, nil
}

// Validate checks enum fields present in the patch.
func (p Patch) Validate() error {
	status, ok, err := p.stringField("status")
	if err != nil {
		return err
	}
	if ok && !ValidStatus(status) {
		return fmt.Errorf("invalid status %q: %w", status, core.ErrInvalidInput)
	}

	pkg, ok, err := p.stringField("package")
	if err != nil {
		return err
	}
	if ok && !ValidPackage(pkg) {
		return fmt.Errorf("invalid package %q: %w", pkg, core.ErrInvalidInput)
	}

	return nil
}

type ListParams struct {
	Status    string
	Package   string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// ParseDate accepts RFC 3339 timestamps or YYYY-MM-DD dates. A date-only
// upper bound is widened to the last instant of that day (UTC).
func ParseDate(value string, upperBound bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}

	t, err := time.Parse(dateOnly, value)
	if err != nil {
		return nil, fmt.Errorf(
			"invalid date %q, expected RFC 3339 or YYYY-MM-DD: %w",
			value,
			core.ErrInvalidInput,
		)
	}

	if upperBound {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// Counts backs the admin dashboard tiles.
type Counts struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	ByPackage map[string]int `json:"by_package"`
}
