// AngelaMos | 2026
// entity.go

package submission

import (
	"time"
)

const Collection = "submissions"

const (
	StatusNew        = "new"
	StatusContacted  = "contacted"
	StatusScheduled  = "scheduled"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
)

const (
	PackageStarter = "starter"
	PackageGrowth  = "growth"
	PackageProMax  = "pro-max"
)

var (
	Statuses = []string{
		StatusNew,
		StatusContacted,
		StatusScheduled,
		StatusInProgress,
		StatusCompleted,
		StatusRejected,
	}
	Packages = []string{PackageStarter, PackageGrowth, PackageProMax}
)

// Submission is one intake form. ID and SubmittedAt never change after
// creation.
type Submission struct {
	ID string `json:"id"`

	BusinessName string `json:"business_name"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Country      string `json:"country"`
	Language     string `json:"language"`
	Package      string `json:"package"`

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

	PreferredContact string `json:"preferred_contact"`
	BestTime         string `json:"best_time"`
	Timezone         string `json:"timezone"`
	AdditionalNotes  string `json:"additional_notes"`

	UnderstandsPricing   bool `json:"understands_pricing"`
	ReadyToDiscuss       bool `json:"ready_to_discuss"`
	AcceptsPrivacyPolicy bool `json:"accepts_privacy_policy"`
	WantsUpdates         bool `json:"wants_updates"`

	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	Notes       string     `json:"notes"`
}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

func ValidPackage(p string) bool {
	for _, v := range Packages {
		if v == p {
			return true
		}
	}
	return false
}
