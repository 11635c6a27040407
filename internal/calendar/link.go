// AngelaMos | 2026
// link.go

package calendar

import (
	"net/url"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/config"
)

const TypeCalendly = "calendly"

// Linker builds the booking link shown after a submission. Calendly links
// are prefilled with the contact details; other providers get the bare URL.
type Linker struct {
	kind    string
	baseURL string
}

func NewLinker(cfg config.CalendarConfig) *Linker {
	return &Linker{kind: cfg.Type, baseURL: cfg.URL}
}

func (l *Linker) Link(name, email, businessName, pkg string) string {
	if l.kind != TypeCalendly {
		return l.baseURL
	}

	u, err := url.Parse(l.baseURL)
	if err != nil {
		return l.baseURL
	}

	q := u.Query()
	q.Set("name", name)
	q.Set("email", email)
	q.Set("a1", businessName)
	q.Set("a2", pkg)
	u.RawQuery = q.Encode()

	return u.String()
}
