// AngelaMos | 2026
// mailchimp.go

package notification

import (
	"context"
	"crypto/md5" //nolint:gosec // G501: Mailchimp keys members by MD5 of the email
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hanzoai/gochimp3"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/config"
)

const mailchimpTimeout = 10 * time.Second

// Member is one mailing-list contact.
type Member struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Business  string
	Tags      []string
}

type ListClient interface {
	Enabled() bool
	Upsert(ctx context.Context, m Member) error
}

// MailchimpClient syncs members into one Mailchimp audience.
type MailchimpClient struct {
	cfg config.MailchimpConfig
	api *gochimp3.API
}

// NewMailchimpClient derives the API datacenter from the key suffix unless
// server_prefix overrides it.
func NewMailchimpClient(cfg config.MailchimpConfig) *MailchimpClient {
	c := &MailchimpClient{cfg: cfg}
	if cfg.APIKey == "" {
		return c
	}

	if cfg.ServerPrefix != "" {
		c.api = gochimp3.New(cfg.APIKey + "-" + cfg.ServerPrefix)
		c.api.Key = cfg.APIKey
	} else {
		c.api = gochimp3.New(cfg.APIKey)
	}
	c.api.Timeout = mailchimpTimeout
	return c
}

func (c *MailchimpClient) Enabled() bool {
	return c.cfg.Enabled() && c.api != nil
}

type memberRequest struct {
	EmailAddress string            `json:"email_address"`
	StatusIfNew  string            `json:"status_if_new"`
	MergeFields  map[string]string `json:"merge_fields"`
}

type memberResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type tag struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type tagsRequest struct {
	Tags []tag `json:"tags"`
}

// Upsert creates or updates the member and then applies its tags. Existing
// subscribers keep their subscription status.
func (c *MailchimpClient) Upsert(ctx context.Context, m Member) error {
	if !c.Enabled() {
		return errors.New("mailchimp not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	memberPath := fmt.Sprintf(
		"/lists/%s/members/%s",
		c.cfg.ListID,
		subscriberHash(m.Email),
	)

	var member memberResponse
	err := c.api.Request(http.MethodPut, memberPath, nil, &memberRequest{
		EmailAddress: m.Email,
		StatusIfNew:  "subscribed",
		MergeFields: map[string]string{
			"FNAME":    m.FirstName,
			"LNAME":    m.LastName,
			"PHONE":    m.Phone,
			"BUSINESS": m.Business,
		},
	}, &member)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}

	if len(m.Tags) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tags := make([]tag, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, tag{Name: t, Status: "active"})
	}

	err = c.api.Request(http.MethodPost, memberPath+"/tags", nil, &tagsRequest{Tags: tags}, nil)
	if err != nil {
		return fmt.Errorf("tag member: %w", err)
	}
	return nil
}

func subscriberHash(email string) string {
	//nolint:gosec // G401: required by the Mailchimp API, not used for security
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// splitName puts the first word in FNAME and the remainder in LNAME.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
