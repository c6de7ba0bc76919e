package report

import (
	"context"
	"fmt"

	"resty.dev/v3"

	"stocksync/internal/ratelimit"
)

// Mailer delivers report emails through the Resend HTTP API.
type Mailer struct {
	client *resty.Client
	from   string
	to     []string
}

// NewMailer creates a Resend mailer. baseURL is configurable for testing.
func NewMailer(apiKey, baseURL, from string, to []string) *Mailer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &Mailer{
		client: client,
		from:   from,
		to:     to,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts one email. A failed send is an error for the caller to log;
// it never affects the run statistics.
func (m *Mailer) Send(ctx context.Context, subject, html string) error {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIResend); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(sendRequest{
			From:    m.from,
			To:      m.to,
			Subject: subject,
			HTML:    html,
		}).
		Post("/emails")

	if err != nil {
		return fmt.Errorf("send report email: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("resend API returned status %d", resp.StatusCode())
	}
	return nil
}
