package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MailgunConfig configures the Mailgun messages client.
type MailgunConfig struct {
	Domain  string
	APIKey  string
	Sender  string
	BaseURL string
	Timeout time.Duration
}

// MailgunGateway delivers mail through the Mailgun messages API.
type MailgunGateway struct {
	cfg    MailgunConfig
	client *http.Client
}

// NewMailgunGateway creates a MailgunGateway. BaseURL defaults to the public
// Mailgun endpoint, Timeout to 15s.
func NewMailgunGateway(cfg MailgunConfig) *MailgunGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mailgun.net"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &MailgunGateway{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
	}
}

// Send posts a plain-text message to email. A non-2xx response fails with a
// GatewayError carrying the status.
func (g *MailgunGateway) Send(ctx context.Context, email, subject, body string) error {
	form := url.Values{}
	form.Set("from", g.cfg.Sender)
	form.Set("to", email)
	form.Set("subject", subject)
	form.Set("text", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/v3/"+g.cfg.Domain+"/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return &GatewayError{Provider: "mailgun", Err: err}
	}
	req.SetBasicAuth("api", g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return &GatewayError{Provider: "mailgun", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &GatewayError{Provider: "mailgun", Status: resp.StatusCode}
	}
	return nil
}
