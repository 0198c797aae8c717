package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// StripeConfig configures the Stripe charges client.
type StripeConfig struct {
	SecretKey string
	Currency  string
	BaseURL   string
	Timeout   time.Duration
}

// StripeGateway captures charges through the Stripe charges API.
type StripeGateway struct {
	cfg    StripeConfig
	client *http.Client
}

// NewStripeGateway creates a StripeGateway. BaseURL defaults to the public
// Stripe endpoint, Timeout to 15s.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &StripeGateway{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
	}
}

// Charge posts a charge for amount minor units against the given source, with
// the receipt sent to email. A non-2xx response fails with a GatewayError
// carrying the status; no retry is attempted.
func (g *StripeGateway) Charge(ctx context.Context, email string, amount int64, source string) error {
	if amount <= 0 {
		return &GatewayError{Provider: "stripe", Err: errors.Errorf("non-positive amount %d", amount)}
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", g.cfg.Currency)
	form.Set("source", source)
	form.Set("receipt_email", email)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return &GatewayError{Provider: "stripe", Err: err}
	}
	req.SetBasicAuth(g.cfg.SecretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return &GatewayError{Provider: "stripe", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &GatewayError{Provider: "stripe", Status: resp.StatusCode}
	}
	return nil
}
