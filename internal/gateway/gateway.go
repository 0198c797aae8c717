// Package gateway contains clients for the external payment and notification
// providers. Providers are modeled only through their request/response
// contract; every failure is wrapped in a GatewayError carrying the provider
// name and, when available, the HTTP status.
package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// GatewayError reports a provider failure.
type GatewayError struct {
	Provider string
	Status   int
	Err      error
}

func (e *GatewayError) Error() string {
	msg := e.Provider + " gateway error"
	if e.Status != 0 {
		msg += ": status " + strconv.Itoa(e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// newHTTPClient returns the instrumented HTTP client shared by the provider
// clients. External calls get an explicit timeout; the pipeline itself does
// not enforce one.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NopPayment approves every charge without calling any provider. Used in
// local development when no payment credentials are configured.
type NopPayment struct {
	lg *zap.Logger
}

// NewNopPayment creates a NopPayment logging each accepted charge.
func NewNopPayment(lg *zap.Logger) *NopPayment {
	return &NopPayment{lg: lg}
}

func (p *NopPayment) Charge(_ context.Context, email string, amount int64, source string) error {
	p.lg.Info("payment accepted (nop gateway)",
		zap.String("email", email),
		zap.Int64("amount", amount),
		zap.String("source", source),
	)
	return nil
}

// NopNotifier drops every message. Used in local development when no mail
// credentials are configured.
type NopNotifier struct {
	lg *zap.Logger
}

// NewNopNotifier creates a NopNotifier logging each dropped message.
func NewNopNotifier(lg *zap.Logger) *NopNotifier {
	return &NopNotifier{lg: lg}
}

func (n *NopNotifier) Send(_ context.Context, email, subject, _ string) error {
	n.lg.Info("notification dropped (nop gateway)",
		zap.String("email", email),
		zap.String("subject", subject),
	)
	return nil
}
