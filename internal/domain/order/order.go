// Package order implements the order-placement pipeline: authorization,
// pricing, persistence, payment capture, and notification.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// IDLength is the length of generated order ids.
const IDLength = 20

// Order is an immutable record of a priced order. Its existence does not
// guarantee the payment succeeded; see PartialFailureError.
type Order struct {
	ID        string         `json:"orderId"`
	Email     string         `json:"email"`
	Source    string         `json:"source"`
	Cart      map[string]int `json:"cart"`
	Amount    int64          `json:"amount"`
	Lines     []string       `json:"lineDescriptions"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Repository defines persistence operations for orders. Orders are created
// once and never mutated.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
}

// Stage is one step of the order-placement pipeline. Stages advance strictly
// forward; a committed stage is never rolled back by a later failure.
type Stage string

const (
	StageAuthPending      Stage = "auth_pending"
	StageAuthorized       Stage = "authorized"
	StagePriced           Stage = "priced"
	StageOrderPersisted   Stage = "order_persisted"
	StageUserUpdated      Stage = "user_updated"
	StagePaymentSettled   Stage = "payment_settled"
	StageNotificationSent Stage = "notification_sent"
	StageComplete         Stage = "complete"
)

// Sentinel errors for rejections before any durable state is written.
var (
	ErrNotFound      = errors.New("order not found")
	ErrAlreadyExists = errors.New("order already exists")
	ErrUnauthorized  = errors.New("token missing, invalid, or bound to another identity")
	ErrInvalidSource = errors.New("payment source not accepted")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrIDCollision   = errors.New("order id collision")
)

// UnknownItemError indicates a cart entry references an item absent from the
// menu.
type UnknownItemError struct {
	ItemID string
}

func (e *UnknownItemError) Error() string {
	return "menu item " + e.ItemID + " not found"
}

// BelowMinimumError indicates the computed amount is below the configured
// minimum charge.
type BelowMinimumError struct {
	Amount  int64
	Minimum int64
}

func (e *BelowMinimumError) Error() string {
	return errors.Errorf("amount %d below minimum charge %d", e.Amount, e.Minimum).Error()
}

// PartialFailureError reports a pipeline failure at or after order
// persistence: durable state from earlier stages is committed and must not be
// assumed rolled back. Operators reconcile these out of band.
type PartialFailureError struct {
	Stage Stage
	Err   error
}

func (e *PartialFailureError) Error() string {
	return "pipeline stage " + string(e.Stage) + " failed: " + e.Err.Error()
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// PaymentGateway captures a charge against a payment source. Amount is in the
// smallest currency unit.
type PaymentGateway interface {
	Charge(ctx context.Context, email string, amount int64, source string) error
}

// NotificationGateway delivers a message to the customer.
type NotificationGateway interface {
	Send(ctx context.Context, email, subject, body string) error
}

// TokenVerifier reports whether a token is valid for the given identity.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenID, email string) bool
}
