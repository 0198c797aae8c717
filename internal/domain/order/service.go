package order

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/internal/domain/menu"
	"github.com/xenking/pizzeria-api/pkg/randstr"
)

// Config holds the pricing and authorization parameters for the pipeline.
type Config struct {
	// MinimumCharge is the smallest amount the payment provider accepts, in
	// minor units.
	MinimumCharge int64
	// AcceptedSources is the allow-list of payment source tokens.
	AcceptedSources []string
	// AppName is used in receipt subjects.
	AppName string
}

// PlaceOrderRequest is a validated order-placement request.
type PlaceOrderRequest struct {
	Email   string
	Source  string
	TokenID string
}

// PlaceOrderResult reports the placed order and the stage the pipeline
// reached. Stage is StageComplete on full success; on a partial failure the
// result is returned alongside the PartialFailureError so callers still see
// the committed order.
type PlaceOrderResult struct {
	Order *Order
	Stage Stage
}

// Service runs the order-placement pipeline and order lookups.
type Service struct {
	users    identity.Repository
	menus    menu.Repository
	orders   Repository
	tokens   TokenVerifier
	payment  PaymentGateway
	notifier NotificationGateway
	cfg      Config

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(
	users identity.Repository,
	menus menu.Repository,
	orders Repository,
	tokens TokenVerifier,
	payment PaymentGateway,
	notifier NotificationGateway,
	cfg Config,
) *Service {
	return &Service{
		users:    users,
		menus:    menus,
		orders:   orders,
		tokens:   tokens,
		payment:  payment,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// PlaceOrder drives the pipeline through its stages in strict forward order:
//
//	AuthPending -> Authorized -> Priced -> OrderPersisted -> UserUpdated ->
//	PaymentSettled -> NotificationSent -> Complete
//
// Failures before OrderPersisted reject the request with no state written.
// Failures at or after UserUpdated return a PartialFailureError: the order
// record (and, depending on the stage, the user update) is committed and is
// never deleted here. Durable writes are ordered before the charge so a crash
// mid-pipeline can leave an order uncharged but never a charge unrecorded.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	// AuthPending -> Authorized.
	if !slices.Contains(s.cfg.AcceptedSources, req.Source) {
		return nil, ErrInvalidSource
	}
	if !s.tokens.Verify(ctx, req.TokenID, req.Email) {
		return nil, ErrUnauthorized
	}

	// Authorized -> Priced.
	u, err := s.users.Get(ctx, req.Email)
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	if len(u.Cart) == 0 {
		return nil, ErrEmptyCart
	}
	m, err := s.menus.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load menu")
	}

	priced, err := Price(u.Cart, m, s.cfg.MinimumCharge)
	if err != nil {
		return nil, err
	}

	// Priced -> OrderPersisted.
	id, err := randstr.New(IDLength)
	if err != nil {
		return nil, errors.Wrap(err, "generate order id")
	}
	o := &Order{
		ID:        id,
		Email:     req.Email,
		Source:    req.Source,
		Cart:      u.Cart,
		Amount:    priced.Amount,
		Lines:     priced.Lines,
		CreatedAt: s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Fatal for this attempt; the caller may retry from Priced with a
			// fresh id by re-issuing the request.
			return nil, ErrIDCollision
		}
		return nil, errors.Wrap(err, "persist order")
	}

	// OrderPersisted -> UserUpdated: record the order id and clear the cart.
	// From here on failures are partial: the order record stays.
	u.Orders = append(u.Orders, o.ID)
	u.Cart = nil
	if err := s.users.Update(ctx, u); err != nil {
		return &PlaceOrderResult{Order: o, Stage: StageOrderPersisted},
			&PartialFailureError{Stage: StageUserUpdated, Err: err}
	}

	// UserUpdated -> PaymentSettled. The order is committed but unpaid if the
	// charge fails; it is not voided.
	if err := s.payment.Charge(ctx, o.Email, o.Amount, o.Source); err != nil {
		return &PlaceOrderResult{Order: o, Stage: StageUserUpdated},
			&PartialFailureError{Stage: StagePaymentSettled, Err: err}
	}

	// PaymentSettled -> NotificationSent. The order is placed and paid even
	// when the receipt cannot be delivered.
	subject := s.cfg.AppName + " - Your order has been processed successfully"
	if err := s.notifier.Send(ctx, o.Email, subject, receiptBody(u.FirstName, o)); err != nil {
		return &PlaceOrderResult{Order: o, Stage: StagePaymentSettled},
			&PartialFailureError{Stage: StageNotificationSent, Err: err}
	}

	return &PlaceOrderResult{Order: o, Stage: StageComplete}, nil
}

// Get returns the order if the token is bound to the order's owner.
func (s *Service) Get(ctx context.Context, orderID, tokenID string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.tokens.Verify(ctx, tokenID, o.Email) {
		return nil, ErrUnauthorized
	}
	return o, nil
}

// receiptBody renders the order confirmation mail body.
func receiptBody(firstName string, o *Order) string {
	var b strings.Builder
	b.WriteString("Dear ")
	b.WriteString(firstName)
	b.WriteString(",\nThank you for visiting us and making purchase!\nOrder details: ")
	b.WriteString(strings.Join(o.Lines, ", "))
	b.WriteString(".\nAmount: $")
	b.WriteString(formatMinorUnits(o.Amount))
	return b.String()
}
