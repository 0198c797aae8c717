package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/internal/domain/menu"
)

// --- Mock implementations ---

type mockUserRepo struct {
	byEmail   map[string]*identity.User
	updateErr error
	updates   int
}

func (m *mockUserRepo) Create(_ context.Context, u *identity.User) error {
	m.byEmail[u.Email] = u
	return nil
}

func (m *mockUserRepo) Get(_ context.Context, email string) (*identity.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) Update(_ context.Context, u *identity.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	m.byEmail[u.Email] = u
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, email string) error {
	delete(m.byEmail, email)
	return nil
}

type mockMenuRepo struct {
	menu menu.Menu
	err  error
}

func (m *mockMenuRepo) Get(_ context.Context) (menu.Menu, error) {
	return m.menu, m.err
}

func (m *mockMenuRepo) Put(_ context.Context, _ menu.Menu) error {
	return nil
}

type mockOrderRepo struct {
	byID      map[string]*Order
	createErr error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

type mockVerifier struct {
	validToken string
	validEmail string
}

func (m *mockVerifier) Verify(_ context.Context, tokenID, email string) bool {
	return tokenID == m.validToken && email == m.validEmail
}

type mockPayment struct {
	charges []int64
	err     error
}

func (m *mockPayment) Charge(_ context.Context, _ string, amount int64, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.charges = append(m.charges, amount)
	return nil
}

type mockNotifier struct {
	sent []string
	err  error
}

func (m *mockNotifier) Send(_ context.Context, _, _, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, body)
	return nil
}

// --- Helpers ---

const (
	testEmail = "alice@example.com"
	testToken = "tokentokentokentoken"
)

type fixture struct {
	svc      *Service
	users    *mockUserRepo
	orders   *mockOrderRepo
	payment  *mockPayment
	notifier *mockNotifier
}

func newFixture(cart map[string]int) *fixture {
	f := &fixture{
		users: &mockUserRepo{byEmail: map[string]*identity.User{
			testEmail: {Email: testEmail, FirstName: "Alice", Cart: cart},
		}},
		orders:   &mockOrderRepo{byID: make(map[string]*Order)},
		payment:  &mockPayment{},
		notifier: &mockNotifier{},
	}
	f.svc = NewService(
		f.users,
		&mockMenuRepo{menu: menu.Menu{
			"margherita": {ID: "margherita", Name: "Margherita", Price: 500},
		}},
		f.orders,
		&mockVerifier{validToken: testToken, validEmail: testEmail},
		f.payment,
		f.notifier,
		Config{MinimumCharge: 10, AcceptedSources: []string{"tok_visa"}, AppName: "Pizzeria"},
	)
	return f
}

func placeRequest() PlaceOrderRequest {
	return PlaceOrderRequest{Email: testEmail, Source: "tok_visa", TokenID: testToken}
}

// --- Tests ---

func TestPlaceOrder_Complete(t *testing.T) {
	f := newFixture(map[string]int{"margherita": 2})

	result, err := f.svc.PlaceOrder(context.Background(), placeRequest())
	require.NoError(t, err)

	assert.Equal(t, StageComplete, result.Stage)
	assert.Equal(t, int64(1000), result.Order.Amount)
	assert.Len(t, result.Order.ID, IDLength)
	assert.Len(t, result.Order.Lines, 2)

	// Order persisted exactly once.
	assert.Len(t, f.orders.byID, 1)

	// User history updated, cart cleared.
	u := f.users.byEmail[testEmail]
	assert.Equal(t, []string{result.Order.ID}, u.Orders)
	assert.Empty(t, u.Cart)

	// Gateways called with the priced amount.
	assert.Equal(t, []int64{1000}, f.payment.charges)
	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "Dear Alice")
	assert.Contains(t, f.notifier.sent[0], "Margherita $5")
	assert.Contains(t, f.notifier.sent[0], "Amount: $10")
}

func TestPlaceOrder_PaymentFailure(t *testing.T) {
	f := newFixture(map[string]int{"margherita": 2})
	f.payment.err = errors.New("card declined")

	result, err := f.svc.PlaceOrder(context.Background(), placeRequest())

	var pfErr *PartialFailureError
	require.ErrorAs(t, err, &pfErr)
	assert.Equal(t, StagePaymentSettled, pfErr.Stage)

	// The order record stays and is retrievable.
	require.NotNil(t, result)
	assert.Equal(t, StageUserUpdated, result.Stage)
	stored, getErr := f.orders.Get(context.Background(), result.Order.ID)
	require.NoError(t, getErr)
	assert.Equal(t, int64(1000), stored.Amount)

	// Cart was already cleared; no notification went out.
	assert.Empty(t, f.users.byEmail[testEmail].Cart)
	assert.Empty(t, f.notifier.sent)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.PlaceOrder(context.Background(), placeRequest())
	require.ErrorIs(t, err, ErrEmptyCart)

	// Nothing written, no gateway touched.
	assert.Empty(t, f.orders.byID)
	assert.Empty(t, f.payment.charges)
	assert.Empty(t, f.notifier.sent)
	assert.Zero(t, f.users.updates)
}

func TestPlaceOrder_InvalidToken(t *testing.T) {
	f := newFixture(map[string]int{"margherita": 2})

	req := placeRequest()
	req.TokenID = "wrong"
	_, err := f.svc.PlaceOrder(context.Background(), req)

	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, f.orders.byID)
}

func TestPlaceOrder_UnacceptedSource(t *testing.T) {
	f := newFixture(map[string]int{"margherita": 2})

	req := placeRequest()
	req.Source = "tok_stolen"
	_, err := f.svc.PlaceOrder(context.Background(), req)

	require.ErrorIs(t, err, ErrInvalidSource)
}

func TestPlaceOrder_IDCollision(t *testing.T) {
	f := newFixture(map[string]int{"margherita": 2})
	f.orders.createErr = ErrAlreadyExists

	_, err := f.svc.PlaceOrder(context.Background(), placeRequest())
	require.ErrorIs(t, err, ErrIDCollision)

	// Cart untouched: the user update never ran.
	assert.Equal(t, map[string]int{"margherita": 2}, f.users.byEmail[testEmail].Cart)
}

func TestPlaceOrder_UserUpdateFailure(t *testing.T) {
	f := newFixture(map[string]int{"margherita": 2})
	f.users.updateErr = errors.New("disk full")

	result, err := f.svc.PlaceOrder(context.Background(), placeRequest())

	var pfErr *PartialFailureError
	require.ErrorAs(t, err, &pfErr)
	assert.Equal(t, StageUserUpdated, pfErr.Stage)

	// Order exists but the user still has the cart: the known reconciliation
	// case.
	require.NotNil(t, result)
	assert.Len(t, f.orders.byID, 1)
	assert.Equal(t, map[string]int{"margherita": 2}, f.users.byEmail[testEmail].Cart)
	assert.Empty(t, f.payment.charges)
}

func TestPlaceOrder_NotificationFailure(t *testing.T) {
	f := newFixture(map[string]int{"margherita": 2})
	f.notifier.err = errors.New("smtp down")

	result, err := f.svc.PlaceOrder(context.Background(), placeRequest())

	var pfErr *PartialFailureError
	require.ErrorAs(t, err, &pfErr)
	assert.Equal(t, StageNotificationSent, pfErr.Stage)

	// Payment went through; the order counts as placed.
	require.NotNil(t, result)
	assert.Equal(t, StagePaymentSettled, result.Stage)
	assert.Equal(t, []int64{1000}, f.payment.charges)
}

func TestGet_OwnerToken(t *testing.T) {
	f := newFixture(map[string]int{"margherita": 2})

	result, err := f.svc.PlaceOrder(context.Background(), placeRequest())
	require.NoError(t, err)

	o, err := f.svc.Get(context.Background(), result.Order.ID, testToken)
	require.NoError(t, err)
	assert.Equal(t, result.Order.ID, o.ID)
}

func TestGet_ForeignToken(t *testing.T) {
	f := newFixture(map[string]int{"margherita": 2})

	result, err := f.svc.PlaceOrder(context.Background(), placeRequest())
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), result.Order.ID, "someone-elses-token")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGet_UnknownOrder(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.Get(context.Background(), "nosuchorderid", testToken)
	require.ErrorIs(t, err, ErrNotFound)
}
