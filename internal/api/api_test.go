package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/internal/domain/menu"
	"github.com/xenking/pizzeria-api/internal/domain/order"
	"github.com/xenking/pizzeria-api/internal/domain/token"
	"github.com/xenking/pizzeria-api/internal/storage/records"
	"github.com/xenking/pizzeria-api/internal/store"
)

// --- Mock gateways ---

type mockPayment struct {
	charges int
	err     error
}

func (m *mockPayment) Charge(_ context.Context, _ string, _ int64, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.charges++
	return nil
}

type mockNotifier struct {
	sent int
}

func (m *mockNotifier) Send(_ context.Context, _, _, _ string) error {
	m.sent++
	return nil
}

// --- Fixture: full stack over a temp-dir file store ---

type fixture struct {
	srv      *httptest.Server
	payment  *mockPayment
	notifier *mockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewFileStore(ctx, t.TempDir())
	require.NoError(t, err)

	users := records.NewUserRepository(st)
	tokens := records.NewTokenRepository(st)
	menus := records.NewMenuRepository(st)
	orders := records.NewOrderRepository(st)

	require.NoError(t, menus.Put(ctx, menu.Menu{
		"margherita": {ID: "margherita", Name: "Margherita", Price: 500},
		"pepperoni":  {ID: "pepperoni", Name: "Pepperoni", Price: 650},
	}))

	hasher := identity.NewHasher([]byte("test-secret"))
	identitySvc := identity.NewService(users, hasher)
	tokenSvc := token.NewService(tokens, users, hasher, time.Hour)

	f := &fixture{payment: &mockPayment{}, notifier: &mockNotifier{}}
	orderSvc := order.NewService(users, menus, orders, tokenSvc, f.payment, f.notifier, order.Config{
		MinimumCharge:   10,
		AcceptedSources: []string{"tok_visa", "tok_mastercard"},
		AppName:         "Pizzeria",
	})

	h := NewHandler(identitySvc, tokenSvc, orderSvc, menus)
	f.srv = httptest.NewServer(h.Router())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, tokenID string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, f.srv.URL+path, reader)
	require.NoError(t, err)
	if tokenID != "" {
		req.Header.Set("token", tokenID)
	}

	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (f *fixture) register(t *testing.T, email string) {
	t.Helper()
	resp, _ := f.do(t, http.MethodPost, "/users", "", map[string]any{
		"firstName":    "Alice",
		"lastName":     "Smith",
		"email":        email,
		"password":     "hunter2",
		"address":      "1 Main St",
		"tosAgreement": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/tokens", "", map[string]any{
		"email":    email,
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

// --- Tests ---

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	resp, _ := f.do(t, http.MethodPost, "/users", "", map[string]any{
		"firstName":    "Alice",
		"lastName":     "Smith",
		"email":        "alice@example.com",
		"password":     "other",
		"address":      "2 Main St",
		"tosAgreement": true,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegister_MissingFields(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/users", "", map[string]any{
		"email": "bob@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	resp, _ := f.do(t, http.MethodPost, "/tokens", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetUser_RequiresToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	resp, _ := f.do(t, http.MethodGet, "/users?email=alice@example.com", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetUser_HidesPasswordHash(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	tok := f.login(t, "alice@example.com")

	resp, body := f.do(t, http.MethodGet, "/users?email=alice@example.com", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice", body["firstName"])
	assert.NotContains(t, body, "passwordHash")
}

func TestOrderFlow_Complete(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	tok := f.login(t, "alice@example.com")

	resp, _ := f.do(t, http.MethodPost, "/carts?email=alice@example.com", tok, map[string]any{
		"menuItems": map[string]int{"margherita": 2},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/orders", tok, map[string]any{
		"email":  "alice@example.com",
		"source": "tok_visa",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1000), body["amount"])
	orderID := body["orderId"].(string)
	assert.Len(t, orderID, order.IDLength)
	assert.Equal(t, 1, f.payment.charges)
	assert.Equal(t, 1, f.notifier.sent)

	// Cart is cleared and the order id recorded on the user.
	resp, body = f.do(t, http.MethodGet, "/users?email=alice@example.com", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["cart"])
	assert.Equal(t, []any{orderID}, body["orders"])

	// Order is retrievable by its owner.
	resp, body = f.do(t, http.MethodGet, "/orders/"+orderID, tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@example.com", body["email"])
}

func TestOrderFlow_EmptyCart(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	tok := f.login(t, "alice@example.com")

	resp, _ := f.do(t, http.MethodPost, "/orders", tok, map[string]any{
		"email":  "alice@example.com",
		"source": "tok_visa",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, f.payment.charges)
}

func TestOrderFlow_PaymentFailure(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	tok := f.login(t, "alice@example.com")
	f.payment.err = errors.New("declined")

	resp, _ := f.do(t, http.MethodPost, "/carts?email=alice@example.com", tok, map[string]any{
		"menuItems": map[string]int{"pepperoni": 1},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/orders", tok, map[string]any{
		"email":  "alice@example.com",
		"source": "tok_visa",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// The cart was already cleared; the failed charge is a reconciliation case.
	resp, body := f.do(t, http.MethodGet, "/carts?email=alice@example.com", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
}

func TestGetOrder_ForeignToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	aliceTok := f.login(t, "alice@example.com")
	f.register(t, "mallory@example.com")
	malloryTok := f.login(t, "mallory@example.com")

	resp, _ := f.do(t, http.MethodPost, "/carts?email=alice@example.com", aliceTok, map[string]any{
		"menuItems": map[string]int{"margherita": 2},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/orders", aliceTok, map[string]any{
		"email":  "alice@example.com",
		"source": "tok_visa",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	orderID := body["orderId"].(string)

	resp, _ = f.do(t, http.MethodGet, "/orders/"+orderID, malloryTok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetOrder_BadID(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	tok := f.login(t, "alice@example.com")

	resp, _ := f.do(t, http.MethodGet, "/orders/short", tok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/orders/"+strings.Repeat("x", order.IDLength), tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartMerge(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	tok := f.login(t, "alice@example.com")

	resp, _ := f.do(t, http.MethodPost, "/carts?email=alice@example.com", tok, map[string]any{
		"menuItems": map[string]int{"margherita": 1},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodPut, "/carts?email=alice@example.com", tok, map[string]any{
		"menuItems": map[string]int{"margherita": 2, "pepperoni": 1},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["margherita"])
	assert.Equal(t, float64(1), body["pepperoni"])
}

func TestCart_RejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	tok := f.login(t, "alice@example.com")

	resp, _ := f.do(t, http.MethodPost, "/carts?email=alice@example.com", tok, map[string]any{
		"menuItems": map[string]int{"margherita": 0},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMenu(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/menu", nil)
	require.NoError(t, err)
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "margherita", items[0]["id"])
}

func TestTokenLifecycle(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	tok := f.login(t, "alice@example.com")

	resp, body := f.do(t, http.MethodGet, "/tokens/"+tok, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@example.com", body["email"])

	resp, _ = f.do(t, http.MethodPut, "/tokens/"+tok, "", map[string]any{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/tokens/"+tok, "", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Revoked token no longer authorizes.
	resp, _ = f.do(t, http.MethodGet, "/users?email=alice@example.com", tok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
