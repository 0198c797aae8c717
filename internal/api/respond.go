package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/internal/domain/menu"
	"github.com/xenking/pizzeria-api/internal/domain/order"
	"github.com/xenking/pizzeria-api/internal/domain/token"
	"github.com/xenking/pizzeria-api/internal/gateway"
)

// writeJSON encodes a response body with enc and writes it with the given
// status.
func writeJSON(w http.ResponseWriter, status int, enc func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	enc(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// writeDomainError classifies a domain error and writes the matching status.
// Nothing leaves this function unclassified: unknown errors become opaque 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		pfErr *order.PartialFailureError
		gwErr *gateway.GatewayError
		uiErr *order.UnknownItemError
		bmErr *order.BelowMinimumError
	)

	switch {
	case errors.As(err, &pfErr):
		// Durable state is committed; operators reconcile from the stage name.
		writeError(w, http.StatusInternalServerError,
			"order pipeline failed at stage "+string(pfErr.Stage)+"; order state requires reconciliation")
	case errors.Is(err, order.ErrIDCollision):
		writeError(w, http.StatusInternalServerError, "could not allocate order id, retry the request")
	case errors.As(err, &gwErr):
		writeError(w, http.StatusBadGateway, gwErr.Provider+" provider unavailable")
	case errors.Is(err, order.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "missing, invalid, or expired token")
	case errors.Is(err, token.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, token.ErrExpired):
		writeError(w, http.StatusBadRequest, "token already expired")
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, order.ErrInvalidSource):
		writeError(w, http.StatusBadRequest, "payment source not accepted")
	case errors.As(err, &uiErr):
		writeError(w, http.StatusUnprocessableEntity, uiErr.Error())
	case errors.As(err, &bmErr):
		writeError(w, http.StatusUnprocessableEntity, bmErr.Error())
	case errors.Is(err, identity.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "a user with that email already exists")
	case errors.Is(err, identity.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "invalid email address")
	case errors.Is(err, identity.ErrNotFound),
		errors.Is(err, token.ErrNotFound),
		errors.Is(err, menu.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// encodeUser writes the public view of a user. The password hash never leaves
// the server.
func encodeUser(e *jx.Encoder, u *identity.User) {
	e.ObjStart()
	e.FieldStart("email")
	e.Str(u.Email)
	e.FieldStart("firstName")
	e.Str(u.FirstName)
	e.FieldStart("lastName")
	e.Str(u.LastName)
	e.FieldStart("address")
	e.Str(u.Address)
	e.FieldStart("cart")
	encodeCart(e, u.Cart)
	e.FieldStart("orders")
	e.ArrStart()
	for _, id := range u.Orders {
		e.Str(id)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeCart(e *jx.Encoder, cart map[string]int) {
	e.ObjStart()
	for id, qty := range cart {
		e.FieldStart(id)
		e.Int(qty)
	}
	e.ObjEnd()
}

func encodeToken(e *jx.Encoder, t *token.Token) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(t.ID)
	e.FieldStart("email")
	e.Str(t.Email)
	e.FieldStart("expires")
	e.Str(t.Expires.UTC().Format("2006-01-02T15:04:05Z07:00"))
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("orderId")
	e.Str(o.ID)
	e.FieldStart("email")
	e.Str(o.Email)
	e.FieldStart("source")
	e.Str(o.Source)
	e.FieldStart("amount")
	e.Int64(o.Amount)
	e.FieldStart("cart")
	encodeCart(e, o.Cart)
	e.FieldStart("lineDescriptions")
	e.ArrStart()
	for _, line := range o.Lines {
		e.Str(line)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeMenu(e *jx.Encoder, items []menu.Item) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Int64(it.Price)
		e.ObjEnd()
	}
	e.ArrEnd()
}
