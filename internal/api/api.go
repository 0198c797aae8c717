// Package api exposes the application over HTTP. It owns request parsing and
// validation, token extraction, and the mapping from domain errors to status
// codes; all business logic lives in the domain services.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/internal/domain/menu"
	"github.com/xenking/pizzeria-api/internal/domain/order"
	"github.com/xenking/pizzeria-api/internal/domain/token"
)

// tokenHeader carries the session token id on authenticated requests.
const tokenHeader = "token"

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	identity *identity.Service
	tokens   *token.Service
	orders   *order.Service
	menus    menu.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	identitySvc *identity.Service,
	tokenSvc *token.Service,
	orderSvc *order.Service,
	menus menu.Repository,
) *Handler {
	return &Handler{
		identity: identitySvc,
		tokens:   tokenSvc,
		orders:   orderSvc,
		menus:    menus,
	}
}

// Router returns the API route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.registerUser)
		r.Get("/", h.getUser)
		r.Put("/", h.updateUser)
		r.Delete("/", h.deleteUser)
	})

	r.Route("/tokens", func(r chi.Router) {
		r.Post("/", h.createToken)
		r.Get("/{id}", h.getToken)
		r.Put("/{id}", h.extendToken)
		r.Delete("/{id}", h.deleteToken)
	})

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", h.setCart)
		r.Get("/", h.getCart)
		r.Put("/", h.mergeCart)
		r.Delete("/", h.clearCart)
	})

	r.Get("/menu", h.getMenu)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Get("/{id}", h.getOrder)
	})

	return r
}

// authorize checks the token header against the given email. On failure it
// writes a 403 and returns false.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, email string) bool {
	id := r.Header.Get(tokenHeader)
	if id == "" || !h.tokens.Verify(r.Context(), id, email) {
		writeError(w, http.StatusForbidden, "missing, invalid, or expired token")
		return false
	}
	return true
}
