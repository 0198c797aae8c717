package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
)

type cartRequest struct {
	MenuItems map[string]int `json:"menuItems"`
}

// parseCartRequest decodes and validates a cart mutation body: at least one
// item, all quantities positive.
func parseCartRequest(r *http.Request) (map[string]int, string) {
	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "malformed request body"
	}
	if len(req.MenuItems) == 0 {
		return nil, "menuItems is required"
	}
	for id, qty := range req.MenuItems {
		if id == "" || qty <= 0 {
			return nil, "quantities must be positive integers"
		}
	}
	return req.MenuItems, ""
}

// cartEmail validates the email query parameter and the token header,
// returning the email or "" after writing the error response.
func (h *Handler) cartEmail(w http.ResponseWriter, r *http.Request) string {
	email := r.URL.Query().Get("email")
	if !identity.ValidEmail(email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return ""
	}
	if !h.authorize(w, r, email) {
		return ""
	}
	return email
}

func (h *Handler) setCart(w http.ResponseWriter, r *http.Request) {
	email := h.cartEmail(w, r)
	if email == "" {
		return
	}
	items, msg := parseCartRequest(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.identity.SetCart(r.Context(), email, items); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, items) })
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	email := h.cartEmail(w, r)
	if email == "" {
		return
	}

	u, err := h.identity.Get(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, u.Cart) })
}

func (h *Handler) mergeCart(w http.ResponseWriter, r *http.Request) {
	email := h.cartEmail(w, r)
	if email == "" {
		return
	}
	items, msg := parseCartRequest(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.identity.MergeCart(r.Context(), email, items); err != nil {
		writeDomainError(w, err)
		return
	}

	u, err := h.identity.Get(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, u.Cart) })
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	email := h.cartEmail(w, r)
	if email == "" {
		return
	}

	if err := h.identity.ClearCart(r.Context(), email); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
