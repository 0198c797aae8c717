package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/internal/domain/menu"
	"github.com/xenking/pizzeria-api/internal/domain/order"
)

type placeOrderRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !identity.ValidEmail(req.Email) || req.Source == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	result, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Email:   req.Email,
		Source:  req.Source,
		TokenID: r.Header.Get(tokenHeader),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, result.Order) })
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if len(id) != order.IDLength {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.Get(r.Context(), id, r.Header.Get(tokenHeader))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	m, err := h.menus.Get(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]menu.Item, 0, len(m))
	for _, id := range ids {
		items = append(items, m[id])
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMenu(e, items) })
}
