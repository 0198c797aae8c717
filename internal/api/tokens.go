package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/internal/domain/token"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) createToken(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !identity.ValidEmail(req.Email) || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	t, err := h.tokens.Issue(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeToken(e, t) })
}

func (h *Handler) getToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if len(id) != token.IDLength {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	t, err := h.tokens.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeToken(e, t) })
}

type extendRequest struct {
	Email string `json:"email"`
}

func (h *Handler) extendToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if len(id) != token.IDLength {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}
	var req extendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !identity.ValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	t, err := h.tokens.Extend(r.Context(), id, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeToken(e, t) })
}

func (h *Handler) deleteToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if len(id) != token.IDLength {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	if err := h.tokens.Revoke(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
