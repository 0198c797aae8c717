package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
)

type registerRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Address      string `json:"address"`
	TOSAgreement bool   `json:"tosAgreement"`
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	switch {
	case !identity.ValidEmail(req.Email):
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	case req.FirstName == "" || req.LastName == "" || req.Password == "" || req.Address == "":
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	case !req.TOSAgreement:
		writeError(w, http.StatusBadRequest, "terms of service must be accepted")
		return
	}

	u, err := h.identity.Register(r.Context(), identity.RegisterRequest{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Password:     req.Password,
		Address:      req.Address,
		TOSAgreement: req.TOSAgreement,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeUser(e, u) })
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if !identity.ValidEmail(email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if !h.authorize(w, r, email) {
		return
	}

	u, err := h.identity.Get(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
}

type updateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	Address   string `json:"address"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !identity.ValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if req.FirstName == "" && req.LastName == "" && req.Password == "" && req.Address == "" {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if !h.authorize(w, r, req.Email) {
		return
	}

	u, err := h.identity.Update(r.Context(), identity.UpdateRequest{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Address:   req.Address,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if !identity.ValidEmail(email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if !h.authorize(w, r, email) {
		return
	}

	if err := h.identity.Delete(r.Context(), email); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
