package handler

import (
	"net/http"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, res)
}

// Profile returns the caller's profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	profile, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, profile)
}
