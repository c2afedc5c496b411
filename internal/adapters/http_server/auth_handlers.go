package httpserver

import (
	"net/http"

	"stayhub/internal/app"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type resetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

type sessionResponse struct {
	app.TokenPair
	User userView `json:"user"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.Auth.Register(r.Context(), in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewUser(u))
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	pair, u, err := h.Auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{TokenPair: pair, User: viewUser(u)})
}

func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	pair, u, err := h.Auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{TokenPair: pair, User: viewUser(u)})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	if err := h.Auth.Logout(r.Context(), u.ID); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	writeJSON(w, http.StatusOK, viewUser(u))
}

func (h *Handlers) savePushToken(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var in struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.Auth.SavePushToken(r.Context(), u.ID, in.Token); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// The password reset wizard. Each step answers with a flat message the
// client can show as-is.

func (h *Handlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.Auth.RequestPasswordOTP(r.Context(), in.Email); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"message": "a reset code is on its way"})
}

func (h *Handlers) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.Auth.VerifyPasswordOTP(r.Context(), in.Email, in.OTP); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "code accepted"})
}

func (h *Handlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.Auth.ResetPassword(r.Context(), in.Email, in.OTP, in.NewPassword); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "password updated, sign in again"})
}
