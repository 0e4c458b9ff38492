package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/service"
	"github.com/tusharag6/homestead-api/pkg/httputil"
	"github.com/tusharag6/homestead-api/pkg/middleware"
)

// UserHandler handles HTTP requests for account and session endpoints.
type UserHandler struct {
	service *service.AuthService
	cookies sessionCookies
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler. secureCookies sets the
// Secure attribute on session cookies.
func NewUserHandler(svc *service.AuthService, secureCookies bool, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		cookies: sessionCookies{paired: svc.Paired(), secure: secureCookies},
		logger:  logger,
	}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,min=2,max=50,username"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

// LoginRequest is the JSON request body for login. Which identifier is
// required depends on the configured login strategy.
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the optional JSON body for refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	Token        string `json:"token"`
}

// ChangePasswordRequest is the JSON request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,max=72"`
}

// --- Response types ---

// sessionResponse carries the account plus the issued token(s) at top level.
type sessionResponse struct {
	User *domain.User `json:"user"`
	domain.Tokens
}

// --- Handlers ---

// Register handles POST /api/v1/user/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, map[string]any{"createdUser": user}, "User registered successfully")
}

// Login handles POST /api/v1/user/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.set(w, res.Tokens)
	httputil.WriteSuccess(w, http.StatusOK, sessionResponse{User: res.User, Tokens: res.Tokens}, "User logged in successfully")
}

// Logout handles POST|GET /api/v1/user/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.clear(w)
	httputil.WriteSuccess(w, http.StatusOK, map[string]any{}, "User logged out")
}

// Refresh handles GET|POST /api/v1/user/refresh. The token is read from the
// refresh cookie, then the body, then the Authorization header.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := h.refreshToken(w, r)
	if !ok {
		return
	}

	res, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.set(w, res.Tokens)
	httputil.WriteSuccess(w, http.StatusOK, sessionResponse{User: res.User, Tokens: res.Tokens}, "Token refreshed")
}

func (h *UserHandler) refreshToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	for _, name := range h.cookies.refreshNames() {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value, true
		}
	}

	if r.Body != nil && r.ContentLength != 0 {
		var req RefreshRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httputil.WriteFailure(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
			return "", false
		}
		if req.RefreshToken != "" {
			return req.RefreshToken, true
		}
		if req.Token != "" {
			return req.Token, true
		}
	}

	return middleware.BearerToken(r), true
}

// Me handles GET /api/v1/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, user, "Profile Fetched successfully")
}

// ChangePassword handles POST /api/v1/user/change-password. The session is
// revoked and the cookies cleared on success.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.clear(w)
	httputil.WriteSuccess(w, http.StatusOK, map[string]any{}, "Password changed successfully. Please log in again.")
}
