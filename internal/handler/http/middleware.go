package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tusharag6/homestead-api/internal/service"
	"github.com/tusharag6/homestead-api/pkg/httputil"
	"github.com/tusharag6/homestead-api/pkg/middleware"
	"github.com/tusharag6/homestead-api/pkg/validator"
)

// maxBodyBytes caps request bodies at 1MB.
const maxBodyBytes = 1 << 20

// ContentTypeJSON rejects requests whose body is not declared as JSON.
// Bodiless requests pass, so POST /logout needs no Content-Type.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteFailure(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Authenticate resolves the session token presented with the request and
// records the account on the context. Requests without a valid session are
// rejected with 401.
func Authenticate(svc *service.AuthService, cookieNames []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := middleware.ExtractToken(r, cookieNames...)

			user, err := svc.ResolveSession(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, err, logger)
				return
			}

			ctx := middleware.WithIdentity(r.Context(), user.ID, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// decodeJSON decodes and validates the request body into dst, writing a 400
// and returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var valErr *validator.ValidationError
	switch {
	case errors.As(err, &valErr):
		httputil.WriteValidationError(w, err)
	case errors.Is(err, validator.ErrEmptyBody):
		httputil.WriteFailure(w, http.StatusBadRequest, "INVALID_INPUT", "request body is required")
	default:
		httputil.WriteFailure(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
	}
	return false
}

// requireUser returns the authenticated user ID, writing a 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteFailure(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Unauthorized request")
		return "", false
	}
	return userID, true
}
