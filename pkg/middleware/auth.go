package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tusharag6/homestead-api/pkg/logger"
)

type contextKeyType string

const (
	userIDKey contextKeyType = "user_id"
	roleKey   contextKeyType = "role"
)

// TokenSource records where a bearer credential was found.
type TokenSource string

const (
	TokenSourceNone   TokenSource = ""
	TokenSourceCookie TokenSource = "cookie"
	TokenSourceHeader TokenSource = "header"
)

// ExtractToken returns the session token presented with r. The first
// non-empty cookie among cookieNames wins; otherwise an
// "Authorization: Bearer <token>" header is used.
func ExtractToken(r *http.Request, cookieNames ...string) (string, TokenSource) {
	for _, name := range cookieNames {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value, TokenSourceCookie
		}
	}

	if token := BearerToken(r); token != "" {
		return token, TokenSourceHeader
	}
	return "", TokenSourceNone
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithIdentity records the authenticated user on ctx and rebinds the
// request-scoped logger so later log lines carry user_id.
func WithIdentity(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	ctx = logger.WithUserID(ctx, userID)
	return logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", userID)))
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the authenticated user's role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
