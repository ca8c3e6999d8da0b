package handler

import (
	"context"
	"net/http"
	"strings"

	"newspaper-reader/internal/domain"
	apperrors "newspaper-reader/pkg/errors"
)

// AuthMiddleware validates Supabase JWT tokens
type AuthMiddleware struct {
	authService domain.AuthService
	logger      domain.Logger
}

func NewAuthMiddleware(authService domain.AuthService, logger domain.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, msg := bearerToken(r.Header.Get("Authorization"))
		if msg != "" {
			m.reject(w, msg)
			return
		}

		user, err := m.authService.ValidateToken(token)
		if err != nil {
			m.logger.Error("Token validation failed", err, "path", r.URL.Path)
			m.reject(w, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, msg string) {
	writeDomainError(w, m.logger, apperrors.NewUnauthorizedError(msg))
}

// bearerToken extracts the token from a "Bearer <token>" header. msg is set when the header is unusable.
func bearerToken(header string) (token, msg string) {
	if header == "" {
		return "", "Authorization header required"
	}
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "Invalid authorization header format"
	}
	token = strings.TrimSpace(rest)
	if token == "" {
		return "", "Token required"
	}
	return token, ""
}

// PassThrough is used in place of the auth middleware when authentication is disabled.
func PassThrough(next http.Handler) http.Handler {
	return next
}
