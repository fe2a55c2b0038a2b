package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"

	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/repository"
)

// TokenVerifier is the slice of the Firebase auth client the middleware
// needs. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type Middleware struct {
	verifier TokenVerifier
	users    repository.UserRepository
	logger   *logrus.Logger
}

func NewMiddleware(verifier TokenVerifier, users repository.UserRepository, logger *logrus.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
}

// RequireAuth verifies the bearer ID token and resolves the caller's profile
// (including the role side document). Requests without a verifiable identity
// are rejected before reaching the handler.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			http.Error(w, "unauthorized: empty bearer token", http.StatusUnauthorized)
			return
		}

		token, err := m.verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			http.Error(w, "invalid uid in token", http.StatusUnauthorized)
			return
		}

		sess := &Session{
			UID:  uid,
			Role: domain.RoleUser,
		}
		if email, ok := token.Claims["email"].(string); ok {
			sess.Email = strings.TrimSpace(email)
		}
		if name, ok := token.Claims["name"].(string); ok {
			sess.DisplayName = strings.TrimSpace(name)
		}

		// The role claim lives in the users collection, not the token. A
		// missing profile means a freshly signed-up user: default role.
		profile, err := m.users.GetUser(r.Context(), uid)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			m.logger.WithError(err).WithField("uid", uid).Error("role lookup failed")
			http.Error(w, "identity lookup failed", http.StatusInternalServerError)
			return
		}
		if profile != nil {
			sess.Role = profile.Role
			if sess.DisplayName == "" {
				sess.DisplayName = profile.DisplayName
			}
			if sess.Email == "" {
				sess.Email = profile.Email
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// OptionalAuth resolves a session when a bearer token is present but lets
// anonymous requests through. Used on the payment-notification route, which
// serves both the gateway (signature-authenticated) and the signed-in
// customer callback.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}
		m.RequireAuth(next).ServeHTTP(w, r)
	})
}

// RequireAdmin gates back-office routes. Must be mounted after RequireAuth.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !sess.IsAdmin() {
			http.Error(w, "forbidden: admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
