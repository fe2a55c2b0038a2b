// Package identity authenticates requests against Firebase ID tokens and
// resolves the caller's role from the users collection.
package identity

import (
	"context"

	"github.com/tokobuah/storefront/internal/domain"
)

// Session is the authenticated caller, injected into the request context by
// the middleware and passed explicitly to services that need it.
type Session struct {
	UID         string
	Email       string
	DisplayName string
	Role        domain.Role
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == domain.RoleAdmin
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}
