package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserKey = "user_key"
)

// Identity is what the caller told us about itself. The list store may
// resolve a richer domain.User from it.
type Identity struct {
	UserID      string
	DisplayName string
	Email       string
	BearerToken string
}

type identityKey struct{}

// WithIdentity stores id in a standard context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity set by the middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// BearerToken returns the inbound bearer token, forwarded to the list
// store for delegated calls.
func BearerToken(ctx context.Context) string {
	id, _ := IdentityFrom(ctx)
	return id.BearerToken
}

// UserKey is the stable per-user key used for draft sessions.
func UserKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserKey))
}
