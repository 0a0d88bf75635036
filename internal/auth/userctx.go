package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireIdentity reads the caller identity from headers.
//   - Authorization: Bearer <token> is kept for delegated list-store calls.
//   - X-User-Id (with X-User-Name, X-User-Email) names the user.
//
// When devFallback is true a missing X-User-Id becomes "demo-user";
// otherwise the request is rejected unless a bearer token is present.
// With a bearer token the user key is derived from the token, never from
// X-User-Id, which the caller controls.
func RequireIdentity(devFallback bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity{
			UserID:      strings.TrimSpace(c.GetHeader("X-User-Id")),
			DisplayName: strings.TrimSpace(c.GetHeader("X-User-Name")),
			Email:       strings.TrimSpace(c.GetHeader("X-User-Email")),
			BearerToken: bearer(c.GetHeader("Authorization")),
		}

		if id.UserID == "" && devFallback {
			id.UserID = "demo-user"
		}
		if id.UserID == "" && id.BearerToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
			return
		}

		key := id.UserID
		if id.BearerToken != "" {
			key = tokenKey(id.BearerToken)
		}

		c.Set(CtxUserKey, key)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func bearer(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
