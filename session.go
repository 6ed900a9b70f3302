package main

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	sessionCookieName = "session_token"
	ownerContextKey   = "owner"
)

// sessionToken reads the bearer token, falling back to the session cookie.
func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// sessionMiddleware attaches the resolved Owner to the request. Requests
// without a valid session pass through with no owner set.
func sessionMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token != "" {
			owner, err := resolver.ResolveSession(c.Request.Context(), token)
			switch {
			case err == nil:
				c.Set(ownerContextKey, owner)
			case errors.Is(err, ErrNoSession):
			default:
				log.Printf("[Session] Failed to resolve session: %v", err)
			}
		}
		c.Next()
	}
}

func currentOwner(c *gin.Context) (Owner, bool) {
	value, ok := c.Get(ownerContextKey)
	if !ok {
		return Owner{}, false
	}
	owner, ok := value.(Owner)
	return owner, ok && owner.ID != ""
}
