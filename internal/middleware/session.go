package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subject-catalog-api/internal/models"
	"github.com/noah-isme/subject-catalog-api/internal/service"
)

const (
	// ContextSessionKey is the gin context key storing the *models.AppSession.
	ContextSessionKey = "appSession"
	// SessionHeader carries the session token when no bearer header is sent.
	SessionHeader = "X-Session-Token"
)

// Session attaches the caller's session to the context. Missing or
// unreadable tokens yield a fresh session instead of an error.
func Session(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextSessionKey, sessions.Resolve(SessionToken(c)))
		c.Next()
	}
}

// SessionToken extracts the raw token from the bearer header or the
// session header.
func SessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}

// SessionFromContext returns the session attached by Session, or nil.
func SessionFromContext(c *gin.Context) *models.AppSession {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.AppSession)
	if !ok {
		return nil
	}
	return session
}
