package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/subject-catalog-api/pkg/errors"
	"github.com/noah-isme/subject-catalog-api/pkg/response"
)

// RequireAdminView limits a route to sessions that unlocked the admin
// screens. This only hides the admin surface; the document store still
// decides whether a write is permitted.
func RequireAdminView() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessionFromContext(c).IsAdmin() {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "admin mode is not enabled for this session"))
			return
		}
		c.Next()
	}
}
