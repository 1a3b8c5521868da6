package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/prakarsa-dev/hcm-api/internal/models"
	"github.com/prakarsa-dev/hcm-api/internal/service"
)

// Audit records an audit entry after successful requests on sensitive routes.
// Entries are enqueued asynchronously and never block the response.
func Audit(audit *service.AuditService, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if audit == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims, ok := c.Get(ContextUserKey); ok {
			user := claims.(*models.JWTClaims)
			userID = &user.UserID
		}

		payload := map[string]interface{}{
			"path":   c.FullPath(),
			"method": c.Request.Method,
			"status": c.Writer.Status(),
		}
		audit.Record(userID, action, resource, nil, payload, c.ClientIP(), c.GetHeader("User-Agent"))
	}
}
