package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowedHeaders = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// New builds a CORS middleware from the configured origin allowlist. An
// empty allowlist permits every origin.
func New(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()

		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && (allowAll || originAllowed(originSet, origin)):
			header.Set("Access-Control-Allow-Origin", origin)
		case origin == "" && allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		}

		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", allowedHeaders)
		header.Set("Access-Control-Allow-Methods", allowedMethods)
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(originSet map[string]struct{}, origin string) bool {
	_, ok := originSet[strings.TrimRight(origin, "/")]
	return ok
}
