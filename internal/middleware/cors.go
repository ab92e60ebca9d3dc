package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "Content-Type"
	corsMaxAge  = "86400"
)

// CORS allows the registration page to call the API from its own origin.
// allowedOrigins is "*" or a comma-separated list; an empty list allows all.
func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := parseOrigins(allowedOrigins)
	wildcard := len(origins) == 0 || origins["*"]

	return func(c *gin.Context) {
		if allow := allowOrigin(c.GetHeader("Origin"), origins, wildcard); allow != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allow)
			if allow != "*" {
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
		}
		// preflight
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value, or "" to omit it.
func allowOrigin(origin string, origins map[string]bool, wildcard bool) string {
	if wildcard {
		return "*"
	}
	if origin != "" && origins[strings.TrimSuffix(origin, "/")] {
		return origin
	}
	return ""
}

func parseOrigins(s string) map[string]bool {
	set := make(map[string]bool)
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
			set[o] = true
		}
	}
	return set
}
