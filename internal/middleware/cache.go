package middleware

import "github.com/gin-gonic/gin"

// NoStore keeps browsers and proxies from caching the response. The form
// changes on every edit, so neither the editor page nor the API may be
// served stale.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
