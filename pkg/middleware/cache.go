package middleware

import "github.com/gin-gonic/gin"

// NoStore marks responses as private and uncacheable. Progress and enrollment
// data is per user and changes on every watch event.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "private, no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
