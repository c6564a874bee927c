// Package auth guards the operator and scheduler endpoints with shared
// secrets.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SchedulerSecretHeader carries the shared secret of the external timer.
const SchedulerSecretHeader = "X-Scheduler-Secret"

// RequireOperator is a middleware that ensures the request carries the
// operator bearer token. An empty configured token rejects everything.
func RequireOperator(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || !matches(token, strings.TrimSpace(got)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("operator", true)
		c.Next()
	}
}

// RequireSchedulerSecret is a middleware for the tick endpoint.
func RequireSchedulerSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !matches(secret, c.GetHeader(SchedulerSecretHeader)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func matches(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
