package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apimeister/unpatched-server/internal/auth"
)

const errUnauthorized = "Unauthorized"

// verifier is the subset of auth.TokenIssuer this middleware needs.
type verifier interface {
	Verify(raw string) (string, error)
}

// Auth validates an operator bearer/cookie token and sets "email" in
// the gin context for downstream
// handlers. It never distinguishes "token absent" from "token invalid"
// in its response — both return a plain 401.
func Auth(tokens verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := auth.ExtractToken(c.Request)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		email, err := tokens.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Set("email", email)
		c.Next()
	}
}
