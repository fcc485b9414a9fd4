package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mindmaster/mindmapd/internal/server/models"
)

const identityKey = "identity"

// requestLogger tags every request with a generated id and logs it on
// completion.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()

		c.Next()

		s.logger.Info(c.Request.Context(), "request handled",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// requireAuth resolves the bearer token into a full user row and aborts with
// a uniform 401 when the token is missing, malformed, expired, or points at
// an account that no longer exists.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Missing or invalid token"})
			return
		}

		user, err := s.users.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Missing or invalid token"})
			return
		}

		c.Set(identityKey, user)
		c.Next()
	}
}

// requireAdmin gates admin-only routes. Unlike owner-scoped misses, which
// masquerade as not-found, a privilege miss is an explicit 403.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.identity(c).IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Admin only"})
			return
		}
		c.Next()
	}
}

// identity returns the caller resolved by requireAuth. Only valid on routes
// behind it.
func (s *Server) identity(c *gin.Context) *models.User {
	return c.MustGet(identityKey).(*models.User)
}
