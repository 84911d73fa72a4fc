package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minniexp/expense-backend/internal/models"
)

const userContextKey = "currentUser"

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the bearer token and loads the user. Unapproved
// users are rejected even with a valid token.
func RequireAuth(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}
		if !user.IsApproved {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User is not approved"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdvanced gates routes reserved for advanced-access users. It must
// run after RequireAuth.
func RequireAdvanced() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.AccessLevel != models.AccessAdvanced {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied. Advanced permissions required."})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireAuth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
