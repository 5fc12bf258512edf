package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flowfix/internal/auth"
	"flowfix/internal/model"
	"flowfix/internal/service"
)

const (
	UserIDKey  = "user_id"
	IsAdminKey = "is_admin"
)

// UserLookup loads the account behind a token. A nil user means the account
// no longer exists.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// JWTAuthMiddleware authenticates the bearer token and reloads the user so a
// deactivated account is refused immediately.
func JWTAuthMiddleware(tokens *auth.TokenManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := tokens.ParseToken(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid user ID in token")
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			abort(c, http.StatusInternalServerError, "Failed to load user")
			return
		}
		if user == nil || !user.IsActive {
			abort(c, http.StatusUnauthorized, "User not found or inactive")
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(IsAdminKey, user.IsAdmin)
		c.Next()
	}
}

// AdminOnly lets through administrators only. It must run after
// JWTAuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(IsAdminKey) {
			abort(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

// Actor returns the authenticated user of the request.
func Actor(c *gin.Context) service.Actor {
	actor := service.Actor{IsAdmin: c.GetBool(IsAdminKey)}
	if id, ok := c.Get(UserIDKey); ok {
		actor.ID, _ = id.(uuid.UUID)
	}
	return actor
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": false, "message": message})
}
