package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/respond"
	"yamdb/internal/middleware/auth"
	"yamdb/internal/rbac"
)

const identityKey = "identity"

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// AccountFinder loads the account a token was issued to.
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware resolves the caller from the Authorization header.
// Requests without the header continue as anonymous; a malformed,
// forged or expired token is rejected with 401, as is a token whose
// account no longer exists. Role and username come from the stored
// account, not from the token.
func AuthMiddleware(tokens TokenParser, accounts AccountFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(identityKey, rbac.Anonymous())
			c.Next()
			return
		}

		// "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respond.Error(c, apperr.Unauthenticated("invalid authorization header format"))
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "token has expired"
			}
			respond.Error(c, apperr.Unauthenticated(msg))
			return
		}

		user, err := accounts.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respond.Error(c, apperr.Unauthenticated("user not found"))
				return
			}
			respond.Error(c, apperr.Internal(err))
			return
		}

		c.Set(identityKey, user.Identity())
		c.Next()
	}
}

// IdentityFrom returns the caller resolved by AuthMiddleware.
func IdentityFrom(c *gin.Context) rbac.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(rbac.Identity); ok {
			return id
		}
	}
	return rbac.Anonymous()
}

// RequireAuthenticated rejects anonymous callers.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IdentityFrom(c).IsAuthenticated() {
			respond.Error(c, apperr.Unauthenticated("authentication credentials were not provided"))
			return
		}
		c.Next()
	}
}
