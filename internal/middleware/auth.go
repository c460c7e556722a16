package middleware

import (
	"context"
	"strings"

	"lms_backend/internal/access"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware validates the bearer token and stores its claims. Revoked
// tokens are rejected; a failing revocation store is a transient error.
func AuthMiddleware(secret string, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, secret)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				util.HandleError(c, util.WrapTransient(err))
				c.Abort()
				return
			}
			if isRevoked {
				util.Unauthorized(c)
				c.Abort()
				return
			}
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}

// ActorFromContext builds the access actor from the token claims.
func ActorFromContext(c *gin.Context) (access.Actor, bool) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return access.Actor{}, false
	}
	return access.Actor{ID: claims.UserID(), Roles: claims.Roles}, true
}
