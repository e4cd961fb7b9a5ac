package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/services"
	"github.com/thereayou/lovenest/pkg/auth"
)

const (
	UserIDKey   = "userID"
	UserNameKey = "userName"
	TokenKey    = "token"
)

// AuthMiddleware requires a valid bearer token that has not been logged out.
func AuthMiddleware(jwtManager *auth.JWTManager, blacklist *services.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			abort(c, "missing or invalid token")
			return
		}
		authenticate(c, token, jwtManager, blacklist)
	}
}

// WSAuthMiddleware also accepts the token as a query parameter, since
// browsers cannot set headers on a WebSocket handshake.
func WSAuthMiddleware(jwtManager *auth.JWTManager, blacklist *services.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}
		}

		if token == "" {
			abort(c, "missing token")
			return
		}
		authenticate(c, token, jwtManager, blacklist)
	}
}

func authenticate(c *gin.Context, token string, jwtManager *auth.JWTManager, blacklist *services.TokenBlacklist) {
	revoked, err := blacklist.IsRevoked(c.Request.Context(), token)
	if err != nil || revoked {
		abort(c, "token is blacklisted")
		return
	}

	claims, err := jwtManager.Verify(token)
	if err != nil {
		abort(c, "invalid token")
		return
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		abort(c, "invalid user id")
		return
	}

	c.Set(UserIDKey, userID)
	c.Set(UserNameKey, claims.Name)
	c.Set(TokenKey, token)
	c.Next()
}

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "unauthorized"})
}
