package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ClaimsKey = "claims"

// TokenFromRequest reads a bearer token from the Authorization header, or
// from the token query parameter (browsers cannot set headers on a
// WebSocket handshake).
func TokenFromRequest(r *http.Request) string {
	tokenString := r.Header.Get("Authorization")
	if strings.HasPrefix(tokenString, "Bearer ") {
		return strings.TrimPrefix(tokenString, "Bearer ")
	}
	if tokenString != "" {
		return tokenString
	}
	return r.URL.Query().Get("token")
}

// AuthMiddleware はトークンを検証してクレームをコンテキストにセットする
func AuthMiddleware(issuer *TokenIssuer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := issuer.ParseToken(TokenFromRequest(c.Request))
		if err != nil {
			logger.Warn("認証失敗", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
