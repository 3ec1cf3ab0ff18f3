package screens

import (
	"net/http"
	"strings"

	"kingcatserver/middlewares"

	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type guestRequest struct {
	Name string `json:"name"`
}

const maxNameLength = 32

// GuestAuth はゲスト用のユーザーIDとトークンを発行する
func GuestAuth(c *gin.Context, issuer *middlewares.TokenIssuer, logger *zap.Logger) {
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len([]rune(name)) > maxNameLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must be 1-32 characters"})
		return
	}

	token, user, err := issuer.GenerateGuest(name)
	if err != nil {
		logger.Error("Token generation error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	logger.Info("Guest token issued", zap.String("userID", user.ID))
	c.JSON(http.StatusOK, gin.H{"token": token, "userId": user.ID, "name": user.Name})
}
