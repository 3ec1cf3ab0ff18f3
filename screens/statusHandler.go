package screens

import (
	"context"
	"net/http"
	"strconv"

	"kingcatserver/kingcat/broadcast"
	"kingcatserver/kingcat/database"
	"kingcatserver/kingcat/session"
	"kingcatserver/models"

	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// ConnectedUsers lists the users known to the directory.
func ConnectedUsers(c *gin.Context, users database.UserDirectory, logger *zap.Logger) {
	list, err := users.List(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

func Health(c *gin.Context, registry *session.Registry, hub *broadcast.Hub) {
	stats := registry.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"rooms":       stats.Rooms,
		"activeGames": stats.ActiveGames,
		"connections": hub.Count(),
	})
}

// ResultLister reads finished matches.
type ResultLister interface {
	Recent(ctx context.Context, limit int) ([]models.MatchResult, error)
}

// RecentResults は直近の試合結果を返す。limitは1〜100
func RecentResults(c *gin.Context, results ResultLister, logger *zap.Logger) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}
	list, err := results.Recent(c.Request.Context(), limit)
	if err != nil {
		logger.Error("Failed to fetch match results", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch results"})
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, r := range list {
		out = append(out, gin.H{
			"roomCode":   r.RoomCode,
			"winnerId":   r.WinnerID,
			"winnerName": r.WinnerName,
			"playerIds":  r.PlayerIDs,
			"turns":      r.Turns,
			"showdown":   r.Showdown,
			"finishedAt": r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}
