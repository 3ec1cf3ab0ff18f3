package screens

import (
	"net/http"

	"kingcatserver/kingcat/session"

	"github.com/gin-gonic/gin"
)

// RoomInfo returns the room behind a code.
func RoomInfo(c *gin.Context, registry *session.Registry) {
	code := c.Param("code")
	room, ok := registry.Lookup(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found", "roomCode": code})
		return
	}
	c.JSON(http.StatusOK, room)
}
