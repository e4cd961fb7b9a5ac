package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/handlers/dto"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/internal/websocket"
)

const (
	defaultQRSize = 320
	minQRSize     = 64
	maxQRSize     = 1024
)

// RoomHandler describes a room as a whole: what it holds, who is listening,
// and how to share it.
type RoomHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewRoomHandler(db *database.Database, hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{db: db, hub: hub}
}

// GetRoom returns per-table row counts and live listener counts.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	counts, err := h.db.RoomActivity(code)
	if err != nil {
		respondError(c, err)
		return
	}

	listeners := make(map[string]int, len(models.RoomTables))
	for _, table := range models.RoomTables {
		listeners[table] = h.hub.TopicSize(websocket.Topic(table, code))
	}

	c.JSON(http.StatusOK, dto.RoomActivityResponse{
		RoomCode:  code,
		Counts:    counts,
		Listeners: listeners,
	})
}

// GetRoomQR renders the canonical room code as a PNG QR code. ?size= picks
// the edge length in pixels.
func (h *RoomHandler) GetRoomQR(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	size := defaultQRSize
	if s := c.Query("size"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < minQRSize || parsed > maxQRSize {
			badRequest(c, "size must be between 64 and 1024")
			return
		}
		size = parsed
	}

	png, err := qrcode.Encode(code, qrcode.Medium, size)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
