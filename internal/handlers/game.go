package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/lovenest/internal/handlers/dto"
	"github.com/thereayou/lovenest/internal/services"
)

type GameHandler struct {
	games *services.GameService
}

func NewGameHandler(games *services.GameService) *GameHandler {
	return &GameHandler{games: games}
}

func player(c *gin.Context) services.Player {
	id, name := currentUser(c)
	return services.Player{ID: id, Name: displayName("", name, "Unknown")}
}

// CreateGame opens a game with the caller as X. The room code is generated
// unless the body names one.
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req dto.CreateGameRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	game, err := h.games.CreateGame(c.Request.Context(), player(c), req.RoomCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, game)
}

func (h *GameHandler) JoinGame(c *gin.Context) {
	var req dto.JoinGameRequest
	if !bindJSON(c, &req) {
		return
	}

	game, err := h.games.JoinGame(c.Request.Context(), player(c), req.RoomCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

// GetRoomGame returns the newest game of the room.
func (h *GameHandler) GetRoomGame(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	game, err := h.games.CurrentGame(code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) Move(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req dto.MoveRequest
	if !bindJSON(c, &req) {
		return
	}

	game, err := h.games.Move(c.Request.Context(), player(c), id, services.MoveRequest{
		Cell:            *req.Cell,
		Mark:            req.Mark,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) Restart(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req dto.RestartRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	game, err := h.games.Restart(c.Request.Context(), player(c), id, req.ExpectedVersion)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) GetRoomHistory(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	history, err := h.games.History(code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}
