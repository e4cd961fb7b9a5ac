package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/handlers/dto"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/internal/services"
)

// MessageHandler serves room chat and love letters.
type MessageHandler struct {
	db        *database.Database
	publisher *services.Publisher
}

func NewMessageHandler(db *database.Database, publisher *services.Publisher) *MessageHandler {
	return &MessageHandler{db: db, publisher: publisher}
}

// GetRoomMessages returns the room's chat oldest first.
func (h *MessageHandler) GetRoomMessages(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	messages, err := h.db.GetRoomMessages(code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !bindJSON(c, &req) || !required(c, "message", &req.Message) {
		return
	}

	userID, name := currentUser(c)
	message := &models.ChatMessage{
		RoomCode:   code,
		UserID:     userID,
		SenderName: displayName(req.SenderName, name, "Anonymous"),
		Message:    req.Message,
	}
	if err := h.db.SaveChatMessage(message); err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Inserted(c.Request.Context(), models.TableChatMessages, message.RoomCode, message)
	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	message, err := h.db.DeleteChatMessage(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Deleted(c.Request.Context(), models.TableChatMessages, message.RoomCode, message)
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) GetRoomLetters(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	letters, err := h.db.GetRoomLetters(code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, letters)
}

func (h *MessageHandler) WriteLetter(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	var req dto.CreateLetterRequest
	if !bindJSON(c, &req) || !required(c, "subject", &req.Subject) || !required(c, "content", &req.Content) {
		return
	}

	userID, _ := currentUser(c)
	letter := &models.Letter{
		RoomCode: code,
		UserID:   userID,
		FromName: displayName(req.FromName, "", "Your Love"),
		Subject:  req.Subject,
		Content:  req.Content,
	}
	if err := h.db.SaveLetter(letter); err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Inserted(c.Request.Context(), models.TableLetters, letter.RoomCode, letter)
	c.JSON(http.StatusCreated, letter)
}

func (h *MessageHandler) UpdateLetter(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req dto.UpdateLetterRequest
	if !bindJSON(c, &req) {
		return
	}
	patch := req.Patch()
	if len(patch) == 0 {
		respondError(c, errNothingToUpdate)
		return
	}
	if col := patch.Empty("from_name", "subject", "content"); col != "" {
		badRequest(c, col+" cannot be empty")
		return
	}

	letter, err := h.db.UpdateLetter(id, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Updated(c.Request.Context(), models.TableLetters, letter.RoomCode, letter)
	c.JSON(http.StatusOK, letter)
}

func (h *MessageHandler) MarkLetterRead(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	letter, err := h.db.MarkLetterRead(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Updated(c.Request.Context(), models.TableLetters, letter.RoomCode, letter)
	c.JSON(http.StatusOK, letter)
}

func (h *MessageHandler) DeleteLetter(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	letter, err := h.db.DeleteLetter(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Deleted(c.Request.Context(), models.TableLetters, letter.RoomCode, letter)
	c.Status(http.StatusNoContent)
}
