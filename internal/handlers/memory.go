package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/handlers/dto"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/internal/services"
)

// MemoryHandler serves the shared memory board and each user's story
// timeline.
type MemoryHandler struct {
	db        *database.Database
	publisher *services.Publisher
}

func NewMemoryHandler(db *database.Database, publisher *services.Publisher) *MemoryHandler {
	return &MemoryHandler{db: db, publisher: publisher}
}

func (h *MemoryHandler) GetRoomMemories(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	memories, err := h.db.GetRoomMemories(code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, memories)
}

func (h *MemoryHandler) CreateMemory(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	var req dto.CreateMemoryRequest
	if !bindJSON(c, &req) || !required(c, "title", &req.Title) {
		return
	}

	userID, _ := currentUser(c)
	memory := &models.Memory{
		RoomCode:   code,
		UserID:     userID,
		Title:      req.Title,
		MemoryDate: req.MemoryDate,
		Place:      optional(req.Place),
		Emotion:    displayName(req.Emotion, "", "happy"),
		Note:       optional(req.Note),
		ImageURL:   optional(req.ImageURL),
	}
	if err := h.db.SaveMemory(memory); err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Inserted(c.Request.Context(), models.TableMemories, memory.RoomCode, memory)
	c.JSON(http.StatusCreated, memory)
}

func (h *MemoryHandler) UpdateMemory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req dto.UpdateMemoryRequest
	if !bindJSON(c, &req) {
		return
	}
	patch := req.Patch()
	if len(patch) == 0 {
		respondError(c, errNothingToUpdate)
		return
	}
	if col := patch.Empty("title", "memory_date", "emotion"); col != "" {
		badRequest(c, col+" cannot be empty")
		return
	}

	memory, err := h.db.UpdateMemory(id, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Updated(c.Request.Context(), models.TableMemories, memory.RoomCode, memory)
	c.JSON(http.StatusOK, memory)
}

func (h *MemoryHandler) DeleteMemory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	memory, err := h.db.DeleteMemory(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Deleted(c.Request.Context(), models.TableMemories, memory.RoomCode, memory)
	c.Status(http.StatusNoContent)
}

// GetStory returns the caller's own timeline.
func (h *MemoryHandler) GetStory(c *gin.Context) {
	userID, _ := currentUser(c)

	events, err := h.db.GetUserStory(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *MemoryHandler) CreateStoryEvent(c *gin.Context) {
	var req dto.CreateStoryEventRequest
	if !bindJSON(c, &req) || !required(c, "title", &req.Title) || !required(c, "description", &req.Description) {
		return
	}

	userID, _ := currentUser(c)
	event := &models.StoryEvent{
		UserID:      userID,
		EventDate:   req.EventDate,
		Title:       req.Title,
		Description: req.Description,
		Milestone:   req.Milestone,
	}
	if err := h.db.SaveStoryEvent(event); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *MemoryHandler) UpdateStoryEvent(c *gin.Context) {
	id, ok := h.ownStoryEvent(c)
	if !ok {
		return
	}

	var req dto.UpdateStoryEventRequest
	if !bindJSON(c, &req) {
		return
	}
	patch := req.Patch()
	if len(patch) == 0 {
		respondError(c, errNothingToUpdate)
		return
	}
	if col := patch.Empty("event_date", "title", "description"); col != "" {
		badRequest(c, col+" cannot be empty")
		return
	}

	event, err := h.db.UpdateStoryEvent(id, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *MemoryHandler) DeleteStoryEvent(c *gin.Context) {
	id, ok := h.ownStoryEvent(c)
	if !ok {
		return
	}

	if _, err := h.db.DeleteStoryEvent(id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ownStoryEvent resolves :id and checks the caller wrote it.
func (h *MemoryHandler) ownStoryEvent(c *gin.Context) (uuid.UUID, bool) {
	id, ok := idParam(c)
	if !ok {
		return uuid.Nil, false
	}

	event, err := h.db.GetStoryEvent(id)
	if err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}

	userID, _ := currentUser(c)
	if event.UserID != userID {
		respondError(c, errNotOwner)
		return uuid.Nil, false
	}
	return id, true
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
