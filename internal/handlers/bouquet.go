package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/handlers/dto"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/internal/services"
)

// GiftHandler serves bouquets and the shared wishlist.
type GiftHandler struct {
	db        *database.Database
	publisher *services.Publisher
}

func NewGiftHandler(db *database.Database, publisher *services.Publisher) *GiftHandler {
	return &GiftHandler{db: db, publisher: publisher}
}

func (h *GiftHandler) GetRoomBouquets(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	bouquets, err := h.db.GetRoomBouquets(code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bouquets)
}

func (h *GiftHandler) SendBouquet(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	var req dto.SendBouquetRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Flowers.Validate(); err != nil {
		respondError(c, err)
		return
	}

	userID, _ := currentUser(c)
	bouquet := &models.Bouquet{
		RoomCode:   code,
		SenderID:   userID,
		SenderName: displayName(req.SenderName, "", "Your Love"),
		Flowers:    req.Flowers,
		Message:    optional(req.Message),
	}
	if err := h.db.SaveBouquet(bouquet); err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Inserted(c.Request.Context(), models.TableBouquets, bouquet.RoomCode, bouquet)
	c.JSON(http.StatusCreated, bouquet)
}

func (h *GiftHandler) DeleteBouquet(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	bouquet, err := h.db.DeleteBouquet(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Deleted(c.Request.Context(), models.TableBouquets, bouquet.RoomCode, bouquet)
	c.Status(http.StatusNoContent)
}

// GetRoomWishlist accepts ?category= to narrow the list.
func (h *GiftHandler) GetRoomWishlist(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	category := models.WishCategory(c.Query("category"))
	if category != "" && !category.Valid() {
		badRequest(c, "unknown category")
		return
	}

	items, err := h.db.GetRoomWishlist(code, category)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *GiftHandler) AddWish(c *gin.Context) {
	code, ok := roomParam(c)
	if !ok {
		return
	}

	var req dto.CreateWishRequest
	if !bindJSON(c, &req) || !required(c, "title", &req.Title) {
		return
	}
	if req.Category == "" {
		req.Category = models.CategoryGift
	}
	if !req.Category.Valid() {
		badRequest(c, "unknown category")
		return
	}

	userID, name := currentUser(c)
	item := &models.WishlistItem{
		RoomCode:      code,
		UserID:        userID,
		CreatedByName: displayName("", name, "Your Love"),
		Title:         req.Title,
		Category:      req.Category,
		Note:          optional(req.Note),
	}
	if err := h.db.SaveWishlistItem(item); err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Inserted(c.Request.Context(), models.TableWishlist, item.RoomCode, item)
	c.JSON(http.StatusCreated, item)
}

func (h *GiftHandler) UpdateWish(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req dto.UpdateWishRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Category != nil && !req.Category.Valid() {
		badRequest(c, "unknown category")
		return
	}
	patch := req.Patch()
	if len(patch) == 0 {
		respondError(c, errNothingToUpdate)
		return
	}
	if col := patch.Empty("title"); col != "" {
		badRequest(c, col+" cannot be empty")
		return
	}

	item, err := h.db.UpdateWishlistItem(id, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Updated(c.Request.Context(), models.TableWishlist, item.RoomCode, item)
	c.JSON(http.StatusOK, item)
}

func (h *GiftHandler) ToggleWish(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	item, err := h.db.ToggleWishlistItem(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Updated(c.Request.Context(), models.TableWishlist, item.RoomCode, item)
	c.JSON(http.StatusOK, item)
}

func (h *GiftHandler) DeleteWish(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	item, err := h.db.DeleteWishlistItem(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Deleted(c.Request.Context(), models.TableWishlist, item.RoomCode, item)
	c.Status(http.StatusNoContent)
}
