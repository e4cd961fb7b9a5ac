package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/handlers/dto"
	"github.com/thereayou/lovenest/internal/models"
)

type UserHandler struct {
	db *database.Database
}

func NewUserHandler(db *database.Database) *UserHandler {
	return &UserHandler{db: db}
}

// GetProfile returns the caller's profile. A user without one gets a profile
// named after their username, unsaved.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := currentUser(c)

	profile, err := h.db.GetProfile(userID)
	if errors.Is(err, database.ErrNotFound) {
		user, uerr := h.db.GetUser(userID)
		if uerr != nil {
			respondError(c, uerr)
			return
		}
		profile, err = &models.Profile{UserID: userID, FullName: user.Username}, nil
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) || !required(c, "full_name", &req.FullName) {
		return
	}

	userID, _ := currentUser(c)
	profile, err := h.db.UpsertProfile(&models.Profile{
		UserID:    userID,
		FullName:  req.FullName,
		AvatarURL: optional(req.AvatarURL),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
