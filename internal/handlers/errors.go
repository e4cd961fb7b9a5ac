package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/middleware"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/internal/services"
	"github.com/thereayou/lovenest/internal/storage"
	"github.com/thereayou/lovenest/pkg/auth"
	"github.com/thereayou/lovenest/pkg/roomcode"
	"github.com/thereayou/lovenest/pkg/tictactoe"
)

// Error codes carried next to the message in every error body.
const (
	CodeValidation   = "validation"
	CodeNotFound     = "not_found"
	CodeRoomFull     = "room_full"
	CodeConflict     = "conflict"
	CodeRejected     = "rejected"
	CodeForbidden    = "forbidden"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal"
)

var (
	errNothingToUpdate = errors.New("nothing to update")
	errNotOwner        = errors.New("only the author can change this record")
)

type errorClass struct {
	status int
	code   string
	target []error
}

var errorClasses = []errorClass{
	{http.StatusRequestEntityTooLarge, CodeValidation, []error{storage.ErrTooLarge}},
	{http.StatusBadRequest, CodeValidation, []error{
		roomcode.ErrEmpty, roomcode.ErrTooLong,
		models.ErrNoFlowers, models.ErrTooManyFlowers, models.ErrUnknownFlower,
		storage.ErrEmpty, storage.ErrNotImage,
		errNothingToUpdate,
	}},
	{http.StatusNotFound, CodeNotFound, []error{database.ErrNotFound, services.ErrGameNotFound}},
	{http.StatusConflict, CodeRoomFull, []error{services.ErrRoomFull}},
	{http.StatusConflict, CodeConflict, []error{services.ErrVersionConflict, services.ErrEmailTaken}},
	{http.StatusUnprocessableEntity, CodeRejected, []error{
		services.ErrMoveRejected,
		tictactoe.ErrCellOccupied, tictactoe.ErrNotYourTurn, tictactoe.ErrNotPlaying,
		tictactoe.ErrInvalidCell, tictactoe.ErrInvalidMark, tictactoe.ErrNotStarted,
	}},
	{http.StatusForbidden, CodeForbidden, []error{services.ErrNotAPlayer, errNotOwner}},
	{http.StatusUnauthorized, CodeUnauthorized, []error{services.ErrInvalidCredentials, auth.ErrInvalidToken}},
}

// respondError maps err onto a status and error code. Unknown errors are
// logged and reported as internal.
func respondError(c *gin.Context, err error) {
	for _, class := range errorClasses {
		for _, target := range class.target {
			if errors.Is(err, target) {
				c.JSON(class.status, gin.H{"error": err.Error(), "code": class.code})
				return
			}
		}
	}

	log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": CodeInternal})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": CodeValidation})
}

// bindJSON decodes the body into req and answers 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func currentUser(c *gin.Context) (uuid.UUID, string) {
	return c.MustGet(middleware.UserIDKey).(uuid.UUID), c.GetString(middleware.UserNameKey)
}

// roomParam returns the canonical :code path parameter.
func roomParam(c *gin.Context) (string, bool) {
	code, err := roomcode.Parse(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return code, true
}

func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// required trims s and reports whether anything is left.
func required(c *gin.Context, field string, s *string) bool {
	*s = strings.TrimSpace(*s)
	if *s == "" {
		badRequest(c, field+" is required")
		return false
	}
	return true
}

// displayName prefers an explicit name over the one carried by the token.
func displayName(explicit, fromToken, fallback string) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return name
	}
	if fromToken != "" {
		return fromToken
	}
	return fallback
}
