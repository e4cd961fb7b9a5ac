package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/lovenest/internal/storage"
)

// multipartOverhead is slack for the multipart envelope around the file.
const multipartOverhead = 64 << 10

type UploadHandler struct {
	store *storage.ImageStore
}

func NewUploadHandler(store *storage.ImageStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// UploadImage stores the multipart field "file" and returns its public URL.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.store.MaxBytes()+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, storage.ErrTooLarge)
			return
		}
		badRequest(c, "multipart field \"file\" is required")
		return
	}
	if header.Size > h.store.MaxBytes() {
		respondError(c, storage.ErrTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	userID, _ := currentUser(c)
	obj, err := h.store.Save(userID, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, obj)
}
