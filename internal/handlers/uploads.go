package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blinkchat/internal/attachments"
)

// UploadsHandler serves stored attachments by reference. References are the
// opaque filenames produced by the attachment store.
type UploadsHandler struct {
	store  *attachments.Store
	logger *zap.Logger
}

// NewUploadsHandler constructs an UploadsHandler.
func NewUploadsHandler(store *attachments.Store, logger *zap.Logger) *UploadsHandler {
	return &UploadsHandler{store: store, logger: logger}
}

// Get streams one attachment to the client.
func (h *UploadsHandler) Get(c *gin.Context) {
	ref := c.Param("filename")
	file, err := h.store.Open(ref)
	if err != nil {
		switch {
		case errors.Is(err, attachments.ErrBadReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment reference"})
		case os.IsNotExist(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
		default:
			h.logger.Error("open attachment failed", zap.String("ref", ref), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open attachment"})
		}
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		h.logger.Error("stat attachment failed", zap.String("ref", ref), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read attachment"})
		return
	}
	http.ServeContent(c.Writer, c.Request, ref, stat.ModTime(), file)
}
