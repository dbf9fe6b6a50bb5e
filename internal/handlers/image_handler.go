package handlers

import (
	"io"
	"net/http"

	"dugnadhub-api/internal/blob"

	"github.com/gin-gonic/gin"
)

// maxImageBytes caps a single upload at 10 MB.
const maxImageBytes = 10 << 20

// ImageHandler accepts dugnad image uploads and hands back the public
// URL clients put into create/edit payloads.
type ImageHandler struct {
	Blobs blob.Store
}

// Upload handles POST /api/images (multipart field "image")
func (h *ImageHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image"})
		return
	}

	url, err := h.Blobs.Upload(c.Request.Context(), data, header.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}
