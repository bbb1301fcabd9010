package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Conceptual-Machines/vibify-api/internal/logger"
	"github.com/Conceptual-Machines/vibify-api/internal/storage"
	"github.com/gin-gonic/gin"
)

var errUploadRejected = errors.New("upload rejected")

// upload is a multipart file copied to a private temporary directory
type upload struct {
	Filename string
	Size     int64
	Path     string
	dir      string
}

func (u *upload) cleanup() {
	if u != nil && u.dir != "" {
		_ = os.RemoveAll(u.dir)
	}
}

// receiveUpload stores the "file" form field on disk. The original filename
// is kept so the song name can be derived from it. On failure the response
// has already been written.
func receiveUpload(c *gin.Context, audioFormats []string) (*upload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return nil, errUploadRejected
	}

	name := filepath.Base(header.Filename)
	if !storage.IsInputFormat(name, audioFormats) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Unsupported file type. Allowed: %s", strings.Join(allowedFormats(audioFormats), ", ")),
		})
		return nil, errUploadRejected
	}

	dir, err := os.MkdirTemp("", "vibify-upload-*")
	if err != nil {
		logger.Error("Failed to create upload directory", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return nil, err
	}

	u := &upload{Filename: name, Size: header.Size, Path: filepath.Join(dir, name), dir: dir}
	if err := c.SaveUploadedFile(header, u.Path); err != nil {
		u.cleanup()
		logger.Error("Failed to save upload", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return nil, err
	}
	return u, nil
}

func allowedFormats(audioFormats []string) []string {
	return append(append([]string{}, audioFormats...), ".mid", ".midi", ".json")
}
