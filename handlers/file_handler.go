package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/saber-nyan/gchan/service"

	"github.com/gin-gonic/gin"
)

const (
	uploadField      = "file"
	immutableCaching = "public, max-age=31536000, immutable"
)

// BatchIngester ingests the files of one upload request
type BatchIngester interface {
	IngestBatch(ctx context.Context, boardName string, files []service.NamedFile) (*service.BatchResult, error)
}

// FileOpener serves stored files by hash
type FileOpener interface {
	OpenContent(ctx context.Context, hash string) (*service.Blob, error)
	OpenPreview(ctx context.Context, hash string) (*service.Blob, error)
}

// FileHandler handles HTTP requests for file operations
type FileHandler struct {
	ingester BatchIngester
	files    FileOpener
	maxFiles int
}

// NewFileHandler creates a new file handler
func NewFileHandler(ingester BatchIngester, files FileOpener, maxFiles int) *FileHandler {
	return &FileHandler{
		ingester: ingester,
		files:    files,
		maxFiles: maxFiles,
	}
}

// UploadFiles handles POST /api/board/:board/file/
func (h *FileHandler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart/form-data body")
		return
	}

	headers := form.File[uploadField]
	if len(headers) == 0 {
		writeError(c, http.StatusBadRequest, "MISSING_FILE", "At least one file is required")
		return
	}
	if len(headers) > h.maxFiles {
		writeError(c, http.StatusBadRequest, "TOO_MANY_FILES",
			fmt.Sprintf("At most %d files per upload", h.maxFiles))
		return
	}

	files := make([]service.NamedFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, service.NamedFile{
			Filename: fh.Filename,
			Open:     openPart(fh),
		})
	}

	result, err := h.ingester.IngestBatch(c.Request.Context(), c.Param("board"), files)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}

// GetFile handles GET /api/file/:hash/
func (h *FileHandler) GetFile(c *gin.Context) {
	blob, err := h.files.OpenContent(c.Request.Context(), strings.ToLower(c.Param("hash")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer blob.Close()

	c.DataFromReader(http.StatusOK, blob.File.Size, blob.ContentType, blob, map[string]string{
		"Cache-Control":       immutableCaching,
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", blob.File.Filename),
	})
}

// GetThumbnail handles GET /api/file/thumbnail/:hash/
func (h *FileHandler) GetThumbnail(c *gin.Context) {
	blob, err := h.files.OpenPreview(c.Request.Context(), strings.ToLower(c.Param("hash")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer blob.Close()

	c.DataFromReader(http.StatusOK, -1, blob.ContentType, blob, map[string]string{
		"Cache-Control": immutableCaching,
	})
}
