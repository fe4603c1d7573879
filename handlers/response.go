package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/saber-nyan/gchan/logger"
	"github.com/saber-nyan/gchan/service"

	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// writeServiceError maps service sentinels to HTTP statuses. Anything
// unrecognized is logged and reported as a 500 without details.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBoardNotFound):
		writeError(c, http.StatusNotFound, "BOARD_NOT_FOUND", "Board not found")
	case errors.Is(err, service.ErrThreadNotFound):
		writeError(c, http.StatusNotFound, "THREAD_NOT_FOUND", "Thread not found")
	case errors.Is(err, service.ErrPostNotFound):
		writeError(c, http.StatusNotFound, "POST_NOT_FOUND", "Post not found")
	case errors.Is(err, service.ErrFileNotFound):
		writeError(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
	case errors.Is(err, service.ErrBoardClosed):
		writeError(c, http.StatusForbidden, "BOARD_CLOSED", "Board is closed")
	case errors.Is(err, service.ErrThreadClosed):
		writeError(c, http.StatusForbidden, "THREAD_CLOSED", "Thread is closed")
	case errors.Is(err, service.ErrUnknownFile):
		writeError(c, http.StatusBadRequest, "UNKNOWN_FILE", err.Error())
	case errors.Is(err, service.ErrTextTooLong):
		writeError(c, http.StatusBadRequest, "TEXT_TOO_LONG", err.Error())
	case errors.Is(err, service.ErrFieldTooLong):
		writeError(c, http.StatusBadRequest, "FIELD_TOO_LONG", err.Error())
	case errors.Is(err, service.ErrEmptyPost):
		writeError(c, http.StatusBadRequest, "EMPTY_POST", "Post needs text or at least one file")
	case errors.Is(err, service.ErrTooManyFiles):
		writeError(c, http.StatusBadRequest, "TOO_MANY_FILES", err.Error())
	default:
		logger.FromContext(c.Request.Context()).Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
