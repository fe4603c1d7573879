package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/saber-nyan/gchan/models"
	"github.com/saber-nyan/gchan/service"

	"github.com/gin-gonic/gin"
)

// BoardReader serves boards, threads and posts
type BoardReader interface {
	ListBoards(ctx context.Context) ([]*models.Board, error)
	ListThreads(ctx context.Context, boardName string, page int) ([]*models.Thread, error)
	GetThread(ctx context.Context, boardName string, number int64) (*models.Thread, error)
	GetPost(ctx context.Context, boardName string, threadNumber, postNumber int64) (*models.Post, error)
}

// BoardWriter creates threads and posts
type BoardWriter interface {
	CreateThread(ctx context.Context, boardName string, req service.PostRequest) (*models.Thread, error)
	CreatePost(ctx context.Context, boardName string, threadNumber int64, req service.PostRequest) (*models.Post, error)
}

// BoardService is everything BoardHandler needs
type BoardService interface {
	BoardReader
	BoardWriter
}

// BoardHandler handles HTTP requests for boards, threads and posts
type BoardHandler struct {
	boards BoardService
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boards BoardService) *BoardHandler {
	return &BoardHandler{boards: boards}
}

// CreatePostRequest represents the request body for creating a thread or post
type CreatePostRequest struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	Files   []string `json:"files"`
}

func (r CreatePostRequest) toService() service.PostRequest {
	return service.PostRequest{
		Name:    r.Name,
		Email:   r.Email,
		Subject: r.Subject,
		Text:    r.Text,
		Files:   r.Files,
	}
}

// ListBoards handles GET /api/board/
func (h *BoardHandler) ListBoards(c *gin.Context) {
	boards, err := h.boards.ListBoards(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

// ListThreads handles GET /api/board/:board/:page/
func (h *BoardHandler) ListThreads(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 0 {
		writeError(c, http.StatusBadRequest, "INVALID_PAGE", "Page must be a non-negative integer")
		return
	}

	threads, err := h.boards.ListThreads(c.Request.Context(), c.Param("board"), page)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

// GetThread handles GET /api/board/:board/thread/:thread/
func (h *BoardHandler) GetThread(c *gin.Context) {
	number, ok := parseNumber(c, "thread")
	if !ok {
		return
	}

	thread, err := h.boards.GetThread(c.Request.Context(), c.Param("board"), number)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// GetPost handles GET /api/board/:board/thread/:thread/post/:post/
func (h *BoardHandler) GetPost(c *gin.Context) {
	threadNumber, ok := parseNumber(c, "thread")
	if !ok {
		return
	}
	postNumber, ok := parseNumber(c, "post")
	if !ok {
		return
	}

	post, err := h.boards.GetPost(c.Request.Context(), c.Param("board"), threadNumber, postNumber)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreateThread handles POST /api/board/:board/thread/
func (h *BoardHandler) CreateThread(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	thread, err := h.boards.CreateThread(c.Request.Context(), c.Param("board"), req.toService())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

// CreatePost handles POST /api/board/:board/thread/:thread/post/
func (h *BoardHandler) CreatePost(c *gin.Context) {
	number, ok := parseNumber(c, "thread")
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	post, err := h.boards.CreatePost(c.Request.Context(), c.Param("board"), number, req.toService())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func parseNumber(c *gin.Context, param string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || n <= 0 {
		writeError(c, http.StatusBadRequest, "INVALID_"+strings.ToUpper(param), "Invalid "+param+" number")
		return 0, false
	}
	return n, true
}
