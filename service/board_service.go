package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/saber-nyan/gchan/media"
	"github.com/saber-nyan/gchan/models"
	"github.com/saber-nyan/gchan/repository"
)

const (
	DefaultThreadsPerPage = 10
	DefaultMaxPostFiles   = 4
	maxFieldLength        = 64
)

// BoardCatalog lists and looks up boards
type BoardCatalog interface {
	BoardStore
	List(ctx context.Context) ([]*models.Board, error)
}

// ThreadStore persists threads
type ThreadStore interface {
	ListPage(ctx context.Context, board string, limit, offset int) ([]*models.Thread, error)
	GetByNumber(ctx context.Context, board string, number int64) (*models.Thread, error)
	Create(ctx context.Context, thread *models.Thread, op *models.Post) error
}

// PostStore persists posts
type PostStore interface {
	ListByThread(ctx context.Context, threadID int64) ([]*models.Post, error)
	ListOpening(ctx context.Context, threadIDs []int64) (map[int64]*models.Post, error)
	GetByNumber(ctx context.Context, threadID, number int64) (*models.Post, error)
	Create(ctx context.Context, thread *models.Thread, post *models.Post) error
}

// BoardService handles boards, threads and posts
type BoardService struct {
	boards         BoardCatalog
	threads        ThreadStore
	posts          PostStore
	files          FileStore
	threadsPerPage int
	maxPostFiles   int
	now            func() time.Time
	logger         *slog.Logger
}

// BoardServiceOption is a functional option for BoardService
type BoardServiceOption func(*BoardService)

// BoardWithCatalog sets the board store
func BoardWithCatalog(boards BoardCatalog) BoardServiceOption {
	return func(s *BoardService) {
		s.boards = boards
	}
}

// BoardWithThreadStore sets the thread store
func BoardWithThreadStore(threads ThreadStore) BoardServiceOption {
	return func(s *BoardService) {
		s.threads = threads
	}
}

// BoardWithPostStore sets the post store
func BoardWithPostStore(posts PostStore) BoardServiceOption {
	return func(s *BoardService) {
		s.posts = posts
	}
}

// BoardWithFileStore sets the file record store used to resolve cited files
func BoardWithFileStore(files FileStore) BoardServiceOption {
	return func(s *BoardService) {
		s.files = files
	}
}

// BoardWithThreadsPerPage sets the thread listing page size
func BoardWithThreadsPerPage(n int) BoardServiceOption {
	return func(s *BoardService) {
		s.threadsPerPage = n
	}
}

// BoardWithMaxPostFiles sets how many files one post may cite
func BoardWithMaxPostFiles(n int) BoardServiceOption {
	return func(s *BoardService) {
		s.maxPostFiles = n
	}
}

// BoardWithClock sets the time source for post timestamps
func BoardWithClock(now func() time.Time) BoardServiceOption {
	return func(s *BoardService) {
		s.now = now
	}
}

// BoardWithLogger sets the logger
func BoardWithLogger(logger *slog.Logger) BoardServiceOption {
	return func(s *BoardService) {
		s.logger = logger
	}
}

// NewBoardService creates a new board service
func NewBoardService(opts ...BoardServiceOption) *BoardService {
	s := &BoardService{
		threadsPerPage: DefaultThreadsPerPage,
		maxPostFiles:   DefaultMaxPostFiles,
		now:            time.Now,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "boards"))
	return s
}

// PostRequest holds the user-supplied fields of a new post
type PostRequest struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	Files   []string `json:"files"`
}

// ListBoards returns all boards
func (s *BoardService) ListBoards(ctx context.Context) ([]*models.Board, error) {
	boards, err := s.boards.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	if boards == nil {
		boards = []*models.Board{}
	}
	return boards, nil
}

// ListThreads returns one zero-based page of a board's threads, each with
// its opening post only
func (s *BoardService) ListThreads(ctx context.Context, boardName string, page int) ([]*models.Thread, error) {
	if _, err := s.getBoard(ctx, boardName); err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}

	threads, err := s.threads.ListPage(ctx, boardName, s.threadsPerPage, page*s.threadsPerPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	ids := make([]int64, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	ops, err := s.posts.ListOpening(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list opening posts: %w", err)
	}

	for _, t := range threads {
		t.Posts = []*models.Post{}
		if op, ok := ops[t.ID]; ok {
			t.Posts = append(t.Posts, op)
		}
	}
	if threads == nil {
		threads = []*models.Thread{}
	}
	return threads, nil
}

// GetThread returns a thread with all of its posts
func (s *BoardService) GetThread(ctx context.Context, boardName string, number int64) (*models.Thread, error) {
	if _, err := s.getBoard(ctx, boardName); err != nil {
		return nil, err
	}
	thread, err := s.getThread(ctx, boardName, number)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByThread(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	thread.Posts = posts
	if thread.Posts == nil {
		thread.Posts = []*models.Post{}
	}
	return thread, nil
}

// GetPost returns one post of a thread
func (s *BoardService) GetPost(ctx context.Context, boardName string, threadNumber, postNumber int64) (*models.Post, error) {
	if _, err := s.getBoard(ctx, boardName); err != nil {
		return nil, err
	}
	thread, err := s.getThread(ctx, boardName, threadNumber)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetByNumber(ctx, thread.ID, postNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// CreateThread starts a new thread on an open board
func (s *BoardService) CreateThread(ctx context.Context, boardName string, req PostRequest) (*models.Thread, error) {
	board, err := s.getBoard(ctx, boardName)
	if err != nil {
		return nil, err
	}
	if board.Closed {
		return nil, ErrBoardClosed
	}

	op, err := s.newPost(ctx, board, req)
	if err != nil {
		return nil, err
	}

	thread := &models.Thread{Board: board.Name}
	if err := s.threads.Create(ctx, thread, op); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	s.logger.Info("Thread created",
		slog.String("board", board.Name),
		slog.Int64("number", thread.Number),
		slog.Int("files", len(op.Files)),
	)
	return thread, nil
}

// CreatePost replies to an open thread on an open board
func (s *BoardService) CreatePost(ctx context.Context, boardName string, threadNumber int64, req PostRequest) (*models.Post, error) {
	board, err := s.getBoard(ctx, boardName)
	if err != nil {
		return nil, err
	}
	if board.Closed {
		return nil, ErrBoardClosed
	}

	thread, err := s.getThread(ctx, boardName, threadNumber)
	if err != nil {
		return nil, err
	}
	if thread.Closed {
		return nil, ErrThreadClosed
	}

	post, err := s.newPost(ctx, board, req)
	if err != nil {
		return nil, err
	}

	if err := s.posts.Create(ctx, thread, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("Post created",
		slog.String("board", board.Name),
		slog.Int64("thread", thread.Number),
		slog.Int64("number", post.PostID),
		slog.Int("files", len(post.Files)),
	)
	return post, nil
}

// newPost validates req against the board and resolves the cited files
func (s *BoardService) newPost(ctx context.Context, board *models.Board, req PostRequest) (*models.Post, error) {
	text := strings.TrimSpace(req.Text)
	if utf8.RuneCountInString(text) > board.MaxTextSize {
		return nil, fmt.Errorf("%w: limit is %d characters", ErrTextTooLong, board.MaxTextSize)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = board.DefaultName
	}
	email := strings.TrimSpace(req.Email)
	subject := strings.TrimSpace(req.Subject)
	for field, value := range map[string]string{"name": name, "email": email, "subject": subject} {
		if utf8.RuneCountInString(value) > maxFieldLength {
			return nil, fmt.Errorf("%w: %s is limited to %d characters", ErrFieldTooLong, field, maxFieldLength)
		}
	}

	files, err := s.resolveFiles(ctx, req.Files)
	if err != nil {
		return nil, err
	}
	if text == "" && len(files) == 0 {
		return nil, ErrEmptyPost
	}

	return &models.Post{
		Text:      text,
		Email:     email,
		Name:      name,
		Subject:   subject,
		Files:     files,
		CreatedAt: s.now(),
	}, nil
}

// resolveFiles loads the cited records in citation order, ignoring repeats
func (s *BoardService) resolveFiles(ctx context.Context, cited []string) ([]models.File, error) {
	seen := make(map[string]bool, len(cited))
	hashes := make([]string, 0, len(cited))
	for _, hash := range cited {
		hash = strings.ToLower(strings.TrimSpace(hash))
		if !seen[hash] {
			seen[hash] = true
			hashes = append(hashes, hash)
		}
	}
	if len(hashes) > s.maxPostFiles {
		return nil, fmt.Errorf("%w: at most %d files per post", ErrTooManyFiles, s.maxPostFiles)
	}

	files := make([]models.File, 0, len(hashes))
	for _, hash := range hashes {
		if !media.ValidHash(hash) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFile, hash)
		}

		file, err := s.files.GetByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownFile, hash)
			}
			return nil, fmt.Errorf("failed to get file: %w", err)
		}
		files = append(files, *file)
	}
	return files, nil
}

func (s *BoardService) getBoard(ctx context.Context, name string) (*models.Board, error) {
	board, err := s.boards.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return board, nil
}

func (s *BoardService) getThread(ctx context.Context, boardName string, number int64) (*models.Thread, error) {
	thread, err := s.threads.GetByNumber(ctx, boardName, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return thread, nil
}
