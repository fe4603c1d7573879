package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/saber-nyan/gchan/media"
	"github.com/saber-nyan/gchan/metrics"
	"github.com/saber-nyan/gchan/models"
	"github.com/saber-nyan/gchan/repository"
	"github.com/saber-nyan/gchan/storage"
)

const maxFilenameLength = 256

// BoardStore looks up boards by name
type BoardStore interface {
	GetByName(ctx context.Context, name string) (*models.Board, error)
}

// FileStore persists file records. Create returns repository.ErrDuplicate
// when a record with the same hash already exists.
type FileStore interface {
	GetByHash(ctx context.Context, hash string) (*models.File, error)
	Create(ctx context.Context, file *models.File) error
}

// Thumbnailer derives previews from decoded media
type Thumbnailer interface {
	Thumbnail(ctx context.Context, kind media.Kind, buf []byte) (*media.Thumbnail, error)
}

// Limits are the per-board constraints applied to one upload
type Limits struct {
	MaxBytes int64
}

// LimitsFor returns the upload limits of board
func LimitsFor(board *models.Board) Limits {
	return Limits{MaxBytes: board.MaxFileBytes()}
}

// IngestService validates, deduplicates, thumbnails and stores uploads
type IngestService struct {
	boards      BoardStore
	files       FileStore
	storage     storage.Storage
	thumbnailer Thumbnailer
	cache       *FileCache
	sniff       func([]byte) media.Sniffed
	now         func() time.Time
	logger      *slog.Logger
}

// IngestServiceOption is a functional option for IngestService
type IngestServiceOption func(*IngestService)

// WithBoardStore sets the board store
func WithBoardStore(store BoardStore) IngestServiceOption {
	return func(s *IngestService) {
		s.boards = store
	}
}

// WithFileStore sets the file record store
func WithFileStore(store FileStore) IngestServiceOption {
	return func(s *IngestService) {
		s.files = store
	}
}

// WithStorage sets the content store
func WithStorage(store storage.Storage) IngestServiceOption {
	return func(s *IngestService) {
		s.storage = store
	}
}

// WithThumbnailer sets the thumbnail deriver
func WithThumbnailer(t Thumbnailer) IngestServiceOption {
	return func(s *IngestService) {
		s.thumbnailer = t
	}
}

// WithFileCache sets the record cache consulted before the file store
func WithFileCache(cache *FileCache) IngestServiceOption {
	return func(s *IngestService) {
		s.cache = cache
	}
}

// WithSniffer replaces the format sniffer
func WithSniffer(sniff func([]byte) media.Sniffed) IngestServiceOption {
	return func(s *IngestService) {
		s.sniff = sniff
	}
}

// WithClock sets the time source for record timestamps
func WithClock(now func() time.Time) IngestServiceOption {
	return func(s *IngestService) {
		s.now = now
	}
}

// WithIngestLogger sets the logger
func WithIngestLogger(logger *slog.Logger) IngestServiceOption {
	return func(s *IngestService) {
		s.logger = logger
	}
}

// NewIngestService creates a new ingest service
func NewIngestService(opts ...IngestServiceOption) *IngestService {
	s := &IngestService{
		sniff:  media.Sniff,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "ingest"))
	return s
}

// Ingest runs one upload through the pipeline: size check, format sniffing,
// hashing, deduplication, thumbnailing and storage. Rejections are returned
// as results; the error is reserved for storage and database failures.
func (s *IngestService) Ingest(ctx context.Context, limits Limits, r io.Reader, filename string) (Result, error) {
	result, outcome, err := s.ingest(ctx, limits, r, filename)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}
	metrics.IngestTotal.WithLabelValues(outcome).Inc()
	return result, nil
}

func (s *IngestService) ingest(ctx context.Context, limits Limits, r io.Reader, filename string) (Result, string, error) {
	buf, err := io.ReadAll(io.LimitReader(r, limits.MaxBytes+1))
	if err != nil {
		return Result{}, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(buf)) > limits.MaxBytes {
		s.logger.Debug("Upload rejected: too large",
			slog.String("filename", filename),
			slog.Int64("max_bytes", limits.MaxBytes),
		)
		return rejected(ReasonTooLarge,
			fmt.Sprintf("file exceeds the size limit of %d KB", limits.MaxBytes/1024))
	}

	sniffed := s.sniff(buf)
	if !sniffed.Supported() {
		s.logger.Debug("Upload rejected: unsupported format",
			slog.String("filename", filename),
			slog.String("mime", sniffed.MimeType),
		)
		return rejected(ReasonUnsupportedFormat,
			fmt.Sprintf("unsupported format %s, allowed formats are %s", sniffed.MimeType, allowedFormats()))
	}

	hash := media.Hash(buf)

	existing, err := s.lookup(ctx, hash)
	if err != nil {
		return Result{}, "", err
	}
	if existing != nil {
		s.logger.Debug("Upload deduplicated", slog.String("hash", hash))
		return Accepted(hash), "deduplicated", nil
	}

	thumb, err := s.thumbnailer.Thumbnail(ctx, sniffed.Kind, buf)
	if err != nil {
		if errors.Is(err, media.ErrDecode) {
			s.logger.Info("Upload rejected: decode failure",
				slog.String("filename", filename),
				slog.String("filetype", string(sniffed.FileType)),
				slog.String("error", err.Error()),
			)
			return rejected(ReasonDecodeFailure,
				fmt.Sprintf("cannot decode %s file: %v", sniffed.FileType, err))
		}
		return Result{}, "", fmt.Errorf("failed to derive thumbnail: %w", err)
	}

	content, err := s.storage.Put(ctx, models.ContentKey(hash), bytes.NewReader(buf), sniffed.MimeType)
	if err != nil {
		return Result{}, "", fmt.Errorf("failed to store content: %w", err)
	}
	preview, err := s.storage.Put(ctx, models.PreviewKey(hash), bytes.NewReader(thumb.Data), models.FileTypeJPEG.MimeType())
	if err != nil {
		return Result{}, "", fmt.Errorf("failed to store thumbnail: %w", err)
	}

	file := models.NewFile(models.NewFileParams{
		Hash:            hash,
		Filename:        displayName(filename),
		Width:           thumb.SourceWidth,
		Height:          thumb.SourceHeight,
		Size:            int64(len(buf)),
		Content:         content,
		Preview:         preview,
		ThumbnailWidth:  thumb.Width,
		ThumbnailHeight: thumb.Height,
		FileType:        sniffed.FileType,
	}, s.now())

	if err := s.files.Create(ctx, &file); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent upload of the same bytes committed first.
			s.logger.Debug("Upload raced with an identical one", slog.String("hash", hash))
			return Accepted(hash), "deduplicated", nil
		}
		return Result{}, "", fmt.Errorf("failed to create file record: %w", err)
	}
	s.cache.Set(&file)

	s.logger.Info("File ingested",
		slog.String("hash", hash),
		slog.String("filetype", string(file.FileType)),
		slog.Int64("size", file.Size),
		slog.Int("width", file.Width),
		slog.Int("height", file.Height),
	)
	return Accepted(hash), "accepted", nil
}

// lookup returns the existing record for hash, or nil
func (s *IngestService) lookup(ctx context.Context, hash string) (*models.File, error) {
	if file, ok := s.cache.Get(hash); ok {
		return file, nil
	}
	file, err := s.files.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up file: %w", err)
	}
	s.cache.Set(file)
	return file, nil
}

// IngestBatch ingests the files of one upload request in order. The board is
// checked before any file is read; a rejected file does not affect the
// others, while a fatal error aborts the whole batch.
func (s *IngestService) IngestBatch(ctx context.Context, boardName string, files []NamedFile) (*BatchResult, error) {
	board, err := s.boards.GetByName(ctx, boardName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	if board.Closed {
		return nil, ErrBoardClosed
	}

	limits := LimitsFor(board)
	batch := NewBatchResult()
	for _, f := range files {
		result, err := s.ingestNamed(ctx, limits, f)
		if err != nil {
			s.logger.Error("Batch aborted",
				slog.String("board", boardName),
				slog.String("filename", f.Filename),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		batch.Set(f.Filename, result)
	}
	return batch, nil
}

func (s *IngestService) ingestNamed(ctx context.Context, limits Limits, f NamedFile) (Result, error) {
	rc, err := f.Open()
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %q: %w", f.Filename, err)
	}
	defer rc.Close()
	return s.Ingest(ctx, limits, rc, f.Filename)
}

func rejected(reason Reason, details string) (Result, string, error) {
	return Rejected(reason, details), string(reason), nil
}

func allowedFormats() string {
	names := make([]string, 0, len(models.FileTypes))
	for _, ft := range models.FileTypes {
		names = append(names, string(ft))
	}
	return strings.Join(names, ", ")
}

// displayName strips directories some clients send and bounds the length
func displayName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	if utf8.RuneCountInString(name) <= maxFilenameLength {
		return name
	}
	return string([]rune(name)[:maxFilenameLength])
}
