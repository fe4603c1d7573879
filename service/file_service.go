package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/saber-nyan/gchan/media"
	"github.com/saber-nyan/gchan/models"
	"github.com/saber-nyan/gchan/repository"
	"github.com/saber-nyan/gchan/storage"
)

// FileService serves stored originals and thumbnails by hash
type FileService struct {
	files   FileStore
	storage storage.Storage
	cache   *FileCache
}

// NewFileService creates a new file service
func NewFileService(files FileStore, store storage.Storage, cache *FileCache) *FileService {
	return &FileService{files: files, storage: store, cache: cache}
}

// Blob is an open stored object with its content type
type Blob struct {
	io.ReadCloser
	ContentType string
	File        *models.File
}

// GetFile returns the record for hash
func (s *FileService) GetFile(ctx context.Context, hash string) (*models.File, error) {
	if !media.ValidHash(hash) {
		return nil, ErrFileNotFound
	}
	if file, ok := s.cache.Get(hash); ok {
		return file, nil
	}

	file, err := s.files.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	s.cache.Set(file)
	return file, nil
}

// OpenContent opens the original bytes of a file
func (s *FileService) OpenContent(ctx context.Context, hash string) (*Blob, error) {
	file, err := s.GetFile(ctx, hash)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, file, file.Content, file.MimeType())
}

// OpenPreview opens the JPEG thumbnail of a file
func (s *FileService) OpenPreview(ctx context.Context, hash string) (*Blob, error) {
	file, err := s.GetFile(ctx, hash)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, file, file.Preview, models.FileTypeJPEG.MimeType())
}

func (s *FileService) open(ctx context.Context, file *models.File, locator, contentType string) (*Blob, error) {
	rc, err := s.storage.Get(ctx, locator)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s is missing from storage", ErrFileNotFound, locator)
		}
		return nil, fmt.Errorf("failed to open %s: %w", locator, err)
	}
	return &Blob{ReadCloser: rc, ContentType: contentType, File: file}, nil
}
