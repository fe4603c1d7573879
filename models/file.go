package models

import (
	"fmt"
	"time"
)

// Storage key prefixes for the original upload and its thumbnail.
const (
	ContentKeyPrefix = "c_"
	PreviewKeyPrefix = "p_"
)

// File represents an uploaded media file, identified by the SHA-512 of its bytes
type File struct {
	Hash            string    `json:"hash"`
	Filename        string    `json:"filename"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	Size            int64     `json:"size"`
	Content         string    `json:"content"`
	Preview         string    `json:"preview_content"`
	ThumbnailWidth  int       `json:"thumbnail_width"`
	ThumbnailHeight int       `json:"thumbnail_height"`
	FileType        FileType  `json:"filetype"`
	CreatedAt       time.Time `json:"created_at"`
	ModifiedAt      time.Time `json:"-"`
}

// NewFileParams holds the attributes of a freshly ingested file
type NewFileParams struct {
	Hash            string
	Filename        string
	Width           int
	Height          int
	Size            int64
	Content         string
	Preview         string
	ThumbnailWidth  int
	ThumbnailHeight int
	FileType        FileType
}

// NewFile builds a File record. Both timestamps are set to now; CreatedAt is
// never changed afterwards.
func NewFile(p NewFileParams, now time.Time) File {
	return File{
		Hash:            p.Hash,
		Filename:        p.Filename,
		Width:           p.Width,
		Height:          p.Height,
		Size:            p.Size,
		Content:         p.Content,
		Preview:         p.Preview,
		ThumbnailWidth:  p.ThumbnailWidth,
		ThumbnailHeight: p.ThumbnailHeight,
		FileType:        p.FileType,
		CreatedAt:       now,
		ModifiedAt:      now,
	}
}

// Touch returns a copy of f with ModifiedAt advanced to now
func (f File) Touch(now time.Time) File {
	f.ModifiedAt = now
	return f
}

// MimeType returns the MIME type of the original content
func (f File) MimeType() string {
	return f.FileType.MimeType()
}

func (f File) String() string {
	return fmt.Sprintf("%s <%s> %dx%d", f.Filename, f.Hash, f.Width, f.Height)
}

// ContentKey returns the storage key of the original bytes for hash
func ContentKey(hash string) string {
	return ContentKeyPrefix + hash
}

// PreviewKey returns the storage key of the thumbnail for hash
func PreviewKey(hash string) string {
	return PreviewKeyPrefix + hash
}
