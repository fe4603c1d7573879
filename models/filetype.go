package models

import "strings"

// FileType is the closed set of accepted media formats
type FileType string

const (
	FileTypeJPEG FileType = "jpeg"
	FileTypePNG  FileType = "png"
	FileTypeGIF  FileType = "gif"
	FileTypeWEBM FileType = "webm"
	FileTypeWEBP FileType = "webp"
)

// FileTypes lists the accepted formats in display order
var FileTypes = []FileType{FileTypeJPEG, FileTypePNG, FileTypeGIF, FileTypeWEBM, FileTypeWEBP}

// fileTypes maps every accepted spelling to its canonical tag.
var fileTypes = map[string]FileType{
	"jpeg": FileTypeJPEG,
	"jpg":  FileTypeJPEG,
	"png":  FileTypePNG,
	"gif":  FileTypeGIF,
	"webm": FileTypeWEBM,
	"webp": FileTypeWEBP,
}

// ParseFileType resolves a format name or extension (with or without the
// leading dot, any case) to its canonical FileType.
func ParseFileType(s string) (FileType, bool) {
	ft, ok := fileTypes[strings.ToLower(strings.TrimPrefix(s, "."))]
	return ft, ok
}

// Extension returns the file extension without the dot
func (t FileType) Extension() string {
	if t == FileTypeJPEG {
		return "jpg"
	}
	return string(t)
}

// MimeType returns the MIME type for the format
func (t FileType) MimeType() string {
	switch t {
	case FileTypeJPEG:
		return "image/jpeg"
	case FileTypePNG:
		return "image/png"
	case FileTypeGIF:
		return "image/gif"
	case FileTypeWEBP:
		return "image/webp"
	case FileTypeWEBM:
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

// IsVideo reports whether the format needs frame extraction for thumbnails
func (t FileType) IsVideo() bool {
	return t == FileTypeWEBM
}
