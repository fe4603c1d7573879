// Package media classifies, hashes and thumbnails uploaded media.
package media

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/saber-nyan/gchan/models"
)

// Kind is the coarse media class used to pick a thumbnail strategy
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
)

// Sniffed is the result of content-based type detection
type Sniffed struct {
	Kind      Kind
	FileType  models.FileType
	MimeType  string
	Extension string
}

// Supported reports whether the content is one of the accepted formats
func (s Sniffed) Supported() bool {
	return s.Kind != KindUnknown
}

// Sniff detects the format of buf from its leading bytes only.
// Names and declared content types are never consulted.
func Sniff(buf []byte) Sniffed {
	detected := mimetype.Detect(buf)
	s := Sniffed{
		Kind:      KindUnknown,
		MimeType:  detected.String(),
		Extension: detected.Extension(),
	}

	ft, ok := models.ParseFileType(detected.Extension())
	if !ok {
		return s
	}

	mediaType, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return s
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		s.Kind = KindImage
	case strings.HasPrefix(mediaType, "video/"):
		s.Kind = KindVideo
	default:
		return s
	}
	s.FileType = ft
	return s
}
