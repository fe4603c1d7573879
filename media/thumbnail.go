package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/saber-nyan/gchan/metrics"
)

const (
	// MaxThumbnailSide bounds the longer side of a thumbnail in pixels.
	MaxThumbnailSide = 250
	ImageQuality     = 70
	VideoQuality     = 85

	DefaultDecodeTimeout = 15 * time.Second
	DefaultMaxPixels     = 50_000_000
)

// ErrDecode is returned when media cannot be decoded into pixels
var ErrDecode = errors.New("decode failure")

// Thumbnail is a JPEG preview together with the source dimensions
type Thumbnail struct {
	Data         []byte
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
}

// Thumbnailer derives bounded previews from images and videos
type Thumbnailer struct {
	ffmpegPath    string
	scratchDir    string
	decodeTimeout time.Duration
	maxPixels     int
	logger        *slog.Logger
}

// ThumbnailerOption is a functional option for Thumbnailer
type ThumbnailerOption func(*Thumbnailer)

// WithFFmpegPath sets the video decoder binary
func WithFFmpegPath(path string) ThumbnailerOption {
	return func(t *Thumbnailer) {
		t.ffmpegPath = path
	}
}

// WithScratchDir sets where video scratch files are created ("" = OS temp dir)
func WithScratchDir(dir string) ThumbnailerOption {
	return func(t *Thumbnailer) {
		t.scratchDir = dir
	}
}

// WithDecodeTimeout bounds the time spent decoding one upload
func WithDecodeTimeout(d time.Duration) ThumbnailerOption {
	return func(t *Thumbnailer) {
		t.decodeTimeout = d
	}
}

// WithMaxPixels rejects images whose header declares more pixels than n
func WithMaxPixels(n int) ThumbnailerOption {
	return func(t *Thumbnailer) {
		t.maxPixels = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ThumbnailerOption {
	return func(t *Thumbnailer) {
		t.logger = logger
	}
}

// NewThumbnailer creates a new thumbnailer
func NewThumbnailer(opts ...ThumbnailerOption) *Thumbnailer {
	t := &Thumbnailer{
		ffmpegPath:    "ffmpeg",
		decodeTimeout: DefaultDecodeTimeout,
		maxPixels:     DefaultMaxPixels,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(slog.String("component", "thumbnailer"))
	return t
}

// Thumbnail derives a preview of buf according to its media kind.
// Errors wrapping ErrDecode mean the content is corrupt or undecodable;
// any other error is an environment failure.
func (t *Thumbnailer) Thumbnail(ctx context.Context, kind Kind, buf []byte) (*Thumbnail, error) {
	start := time.Now()
	defer func() {
		metrics.ThumbnailDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	if t.decodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.decodeTimeout)
		defer cancel()
	}

	switch kind {
	case KindImage:
		img, err := t.decodeImage(ctx, buf)
		if err != nil {
			return nil, err
		}
		return encodeThumbnail(img, ImageQuality)
	case KindVideo:
		frame, err := t.extractFrame(ctx, buf)
		if err != nil {
			return nil, err
		}
		return encodeThumbnail(frame, VideoQuality)
	default:
		return nil, fmt.Errorf("%w: unsupported media kind %q", ErrDecode, kind)
	}
}

// decodeImage decodes a still image. Go decoders cannot be interrupted, so
// decoding runs in its own goroutine and the caller stops waiting when ctx
// expires.
func (t *Thumbnailer) decodeImage(ctx context.Context, buf []byte) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	if t.maxPixels > 0 && cfg.Width*cfg.Height > t.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, t.maxPixels)
	}

	type decoded struct {
		img image.Image
		err error
	}
	done := make(chan decoded, 1)
	go func() {
		img, _, err := image.Decode(bytes.NewReader(buf))
		done <- decoded{img: img, err: err}
	}()

	select {
	case <-ctx.Done():
		t.logger.Warn("image decode timed out",
			slog.String("format", format),
			slog.Int("width", cfg.Width),
			slog.Int("height", cfg.Height),
		)
		return nil, fmt.Errorf("%w: %v", ErrDecode, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, res.err)
		}
		return res.img, nil
	}
}

// ThumbnailSize scales (w, h) so the longer side becomes MaxThumbnailSide,
// preserving aspect ratio.
func ThumbnailSize(w, h int) (int, int) {
	ratio := math.Min(float64(MaxThumbnailSide)/float64(w), float64(MaxThumbnailSide)/float64(h))
	tw := int(math.Round(float64(w) * ratio))
	th := int(math.Round(float64(h) * ratio))
	return max(tw, 1), max(th, 1)
}

func encodeThumbnail(src image.Image, quality int) (*Thumbnail, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	tw, th := ThumbnailSize(b.Dx(), b.Dy())
	resized := imaging.Resize(src, tw, th, imaging.Lanczos)
	dropAlpha(resized)

	var out bytes.Buffer
	if err := imaging.Encode(&out, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &Thumbnail{
		Data:         out.Bytes(),
		Width:        tw,
		Height:       th,
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
	}, nil
}

// dropAlpha makes every pixel opaque without touching its color channels.
func dropAlpha(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
