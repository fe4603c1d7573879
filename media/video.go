package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// decodeSession holds the scratch copy of a video for the lifetime of one
// frame extraction.
type decodeSession struct {
	path string
}

func openDecodeSession(dir string, buf []byte) (*decodeSession, error) {
	f, err := os.CreateTemp(dir, "gchan-video-*.webm")
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	s := &decodeSession{path: f.Name()}

	if _, err := f.Write(buf); err != nil {
		f.Close()
		s.Close()
		return nil, fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		s.Close()
		return nil, fmt.Errorf("close scratch file: %w", err)
	}
	return s, nil
}

// Close removes the scratch file. Safe to call more than once.
func (s *decodeSession) Close() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// firstFrame asks ffmpeg for exactly one decoded frame as PNG on stdout.
func (s *decodeSession) firstFrame(ctx context.Context, ffmpegPath string) (image.Image, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-nostdin",
		"-v", "error",
		"-i", s.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"pipe:1",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: video decode: %v", ErrDecode, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: video decode: %s", ErrDecode, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("run video decoder: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: no decodable video frame", ErrDecode)
	}

	frame, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: video frame: %v", ErrDecode, err)
	}
	return frame, nil
}

func (t *Thumbnailer) extractFrame(ctx context.Context, buf []byte) (image.Image, error) {
	session, err := openDecodeSession(t.scratchDir, buf)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			t.logger.Error("failed to remove scratch file",
				slog.String("path", session.path),
				slog.String("error", err.Error()),
			)
		}
	}()

	return session.firstFrame(ctx, t.ffmpegPath)
}
