package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saber-nyan/gchan/media"
	"github.com/saber-nyan/gchan/models"
	"github.com/saber-nyan/gchan/repository"
	"github.com/saber-nyan/gchan/storage"
)

type fakeBoards struct {
	boards map[string]*models.Board
	err    error
}

func newFakeBoards(boards ...*models.Board) *fakeBoards {
	f := &fakeBoards{boards: make(map[string]*models.Board)}
	for _, b := range boards {
		f.boards[b.Name] = b
	}
	return f
}

func (f *fakeBoards) GetByName(_ context.Context, name string) (*models.Board, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.boards[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBoards) List(_ context.Context) ([]*models.Board, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Board
	for _, b := range f.boards {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeFiles mimics the primary key constraint of the files table.
type fakeFiles struct {
	mu      sync.Mutex
	records map[string]models.File
	creates int
	// hideExisting makes GetByHash miss, as if a concurrent insert has not
	// committed yet.
	hideExisting bool
	getErr       error
	createErr    error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{records: make(map[string]models.File)}
}

func (f *fakeFiles) GetByHash(_ context.Context, hash string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	file, ok := f.records[hash]
	if !ok || f.hideExisting {
		return nil, repository.ErrNotFound
	}
	return &file, nil
}

func (f *fakeFiles) Create(_ context.Context, file *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.records[file.Hash]; ok {
		return repository.ErrDuplicate
	}
	f.creates++
	f.records[file.Hash] = *file
	return nil
}

func (f *fakeFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memStorage) Put(_ context.Context, key string, data io.Reader, contentType string) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = contentType
	return key, nil
}

func (m *memStorage) Get(_ context.Context, locator string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[locator]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStorage) Delete(_ context.Context, locator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, locator)
	return nil
}

func (m *memStorage) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// countingThumbnailer wraps a Thumbnailer and counts calls.
type countingThumbnailer struct {
	mu    sync.Mutex
	next  Thumbnailer
	calls int
	err   error
}

func (c *countingThumbnailer) Thumbnail(ctx context.Context, kind media.Kind, buf []byte) (*media.Thumbnail, error) {
	c.mu.Lock()
	c.calls++
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.next.Thumbnail(ctx, kind, buf)
}

func testBoard() *models.Board {
	return &models.Board{
		Name:        "b",
		Description: "random",
		Pages:       10,
		BumpLimit:   500,
		DefaultName: "Anonymous",
		MaxFileSize: 1024,
		MaxTextSize: 100,
	}
}

func pngBytes(t *testing.T, w, h int, seed uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x) + seed, G: uint8(y), B: 0x40, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// corruptPNG carries a PNG signature but no decodable image.
var corruptPNG = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte("garbage!"), 16)...)

func openBytes(b []byte) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
}

var errBoom = errors.New("boom")
