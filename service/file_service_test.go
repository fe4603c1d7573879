package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saber-nyan/gchan/models"
)

func TestFileService(t *testing.T) {
	ctx := context.Background()
	files := newFakeFiles()
	store := newMemStorage()
	svc := NewFileService(files, store, NewFileCache(8, time.Minute))

	hash := strings.Repeat("c3", 64)
	file := models.NewFile(models.NewFileParams{
		Hash:     hash,
		Filename: "clip.webm",
		Content:  models.ContentKey(hash),
		Preview:  models.PreviewKey(hash),
		FileType: models.FileTypeWEBM,
	}, fixedNow)
	require.NoError(t, files.Create(ctx, &file))
	_, err := store.Put(ctx, models.ContentKey(hash), strings.NewReader("original"), "video/webm")
	require.NoError(t, err)

	blob, err := svc.OpenContent(ctx, hash)
	require.NoError(t, err)
	body, err := io.ReadAll(blob)
	require.NoError(t, err)
	require.NoError(t, blob.Close())
	assert.Equal(t, "original", string(body))
	assert.Equal(t, "video/webm", blob.ContentType)
	assert.Equal(t, "clip.webm", blob.File.Filename)

	_, err = svc.OpenPreview(ctx, hash)
	assert.ErrorIs(t, err, ErrFileNotFound, "preview object was never stored")

	_, err = store.Put(ctx, models.PreviewKey(hash), strings.NewReader("thumb"), "image/jpeg")
	require.NoError(t, err)
	blob, err = svc.OpenPreview(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", blob.ContentType)
	require.NoError(t, blob.Close())

	_, err = svc.GetFile(ctx, strings.Repeat("0", 128))
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, err = svc.GetFile(ctx, "not-a-hash")
	assert.ErrorIs(t, err, ErrFileNotFound)

	files.getErr = errBoom
	got, err := svc.GetFile(ctx, hash)
	require.NoError(t, err, "served from cache")
	assert.Equal(t, hash, got.Hash)
}
