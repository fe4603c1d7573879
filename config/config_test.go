package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saber-nyan/gchan/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT", "STORAGE_TYPE", "STORAGE_LOCAL_PATH",
		"AWS_S3_BUCKET", "AWS_REGION", "AWS_S3_ENDPOINT", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"FFMPEG_PATH", "SCRATCH_DIR", "THUMBNAIL_DECODE_TIMEOUT", "THUMBNAIL_MAX_PIXELS",
		"FILE_CACHE_SIZE", "FILE_CACHE_TTL", "MAX_UPLOAD_FILES", "THREADS_PER_PAGE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, storage.StorageTypeLocal, cfg.Storage.Type)
	assert.Equal(t, "./storage/files", cfg.Storage.LocalPath)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, 15*time.Second, cfg.DecodeTimeout)
	assert.Equal(t, 50_000_000, cfg.MaxPixels)
	assert.Equal(t, 4, cfg.MaxUploadFiles)
	assert.Equal(t, 10, cfg.ThreadsPerPage)
}

func TestLoad_S3(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_TYPE", "S3")
	t.Setenv("AWS_S3_BUCKET", "gchan-media")
	t.Setenv("AWS_S3_ENDPOINT", "http://minio:9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, storage.StorageTypeS3, cfg.Storage.Type)
	assert.Equal(t, "gchan-media", cfg.Storage.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.Storage.S3Region)
	assert.Equal(t, "http://minio:9000", cfg.Storage.S3Endpoint)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port not a number", "PORT", "eighty"},
		{"port out of range", "PORT", "70000"},
		{"bad duration", "THUMBNAIL_DECODE_TIMEOUT", "soon"},
		{"zero files", "MAX_UPLOAD_FILES", "0"},
		{"bad page size", "THREADS_PER_PAGE", "-1"},
		{"unknown storage", "STORAGE_TYPE", "ftp"},
		{"s3 without bucket", "STORAGE_TYPE", "s3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("THREADS_PER_PAGE"))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("THREADS_PER_PAGE=25\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.True(t, LoadDotEnv())
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.ThreadsPerPage)
}
