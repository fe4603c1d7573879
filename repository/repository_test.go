package repository

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saber-nyan/gchan/database"
	"github.com/saber-nyan/gchan/models"
)

// setupTestDB starts PostgreSQL in a container and applies migrations.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("gchan_test"),
		postgres.WithUsername("gchan"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, database.Migrate(dsn, logger))
	// Second run is a no-op.
	require.NoError(t, database.Migrate(dsn, logger))

	pool, err := database.Connect(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func testBoard() *models.Board {
	return &models.Board{
		Name:        "b",
		Description: "random",
		Pages:       10,
		BumpLimit:   500,
		DefaultName: "Anonymous",
		MaxFileSize: 10240,
		MaxTextSize: 15000,
	}
}

func testFile(hash string, now time.Time) *models.File {
	f := models.NewFile(models.NewFileParams{
		Hash:            hash,
		Filename:        "cat.png",
		Width:           640,
		Height:          480,
		Size:            1234,
		Content:         "c_" + hash,
		Preview:         "p_" + hash,
		ThumbnailWidth:  250,
		ThumbnailHeight: 188,
		FileType:        models.FileTypePNG,
	}, now)
	return &f
}

func TestRepositories(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	boards := NewBoardRepository(pool)
	files := NewFileRepository(pool)
	threads := NewThreadRepository(pool)
	posts := NewPostRepository(pool)

	t.Run("board upsert and lookup", func(t *testing.T) {
		board := testBoard()
		require.NoError(t, boards.Upsert(ctx, board))

		board.Description = "random stuff"
		require.NoError(t, boards.Upsert(ctx, board))

		got, err := boards.GetByName(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "random stuff", got.Description)
		assert.Equal(t, int64(10240*1024), got.MaxFileBytes())

		_, err = boards.GetByName(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		list, err := boards.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	hash := strings.Repeat("ab", 64)

	t.Run("file create and duplicate", func(t *testing.T) {
		require.NoError(t, files.Create(ctx, testFile(hash, now)))
		assert.ErrorIs(t, files.Create(ctx, testFile(hash, now)), ErrDuplicate)

		got, err := files.GetByHash(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, models.FileTypePNG, got.FileType)
		assert.Equal(t, "c_"+hash, got.Content)
		assert.True(t, got.CreatedAt.Equal(now))

		_, err = files.GetByHash(ctx, strings.Repeat("0", 128))
		assert.ErrorIs(t, err, ErrNotFound)

		existing, err := files.ExistingHashes(ctx, []string{hash, strings.Repeat("0", 128)})
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{hash: true}, existing)
	})

	t.Run("concurrent creates leave one record", func(t *testing.T) {
		racy := strings.Repeat("cd", 64)
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs []error
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := files.Create(ctx, testFile(racy, now))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}()
		}
		wg.Wait()

		var created int
		for _, err := range errs {
			if err == nil {
				created++
			} else {
				assert.ErrorIs(t, err, ErrDuplicate)
			}
		}
		assert.Equal(t, 1, created)
	})

	t.Run("threads and posts", func(t *testing.T) {
		file, err := files.GetByHash(ctx, hash)
		require.NoError(t, err)

		thread := &models.Thread{Board: "b"}
		op := &models.Post{Text: "first", Name: "Anonymous", Files: []models.File{*file}, CreatedAt: now}
		require.NoError(t, threads.Create(ctx, thread, op))
		assert.Equal(t, int64(1), thread.Number)
		assert.Equal(t, int64(1), op.PostID)
		assert.True(t, op.OP)

		reply := &models.Post{Text: "second", Name: "Anonymous", CreatedAt: now.Add(time.Minute)}
		require.NoError(t, posts.Create(ctx, thread, reply))
		assert.Equal(t, int64(2), reply.PostID)

		got, err := threads.GetByNumber(ctx, "b", 1)
		require.NoError(t, err)
		assert.True(t, got.ModifiedAt.Equal(reply.CreatedAt))

		all, err := posts.ListByThread(ctx, got.ID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "first", all[0].Text)
		require.Len(t, all[0].Files, 1)
		assert.Equal(t, hash, all[0].Files[0].Hash)
		assert.Empty(t, all[1].Files)

		p, err := posts.GetByNumber(ctx, got.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, "second", p.Text)

		_, err = posts.GetByNumber(ctx, got.ID, 99)
		assert.ErrorIs(t, err, ErrNotFound)

		ops, err := posts.ListOpening(ctx, []int64{got.ID})
		require.NoError(t, err)
		assert.Equal(t, "first", ops[got.ID].Text)

		second := &models.Thread{Board: "b", Pinned: true}
		require.NoError(t, threads.Create(ctx, second, &models.Post{Text: "pinned", CreatedAt: now}))
		assert.Equal(t, int64(3), second.Number)

		page, err := threads.ListPage(ctx, "b", 10, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, int64(3), page[0].Number)
		assert.Equal(t, int64(1), page[1].Number)

		page, err = threads.ListPage(ctx, "b", 10, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}
