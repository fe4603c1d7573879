package repository

import (
	"context"

	"github.com/saber-nyan/gchan/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const threadColumns = `id, board_name, number, pinned, closed, created_at, modified_at`

// ThreadRepository handles database operations for threads
type ThreadRepository struct {
	db *pgxpool.Pool
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(db *pgxpool.Pool) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// ListPage retrieves one page of a board's threads, pinned first, then most
// recently modified
func (r *ThreadRepository) ListPage(ctx context.Context, board string, limit, offset int) ([]*models.Thread, error) {
	query := `
		SELECT ` + threadColumns + `
		FROM threads
		WHERE board_name = $1
		ORDER BY pinned DESC, modified_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, board, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []*models.Thread
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}

	return threads, rows.Err()
}

// GetByNumber retrieves a thread by the post number of its opening post
func (r *ThreadRepository) GetByNumber(ctx context.Context, board string, number int64) (*models.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM threads WHERE board_name = $1 AND number = $2`

	thread, err := scanThread(r.db.QueryRow(ctx, query, board, number))
	if err != nil {
		return nil, mapError(err)
	}
	return thread, nil
}

// Create inserts a thread together with its opening post and the post's
// file links. Thread and OP share the next post number of the board and the
// OP's creation time.
func (r *ThreadRepository) Create(ctx context.Context, thread *models.Thread, op *models.Post) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		number, err := nextPostNumber(ctx, tx, thread.Board)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO threads (board_name, number, pinned, closed, created_at, modified_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING id, created_at, modified_at`

		err = tx.QueryRow(ctx, query, thread.Board, number, thread.Pinned, thread.Closed, op.CreatedAt).
			Scan(&thread.ID, &thread.CreatedAt, &thread.ModifiedAt)
		if err != nil {
			return mapError(err)
		}
		thread.Number = number

		op.ThreadID = thread.ID
		op.PostID = number
		op.OP = true
		if err := insertPost(ctx, tx, thread.Board, op); err != nil {
			return err
		}
		thread.Posts = []*models.Post{op}
		return nil
	})
}

func scanThread(row pgx.Row) (*models.Thread, error) {
	thread := &models.Thread{}
	err := row.Scan(
		&thread.ID,
		&thread.Board,
		&thread.Number,
		&thread.Pinned,
		&thread.Closed,
		&thread.CreatedAt,
		&thread.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return thread, nil
}
