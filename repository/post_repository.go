package repository

import (
	"context"

	"github.com/saber-nyan/gchan/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `id, thread_id, post_id, banned, warned, text, email, name,
	subject, trip_code, op, created_at, modified_at`

// PostRepository handles database operations for posts
type PostRepository struct {
	db    *pgxpool.Pool
	files *FileRepository
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db, files: NewFileRepository(db)}
}

// ListByThread retrieves all posts of a thread in posting order, files included
func (r *PostRepository) ListByThread(ctx context.Context, threadID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE thread_id = $1 ORDER BY post_id`

	posts, err := r.list(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	return posts, r.attachFiles(ctx, posts)
}

// ListOpening retrieves the opening posts of the given threads, keyed by thread ID
func (r *PostRepository) ListOpening(ctx context.Context, threadIDs []int64) (map[int64]*models.Post, error) {
	ops := make(map[int64]*models.Post, len(threadIDs))
	if len(threadIDs) == 0 {
		return ops, nil
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE thread_id = ANY($1) AND op`

	posts, err := r.list(ctx, query, threadIDs)
	if err != nil {
		return nil, err
	}
	if err := r.attachFiles(ctx, posts); err != nil {
		return nil, err
	}
	for _, post := range posts {
		ops[post.ThreadID] = post
	}
	return ops, nil
}

// GetByNumber retrieves a post of a thread by its per-board post number
func (r *PostRepository) GetByNumber(ctx context.Context, threadID, number int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE thread_id = $1 AND post_id = $2`

	post, err := scanPost(r.db.QueryRow(ctx, query, threadID, number))
	if err != nil {
		return nil, mapError(err)
	}
	return post, r.attachFiles(ctx, []*models.Post{post})
}

// Create inserts a reply into a thread, links its files and bumps the
// thread's modification time
func (r *PostRepository) Create(ctx context.Context, thread *models.Thread, post *models.Post) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		number, err := nextPostNumber(ctx, tx, thread.Board)
		if err != nil {
			return err
		}

		post.ThreadID = thread.ID
		post.PostID = number
		post.OP = false
		if err := insertPost(ctx, tx, thread.Board, post); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE threads SET modified_at = $2 WHERE id = $1`, thread.ID, post.CreatedAt)
		return err
	})
}

func (r *PostRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (r *PostRepository) attachFiles(ctx context.Context, posts []*models.Post) error {
	ids := make([]int64, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	files, err := r.files.ListByPostIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, post := range posts {
		post.Files = files[post.ID]
		if post.Files == nil {
			post.Files = []models.File{}
		}
	}
	return nil
}

// nextPostNumber advances the board's post counter. The row lock serializes
// concurrent posters on the same board until the transaction ends.
func nextPostNumber(ctx context.Context, tx pgx.Tx, board string) (int64, error) {
	var number int64
	err := tx.QueryRow(ctx,
		`UPDATE boards SET post_counter = post_counter + 1 WHERE board_name = $1 RETURNING post_counter`,
		board,
	).Scan(&number)
	return number, mapError(err)
}

func insertPost(ctx context.Context, tx pgx.Tx, board string, post *models.Post) error {
	query := `
		INSERT INTO posts (
			thread_id, board_name, post_id, banned, warned, text, email, name,
			subject, trip_code, op, created_at, modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id`

	err := tx.QueryRow(
		ctx, query,
		post.ThreadID,
		board,
		post.PostID,
		post.Banned,
		post.Warned,
		post.Text,
		post.Email,
		post.Name,
		post.Subject,
		post.TripCode,
		post.OP,
		post.CreatedAt,
	).Scan(&post.ID)
	if err != nil {
		return mapError(err)
	}
	post.ModifiedAt = post.CreatedAt

	for i, file := range post.Files {
		_, err := tx.Exec(ctx,
			`INSERT INTO post_files (post_id, file_hash, position) VALUES ($1, $2, $3)`,
			post.ID, file.Hash, i,
		)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func scanPost(row pgx.Row) (*models.Post, error) {
	post := &models.Post{}
	err := row.Scan(
		&post.ID,
		&post.ThreadID,
		&post.PostID,
		&post.Banned,
		&post.Warned,
		&post.Text,
		&post.Email,
		&post.Name,
		&post.Subject,
		&post.TripCode,
		&post.OP,
		&post.CreatedAt,
		&post.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}
