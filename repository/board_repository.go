package repository

import (
	"context"

	"github.com/saber-nyan/gchan/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const boardColumns = `board_name, description, pages, bump_limit, default_name,
	max_file_size, max_text_size, closed, created_at, modified_at`

// BoardRepository handles database operations for boards
type BoardRepository struct {
	db *pgxpool.Pool
}

// NewBoardRepository creates a new board repository
func NewBoardRepository(db *pgxpool.Pool) *BoardRepository {
	return &BoardRepository{db: db}
}

// GetByName retrieves a board by name
func (r *BoardRepository) GetByName(ctx context.Context, name string) (*models.Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards WHERE board_name = $1`

	board, err := scanBoard(r.db.QueryRow(ctx, query, name))
	if err != nil {
		return nil, mapError(err)
	}
	return board, nil
}

// List retrieves all boards ordered by name
func (r *BoardRepository) List(ctx context.Context) ([]*models.Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards ORDER BY board_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []*models.Board
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}

	return boards, rows.Err()
}

// Upsert creates a board or updates its settings if the name is taken
func (r *BoardRepository) Upsert(ctx context.Context, board *models.Board) error {
	query := `
		INSERT INTO boards (
			board_name, description, pages, bump_limit, default_name,
			max_file_size, max_text_size, closed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (board_name) DO UPDATE SET
			description = EXCLUDED.description,
			pages = EXCLUDED.pages,
			bump_limit = EXCLUDED.bump_limit,
			default_name = EXCLUDED.default_name,
			max_file_size = EXCLUDED.max_file_size,
			max_text_size = EXCLUDED.max_text_size,
			closed = EXCLUDED.closed,
			modified_at = NOW()
		RETURNING created_at, modified_at`

	return r.db.QueryRow(
		ctx, query,
		board.Name,
		board.Description,
		board.Pages,
		board.BumpLimit,
		board.DefaultName,
		board.MaxFileSize,
		board.MaxTextSize,
		board.Closed,
	).Scan(&board.CreatedAt, &board.ModifiedAt)
}

func scanBoard(row pgx.Row) (*models.Board, error) {
	board := &models.Board{}
	err := row.Scan(
		&board.Name,
		&board.Description,
		&board.Pages,
		&board.BumpLimit,
		&board.DefaultName,
		&board.MaxFileSize,
		&board.MaxTextSize,
		&board.Closed,
		&board.CreatedAt,
		&board.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return board, nil
}
