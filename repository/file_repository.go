package repository

import (
	"context"

	"github.com/saber-nyan/gchan/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fileColumns = `hash, filename, width, height, size, content, preview_content,
	thumbnail_width, thumbnail_height, filetype, created_at, modified_at`

// FileRepository handles database operations for files
type FileRepository struct {
	db *pgxpool.Pool
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a new file record. A second insert of the same hash
// returns ErrDuplicate.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(
		ctx, query,
		file.Hash,
		file.Filename,
		file.Width,
		file.Height,
		file.Size,
		file.Content,
		file.Preview,
		file.ThumbnailWidth,
		file.ThumbnailHeight,
		string(file.FileType),
		file.CreatedAt,
		file.ModifiedAt,
	)

	return mapError(err)
}

// GetByHash retrieves a file by its content hash
func (r *FileRepository) GetByHash(ctx context.Context, hash string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE hash = $1`

	file, err := scanFile(r.db.QueryRow(ctx, query, hash))
	if err != nil {
		return nil, mapError(err)
	}
	return file, nil
}

// ExistingHashes returns the subset of hashes that have a file record
func (r *FileRepository) ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	found := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return found, nil
	}

	rows, err := r.db.Query(ctx, `SELECT hash FROM files WHERE hash = ANY($1)`, hashes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		found[hash] = true
	}
	return found, rows.Err()
}

// ListByPostIDs retrieves the files attached to each post, keyed by post row ID
func (r *FileRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]models.File, error) {
	files := make(map[int64][]models.File, len(postIDs))
	if len(postIDs) == 0 {
		return files, nil
	}

	query := `
		SELECT pf.post_id, f.hash, f.filename, f.width, f.height, f.size, f.content, f.preview_content,
			f.thumbnail_width, f.thumbnail_height, f.filetype, f.created_at, f.modified_at
		FROM post_files pf
		JOIN files f ON f.hash = pf.file_hash
		WHERE pf.post_id = ANY($1)
		ORDER BY pf.post_id, pf.position`

	rows, err := r.db.Query(ctx, query, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			postID   int64
			file     models.File
			fileType string
		)
		err := rows.Scan(
			&postID,
			&file.Hash,
			&file.Filename,
			&file.Width,
			&file.Height,
			&file.Size,
			&file.Content,
			&file.Preview,
			&file.ThumbnailWidth,
			&file.ThumbnailHeight,
			&fileType,
			&file.CreatedAt,
			&file.ModifiedAt,
		)
		if err != nil {
			return nil, err
		}
		file.FileType = models.FileType(fileType)
		files[postID] = append(files[postID], file)
	}

	return files, rows.Err()
}

func scanFile(row pgx.Row) (*models.File, error) {
	file := &models.File{}
	var fileType string
	err := row.Scan(
		&file.Hash,
		&file.Filename,
		&file.Width,
		&file.Height,
		&file.Size,
		&file.Content,
		&file.Preview,
		&file.ThumbnailWidth,
		&file.ThumbnailHeight,
		&fileType,
		&file.CreatedAt,
		&file.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	file.FileType = models.FileType(fileType)
	return file, nil
}
