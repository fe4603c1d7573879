package repository

import (
	"fmt"
	"io"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "files_pkey"}
	assert.ErrorIs(t, mapError(fmt.Errorf("insert: %w", unique)), ErrDuplicate)

	fk := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(fk), mapError(fk))
	assert.Equal(t, io.ErrUnexpectedEOF, mapError(io.ErrUnexpectedEOF))
}
