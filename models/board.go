package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Board represents a board and the limits applied to posts on it
type Board struct {
	Name        string    `json:"board_name" yaml:"board_name"`
	Description string    `json:"description" yaml:"description"`
	Pages       int       `json:"pages" yaml:"pages"`
	BumpLimit   int       `json:"bump_limit" yaml:"bump_limit"`
	DefaultName string    `json:"default_name" yaml:"default_name"`
	MaxFileSize int64     `json:"max_file_size" yaml:"max_file_size"` // KB
	MaxTextSize int       `json:"max_text_size" yaml:"max_text_size"` // symbols
	Closed      bool      `json:"closed" yaml:"closed"`
	CreatedAt   time.Time `json:"-" yaml:"-"`
	ModifiedAt  time.Time `json:"-" yaml:"-"`
}

// MaxFileBytes converts MaxFileSize from KB to bytes
func (b Board) MaxFileBytes() int64 {
	return b.MaxFileSize * 1024
}

func (b Board) String() string {
	return fmt.Sprintf("/%s/ (%s)", b.Name, b.Description)
}

// Validate checks the board fits the schema constraints
func (b Board) Validate() error {
	switch {
	case b.Name == "" || len(b.Name) > 10:
		return fmt.Errorf("board name %q must be 1-10 characters", b.Name)
	case strings.ContainsAny(b.Name, "/\\ "):
		return fmt.Errorf("board name %q contains invalid characters", b.Name)
	case utf8.RuneCountInString(b.Description) > 100:
		return fmt.Errorf("board %s: description longer than 100 characters", b.Name)
	case b.DefaultName == "" || utf8.RuneCountInString(b.DefaultName) > 64:
		return fmt.Errorf("board %s: default name must be 1-64 characters", b.Name)
	case b.Pages < 0 || b.BumpLimit < 0 || b.MaxFileSize < 0 || b.MaxTextSize < 0:
		return fmt.Errorf("board %s: limits must not be negative", b.Name)
	}
	return nil
}
