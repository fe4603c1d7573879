package service

import "errors"

var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrBoardClosed    = errors.New("board is closed")
	ErrThreadNotFound = errors.New("thread not found")
	ErrThreadClosed   = errors.New("thread is closed")
	ErrPostNotFound   = errors.New("post not found")
	ErrFileNotFound   = errors.New("file not found")
	ErrUnknownFile    = errors.New("unknown file")
	ErrTextTooLong    = errors.New("text too long")
	ErrFieldTooLong   = errors.New("field too long")
	ErrEmptyPost      = errors.New("post has neither text nor files")
	ErrTooManyFiles   = errors.New("too many files")
)
