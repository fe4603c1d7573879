package models

import (
	"fmt"
	"time"
)

// Post represents a single post in a thread
type Post struct {
	ID         int64     `json:"-"`
	ThreadID   int64     `json:"-"`
	PostID     int64     `json:"post_id"`
	Banned     bool      `json:"banned"`
	Warned     bool      `json:"warned"`
	Text       string    `json:"text"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	TripCode   string    `json:"trip_code"`
	OP         bool      `json:"op"`
	Files      []File    `json:"files"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"-"`
}

func (p *Post) String() string {
	return fmt.Sprintf(">>%d from %q", p.PostID, p.Name)
}
