package models

import "time"

// Thread represents a thread on a board
type Thread struct {
	ID         int64     `json:"-"`
	Number     int64     `json:"number"` // post number of the opening post
	Board      string    `json:"board"`
	Pinned     bool      `json:"pinned"`
	Closed     bool      `json:"closed"`
	Posts      []*Post   `json:"posts"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"-"`
}

// OP returns the opening post, or nil when posts are not loaded
func (t *Thread) OP() *Post {
	if len(t.Posts) == 0 {
		return nil
	}
	return t.Posts[0]
}
