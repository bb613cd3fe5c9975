package models

import "time"

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review is a rating with optional text left by a user on a book.
type Review struct {
	ID        int64      `json:"id"`
	BookID    int64      `json:"book"`
	Author    string     `json:"user"` // display name of the reviewer
	Rating    int        `json:"rating"`
	Text      string     `json:"text"`
	IsVisible bool       `json:"is_visible"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// ReviewDraft is what the client submits; validated locally before sending.
type ReviewDraft struct {
	BookID int64  `json:"book" validate:"gt=0"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
	Text   string `json:"text" validate:"max=5000"`
}
