package models

import "time"

// Author is a book contributor as embedded in a catalog record.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Genre is a flat catalog classification, loaded once per session.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Book is a catalog record. The client never edits it; aggregate fields
// (ratings, review count) only change when the catalog is reloaded.
type Book struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Authors     []Author   `json:"authors"`
	Genres      []Genre    `json:"genres"`
	Year        *int       `json:"year,omitempty"`
	CoverURL    *string    `json:"cover_url,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`

	// rating aggregates: the backend fills one of these depending on version
	AvgRating     *float64 `json:"avg_rating,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	ReviewsCount  *int     `json:"reviews_count,omitempty"`
}

// RatingField names one of the rating aggregates a Book may carry.
type RatingField string

const (
	RatingFieldAvgRating     RatingField = "avg_rating"
	RatingFieldAverageRating RatingField = "average_rating"
	RatingFieldRating        RatingField = "rating"
)

// RatingFieldOrder is the resolution order for a book's rating: the first
// non-null field in this list wins.
var RatingFieldOrder = []RatingField{
	RatingFieldAvgRating,
	RatingFieldAverageRating,
	RatingFieldRating,
}

// ratingField returns the aggregate stored under f, nil when absent.
func (b Book) ratingField(f RatingField) *float64 {
	switch f {
	case RatingFieldAvgRating:
		return b.AvgRating
	case RatingFieldAverageRating:
		return b.AverageRating
	case RatingFieldRating:
		return b.Rating
	}
	return nil
}

// ResolvedRating walks RatingFieldOrder and returns the first present
// aggregate, or 0 if the book carries none.
func (b Book) ResolvedRating() float64 {
	for _, f := range RatingFieldOrder {
		if v := b.ratingField(f); v != nil {
			return *v
		}
	}
	return 0
}

// ReviewCount returns the review count, 0 when the backend omitted it.
func (b Book) ReviewCount() int {
	if b.ReviewsCount == nil {
		return 0
	}
	return *b.ReviewsCount
}

// DescriptionText returns the description or "" when absent.
func (b Book) DescriptionText() string {
	if b.Description == nil {
		return ""
	}
	return *b.Description
}

// HasGenre reports whether the book is classified under genreID.
func (b Book) HasGenre(genreID int64) bool {
	for _, g := range b.Genres {
		if g.ID == genreID {
			return true
		}
	}
	return false
}

// AuthorNames returns the author names in catalog order.
func (b Book) AuthorNames() []string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	return names
}
