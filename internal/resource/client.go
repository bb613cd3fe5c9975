// Package resource is the client side of the catalog REST service: books and
// genres, plus the per-user relation collections (favorites, user books,
// reviews) the client mirrors in memory.
package resource

import (
	"context"
	"fmt"

	"onlibry/internal/session"
	"onlibry/pkg/models"
)

// Client is the set of resource calls the client core depends on.
// Calls that act on user relations take the session explicitly.
type Client interface {
	ObtainToken(ctx context.Context, username, password string) (string, error)

	ListBooks(ctx context.Context) ([]models.Book, error)
	ListGenres(ctx context.Context) ([]models.Genre, error)

	ListFavorites(ctx context.Context, sess session.Session) ([]models.FavoriteRelation, error)
	CreateFavorite(ctx context.Context, sess session.Session, bookID int64) (*models.FavoriteRelation, error)
	DeleteFavorite(ctx context.Context, sess session.Session, relationID int64) error

	ListUserBooks(ctx context.Context, sess session.Session) ([]models.StatusRelation, error)
	CreateUserBook(ctx context.Context, sess session.Session, bookID int64, status models.ReadingStatus) (*models.StatusRelation, error)
	UpdateUserBook(ctx context.Context, sess session.Session, relationID int64, status models.ReadingStatus) (*models.StatusRelation, error)
	DeleteUserBook(ctx context.Context, sess session.Session, relationID int64) error

	ListReviews(ctx context.Context, sess session.Session, bookID int64) ([]models.Review, error)
	CreateReview(ctx context.Context, sess session.Session, draft models.ReviewDraft) (*models.Review, error)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// request/response payloads

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type favoriteRequest struct {
	Book int64 `json:"book"`
}

type userBookRequest struct {
	Book   int64                `json:"book,omitempty"`
	Status models.ReadingStatus `json:"status"`
}
