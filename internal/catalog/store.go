// Package catalog holds the session's copy of the book catalog and genre list.
// Both are replaced wholesale on load; a failed load keeps the previous value.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"onlibry/internal/errors"
	"onlibry/pkg/models"
)

// Source is where the catalog is loaded from.
type Source interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	ListGenres(ctx context.Context) ([]models.Genre, error)
}

type Store struct {
	source Source
	logger *slog.Logger

	mu     sync.RWMutex
	books  []models.Book
	genres []models.Genre

	loading atomic.Int32
	group   singleflight.Group
}

func NewStore(source Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{source: source, logger: logger}
}

// Refresh reloads books and genres. The two loads are independent: a genre
// failure does not discard freshly loaded books, and vice versa.
func (s *Store) Refresh(ctx context.Context) error {
	return errors.Join(s.RefreshBooks(ctx), s.RefreshGenres(ctx))
}

// RefreshBooks replaces the book list. Concurrent callers share one request.
func (s *Store) RefreshBooks(ctx context.Context) error {
	_, err, _ := s.group.Do("books", func() (any, error) {
		s.loading.Add(1)
		defer s.loading.Add(-1)

		books, err := s.source.ListBooks(ctx)
		if err != nil {
			s.logger.Error("catalog_books_load_failed", "error", err)
			return nil, errors.Remote(err, "Failed to load books.")
		}

		s.mu.Lock()
		s.books = books
		s.mu.Unlock()
		s.logger.Debug("catalog_books_loaded", "count", len(books))
		return nil, nil
	})
	return err
}

// RefreshGenres replaces the genre list.
func (s *Store) RefreshGenres(ctx context.Context) error {
	_, err, _ := s.group.Do("genres", func() (any, error) {
		genres, err := s.source.ListGenres(ctx)
		if err != nil {
			s.logger.Error("catalog_genres_load_failed", "error", err)
			return nil, errors.Remote(err, "Failed to load genres.")
		}

		s.mu.Lock()
		s.genres = genres
		s.mu.Unlock()
		s.logger.Debug("catalog_genres_loaded", "count", len(genres))
		return nil, nil
	})
	return err
}

// Loading reports whether a book load is in flight.
func (s *Store) Loading() bool {
	return s.loading.Load() > 0
}

// Books returns the catalog in insertion order. The slice is a copy.
func (s *Store) Books() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Book, len(s.books))
	copy(out, s.books)
	return out
}

// Genres returns the genre list. The slice is a copy.
func (s *Store) Genres() []models.Genre {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Genre, len(s.genres))
	copy(out, s.genres)
	return out
}

// Book looks a book up by id.
func (s *Store) Book(id int64) (models.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.ID == id {
			return b, true
		}
	}
	return models.Book{}, false
}

// GenreByName finds a genre by case-insensitive name.
func (s *Store) GenreByName(name string) (models.Genre, bool) {
	name = strings.TrimSpace(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.genres {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return models.Genre{}, false
}
