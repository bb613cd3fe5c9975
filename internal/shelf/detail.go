package shelf

import (
	"context"

	"onlibry/internal/errors"
	"onlibry/pkg/models"
)

type detailState struct {
	open    bool
	bookID  int64
	gen     uint64
	loading bool
}

// Detail is the open book together with its reviews.
type Detail struct {
	Book           models.Book
	Reviews        []models.Review
	ReviewsLoading bool
}

// OpenDetail selects bookID and loads its reviews. A failed review load is
// logged and shows as an empty list.
func (s *Shelf) OpenDetail(ctx context.Context, bookID int64) error {
	if _, ok := s.catalog.Book(bookID); !ok {
		return s.fail("detail_open_failed", errors.NotFoundf("Book %d is not in the catalog.", bookID), "book_id", bookID)
	}

	s.mu.Lock()
	if s.detail.open && s.detail.bookID != bookID {
		s.caches.dropReviews(s.detail.bookID)
	}
	s.detailGen++
	s.detail = detailState{open: true, bookID: bookID, gen: s.detailGen, loading: true}
	gen := s.detailGen
	s.mu.Unlock()

	s.loadReviews(ctx, bookID, gen)
	return nil
}

// CloseDetail discards the open book's reviews. Loads still in flight are dropped.
func (s *Shelf) CloseDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail.open {
		s.caches.dropReviews(s.detail.bookID)
	}
	s.detailGen++
	s.detail = detailState{}
}

// Detail returns the open book, or false when none is open.
func (s *Shelf) Detail() (Detail, bool) {
	s.mu.RLock()
	d := s.detail
	s.mu.RUnlock()
	if !d.open {
		return Detail{}, false
	}

	book, ok := s.catalog.Book(d.bookID)
	if !ok {
		return Detail{}, false
	}
	return Detail{
		Book:           book,
		Reviews:        s.caches.Reviews(d.bookID),
		ReviewsLoading: d.loading,
	}, true
}

// reloadOpenReviews refreshes the review list if bookID is the open book.
func (s *Shelf) reloadOpenReviews(ctx context.Context, bookID int64) {
	s.mu.Lock()
	if !s.detail.open || s.detail.bookID != bookID {
		s.mu.Unlock()
		return
	}
	s.detailGen++
	s.detail.gen = s.detailGen
	s.detail.loading = true
	gen := s.detailGen
	s.mu.Unlock()

	s.loadReviews(ctx, bookID, gen)
}

// loadReviews fetches the reviews of bookID and applies them only if the same
// book is still open under generation gen.
func (s *Shelf) loadReviews(ctx context.Context, bookID int64, gen uint64) {
	sess, _ := s.snapshot()
	reviews, err := s.client.ListReviews(ctx, sess, bookID)
	if err != nil {
		s.logger.Error("reviews_load_failed", "book_id", bookID, "error", err)
		reviews = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.detail.open || s.detail.bookID != bookID || s.detail.gen != gen {
		s.logger.Debug("reviews_load_discarded", "book_id", bookID)
		return
	}
	s.caches.setReviews(bookID, reviews)
	s.detail.loading = false
	s.logger.Debug("reviews_loaded", "book_id", bookID, "count", len(reviews))
}
