package shelf

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"onlibry/internal/errors"
	"onlibry/pkg/models"
)

var validate = validator.New()

type opKind string

const (
	opFavorite opKind = "favorite"
	opStatus   opKind = "status"
	opReview   opKind = "review"
)

type opKey struct {
	kind   opKind
	bookID int64
}

// begin marks (kind, book) as in flight. A second call for the same pair is
// rejected until the returned release runs.
func (s *Shelf) begin(kind opKind, bookID int64) (release func(), err error) {
	key := opKey{kind: kind, bookID: bookID}

	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if _, busy := s.pending[key]; busy {
		return nil, errors.Pending("Please wait, this book is still being updated.")
	}
	s.pending[key] = struct{}{}
	return func() {
		s.pendingMu.Lock()
		delete(s.pending, key)
		s.pendingMu.Unlock()
	}, nil
}

// ToggleFavorite adds bookID to the favorites, or removes it if present.
func (s *Shelf) ToggleFavorite(ctx context.Context, bookID int64) error {
	sess, epoch := s.snapshot()
	if !sess.Authenticated() {
		return s.fail("favorite_toggle_failed", errors.Unauthenticated("You must be logged in to use favorites."), "book_id", bookID)
	}

	release, err := s.begin(opFavorite, bookID)
	if err != nil {
		return s.fail("favorite_toggle_failed", err, "book_id", bookID)
	}
	defer release()

	if relationID, exists := s.caches.favorite(bookID); exists {
		if relationID == 0 {
			return s.fail("favorite_toggle_failed",
				errors.MissingRelationID("Cannot remove from favorites: missing favorite id."), "book_id", bookID)
		}
		if err := s.client.DeleteFavorite(ctx, sess, relationID); err != nil {
			return s.fail("favorite_toggle_failed",
				errors.Remote(err, "Failed to remove from favorites."), "book_id", bookID, "relation_id", relationID)
		}
		s.apply(epoch, func() { s.caches.removeFavorite(bookID) })
		s.logger.Info("favorite_toggled", "book_id", bookID, "relation_id", relationID, "favorite", false)
		return nil
	}

	created, err := s.client.CreateFavorite(ctx, sess, bookID)
	if err != nil {
		return s.fail("favorite_toggle_failed", errors.Remote(err, "Failed to add to favorites."), "book_id", bookID)
	}
	s.apply(epoch, func() { s.caches.putFavorite(bookID, created.ID) })
	s.logger.Info("favorite_toggled", "book_id", bookID, "relation_id", created.ID, "favorite", true)
	return nil
}

type statusNotices struct {
	remove, update, create string
}

var statusFailures = map[models.ReadingStatus]statusNotices{
	models.StatusReading: {
		remove: "Failed to remove from Reading now.",
		update: "Failed to update to Reading now.",
		create: "Failed to mark as Reading now.",
	},
	models.StatusToRead: {
		remove: "Failed to remove from To Read.",
		update: "Failed to update status.",
		create: "Failed to mark as To Read.",
	},
}

// SetStatus toggles target on bookID. A book holds at most one status: setting
// the current status removes it, setting another one switches the existing
// relation in place.
func (s *Shelf) SetStatus(ctx context.Context, bookID int64, target models.ReadingStatus) error {
	notices, ok := statusFailures[target]
	if !ok {
		return fmt.Errorf("reading status %s cannot be set", target)
	}

	sess, epoch := s.snapshot()
	if !sess.Authenticated() {
		return s.fail("status_change_failed", errors.Unauthenticated("You must be logged in to use reading lists."),
			"book_id", bookID, "status", target)
	}

	release, err := s.begin(opStatus, bookID)
	if err != nil {
		return s.fail("status_change_failed", err, "book_id", bookID, "status", target)
	}
	defer release()

	existing, exists := s.caches.status(bookID)
	if exists && existing.RelationID == 0 {
		return s.fail("status_change_failed",
			errors.MissingRelationID("Cannot change reading status: missing relation id."), "book_id", bookID)
	}

	switch {
	case exists && existing.Status == target:
		if err := s.client.DeleteUserBook(ctx, sess, existing.RelationID); err != nil {
			return s.fail("status_change_failed", errors.Remote(err, notices.remove),
				"book_id", bookID, "relation_id", existing.RelationID, "status", target)
		}
		s.apply(epoch, func() { s.caches.removeStatus(bookID) })
		s.logger.Info("status_changed", "book_id", bookID, "relation_id", existing.RelationID, "status", "none")

	case exists:
		updated, err := s.client.UpdateUserBook(ctx, sess, existing.RelationID, target)
		if err != nil {
			return s.fail("status_change_failed", errors.Remote(err, notices.update),
				"book_id", bookID, "relation_id", existing.RelationID, "status", target)
		}
		entry := statusEntry{RelationID: existing.RelationID, Status: confirmedStatus(updated, target)}
		s.apply(epoch, func() { s.caches.putStatus(bookID, entry) })
		s.logger.Info("status_changed", "book_id", bookID, "relation_id", entry.RelationID, "status", entry.Status)

	default:
		created, err := s.client.CreateUserBook(ctx, sess, bookID, target)
		if err != nil {
			return s.fail("status_change_failed", errors.Remote(err, notices.create), "book_id", bookID, "status", target)
		}
		entry := statusEntry{RelationID: created.ID, Status: confirmedStatus(created, target)}
		s.apply(epoch, func() { s.caches.putStatus(bookID, entry) })
		s.logger.Info("status_changed", "book_id", bookID, "relation_id", entry.RelationID, "status", entry.Status)
	}
	return nil
}

// confirmedStatus prefers the status echoed by the backend.
func confirmedStatus(rel *models.StatusRelation, requested models.ReadingStatus) models.ReadingStatus {
	if rel != nil && rel.Status.Valid() {
		return rel.Status
	}
	return requested
}

// SubmitReview posts a review for bookID. The rating and text are checked
// locally first; an invalid draft never reaches the network.
func (s *Shelf) SubmitReview(ctx context.Context, bookID int64, rating int, text string) error {
	sess, _ := s.snapshot()
	if !sess.Authenticated() {
		return s.fail("review_submit_failed", errors.Unauthenticated("You must be logged in to add a review."), "book_id", bookID)
	}

	draft := models.ReviewDraft{BookID: bookID, Rating: rating, Text: strings.TrimSpace(text)}
	if err := validateDraft(draft); err != nil {
		return s.fail("review_submit_failed", err, "book_id", bookID, "rating", rating)
	}

	release, err := s.begin(opReview, bookID)
	if err != nil {
		return s.fail("review_submit_failed", err, "book_id", bookID)
	}
	defer release()

	review, err := s.client.CreateReview(ctx, sess, draft)
	if err != nil {
		return s.fail("review_submit_failed",
			errors.Remote(err, "Failed to add review (maybe you already reviewed this book?)."), "book_id", bookID)
	}
	s.logger.Info("review_submitted", "book_id", bookID, "review_id", review.ID, "rating", rating)
	s.notifier.Notify(Notice{Level: NoticeInfo, Message: "Review submitted!"})

	s.reloadOpenReviews(ctx, bookID)
	return nil
}

func validateDraft(draft models.ReviewDraft) error {
	err := validate.Struct(draft)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.InvalidReview("Invalid review.").WithCause(err)
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Rating":
			return errors.InvalidRating("Rating must be a number between 1 and 5.")
		case "Text":
			return errors.InvalidReview(fmt.Sprintf("Review text must be at most %s characters.", fe.Param()))
		}
	}
	return errors.InvalidReview("Invalid review.").WithCause(err)
}
