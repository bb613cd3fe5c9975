// Package view derives the visible book list from the catalog and the
// user's relations. Everything here is pure: same input, same output.
package view

import (
	"sort"
	"strings"
	"time"

	"onlibry/pkg/models"
)

// NewArrivalWindow is how far back a book counts as a new arrival.
const NewArrivalWindow = 7 * 24 * time.Hour

// TopRatedThreshold is the minimum resolved rating for the top rated tab.
const TopRatedThreshold = 4.0

// Input is everything the visible list depends on.
type Input struct {
	Books     []models.Book
	Favorites map[int64]struct{}
	Statuses  map[int64]models.ReadingStatus
	Tab       Tab
	Search    string
	GenreID   *int64 // only used by TabByGenre; nil shows every book
	Now       time.Time
}

// Build filters and orders the catalog. The result is a fresh slice;
// in.Books is never reordered.
func Build(in Input) []models.Book {
	query := strings.ToLower(strings.TrimSpace(in.Search))
	keep := predicate(in)

	out := make([]models.Book, 0, len(in.Books))
	for _, b := range in.Books {
		if query != "" && !matches(b, query) {
			continue
		}
		if !keep(b) {
			continue
		}
		out = append(out, b)
	}

	switch in.Tab {
	case TabTopRated:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := out[i].ResolvedRating(), out[j].ResolvedRating()
			if ri != rj {
				return ri > rj
			}
			return out[i].ReviewCount() > out[j].ReviewCount()
		})
	case TabNewArrivals:
		// predicate guarantees CreatedAt is set
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(*out[j].CreatedAt)
		})
	}
	return out
}

func matches(b models.Book, query string) bool {
	if strings.Contains(strings.ToLower(b.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(b.DescriptionText()), query) {
		return true
	}
	for _, a := range b.Authors {
		if strings.Contains(strings.ToLower(a.Name), query) {
			return true
		}
	}
	return false
}

func predicate(in Input) func(models.Book) bool {
	switch in.Tab {
	case TabFavorites:
		return func(b models.Book) bool {
			_, ok := in.Favorites[b.ID]
			return ok
		}
	case TabReading:
		return statusIs(in.Statuses, models.StatusReading)
	case TabToRead:
		return statusIs(in.Statuses, models.StatusToRead)
	case TabNewArrivals:
		cutoff := in.Now.Add(-NewArrivalWindow)
		return func(b models.Book) bool {
			return b.CreatedAt != nil && !b.CreatedAt.Before(cutoff)
		}
	case TabByGenre:
		if in.GenreID == nil {
			return all
		}
		id := *in.GenreID
		return func(b models.Book) bool { return b.HasGenre(id) }
	case TabTopRated:
		return func(b models.Book) bool { return b.ResolvedRating() >= TopRatedThreshold }
	default:
		return all
	}
}

func statusIs(statuses map[int64]models.ReadingStatus, want models.ReadingStatus) func(models.Book) bool {
	return func(b models.Book) bool {
		st, ok := statuses[b.ID]
		return ok && st == want
	}
}

func all(models.Book) bool { return true }
