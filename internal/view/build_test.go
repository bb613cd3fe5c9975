package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"onlibry/pkg/models"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func ids(books []models.Book) []int64 {
	out := make([]int64, 0, len(books))
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func catalog() []models.Book {
	return []models.Book{
		{ID: 1, Title: "Dune", Authors: []models.Author{{ID: 1, Name: "Frank Herbert"}},
			Genres: []models.Genre{{ID: 10, Name: "Sci-Fi"}}, AvgRating: ptr(4.5), ReviewsCount: ptr(3),
			CreatedAt: ptr(now.Add(-6 * 24 * time.Hour))},
		{ID: 2, Title: "Children of Time", Authors: []models.Author{{ID: 2, Name: "Adrian Tchaikovsky"}},
			Genres: []models.Genre{{ID: 10, Name: "Sci-Fi"}}, AvgRating: ptr(4.5), ReviewsCount: ptr(12),
			CreatedAt: ptr(now.Add(-NewArrivalWindow - time.Second))},
		{ID: 3, Title: "Sandworm Notes", Description: ptr("A field guide to Arrakis"),
			Authors: []models.Author{{ID: 3, Name: "Someone Else"}}, Rating: ptr(3.9)},
		{ID: 4, Title: "The Hobbit", Authors: []models.Author{{ID: 4, Name: "J. R. R. Tolkien"}},
			Genres: []models.Genre{{ID: 11, Name: "Fantasy"}}, AverageRating: ptr(4.8),
			CreatedAt: ptr(now.Add(-time.Hour))},
		{ID: 5, Title: "Messiah", Authors: []models.Author{{ID: 1, Name: "Frank Herbert"}},
			Description: ptr("The sequel to DUNE")},
	}
}

func TestBuild_TextFilter(t *testing.T) {
	books := catalog()
	books = append(books, models.Book{ID: 6, Title: "Unrelated", Authors: []models.Author{{ID: 9, Name: "Dune Author"}}})

	got := Build(Input{Books: books, Tab: TabDiscover, Search: "  dUnE ", Now: now})
	assert.Equal(t, []int64{1, 5, 6}, ids(got), "title, description and author all match")

	got = Build(Input{Books: books, Tab: TabDiscover, Search: "herbert", Now: now})
	assert.Equal(t, []int64{1, 5}, ids(got))

	got = Build(Input{Books: books, Tab: TabDiscover, Search: "   ", Now: now})
	assert.Len(t, got, len(books), "blank query keeps everything")
}

func TestBuild_TopRatedTieBreak(t *testing.T) {
	got := Build(Input{Books: catalog(), Tab: TabTopRated, Now: now})
	// 4.8 first, then the 4.5 pair ordered by review count; 3.9 and unrated dropped
	assert.Equal(t, []int64{4, 2, 1}, ids(got))
}

func TestBuild_NewArrivalsWindow(t *testing.T) {
	got := Build(Input{Books: catalog(), Tab: TabNewArrivals, Now: now})
	// 7d+1s old is out, 6d old is in, no timestamp is out; newest first
	assert.Equal(t, []int64{4, 1}, ids(got))
}

func TestBuild_NewArrivalsBoundary(t *testing.T) {
	books := []models.Book{{ID: 1, Title: "Edge", CreatedAt: ptr(now.Add(-NewArrivalWindow))}}
	got := Build(Input{Books: books, Tab: TabNewArrivals, Now: now})
	assert.Equal(t, []int64{1}, ids(got))
}

func TestBuild_RelationTabs(t *testing.T) {
	in := Input{
		Books:     catalog(),
		Favorites: map[int64]struct{}{3: {}, 1: {}},
		Statuses: map[int64]models.ReadingStatus{
			2: models.StatusReading,
			4: models.StatusToRead,
			5: models.StatusFinished,
		},
		Now: now,
	}

	in.Tab = TabFavorites
	assert.Equal(t, []int64{1, 3}, ids(Build(in)), "catalog order preserved")

	in.Tab = TabReading
	assert.Equal(t, []int64{2}, ids(Build(in)))

	in.Tab = TabToRead
	assert.Equal(t, []int64{4}, ids(Build(in)), "finished counts as neither")
}

func TestBuild_ByGenre(t *testing.T) {
	got := Build(Input{Books: catalog(), Tab: TabByGenre, GenreID: ptr(int64(10)), Now: now})
	assert.Equal(t, []int64{1, 2}, ids(got))

	got = Build(Input{Books: catalog(), Tab: TabByGenre, Now: now})
	assert.Len(t, got, 5, "no genre selected shows everything")
}

func TestBuild_DoesNotReorderInput(t *testing.T) {
	books := catalog()
	before := ids(books)

	first := Build(Input{Books: books, Tab: TabTopRated, Now: now})
	second := Build(Input{Books: books, Tab: TabTopRated, Now: now})

	assert.Equal(t, before, ids(books))
	assert.Equal(t, ids(first), ids(second))
}

func TestParseTab(t *testing.T) {
	assert.Equal(t, TabToRead, ParseTab("to-read"))
	assert.Equal(t, TabTopRated, ParseTab(" TOP_RATED "))
	assert.Equal(t, TabDiscover, ParseTab("bestsellers"))
	assert.Equal(t, TabDiscover, ParseTab(""))
	assert.Equal(t, "Reading now", TabReading.Title())
	assert.Equal(t, "Discover books", Tab("nope").Title())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Loading your library...", Describe(TabDiscover, 0, 0, true).Caption)
	assert.Equal(t, "No favorite books yet.", Describe(TabFavorites, 0, 5, false).Caption)
	assert.Equal(t, "No books match your query. Try another search.", Describe(TabTopRated, 0, 5, false).Caption)
	assert.Equal(t, "Showing 2 favorite books", Describe(TabFavorites, 2, 5, false).Caption)

	s := Describe(TabNewArrivals, 2, 5, false)
	assert.Equal(t, "New arrivals", s.Title)
	assert.Equal(t, "Showing 2 of 5 books", s.Caption)
}
