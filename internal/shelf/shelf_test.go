package shelf

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"onlibry/internal/errors"
	"onlibry/internal/logger"
	"onlibry/internal/resource"
	"onlibry/internal/resource/resourcetest"
	"onlibry/internal/session"
	"onlibry/internal/view"
	"onlibry/pkg/models"
)

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (l *noticeLog) Notify(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) last() Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.notices) == 0 {
		return Notice{}
	}
	return l.notices[len(l.notices)-1]
}

func (l *noticeLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.notices)
}

type ShelfTestSuite struct {
	suite.Suite
	srv     *resourcetest.Server
	store   *session.MemoryStore
	notices *noticeLog
	shelf   *Shelf
	now     time.Time
	ctx     context.Context
}

func (s *ShelfTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Now()

	s.srv = resourcetest.NewServer()
	s.srv.AddUser("alice", "secret")
	s.srv.AddGenre(models.Genre{ID: 1, Name: "Sci-Fi"})
	s.srv.AddGenre(models.Genre{ID: 2, Name: "Fantasy"})
	rating := func(f float64) *float64 { return &f }
	created := func(d time.Duration) *time.Time { t := s.now.Add(-d); return &t }
	s.srv.AddBook(models.Book{ID: 1, Title: "Dune", Authors: []models.Author{{ID: 1, Name: "Frank Herbert"}},
		Genres: []models.Genre{{ID: 1, Name: "Sci-Fi"}}, AvgRating: rating(4.6), CreatedAt: created(48 * time.Hour)})
	s.srv.AddBook(models.Book{ID: 2, Title: "The Hobbit", Authors: []models.Author{{ID: 2, Name: "J. R. R. Tolkien"}},
		Genres: []models.Genre{{ID: 2, Name: "Fantasy"}}, AvgRating: rating(4.2), CreatedAt: created(30 * 24 * time.Hour)})
	s.srv.AddBook(models.Book{ID: 3, Title: "Solaris", Authors: []models.Author{{ID: 3, Name: "Stanisław Lem"}},
		Genres: []models.Genre{{ID: 1, Name: "Sci-Fi"}}})

	client, err := resource.NewHTTPClient(resource.Options{BaseURL: s.srv.APIURL(), Logger: logger.Discard()})
	s.Require().NoError(err)

	s.store = session.NewMemoryStore()
	s.notices = &noticeLog{}
	s.shelf = New(Options{
		Client:   client,
		Store:    s.store,
		Logger:   logger.Discard(),
		Notifier: s.notices,
		Clock:    func() time.Time { return s.now },
	})
	s.Require().NoError(s.shelf.Refresh(s.ctx))
}

func (s *ShelfTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ShelfTestSuite) login() {
	s.Require().NoError(s.shelf.Login(s.ctx, "alice", "secret"))
	s.srv.ResetCalls()
}

func TestShelfTestSuite(t *testing.T) {
	suite.Run(t, new(ShelfTestSuite))
}

// --- session lifecycle ---

func (s *ShelfTestSuite) TestLogin_ReloadsRelations() {
	favID := s.srv.SeedFavorite("alice", 2)
	s.srv.SeedUserBook("alice", 1, models.StatusReading)
	s.srv.SeedUserBook("alice", 3, models.StatusFinished)
	s.srv.SeedFavorite("bob", 1)

	s.login()

	sess := s.shelf.Session()
	s.True(sess.Authenticated())
	s.Equal("alice", sess.Username)
	s.False(sess.ExpiresAt.IsZero(), "exp read from the token")

	s.Equal(map[int64]struct{}{2: {}}, s.shelf.Caches().FavoriteIDs())
	relationID, ok := s.shelf.Caches().favorite(2)
	s.True(ok)
	s.Equal(favID, relationID)

	st, ok := s.shelf.Caches().Status(1)
	s.True(ok)
	s.Equal(models.StatusReading, st)
	st, ok = s.shelf.Caches().Status(3)
	s.True(ok)
	s.Equal(models.StatusFinished, st)

	creds, err := s.store.Load()
	s.Require().NoError(err)
	s.Equal("alice", creds.Username)
	s.Equal(sess.AccessToken, creds.AccessToken)
}

func (s *ShelfTestSuite) TestLogin_BadCredentials() {
	err := s.shelf.Login(s.ctx, "alice", "wrong")

	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrRemoteOperationFailed))
	s.Equal("Login failed. Check username/password.", s.notices.last().Message)
	s.Equal(NoticeError, s.notices.last().Level)
	s.False(s.shelf.Session().Authenticated())

	_, err = s.store.Load()
	s.ErrorIs(err, session.ErrNoCredentials)
}

func (s *ShelfTestSuite) TestLogin_RelationFailureKeepsOtherList() {
	s.srv.SeedFavorite("alice", 1)
	s.srv.SeedUserBook("alice", 2, models.StatusToRead)
	s.srv.FailNext(http.MethodGet, "favorites/", http.StatusInternalServerError)

	s.Require().NoError(s.shelf.Login(s.ctx, "alice", "secret"))

	s.Empty(s.shelf.Caches().FavoriteIDs())
	st, ok := s.shelf.Caches().Status(2)
	s.True(ok, "statuses apply even though favorites failed")
	s.Equal(models.StatusToRead, st)
	s.Equal("Failed to load favorites.", s.notices.last().Message)
}

func (s *ShelfTestSuite) TestLogout_ClearsCaches() {
	s.srv.SeedFavorite("alice", 1)
	s.srv.SeedUserBook("alice", 2, models.StatusReading)
	s.login()
	s.Require().NoError(s.shelf.OpenDetail(s.ctx, 1))
	s.Require().NotEmpty(s.shelf.Caches().FavoriteIDs())

	s.Require().NoError(s.shelf.Logout())

	s.False(s.shelf.Session().Authenticated())
	s.Empty(s.shelf.Caches().FavoriteIDs())
	s.Empty(s.shelf.Caches().Statuses())
	_, open := s.shelf.Detail()
	s.False(open)
	_, err := s.store.Load()
	s.ErrorIs(err, session.ErrNoCredentials)
}

func (s *ShelfTestSuite) TestRestore_ValidToken() {
	s.srv.SeedFavorite("alice", 3)
	token := s.srv.Token("alice")
	s.Require().NoError(s.store.Save(&session.Credentials{AccessToken: token, Username: "alice"}))

	s.Require().NoError(s.shelf.Restore(s.ctx))

	s.True(s.shelf.Session().Authenticated())
	s.True(s.shelf.Caches().IsFavorite(3))
}

func (s *ShelfTestSuite) TestRestore_ExpiredTokenIsAnonymous() {
	s.srv.TokenTTL = -time.Minute
	token := s.srv.Token("alice")
	s.Require().NoError(s.store.Save(&session.Credentials{AccessToken: token, Username: "alice"}))

	s.Require().NoError(s.shelf.Restore(s.ctx))

	s.False(s.shelf.Session().Authenticated())
	s.Zero(s.srv.CallCount("", "favorites/"))
}

func (s *ShelfTestSuite) TestReloadRelations_DiscardedAfterLogout() {
	s.srv.SeedFavorite("alice", 1)
	s.login()
	s.Require().True(s.shelf.Caches().IsFavorite(1))

	entered, release := s.srv.Hold(http.MethodGet, "favorites/")
	defer release()

	done := make(chan error, 1)
	go func() { done <- s.shelf.ReloadRelations(s.ctx) }()
	<-entered

	s.Require().NoError(s.shelf.Logout())
	release()
	s.Require().NoError(<-done)

	s.Empty(s.shelf.Caches().FavoriteIDs(), "reload from the old session must not repopulate")
}

// --- favorites ---

func (s *ShelfTestSuite) TestToggleFavorite_DoubleToggleIsIdentity() {
	s.srv.SeedFavorite("alice", 2)
	s.login()
	before := s.shelf.Caches().FavoriteIDs()

	s.Require().NoError(s.shelf.ToggleFavorite(s.ctx, 1))
	s.True(s.shelf.Caches().IsFavorite(1))
	s.Equal([]int64{1, 2}, s.srv.FavoriteBooks("alice"))

	s.Require().NoError(s.shelf.ToggleFavorite(s.ctx, 1))
	s.Equal(before, s.shelf.Caches().FavoriteIDs())
	s.Equal([]int64{2}, s.srv.FavoriteBooks("alice"))

	s.Equal(1, s.srv.CallCount(http.MethodPost, "favorites/"))
	s.Equal(1, s.srv.CallCount(http.MethodDelete, "favorites/"))
	s.Zero(s.notices.count())
}

func (s *ShelfTestSuite) TestToggleFavorite_Unauthenticated() {
	err := s.shelf.ToggleFavorite(s.ctx, 1)

	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrUnauthenticated))
	s.Equal("You must be logged in to use favorites.", s.notices.last().Message)
	s.Zero(s.srv.CallCount("", "favorites/"))
}

func (s *ShelfTestSuite) TestToggleFavorite_RemoteFailureLeavesCache() {
	s.login()
	s.Require().NoError(s.shelf.ToggleFavorite(s.ctx, 1))

	s.srv.FailNext(http.MethodDelete, "favorites/", http.StatusInternalServerError)
	err := s.shelf.ToggleFavorite(s.ctx, 1)
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrRemoteOperationFailed))
	s.Equal("Failed to remove from favorites.", s.notices.last().Message)
	s.True(s.shelf.Caches().IsFavorite(1))

	s.srv.FailNext(http.MethodPost, "favorites/", http.StatusBadRequest)
	err = s.shelf.ToggleFavorite(s.ctx, 2)
	s.Require().Error(err)
	s.Equal("Failed to add to favorites.", s.notices.last().Message)
	s.False(s.shelf.Caches().IsFavorite(2))
}

func (s *ShelfTestSuite) TestToggleFavorite_PendingRejectsDuplicate() {
	s.login()
	entered, release := s.srv.Hold(http.MethodPost, "favorites/")
	defer release()

	done := make(chan error, 1)
	go func() { done <- s.shelf.ToggleFavorite(s.ctx, 1) }()
	<-entered

	err := s.shelf.ToggleFavorite(s.ctx, 1)
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrOperationPending))

	// other books are not blocked
	s.Require().NoError(s.shelf.ToggleFavorite(s.ctx, 2))

	release()
	s.Require().NoError(<-done)
	s.True(s.shelf.Caches().IsFavorite(1))
	s.Equal(2, s.srv.CallCount(http.MethodPost, "favorites/"))
}

// --- reading status ---

func (s *ShelfTestSuite) TestSetStatus_TwiceClears() {
	s.login()

	s.Require().NoError(s.shelf.SetStatus(s.ctx, 1, models.StatusReading))
	st, ok := s.shelf.Caches().Status(1)
	s.True(ok)
	s.Equal(models.StatusReading, st)

	s.Require().NoError(s.shelf.SetStatus(s.ctx, 1, models.StatusReading))
	_, ok = s.shelf.Caches().Status(1)
	s.False(ok)
	s.Zero(s.srv.UserBookCount("alice"))
}

func (s *ShelfTestSuite) TestSetStatus_SwitchKeepsRelationID() {
	s.login()
	s.Require().NoError(s.shelf.SetStatus(s.ctx, 1, models.StatusReading))
	before, _ := s.shelf.Caches().status(1)

	s.Require().NoError(s.shelf.SetStatus(s.ctx, 1, models.StatusToRead))

	after, ok := s.shelf.Caches().status(1)
	s.True(ok)
	s.Equal(before.RelationID, after.RelationID)
	s.Equal(models.StatusToRead, after.Status)
	s.Equal(1, s.srv.CallCount(http.MethodPatch, "user/books/"))
	s.Equal(1, s.srv.UserBookCount("alice"))
}

func (s *ShelfTestSuite) TestSetStatus_FinishedRowSwitches() {
	s.srv.SeedUserBook("alice", 3, models.StatusFinished)
	s.login()

	s.Require().NoError(s.shelf.SetStatus(s.ctx, 3, models.StatusToRead))

	st, _ := s.shelf.Caches().Status(3)
	s.Equal(models.StatusToRead, st)
	s.Equal(1, s.srv.CallCount(http.MethodPatch, "user/books/"))
}

func (s *ShelfTestSuite) TestSetStatus_RemoteFailureLeavesCache() {
	s.login()
	s.Require().NoError(s.shelf.SetStatus(s.ctx, 1, models.StatusReading))

	s.srv.FailNext(http.MethodPatch, "user/books/", http.StatusInternalServerError)
	err := s.shelf.SetStatus(s.ctx, 1, models.StatusToRead)
	s.Require().Error(err)
	s.Equal("Failed to update status.", s.notices.last().Message)
	st, _ := s.shelf.Caches().Status(1)
	s.Equal(models.StatusReading, st)

	s.srv.FailNext(http.MethodDelete, "user/books/", http.StatusInternalServerError)
	err = s.shelf.SetStatus(s.ctx, 1, models.StatusReading)
	s.Require().Error(err)
	s.Equal("Failed to remove from Reading now.", s.notices.last().Message)
	st, _ = s.shelf.Caches().Status(1)
	s.Equal(models.StatusReading, st)
}

func (s *ShelfTestSuite) TestSetStatus_Unauthenticated() {
	err := s.shelf.SetStatus(s.ctx, 1, models.StatusToRead)

	s.True(errors.Is(err, errors.ErrUnauthenticated))
	s.Equal("You must be logged in to use reading lists.", s.notices.last().Message)
	s.Zero(s.srv.CallCount("", "user/books/"))
}

// --- reviews and detail view ---

func (s *ShelfTestSuite) TestSubmitReview_InvalidRatingMakesNoCall() {
	s.login()

	for _, rating := range []int{0, 6, -1} {
		err := s.shelf.SubmitReview(s.ctx, 1, rating, "text")
		s.Require().Error(err)
		s.True(errors.Is(err, errors.ErrInvalidRating), "rating %d", rating)
	}
	s.Equal("Rating must be a number between 1 and 5.", s.notices.last().Message)
	s.Zero(s.srv.CallCount("", "reviews/"))
}

func (s *ShelfTestSuite) TestSubmitReview_TextTooLong() {
	s.login()

	err := s.shelf.SubmitReview(s.ctx, 1, 4, strings.Repeat("a", 5001))

	s.True(errors.Is(err, errors.ErrInvalidReview))
	s.Equal("Review text must be at most 5000 characters.", s.notices.last().Message)
	s.Zero(s.srv.CallCount("", "reviews/"))
}

func (s *ShelfTestSuite) TestSubmitReview_DuplicateRejected() {
	s.srv.SeedReview("alice", 1, 3, "meh")
	s.login()

	err := s.shelf.SubmitReview(s.ctx, 1, 5, "changed my mind")

	s.True(errors.Is(err, errors.ErrRemoteOperationFailed))
	s.Equal("Failed to add review (maybe you already reviewed this book?).", s.notices.last().Message)
	s.Equal(1, s.srv.CallCount(http.MethodPost, "reviews/"), "no retry")
}

func (s *ShelfTestSuite) TestSubmitReview_ReloadsOpenDetail() {
	s.srv.SeedReview("bob", 1, 4, "solid")
	s.login()
	s.Require().NoError(s.shelf.OpenDetail(s.ctx, 1))

	d, ok := s.shelf.Detail()
	s.Require().True(ok)
	s.Equal("Dune", d.Book.Title)
	s.Len(d.Reviews, 1)
	s.False(d.ReviewsLoading)

	s.Require().NoError(s.shelf.SubmitReview(s.ctx, 1, 5, "  a classic  "))
	s.Equal(Notice{Level: NoticeInfo, Message: "Review submitted!"}, s.notices.last())

	d, _ = s.shelf.Detail()
	s.Require().Len(d.Reviews, 2)
	s.Equal("a classic", d.Reviews[0].Text)
	s.Equal("alice", d.Reviews[0].Author)
}

func (s *ShelfTestSuite) TestSubmitReview_OtherBookDoesNotReload() {
	s.login()
	s.Require().NoError(s.shelf.OpenDetail(s.ctx, 1))
	s.srv.ResetCalls()

	s.Require().NoError(s.shelf.SubmitReview(s.ctx, 2, 4, ""))

	s.Zero(s.srv.CallCount(http.MethodGet, "reviews/"))
}

func (s *ShelfTestSuite) TestCloseDetail_DiscardsReviews() {
	s.srv.SeedReview("bob", 1, 4, "solid")
	s.Require().NoError(s.shelf.OpenDetail(s.ctx, 1))
	s.Require().Len(s.shelf.Caches().Reviews(1), 1)

	s.shelf.CloseDetail()

	_, ok := s.shelf.Detail()
	s.False(ok)
	s.Nil(s.shelf.Caches().Reviews(1))
}

func (s *ShelfTestSuite) TestOpenDetail_ReviewFailureShowsEmptyList() {
	s.srv.FailNext(http.MethodGet, "reviews/", http.StatusInternalServerError)

	s.Require().NoError(s.shelf.OpenDetail(s.ctx, 1))

	d, ok := s.shelf.Detail()
	s.Require().True(ok)
	s.NotNil(d.Reviews)
	s.Empty(d.Reviews)
	s.False(d.ReviewsLoading)
}

func (s *ShelfTestSuite) TestOpenDetail_StaleLoadDiscarded() {
	s.srv.SeedReview("bob", 1, 4, "solid")
	s.srv.SeedReview("bob", 2, 5, "cozy")
	entered, release := s.srv.Hold(http.MethodGet, "reviews/")
	defer release()

	done := make(chan error, 1)
	go func() { done <- s.shelf.OpenDetail(s.ctx, 1) }()
	<-entered

	s.shelf.CloseDetail()
	s.Require().NoError(s.shelf.OpenDetail(s.ctx, 2))
	release()
	s.Require().NoError(<-done)

	d, ok := s.shelf.Detail()
	s.Require().True(ok)
	s.Equal(int64(2), d.Book.ID)
	s.Nil(s.shelf.Caches().Reviews(1), "late result for book 1 is dropped")
	s.Len(d.Reviews, 1)
}

func (s *ShelfTestSuite) TestOpenDetail_UnknownBook() {
	err := s.shelf.OpenDetail(s.ctx, 404)

	s.True(errors.Is(err, errors.ErrNotFound))
	s.Zero(s.srv.CallCount("", "reviews/"))
}

// --- derived view ---

func (s *ShelfTestSuite) TestVisibleBooks() {
	s.login()
	s.Require().NoError(s.shelf.ToggleFavorite(s.ctx, 3))
	s.Require().NoError(s.shelf.SetStatus(s.ctx, 2, models.StatusReading))

	favs := s.shelf.VisibleBooks(view.TabFavorites, "", nil)
	s.Require().Len(favs, 1)
	s.Equal("Solaris", favs[0].Title)
	s.Equal("Showing 1 favorite books", s.shelf.Section(view.TabFavorites, favs).Caption)

	reading := s.shelf.VisibleBooks(view.TabReading, "", nil)
	s.Require().Len(reading, 1)
	s.Equal(int64(2), reading[0].ID)

	fresh := s.shelf.VisibleBooks(view.TabNewArrivals, "", nil)
	s.Require().Len(fresh, 1)
	s.Equal(int64(1), fresh[0].ID)

	genre := int64(1)
	scifi := s.shelf.VisibleBooks(view.TabByGenre, "", &genre)
	s.Len(scifi, 2)

	top := s.shelf.VisibleBooks(view.TabTopRated, "", nil)
	s.Require().Len(top, 2)
	s.Equal(int64(1), top[0].ID)

	section := s.shelf.Section(view.TabDiscover, s.shelf.VisibleBooks(view.TabDiscover, "tolkien", nil))
	s.Equal("Discover books", section.Title)
	s.Equal("Showing 1 of 3 books", section.Caption)
}

func TestRefresh_BooksSurviveGenreFailure(t *testing.T) {
	srv := resourcetest.NewServer()
	defer srv.Close()
	srv.AddBook(models.Book{ID: 1, Title: "Dune"})
	srv.FailNext(http.MethodGet, "genres/", http.StatusBadGateway)

	client, err := resource.NewHTTPClient(resource.Options{BaseURL: srv.APIURL()})
	require.NoError(t, err)
	sh := New(Options{Client: client, Logger: logger.Discard()})

	err = sh.Refresh(context.Background())
	require.Error(t, err)
	assert.Len(t, sh.Catalog().Books(), 1)
	assert.Empty(t, sh.Catalog().Genres())
	assert.False(t, sh.Catalog().Loading())
}
