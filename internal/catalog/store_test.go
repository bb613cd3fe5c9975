package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "onlibry/internal/errors"
	"onlibry/internal/logger"
	"onlibry/pkg/models"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) ListBooks(ctx context.Context) ([]models.Book, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Book), args.Error(1)
}

func (m *MockSource) ListGenres(ctx context.Context) ([]models.Genre, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Genre), args.Error(1)
}

var (
	firstBooks  = []models.Book{{ID: 1, Title: "Dune"}, {ID: 2, Title: "Solaris"}}
	firstGenres = []models.Genre{{ID: 1, Name: "Sci-Fi"}, {ID: 2, Name: "Fantasy"}}
)

func TestRefresh_LoadsBooksAndGenres(t *testing.T) {
	src := new(MockSource)
	src.On("ListBooks", mock.Anything).Return(firstBooks, nil)
	src.On("ListGenres", mock.Anything).Return(firstGenres, nil)
	store := NewStore(src, logger.Discard())

	require.NoError(t, store.Refresh(context.Background()))

	assert.Equal(t, firstBooks, store.Books())
	assert.Equal(t, firstGenres, store.Genres())
	assert.False(t, store.Loading())
	src.AssertExpectations(t)
}

func TestRefresh_FailureKeepsPreviousValue(t *testing.T) {
	src := new(MockSource)
	src.On("ListBooks", mock.Anything).Return(firstBooks, nil).Once()
	src.On("ListGenres", mock.Anything).Return(firstGenres, nil).Once()
	store := NewStore(src, logger.Discard())
	require.NoError(t, store.Refresh(context.Background()))

	src.On("ListBooks", mock.Anything).Return(nil, errors.New("connection reset")).Once()
	src.On("ListGenres", mock.Anything).Return([]models.Genre{{ID: 9, Name: "Horror"}}, nil).Once()

	err := store.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrRemoteOperationFailed))
	assert.Equal(t, "Failed to load books.", apperrors.Notice(err))

	assert.Equal(t, firstBooks, store.Books(), "books keep their previous value")
	assert.Equal(t, []models.Genre{{ID: 9, Name: "Horror"}}, store.Genres(), "genres load independently")
	assert.False(t, store.Loading(), "loading indicator stops on failure")
}

func TestBooks_ReturnsCopy(t *testing.T) {
	src := new(MockSource)
	src.On("ListBooks", mock.Anything).Return([]models.Book{{ID: 1, Title: "Dune"}}, nil)
	store := NewStore(src, logger.Discard())
	require.NoError(t, store.RefreshBooks(context.Background()))

	books := store.Books()
	books[0].Title = "changed"
	assert.Equal(t, "Dune", store.Books()[0].Title)
}

func TestLookups(t *testing.T) {
	src := new(MockSource)
	src.On("ListBooks", mock.Anything).Return(firstBooks, nil)
	src.On("ListGenres", mock.Anything).Return(firstGenres, nil)
	store := NewStore(src, logger.Discard())
	require.NoError(t, store.Refresh(context.Background()))

	b, ok := store.Book(2)
	assert.True(t, ok)
	assert.Equal(t, "Solaris", b.Title)
	_, ok = store.Book(99)
	assert.False(t, ok)

	g, ok := store.GenreByName("  sci-fi ")
	assert.True(t, ok)
	assert.Equal(t, int64(1), g.ID)
	_, ok = store.GenreByName("poetry")
	assert.False(t, ok)
}

func TestLoading_WhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	src := new(MockSource)
	src.On("ListBooks", mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(firstBooks, nil).Once()
	store := NewStore(src, logger.Discard())

	done := make(chan error, 1)
	go func() { done <- store.RefreshBooks(context.Background()) }()

	<-entered
	assert.True(t, store.Loading())
	close(release)
	require.NoError(t, <-done)
	assert.False(t, store.Loading())
}
