// Package shelf is the client core: it owns the session, the relation caches
// and the catalog store, and it is the only writer of the caches. Every
// mutation is pessimistic: the cache changes only after the backend confirms.
package shelf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"onlibry/internal/catalog"
	"onlibry/internal/errors"
	"onlibry/internal/resource"
	"onlibry/internal/session"
	"onlibry/internal/view"
	"onlibry/pkg/models"
)

// Options wires a Shelf to its collaborators.
type Options struct {
	Client   resource.Client
	Store    session.Store
	Logger   *slog.Logger
	Notifier Notifier
	Clock    func() time.Time
}

type Shelf struct {
	client   resource.Client
	store    session.Store
	logger   *slog.Logger
	notifier Notifier
	clock    func() time.Time

	catalog *catalog.Store
	caches  *Caches

	// mu guards the session, its epoch and the detail view. The epoch bumps on
	// every login and logout so in-flight results from an older session can be
	// recognised and dropped.
	mu        sync.RWMutex
	sess      session.Session
	epoch     uint64
	detail    detailState
	detailGen uint64

	pendingMu sync.Mutex
	pending   map[opKey]struct{}
}

func New(opts Options) *Shelf {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}
	return &Shelf{
		client:   opts.Client,
		store:    opts.Store,
		logger:   opts.Logger,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		catalog:  catalog.NewStore(opts.Client, opts.Logger),
		caches:   newCaches(),
		pending:  make(map[opKey]struct{}),
	}
}

// Session returns the current authentication context.
func (s *Shelf) Session() session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

func (s *Shelf) Catalog() *catalog.Store { return s.catalog }

func (s *Shelf) Caches() *Caches { return s.caches }

func (s *Shelf) snapshot() (session.Session, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess, s.epoch
}

// apply runs fn only if the session that started the call is still current.
// Holding mu keeps a concurrent logout from interleaving with fn.
func (s *Shelf) apply(epoch uint64, fn func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.epoch != epoch {
		return false
	}
	fn()
	return true
}

// fail logs err, sends its notice and returns it.
func (s *Shelf) fail(event string, err error, attrs ...any) error {
	s.logger.Warn(event, append(attrs, "error", err)...)
	s.notifier.Notify(Notice{Level: NoticeError, Message: errors.Notice(err)})
	return err
}

// Restore reads persisted credentials and, when they are still valid,
// reloads the user's relations.
func (s *Shelf) Restore(ctx context.Context) error {
	sess, err := session.Restore(s.store, s.clock())
	if err != nil {
		s.logger.Warn("credentials_restore_failed", "error", err)
		return fmt.Errorf("restore session: %w", err)
	}
	s.setSession(sess)
	if !sess.Authenticated() {
		return nil
	}
	s.logger.Debug("session_restored", "username", sess.Username)
	return s.ReloadRelations(ctx)
}

// Login obtains a token, persists it and reloads the user's relations.
func (s *Shelf) Login(ctx context.Context, username, password string) error {
	token, err := s.client.ObtainToken(ctx, username, password)
	if err != nil {
		return s.fail("login_failed", errors.Remote(err, "Login failed. Check username/password."), "username", username)
	}

	sess := session.FromToken(token, username)
	if err := s.store.Save(&session.Credentials{AccessToken: token, Username: username}); err != nil {
		// the in-memory session still works for this run
		s.logger.Warn("credentials_save_failed", "error", err)
	}
	s.setSession(sess)
	s.logger.Info("logged_in", "username", username)

	if err := s.ReloadRelations(ctx); err != nil {
		s.notifier.Notify(Notice{Level: NoticeError, Message: errors.Notice(err)})
	}
	return nil
}

// Logout forgets the credentials and every user relation.
func (s *Shelf) Logout() error {
	s.setSession(session.Anonymous())
	s.logger.Info("logged_out")

	if err := s.store.Clear(); err != nil {
		s.logger.Warn("credentials_clear_failed", "error", err)
		return fmt.Errorf("clear stored credentials: %w", err)
	}
	return nil
}

// setSession swaps the session, starts a new epoch and empties the caches.
// Relations always belong to exactly one session.
func (s *Shelf) setSession(sess session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
	s.epoch++
	s.caches.clear()
	s.detail = detailState{}
	s.detailGen++
}

// ReloadRelations fetches favorites and reading statuses concurrently.
// Each list is applied on its own, so one failing does not discard the other.
func (s *Shelf) ReloadRelations(ctx context.Context) error {
	sess, epoch := s.snapshot()
	if !sess.Authenticated() {
		return nil
	}

	var g errgroup.Group
	g.Go(func() error {
		rows, err := s.client.ListFavorites(ctx, sess)
		if err != nil {
			s.logger.Error("favorites_load_failed", "error", err)
			return errors.Remote(err, "Failed to load favorites.")
		}
		if !s.apply(epoch, func() { s.caches.replaceFavorites(rows) }) {
			s.logger.Debug("favorites_load_discarded")
			return nil
		}
		s.logger.Debug("favorites_loaded", "count", len(rows))
		return nil
	})
	g.Go(func() error {
		rows, err := s.client.ListUserBooks(ctx, sess)
		if err != nil {
			s.logger.Error("user_books_load_failed", "error", err)
			return errors.Remote(err, "Failed to load reading lists.")
		}
		if !s.apply(epoch, func() { s.caches.replaceStatuses(rows) }) {
			s.logger.Debug("user_books_load_discarded")
			return nil
		}
		s.logger.Debug("user_books_loaded", "count", len(rows))
		return nil
	})
	return g.Wait()
}

// Refresh reloads the catalog and genre list.
func (s *Shelf) Refresh(ctx context.Context) error {
	return s.catalog.Refresh(ctx)
}

// VisibleBooks is the list shown for the given tab, search text and genre.
func (s *Shelf) VisibleBooks(tab view.Tab, search string, genreID *int64) []models.Book {
	return view.Build(view.Input{
		Books:     s.catalog.Books(),
		Favorites: s.caches.FavoriteIDs(),
		Statuses:  s.caches.Statuses(),
		Tab:       tab,
		Search:    search,
		GenreID:   genreID,
		Now:       s.clock(),
	})
}

// Section describes the heading for a list built by VisibleBooks.
func (s *Shelf) Section(tab view.Tab, visible []models.Book) view.Section {
	return view.Describe(tab, len(visible), len(s.catalog.Books()), s.catalog.Loading())
}
