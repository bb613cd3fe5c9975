package shelf

import (
	"sync"

	"onlibry/pkg/models"
)

type statusEntry struct {
	RelationID int64
	Status     models.ReadingStatus
}

// Caches mirrors the user's confirmed relations. Readers get copies; only the
// Shelf mutates it, and only after the backend confirmed the change.
type Caches struct {
	mu        sync.RWMutex
	favorites map[int64]int64 // book id -> favorite relation id (0 when unknown)
	statuses  map[int64]statusEntry
	reviews   map[int64][]models.Review
}

func newCaches() *Caches {
	return &Caches{
		favorites: make(map[int64]int64),
		statuses:  make(map[int64]statusEntry),
		reviews:   make(map[int64][]models.Review),
	}
}

// IsFavorite reports whether bookID is in the user's favorites.
func (c *Caches) IsFavorite(bookID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.favorites[bookID]
	return ok
}

// FavoriteIDs returns the set of favorite book ids.
func (c *Caches) FavoriteIDs() map[int64]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]struct{}, len(c.favorites))
	for id := range c.favorites {
		out[id] = struct{}{}
	}
	return out
}

// Status returns the reading status recorded for bookID.
func (c *Caches) Status(bookID int64) (models.ReadingStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.statuses[bookID]
	return e.Status, ok
}

// Statuses returns book id -> reading status for every tracked book.
func (c *Caches) Statuses() map[int64]models.ReadingStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]models.ReadingStatus, len(c.statuses))
	for id, e := range c.statuses {
		out[id] = e.Status
	}
	return out
}

// Reviews returns the loaded reviews of bookID, nil when none are loaded.
func (c *Caches) Reviews(bookID int64) []models.Review {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list, ok := c.reviews[bookID]
	if !ok {
		return nil
	}
	out := make([]models.Review, len(list))
	copy(out, list)
	return out
}

func (c *Caches) favorite(bookID int64) (relationID int64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	relationID, ok = c.favorites[bookID]
	return relationID, ok
}

func (c *Caches) status(bookID int64) (statusEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.statuses[bookID]
	return e, ok
}

func (c *Caches) putFavorite(bookID, relationID int64) {
	c.mu.Lock()
	c.favorites[bookID] = relationID
	c.mu.Unlock()
}

func (c *Caches) removeFavorite(bookID int64) {
	c.mu.Lock()
	delete(c.favorites, bookID)
	c.mu.Unlock()
}

func (c *Caches) putStatus(bookID int64, e statusEntry) {
	c.mu.Lock()
	c.statuses[bookID] = e
	c.mu.Unlock()
}

func (c *Caches) removeStatus(bookID int64) {
	c.mu.Lock()
	delete(c.statuses, bookID)
	c.mu.Unlock()
}

func (c *Caches) replaceFavorites(rows []models.FavoriteRelation) {
	m := make(map[int64]int64, len(rows))
	for _, r := range rows {
		m[r.BookID] = r.ID
	}
	c.mu.Lock()
	c.favorites = m
	c.mu.Unlock()
}

func (c *Caches) replaceStatuses(rows []models.StatusRelation) {
	m := make(map[int64]statusEntry, len(rows))
	for _, r := range rows {
		m[r.BookID] = statusEntry{RelationID: r.ID, Status: r.Status}
	}
	c.mu.Lock()
	c.statuses = m
	c.mu.Unlock()
}

func (c *Caches) setReviews(bookID int64, list []models.Review) {
	if list == nil {
		list = []models.Review{}
	}
	c.mu.Lock()
	c.reviews[bookID] = list
	c.mu.Unlock()
}

func (c *Caches) dropReviews(bookID int64) {
	c.mu.Lock()
	delete(c.reviews, bookID)
	c.mu.Unlock()
}

// clear empties every relation, as for an anonymous session.
func (c *Caches) clear() {
	c.mu.Lock()
	c.favorites = make(map[int64]int64)
	c.statuses = make(map[int64]statusEntry)
	c.reviews = make(map[int64][]models.Review)
	c.mu.Unlock()
}
