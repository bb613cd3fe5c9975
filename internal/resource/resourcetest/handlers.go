package resourcetest

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"onlibry/pkg/models"
)

func (s *Server) obtainToken(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	password, ok := s.users[req.Username]
	if !ok || password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": s.issueToken(req.Username), "refresh": "refresh-" + req.Username})
}

func (s *Server) listBooks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	books := make([]models.Book, len(s.books))
	copy(books, s.books)
	c.JSON(http.StatusOK, books)
}

func (s *Server) listGenres(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	genres := make([]models.Genre, len(s.genres))
	copy(genres, s.genres)
	c.JSON(http.StatusOK, genres)
}

// --- favorites ---

func (s *Server) listFavorites(c *gin.Context) {
	user := c.GetString("username")
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []gin.H{}
	for _, id := range sortedKeys(s.favorites) {
		f := s.favorites[id]
		if f.user == user {
			out = append(out, gin.H{"id": f.id, "book": f.bookID})
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createFavorite(c *gin.Context) {
	user := c.GetString("username")
	var req struct {
		Book int64 `json:"book"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bookExists(req.Book) {
		c.JSON(http.StatusBadRequest, gin.H{"book": []string{"Invalid pk - object does not exist."}})
		return
	}
	for _, f := range s.favorites {
		if f.user == user && f.bookID == req.Book {
			c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"The fields user, book must make a unique set."}})
			return
		}
	}
	id := s.allocID()
	s.favorites[id] = &favoriteRow{id: id, user: user, bookID: req.Book}
	c.JSON(http.StatusCreated, gin.H{"id": id, "book": req.Book})
}

func (s *Server) deleteFavorite(c *gin.Context) {
	user := c.GetString("username")
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, exists := s.favorites[id]
	if !exists || f.user != user {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	delete(s.favorites, id)
	c.Status(http.StatusNoContent)
}

// --- user books ---

func userBookJSON(ub *userBookRow) gin.H {
	return gin.H{"id": ub.id, "book": ub.bookID, "status": ub.status.String()}
}

func (s *Server) listUserBooks(c *gin.Context) {
	user := c.GetString("username")
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []gin.H{}
	for _, id := range sortedKeys(s.userBooks) {
		ub := s.userBooks[id]
		if ub.user == user {
			out = append(out, userBookJSON(ub))
		}
	}
	c.JSON(http.StatusOK, out)
}

func parseStatus(c *gin.Context, raw string) (models.ReadingStatus, bool) {
	status, err := models.ParseReadingStatus(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": []string{"Invalid status."}})
		return 0, false
	}
	return status, true
}

// createUserBook updates the existing row when one exists, like the real backend.
func (s *Server) createUserBook(c *gin.Context) {
	user := c.GetString("username")
	var req struct {
		Book   int64  `json:"book"`
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	status, ok := parseStatus(c, req.Status)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bookExists(req.Book) {
		c.JSON(http.StatusBadRequest, gin.H{"book": []string{"Invalid pk - object does not exist."}})
		return
	}
	for _, ub := range s.userBooks {
		if ub.user == user && ub.bookID == req.Book {
			ub.status = status
			c.JSON(http.StatusCreated, userBookJSON(ub))
			return
		}
	}
	id := s.allocID()
	row := &userBookRow{id: id, user: user, bookID: req.Book, status: status}
	s.userBooks[id] = row
	c.JSON(http.StatusCreated, userBookJSON(row))
}

func (s *Server) updateUserBook(c *gin.Context) {
	user := c.GetString("username")
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	status, ok := parseStatus(c, req.Status)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ub, exists := s.userBooks[id]
	if !exists || ub.user != user {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	ub.status = status
	c.JSON(http.StatusOK, userBookJSON(ub))
}

func (s *Server) deleteUserBook(c *gin.Context) {
	user := c.GetString("username")
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ub, exists := s.userBooks[id]
	if !exists || ub.user != user {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	delete(s.userBooks, id)
	c.Status(http.StatusNoContent)
}

// --- reviews ---

func reviewJSON(r *reviewRow) gin.H {
	return gin.H{
		"id":         r.id,
		"book":       r.bookID,
		"user":       r.user,
		"rating":     r.rating,
		"text":       r.text,
		"is_visible": true,
		"created_at": r.createdAt,
	}
}

// listReviews returns newest first, optionally filtered by ?book=.
func (s *Server) listReviews(c *gin.Context) {
	var bookFilter int64
	if raw := c.Query("book"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"book": []string{"Enter a number."}})
			return
		}
		bookFilter = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := sortedKeys(s.reviews)
	out := []gin.H{}
	for i := len(ids) - 1; i >= 0; i-- {
		r := s.reviews[ids[i]]
		if bookFilter == 0 || r.bookID == bookFilter {
			out = append(out, reviewJSON(r))
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createReview(c *gin.Context) {
	user := c.GetString("username")
	var req struct {
		Book   int64  `json:"book"`
		Rating int    `json:"rating"`
		Text   string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Rating < models.MinReviewRating || req.Rating > models.MaxReviewRating {
		c.JSON(http.StatusBadRequest, gin.H{"rating": []string{"Rating must be 1..5"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bookExists(req.Book) {
		c.JSON(http.StatusBadRequest, gin.H{"book": []string{"Invalid pk - object does not exist."}})
		return
	}
	for _, r := range s.reviews {
		if r.user == user && r.bookID == req.Book {
			c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"The fields book, user must make a unique set."}})
			return
		}
	}
	id := s.allocID()
	row := &reviewRow{id: id, user: user, bookID: req.Book, rating: req.Rating, text: req.Text, createdAt: time.Now()}
	s.reviews[id] = row
	c.JSON(http.StatusCreated, reviewJSON(row))
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
