// Package resourcetest runs an in-process stand-in for the catalog REST
// service. It keeps the backend rules the client relies on (one favorite and
// one status row per user and book, one review per user and book,
// update-or-create on user books) and lets tests inject failures or hold a
// request in flight.
package resourcetest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"onlibry/pkg/models"
)

const signingKey = "resourcetest-secret"

// Call is one request received by the server.
type Call struct {
	Method string
	Path   string
	Query  string
}

type favoriteRow struct {
	id     int64
	user   string
	bookID int64
}

type userBookRow struct {
	id     int64
	user   string
	bookID int64
	status models.ReadingStatus
}

type reviewRow struct {
	id        int64
	user      string
	bookID    int64
	rating    int
	text      string
	createdAt time.Time
}

type failure struct {
	method string
	prefix string
	status int
}

type hold struct {
	method  string
	prefix  string
	entered chan struct{}
	release chan struct{}
}

// Server is the fake backend. Its base URL for the client is APIURL().
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	users     map[string]string // username -> password
	tokens    map[string]string // token -> username
	books     []models.Book
	genres    []models.Genre
	favorites map[int64]*favoriteRow
	userBooks map[int64]*userBookRow
	reviews   map[int64]*reviewRow
	nextID    int64
	failures  []failure
	holds     []*hold
	calls     []Call
	TokenTTL  time.Duration
}

// NewServer starts a server; it is closed with t.Cleanup by the caller.
func NewServer() *Server {
	s := &Server{
		users:     make(map[string]string),
		tokens:    make(map[string]string),
		favorites: make(map[int64]*favoriteRow),
		userBooks: make(map[int64]*userBookRow),
		reviews:   make(map[int64]*reviewRow),
		nextID:    100,
		TokenTTL:  30 * time.Minute,
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// APIURL is the base URL to configure the client with.
func (s *Server) APIURL() string {
	return s.URL + "/api/"
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(s.record, s.inject)

	api := r.Group("/api")
	{
		api.POST("/auth/token/", s.obtainToken)
		api.GET("/books/", s.listBooks)
		api.GET("/genres/", s.listGenres)
		api.GET("/reviews/", s.optionalAuth, s.listReviews)
		api.POST("/reviews/", s.requireAuth, s.createReview)
	}
	authed := api.Group("", s.requireAuth)
	{
		authed.GET("/favorites/", s.listFavorites)
		authed.POST("/favorites/", s.createFavorite)
		authed.DELETE("/favorites/:id/", s.deleteFavorite)

		authed.GET("/user/books/", s.listUserBooks)
		authed.POST("/user/books/", s.createUserBook)
		authed.PATCH("/user/books/:id/", s.updateUserBook)
		authed.DELETE("/user/books/:id/", s.deleteUserBook)
	}
	return r
}

// --- seeding and inspection ---

// AddUser registers credentials accepted by auth/token/.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// Token issues a token for username without going through auth/token/.
func (s *Server) Token(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		s.users[username] = ""
	}
	return s.issueToken(username)
}

// AddGenre appends a genre to the catalog.
func (s *Server) AddGenre(g models.Genre) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genres = append(s.genres, g)
}

// AddBook appends a book to the catalog, keeping insertion order.
func (s *Server) AddBook(b models.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = append(s.books, b)
}

// SeedFavorite stores a favorite row and returns its id.
func (s *Server) SeedFavorite(username string, bookID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	s.favorites[id] = &favoriteRow{id: id, user: username, bookID: bookID}
	return id
}

// SeedUserBook stores a status row and returns its id.
func (s *Server) SeedUserBook(username string, bookID int64, status models.ReadingStatus) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	s.userBooks[id] = &userBookRow{id: id, user: username, bookID: bookID, status: status}
	return id
}

// SeedReview stores a review and returns its id.
func (s *Server) SeedReview(username string, bookID int64, rating int, text string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	s.reviews[id] = &reviewRow{id: id, user: username, bookID: bookID, rating: rating, text: text, createdAt: time.Now()}
	return id
}

// FavoriteBooks returns the book ids username has favorited, ascending.
func (s *Server) FavoriteBooks(username string) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, f := range s.favorites {
		if f.user == username {
			ids = append(ids, f.bookID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UserBookCount returns how many status rows username has.
func (s *Server) UserBookCount(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ub := range s.userBooks {
		if ub.user == username {
			n++
		}
	}
	return n
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount counts requests with the given method whose path starts with prefix.
// An empty method matches any method.
func (s *Server) CallCount(method, prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if (method == "" || c.Method == method) && strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

// ResetCalls forgets the recorded requests.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// FailNext makes the next request matching method and path prefix answer with status.
func (s *Server) FailNext(method, prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, prefix: prefix, status: status})
}

// Hold blocks the next request matching method and path prefix until the
// returned release func is called. entered is closed once the request arrives.
func (s *Server) Hold(method, prefix string) (entered <-chan struct{}, release func()) {
	h := &hold{method: method, prefix: prefix, entered: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.holds = append(s.holds, h)
	s.mu.Unlock()

	var once sync.Once
	return h.entered, func() { once.Do(func() { close(h.release) }) }
}

// --- middleware ---

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method: c.Request.Method,
		Path:   strings.TrimPrefix(c.Request.URL.Path, "/api/"),
		Query:  c.Request.URL.RawQuery,
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	path := strings.TrimPrefix(c.Request.URL.Path, "/api/")

	s.mu.Lock()
	var matched *hold
	for i, h := range s.holds {
		if h.method == c.Request.Method && strings.HasPrefix(path, h.prefix) {
			matched = h
			s.holds = append(s.holds[:i], s.holds[i+1:]...)
			break
		}
	}
	status := 0
	for i, f := range s.failures {
		if f.method == c.Request.Method && strings.HasPrefix(path, f.prefix) {
			status = f.status
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if matched != nil {
		close(matched.entered)
		select {
		case <-matched.release:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"detail": "injected failure"})
		return
	}
	c.Next()
}

func (s *Server) requireAuth(c *gin.Context) {
	user, ok := s.userFromHeader(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}
	c.Set("username", user)
	c.Next()
}

func (s *Server) optionalAuth(c *gin.Context) {
	if user, ok := s.userFromHeader(c); ok {
		c.Set("username", user)
	}
	c.Next()
}

func (s *Server) userFromHeader(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.tokens[token]
	return user, ok
}

// --- helpers, callers hold s.mu ---

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) issueToken(username string) string {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(s.TokenTTL).Unix(),
		"jti":      strconv.FormatInt(s.allocID(), 10),
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	s.tokens[signed] = username
	return signed
}

func (s *Server) bookExists(id int64) bool {
	for _, b := range s.books {
		if b.ID == id {
			return true
		}
	}
	return false
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return id, true
}
