package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"onlibry/internal/session"
	"onlibry/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
	userAgent      = "onlibry-cli/1.0"
)

// Options configures an HTTPClient.
type Options struct {
	BaseURL   string // e.g. http://localhost:8000/api/
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables throttling
	RateBurst int
	Logger    *slog.Logger
}

// HTTPClient implements Client over the REST API.
type HTTPClient struct {
	baseURL     *url.URL
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a new resource client.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
		base.Path += "/"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &HTTPClient{
		baseURL:     base,
		rateLimiter: limiter,
		logger:      opts.Logger,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// ObtainToken exchanges credentials for an access token.
func (c *HTTPClient) ObtainToken(ctx context.Context, username, password string) (string, error) {
	var result tokenResponse
	req := tokenRequest{Username: username, Password: password}
	if err := c.doRequest(ctx, nil, http.MethodPost, "auth/token/", nil, req, &result); err != nil {
		return "", err
	}
	if result.Access == "" {
		return "", fmt.Errorf("token response carried no access token")
	}
	return result.Access, nil
}

func (c *HTTPClient) ListBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := c.doRequest(ctx, nil, http.MethodGet, "books/", nil, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *HTTPClient) ListGenres(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre
	if err := c.doRequest(ctx, nil, http.MethodGet, "genres/", nil, nil, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

func (c *HTTPClient) ListFavorites(ctx context.Context, sess session.Session) ([]models.FavoriteRelation, error) {
	var favorites []models.FavoriteRelation
	if err := c.doRequest(ctx, &sess, http.MethodGet, "favorites/", nil, nil, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (c *HTTPClient) CreateFavorite(ctx context.Context, sess session.Session, bookID int64) (*models.FavoriteRelation, error) {
	var created models.FavoriteRelation
	if err := c.doRequest(ctx, &sess, http.MethodPost, "favorites/", nil, favoriteRequest{Book: bookID}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *HTTPClient) DeleteFavorite(ctx context.Context, sess session.Session, relationID int64) error {
	return c.doRequest(ctx, &sess, http.MethodDelete, itemPath("favorites", relationID), nil, nil, nil)
}

func (c *HTTPClient) ListUserBooks(ctx context.Context, sess session.Session) ([]models.StatusRelation, error) {
	var rows []models.StatusRelation
	if err := c.doRequest(ctx, &sess, http.MethodGet, "user/books/", nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *HTTPClient) CreateUserBook(ctx context.Context, sess session.Session, bookID int64, status models.ReadingStatus) (*models.StatusRelation, error) {
	var created models.StatusRelation
	body := userBookRequest{Book: bookID, Status: status}
	if err := c.doRequest(ctx, &sess, http.MethodPost, "user/books/", nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateUserBook changes only the status of an existing relation (partial update).
func (c *HTTPClient) UpdateUserBook(ctx context.Context, sess session.Session, relationID int64, status models.ReadingStatus) (*models.StatusRelation, error) {
	var updated models.StatusRelation
	body := userBookRequest{Status: status}
	if err := c.doRequest(ctx, &sess, http.MethodPatch, itemPath("user/books", relationID), nil, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *HTTPClient) DeleteUserBook(ctx context.Context, sess session.Session, relationID int64) error {
	return c.doRequest(ctx, &sess, http.MethodDelete, itemPath("user/books", relationID), nil, nil, nil)
}

func (c *HTTPClient) ListReviews(ctx context.Context, sess session.Session, bookID int64) ([]models.Review, error) {
	var reviews []models.Review
	params := url.Values{}
	params.Set("book", strconv.FormatInt(bookID, 10))
	if err := c.doRequest(ctx, &sess, http.MethodGet, "reviews/", params, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (c *HTTPClient) CreateReview(ctx context.Context, sess session.Session, draft models.ReviewDraft) (*models.Review, error) {
	var created models.Review
	if err := c.doRequest(ctx, &sess, http.MethodPost, "reviews/", nil, draft, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func itemPath(collection string, id int64) string {
	return collection + "/" + strconv.FormatInt(id, 10) + "/"
}

// doRequest performs one throttled request. body is JSON encoded when non-nil,
// result is decoded from a 2xx response when non-nil. No retries: a failed call
// is reported to the caller as is.
func (c *HTTPClient) doRequest(ctx context.Context, sess *session.Session, method, path string, params url.Values, body, result any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref)
	if params != nil {
		target.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil && sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("resource_request_failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err,
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("resource_request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(bodyBytes)),
		}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to parse response of %s %s: %w", method, path, err)
	}
	return nil
}
