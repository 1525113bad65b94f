package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vietd88/grubberbot/model"
)

const (
	ChesscomURL      = "https://api.chess.com"
	DefaultUserAgent = "grubberbot (league backend)"
)

var (
	// ErrProviderUnavailable wraps every transport, status or decoding failure.
	ErrProviderUnavailable = errors.New("rating provider unavailable")
	ErrPlayerNotFound      = fmt.Errorf("chess.com player %w", model.ErrNotFound)
)

type Client interface {
	PlayerExists(ctx context.Context, handle string) (bool, error)
	PlayerStats(ctx context.Context, handle string) (*PlayerStats, error)
	// Finished games for the handle in the given month, oldest first.
	GamesInMonth(ctx context.Context, handle string, year int, month time.Month) ([]model.ArchivedGame, error)
}

type client struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

func New(baseURL, userAgent string, timeout time.Duration) (Client, error) {
	if baseURL == "" {
		baseURL = ChesscomURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("error parsing chess.com url: %w", err)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &client{
		url:       strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	return c, nil
}

func NewForTest(url string) Client {
	c, _ := New(url, "", 5*time.Second)
	return c
}

func (c *client) PlayerExists(ctx context.Context, handle string) (bool, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/pub/player/%s", url.PathEscape(normalize(handle))))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound, http.StatusGone:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unexpected status code: %d", ErrProviderUnavailable, resp.StatusCode)
	}
}

func (c *client) PlayerStats(ctx context.Context, handle string) (*PlayerStats, error) {
	var stats PlayerStats
	if err := c.getJSON(ctx, fmt.Sprintf("/pub/player/%s/stats", url.PathEscape(normalize(handle))), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *client) GamesInMonth(ctx context.Context, handle string, year int, month time.Month) ([]model.ArchivedGame, error) {
	path := fmt.Sprintf("/pub/player/%s/games/%04d/%02d", url.PathEscape(normalize(handle)), year, int(month))

	var archive monthlyArchive
	if err := c.getJSON(ctx, path, &archive); err != nil {
		return nil, err
	}

	result := make([]model.ArchivedGame, 0, len(archive.Games))
	for _, g := range archive.Games {
		result = append(result, g.toArchivedGame())
	}
	return result, nil
}

func (c *client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating http request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: error sending http request: %v", ErrProviderUnavailable, err)
	}
	return resp, nil
}

func (c *client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrPlayerNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code: %d", ErrProviderUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: error parsing response from chess.com: %v", ErrProviderUnavailable, err)
	}
	return nil
}

func normalize(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
