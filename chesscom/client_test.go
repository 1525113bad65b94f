package chesscom

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietd88/grubberbot/model"
	"github.com/vietd88/grubberbot/testutils"
)

func TestPlayerExists(t *testing.T) {
	fake := testutils.NewFakeChesscomServer()
	defer fake.Close()

	c := NewForTest(fake.URL())
	ctx := context.Background()

	tests := map[string]struct {
		handle   string
		expected bool
	}{
		"lower case": {handle: "alice", expected: true},
		"mixed case": {handle: "Alice", expected: true},
		"unknown":    {handle: "nobody", expected: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			exists, err := c.PlayerExists(ctx, tc.handle)
			if err != nil {
				t.Fatalf("error should have been nil, was: %v", err)
			}
			if exists != tc.expected {
				t.Errorf("expected exists to be %v, got %v", tc.expected, exists)
			}
		})
	}
}

func TestPlayerStats(t *testing.T) {
	fake := testutils.NewFakeChesscomServer()
	defer fake.Close()

	c := NewForTest(fake.URL())
	checked := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		handle     string
		rapid      int
		rapidGames int
		totalGames int
		hasBlitz   bool
		hasBullet  bool
	}{
		"alice": {handle: "alice", rapid: 1500, rapidGames: 12, totalGames: 50, hasBlitz: true},
		"dave":  {handle: "dave", rapid: 1700, rapidGames: 40, totalGames: 70},
		"erin":  {handle: "erin", rapid: 1300, rapidGames: 5, totalGames: 105, hasBlitz: true},
		"frank": {handle: "frank", rapid: 1200, rapidGames: 12, totalGames: 40, hasBullet: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			stats, err := c.PlayerStats(context.Background(), tc.handle)
			if err != nil {
				t.Fatalf("error should have been nil, was: %v", err)
			}

			r := stats.Rating(checked)
			if r.Rapid == nil || *r.Rapid != tc.rapid {
				t.Errorf("expected rapid rating %d, got %v", tc.rapid, r.Rapid)
			}
			if r.RapidLast == nil || r.RapidLast.Unix() != 1709251200 {
				t.Errorf("unexpected rapid last date: %v", r.RapidLast)
			}
			if (r.Blitz != nil) != tc.hasBlitz {
				t.Errorf("expected blitz presence %v, got %v", tc.hasBlitz, r.Blitz)
			}
			if (r.Bullet != nil) != tc.hasBullet {
				t.Errorf("expected bullet presence %v, got %v", tc.hasBullet, r.Bullet)
			}
			if !r.Checked.Equal(checked) {
				t.Errorf("expected checked %v, got %v", checked, r.Checked)
			}

			counts := stats.GameCounts(checked)
			if counts.Rapid != tc.rapidGames {
				t.Errorf("expected %d rapid games, got %d", tc.rapidGames, counts.Rapid)
			}
			if counts.Total != tc.totalGames {
				t.Errorf("expected %d total games, got %d", tc.totalGames, counts.Total)
			}
		})
	}
}

func TestPlayerStats_notFound(t *testing.T) {
	fake := testutils.NewFakeChesscomServer()
	defer fake.Close()

	c := NewForTest(fake.URL())
	stats, err := c.PlayerStats(context.Background(), "nobody")
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected error to match model.ErrNotFound, got %v", err)
	}
	if stats != nil {
		t.Errorf("stats should have been nil")
	}
}

func TestGamesInMonth(t *testing.T) {
	fake := testutils.NewFakeChesscomServer()
	defer fake.Close()

	c := NewForTest(fake.URL())
	games, err := c.GamesInMonth(context.Background(), "alice", 2024, time.March)
	if err != nil {
		t.Fatalf("error should have been nil, was: %v", err)
	}
	if len(games) != 4 {
		t.Fatalf("expected 4 games, got %d", len(games))
	}

	g := games[0]
	if g.WhiteHandle != "alice" || g.BlackHandle != "bob" {
		t.Errorf("handles should be lower cased, got %s vs %s", g.WhiteHandle, g.BlackHandle)
	}
	if g.WhiteResult != "win" || g.TimeControl != "900+10" || !g.Rated {
		t.Errorf("unexpected game: %+v", g)
	}
	if games[1].Rated {
		t.Errorf("second game should be unrated")
	}

	empty, err := c.GamesInMonth(context.Background(), "alice", 2023, time.January)
	if err != nil {
		t.Fatalf("error should have been nil, was: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no games, got %d", len(empty))
	}
}

func TestProviderUnavailable(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"rate limited": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("{not json"))
		},
	}

	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			s := httptest.NewServer(handler)
			defer s.Close()

			c := NewForTest(s.URL)
			_, err := c.PlayerStats(context.Background(), "alice")
			if !errors.Is(err, ErrProviderUnavailable) {
				t.Errorf("expected ErrProviderUnavailable, got %v", err)
			}
		})
	}

	// A closed server is a transport failure.
	s := httptest.NewServer(http.NotFoundHandler())
	url := s.URL
	s.Close()
	_, err := NewForTest(url).PlayerExists(context.Background(), "alice")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable for a transport failure, got %v", err)
	}
}

func TestGameIDFromURL(t *testing.T) {
	tests := map[string]struct {
		url      string
		expected int64
		found    bool
	}{
		"live game":    {url: "https://www.chess.com/game/live/100000001", expected: 100000001, found: true},
		"with query":   {url: "https://www.chess.com/game/live/100000001?move=12", expected: 100000001, found: true},
		"analysis url": {url: "https://www.chess.com/analysis/game/live/100000004/analysis", expected: 100000004, found: true},
		"no number":    {url: "https://www.chess.com/home", found: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			id, found := GameIDFromURL(tc.url)
			if found != tc.found {
				t.Fatalf("expected found %v, got %v", tc.found, found)
			}
			if id != tc.expected {
				t.Errorf("expected id %d, got %d", tc.expected, id)
			}
		})
	}
}
