package ratings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/stretchr/testify/mock"
	"github.com/vietd88/grubberbot/chesscom"
	"github.com/vietd88/grubberbot/chesscom/mockchesscom"
	"github.com/vietd88/grubberbot/db"
	"github.com/vietd88/grubberbot/db/mockdb"
	"github.com/vietd88/grubberbot/model"
	"github.com/vietd88/grubberbot/testutils"
)

var now = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestRating_secondCallWithinWindowIsCached(t *testing.T) {
	fake := testutils.NewFakeChesscomServer()
	defer fake.Close()

	clock := clock.NewMock()
	clock.Set(now)
	cache := New(clock, chesscom.NewForTest(fake.URL()), newMemStore(), Options{Window: 30 * time.Minute})
	ctx := context.Background()

	r, err := cache.Rating(ctx, "alice")
	if err != nil {
		t.Fatalf("error should have been nil, was: %v", err)
	}
	if r.RapidOrZero() != 1500 {
		t.Errorf("expected rapid rating 1500, got %d", r.RapidOrZero())
	}

	clock.Add(29 * time.Minute)
	if _, err := cache.Rating(ctx, "Alice"); err != nil {
		t.Fatalf("error should have been nil, was: %v", err)
	}
	// counts were saved by the same provider call
	counts, err := cache.GameCounts(ctx, "alice")
	if err != nil {
		t.Fatalf("error should have been nil, was: %v", err)
	}
	if counts.Rapid != 12 || counts.Total != 50 {
		t.Errorf("expected 12 rapid of 50 total games, got %d of %d", counts.Rapid, counts.Total)
	}
	if n := fake.Requests("/pub/player/alice/stats"); n != 1 {
		t.Errorf("expected 1 provider call within the window, got %d", n)
	}

	clock.Add(2 * time.Minute)
	if _, err := cache.Rating(ctx, "alice"); err != nil {
		t.Fatalf("error should have been nil, was: %v", err)
	}
	if n := fake.Requests("/pub/player/alice/stats"); n != 2 {
		t.Errorf("expected a second provider call after the window, got %d", n)
	}
}

func TestRating_serveStale(t *testing.T) {
	rapid := 1500
	stale := &model.RatingRecord{
		Handle: "alice",
		Rating: &model.Rating{Rapid: &rapid, Checked: now.Add(-2 * time.Hour)},
	}

	tests := map[string]struct {
		serveStale bool
		expected   *int
		err        error
	}{
		"serve stale":     {serveStale: true, expected: &rapid},
		"no stale values": {serveStale: false, err: chesscom.ErrProviderUnavailable},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			store := &mockdb.DB{}
			store.On("GetRatingRecord", mock.Anything, "alice").Return(stale, nil)
			client := &mockchesscom.Client{}
			client.On("PlayerStats", mock.Anything, "alice").Return(nil, chesscom.ErrProviderUnavailable)

			clock := clock.NewMock()
			clock.Set(now)
			cache := New(clock, client, store, Options{ServeStale: tc.serveStale})

			r, err := cache.Rating(context.Background(), "alice")
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if tc.expected != nil && (r == nil || *r.Rapid != *tc.expected) {
				t.Errorf("expected the stale rating %d, got %v", *tc.expected, r)
			}
			client.AssertNumberOfCalls(t, "PlayerStats", 1)
			store.AssertNotCalled(t, "SaveRating", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRating_knownMissingSkipsProvider(t *testing.T) {
	exists := false
	store := &mockdb.DB{}
	store.On("GetRatingRecord", mock.Anything, "ghost").Return(&model.RatingRecord{
		Handle:        "ghost",
		Exists:        &exists,
		ExistsChecked: now.Add(-time.Minute),
	}, nil)
	client := &mockchesscom.Client{}

	clock := clock.NewMock()
	clock.Set(now)
	cache := New(clock, client, store, Options{})

	r, err := cache.Rating(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("error should have been nil, was: %v", err)
	}
	if r != nil {
		t.Errorf("expected no rating, got %v", r)
	}
	client.AssertNotCalled(t, "PlayerStats", mock.Anything, mock.Anything)
}

func TestRating_notFoundIsRemembered(t *testing.T) {
	store := &mockdb.DB{}
	store.On("GetRatingRecord", mock.Anything, "ghost").Return(nil, db.ErrRatingNotFound)
	store.On("SaveExists", mock.Anything, "ghost", false, now).Return(nil)
	client := &mockchesscom.Client{}
	client.On("PlayerStats", mock.Anything, "ghost").Return(nil, chesscom.ErrPlayerNotFound)

	clock := clock.NewMock()
	clock.Set(now)
	cache := New(clock, client, store, Options{})

	r, err := cache.Rating(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("error should have been nil, was: %v", err)
	}
	if r != nil {
		t.Errorf("expected no rating, got %v", r)
	}
	store.AssertExpectations(t)
}

func TestExists(t *testing.T) {
	yes := true
	tests := map[string]struct {
		record       *model.RatingRecord
		providerCall bool
		expected     bool
	}{
		"fresh cache": {
			record:   &model.RatingRecord{Handle: "alice", Exists: &yes, ExistsChecked: now.Add(-10 * time.Minute)},
			expected: true,
		},
		"expired cache": {
			record:       &model.RatingRecord{Handle: "alice", Exists: &yes, ExistsChecked: now.Add(-time.Hour)},
			providerCall: true,
			expected:     false,
		},
		"never checked": {
			providerCall: true,
			expected:     false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			store := &mockdb.DB{}
			if tc.record != nil {
				store.On("GetRatingRecord", mock.Anything, "alice").Return(tc.record, nil)
			} else {
				store.On("GetRatingRecord", mock.Anything, "alice").Return(nil, db.ErrRatingNotFound)
			}
			store.On("SaveExists", mock.Anything, "alice", false, now).Return(nil)
			client := &mockchesscom.Client{}
			client.On("PlayerExists", mock.Anything, "alice").Return(false, nil)

			clock := clock.NewMock()
			clock.Set(now)
			cache := New(clock, client, store, Options{})

			exists, err := cache.Exists(context.Background(), "alice")
			if err != nil {
				t.Fatalf("error should have been nil, was: %v", err)
			}
			if exists != tc.expected {
				t.Errorf("expected exists to be %v, got %v", tc.expected, exists)
			}
			if tc.providerCall {
				client.AssertNumberOfCalls(t, "PlayerExists", 1)
			} else {
				client.AssertNotCalled(t, "PlayerExists", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRatings(t *testing.T) {
	fake := testutils.NewFakeChesscomServer()
	defer fake.Close()

	clock := clock.NewMock()
	clock.Set(now)
	cache := New(clock, chesscom.NewForTest(fake.URL()), newMemStore(), Options{})

	handles := []string{"alice", "bob", "carol", "dave", "erin", "frank", "nobody", ""}
	result, err := cache.Ratings(context.Background(), handles)
	if err != nil {
		t.Fatalf("error should have been nil, was: %v", err)
	}

	expected := map[string]int{
		"alice":  1500,
		"bob":    1450,
		"carol":  1550,
		"dave":   1700,
		"erin":   1300,
		"frank":  1200,
		"nobody": 0,
	}
	if len(result) != len(expected) {
		t.Errorf("expected %d ratings, got %d", len(expected), len(result))
	}
	for h, rating := range expected {
		if got := result[h].RapidOrZero(); got != rating {
			t.Errorf("expected %s to be rated %d, got %d", h, rating, got)
		}
	}

	fake.SetFailing(true)
	_, err = cache.Ratings(context.Background(), []string{"alice", "bob"})
	if err != nil {
		t.Errorf("expected fresh cached ratings while the provider is down, got: %v", err)
	}

	clock.Add(time.Hour)
	_, err = cache.Ratings(context.Background(), []string{"alice"})
	if !errors.Is(err, chesscom.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got: %v", err)
	}
}

// memStore keeps rating records in memory.
type memStore struct {
	mu      sync.Mutex
	records map[string]*model.RatingRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*model.RatingRecord)}
}

func (s *memStore) GetRatingRecord(ctx context.Context, handle string) (*model.RatingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[handle]
	if !ok {
		return nil, db.ErrRatingNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) get(handle string) *model.RatingRecord {
	r, ok := s.records[handle]
	if !ok {
		r = &model.RatingRecord{Handle: handle}
		s.records[handle] = r
	}
	return r
}

func (s *memStore) SaveExists(ctx context.Context, handle string, exists bool, checked time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.get(handle)
	r.Exists = &exists
	r.ExistsChecked = checked
	return nil
}

func (s *memStore) SaveRating(ctx context.Context, handle string, rating *model.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(handle).Rating = rating
	return nil
}

func (s *memStore) SaveGameCounts(ctx context.Context, handle string, c *model.GameCounts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(handle).Counts = c
	return nil
}
