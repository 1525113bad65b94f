package ratings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/vietd88/grubberbot/chesscom"
	"github.com/vietd88/grubberbot/db"
	"github.com/vietd88/grubberbot/model"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWindow = 30 * time.Minute
	fetchLimit    = 4
)

// Store persists what the cache learns. db.DB satisfies it.
type Store interface {
	GetRatingRecord(ctx context.Context, handle string) (*model.RatingRecord, error)
	SaveExists(ctx context.Context, handle string, exists bool, checked time.Time) error
	SaveRating(ctx context.Context, handle string, r *model.Rating) error
	SaveGameCounts(ctx context.Context, handle string, c *model.GameCounts) error
}

// Cache is a read-through cache over the rating provider. Calls may block on the
// network, so never hold a league transaction open across them.
type Cache interface {
	Exists(ctx context.Context, handle string) (bool, error)
	// GameCounts returns nil when the handle does not exist.
	GameCounts(ctx context.Context, handle string) (*model.GameCounts, error)
	// Rating returns nil when the handle does not exist.
	Rating(ctx context.Context, handle string) (*model.Rating, error)
	// Ratings looks up many handles concurrently. Unknown handles map to nil.
	Ratings(ctx context.Context, handles []string) (map[string]*model.Rating, error)
}

type Options struct {
	// Window is how long a cached value stays fresh.
	Window time.Duration
	// ServeStale returns an expired cached value when the provider is unavailable.
	ServeStale bool
}

type cache struct {
	clock  clock.Clock
	client chesscom.Client
	store  Store
	opts   Options
}

func New(clock clock.Clock, client chesscom.Client, store Store, opts Options) Cache {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	return &cache{
		clock:  clock,
		client: client,
		store:  store,
		opts:   opts,
	}
}

func (c *cache) Exists(ctx context.Context, handle string) (bool, error) {
	handle = normalize(handle)
	rec, err := c.record(ctx, handle)
	if err != nil {
		return false, err
	}
	if rec != nil && rec.Exists != nil && c.fresh(rec.ExistsChecked) {
		return *rec.Exists, nil
	}

	exists, err := c.client.PlayerExists(ctx, handle)
	if err != nil {
		if rec != nil && rec.Exists != nil && c.opts.ServeStale {
			c.warnStale(handle, "exists", rec.ExistsChecked, err)
			return *rec.Exists, nil
		}
		return false, unavailable(err)
	}

	if err := c.store.SaveExists(ctx, handle, exists, c.clock.Now()); err != nil {
		return false, err
	}
	return exists, nil
}

func (c *cache) Rating(ctx context.Context, handle string) (*model.Rating, error) {
	handle = normalize(handle)
	rec, err := c.record(ctx, handle)
	if err != nil {
		return nil, err
	}
	if c.knownMissing(rec) {
		return nil, nil
	}
	if rec != nil && rec.Rating != nil && c.fresh(rec.Rating.Checked) {
		return rec.Rating, nil
	}

	stats, err := c.fetchStats(ctx, handle)
	if err != nil {
		if rec != nil && rec.Rating != nil && c.opts.ServeStale && errors.Is(err, chesscom.ErrProviderUnavailable) {
			c.warnStale(handle, "rating", rec.Rating.Checked, err)
			return rec.Rating, nil
		}
		return nil, err
	}
	if stats == nil {
		return nil, nil
	}
	return stats.Rating(c.clock.Now()), nil
}

func (c *cache) GameCounts(ctx context.Context, handle string) (*model.GameCounts, error) {
	handle = normalize(handle)
	rec, err := c.record(ctx, handle)
	if err != nil {
		return nil, err
	}
	if c.knownMissing(rec) {
		return nil, nil
	}
	if rec != nil && rec.Counts != nil && c.fresh(rec.Counts.Checked) {
		return rec.Counts, nil
	}

	stats, err := c.fetchStats(ctx, handle)
	if err != nil {
		if rec != nil && rec.Counts != nil && c.opts.ServeStale && errors.Is(err, chesscom.ErrProviderUnavailable) {
			c.warnStale(handle, "game_counts", rec.Counts.Checked, err)
			return rec.Counts, nil
		}
		return nil, err
	}
	if stats == nil {
		return nil, nil
	}
	return stats.GameCounts(c.clock.Now()), nil
}

func (c *cache) Ratings(ctx context.Context, handles []string) (map[string]*model.Rating, error) {
	var mu sync.Mutex
	result := make(map[string]*model.Rating, len(handles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for _, h := range handles {
		if h == "" {
			continue
		}
		g.Go(func() error {
			r, err := c.Rating(ctx, h)
			if err != nil {
				return fmt.Errorf("error looking up rating for %s: %w", h, err)
			}
			mu.Lock()
			result[normalize(h)] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// fetchStats refreshes both the rating and the game counts from one provider call.
// A nil result with no error means the handle does not exist.
func (c *cache) fetchStats(ctx context.Context, handle string) (*chesscom.PlayerStats, error) {
	now := c.clock.Now()
	stats, err := c.client.PlayerStats(ctx, handle)
	if err != nil {
		if errors.Is(err, chesscom.ErrPlayerNotFound) {
			if err := c.store.SaveExists(ctx, handle, false, now); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, unavailable(err)
	}

	if err := c.store.SaveRating(ctx, handle, stats.Rating(now)); err != nil {
		return nil, err
	}
	if err := c.store.SaveGameCounts(ctx, handle, stats.GameCounts(now)); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *cache) record(ctx context.Context, handle string) (*model.RatingRecord, error) {
	rec, err := c.store.GetRatingRecord(ctx, handle)
	if err != nil {
		if errors.Is(err, db.ErrRatingNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading cached rating for %s: %w", handle, err)
	}
	return rec, nil
}

func (c *cache) knownMissing(rec *model.RatingRecord) bool {
	return rec != nil && rec.Exists != nil && !*rec.Exists && c.fresh(rec.ExistsChecked)
}

func (c *cache) fresh(checked time.Time) bool {
	return !checked.IsZero() && c.clock.Now().Sub(checked) < c.opts.Window
}

func (c *cache) warnStale(handle, field string, checked time.Time, err error) {
	slog.Warn("rating provider unavailable, serving stale value",
		"handle", handle, "field", field, "age", c.clock.Now().Sub(checked).String(), "error", err)
}

func unavailable(err error) error {
	if errors.Is(err, chesscom.ErrProviderUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", chesscom.ErrProviderUnavailable, err)
}

func normalize(handle string) string {
	return model.NormalizeHandle(handle)
}
