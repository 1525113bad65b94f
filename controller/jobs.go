package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vietd88/grubberbot/db"
)

const jobTimeout = 5 * time.Minute

// JobSchedule holds cron specs, e.g. "@daily" or "0 6 * * *". An empty spec disables the job.
type JobSchedule struct {
	SeasonSetup   string
	RatingRefresh string
}

// Jobs runs the periodic league maintenance.
type Jobs struct {
	c    C
	cron *cron.Cron
}

func NewJobs(c C, schedule JobSchedule) (*Jobs, error) {
	j := &Jobs{
		c:    c,
		cron: cron.New(cron.WithLocation(time.UTC)),
	}

	if schedule.SeasonSetup != "" {
		if _, err := j.cron.AddFunc(schedule.SeasonSetup, j.setupSeasons); err != nil {
			return nil, fmt.Errorf("error scheduling season setup: %w", err)
		}
	}
	if schedule.RatingRefresh != "" {
		if _, err := j.cron.AddFunc(schedule.RatingRefresh, j.refreshRatings); err != nil {
			return nil, fmt.Errorf("error scheduling rating refresh: %w", err)
		}
	}
	return j, nil
}

// Run sets up seasons once, then runs the schedule until shutdown is closed.
func (j *Jobs) Run(shutdown chan bool, wg *sync.WaitGroup) {
	defer wg.Done()

	j.setupSeasons()
	j.cron.Start()

	<-shutdown
	<-j.cron.Stop().Done()
	slog.Info("scheduled jobs stopped")
}

func (j *Jobs) setupSeasons() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.c.EnsureSeasons(ctx); err != nil {
		slog.Error("season setup failed", "error", err)
	}
}

func (j *Jobs) refreshRatings() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	for _, ref := range []string{SeasonCurrent, SeasonNext} {
		n, err := j.c.RefreshRatings(ctx, ref)
		if errors.Is(err, db.ErrSeasonNotFound) {
			continue
		}
		if err != nil {
			slog.Error("rating refresh failed", "season", ref, "error", err)
			continue
		}
		slog.Info("ratings refreshed", "season", ref, "handles", n)
	}
}
