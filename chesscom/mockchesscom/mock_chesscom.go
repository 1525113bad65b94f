package mockchesscom

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vietd88/grubberbot/chesscom"
	"github.com/vietd88/grubberbot/model"
)

type Client struct {
	mock.Mock
}

func (c *Client) PlayerExists(ctx context.Context, handle string) (bool, error) {
	args := c.Called(ctx, handle)
	return args.Bool(0), args.Error(1)
}

func (c *Client) PlayerStats(ctx context.Context, handle string) (*chesscom.PlayerStats, error) {
	args := c.Called(ctx, handle)

	var s *chesscom.PlayerStats
	if args.Get(0) != nil {
		s = args.Get(0).(*chesscom.PlayerStats)
	}
	return s, args.Error(1)
}

func (c *Client) GamesInMonth(ctx context.Context, handle string, year int, month time.Month) ([]model.ArchivedGame, error) {
	args := c.Called(ctx, handle, year, month)

	var g []model.ArchivedGame
	if args.Get(0) != nil {
		g = args.Get(0).([]model.ArchivedGame)
	}
	return g, args.Error(1)
}
