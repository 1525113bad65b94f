package mockratings

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vietd88/grubberbot/model"
)

type Cache struct {
	mock.Mock
}

func (c *Cache) Exists(ctx context.Context, handle string) (bool, error) {
	args := c.Called(ctx, handle)
	return args.Bool(0), args.Error(1)
}

func (c *Cache) GameCounts(ctx context.Context, handle string) (*model.GameCounts, error) {
	args := c.Called(ctx, handle)

	var r *model.GameCounts
	if args.Get(0) != nil {
		r = args.Get(0).(*model.GameCounts)
	}
	return r, args.Error(1)
}

func (c *Cache) Rating(ctx context.Context, handle string) (*model.Rating, error) {
	args := c.Called(ctx, handle)

	var r *model.Rating
	if args.Get(0) != nil {
		r = args.Get(0).(*model.Rating)
	}
	return r, args.Error(1)
}

func (c *Cache) Ratings(ctx context.Context, handles []string) (map[string]*model.Rating, error) {
	args := c.Called(ctx, handles)

	var r map[string]*model.Rating
	if args.Get(0) != nil {
		r = args.Get(0).(map[string]*model.Rating)
	}
	return r, args.Error(1)
}
