package mockcontroller

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vietd88/grubberbot/balance"
	"github.com/vietd88/grubberbot/model"
	"github.com/xuri/excelize/v2"
)

type C struct {
	mock.Mock
}

func (c *C) LinkHandle(ctx context.Context, user model.ChatUser, handle string) (string, error) {
	args := c.Called(ctx, user, handle)
	return args.String(0), args.Error(1)
}

func (c *C) JoinSeason(ctx context.Context, user model.ChatUser, role model.Role, seasonRef string) (string, error) {
	args := c.Called(ctx, user, role, seasonRef)
	return args.String(0), args.Error(1)
}

func (c *C) LeaveSeason(ctx context.Context, user model.ChatUser, seasonRef string) (string, error) {
	args := c.Called(ctx, user, seasonRef)
	return args.String(0), args.Error(1)
}

func (c *C) RequestSub(ctx context.Context, user model.ChatUser, seasonRef string, week int) (string, error) {
	args := c.Called(ctx, user, seasonRef, week)
	return args.String(0), args.Error(1)
}

func (c *C) ClaimSub(ctx context.Context, user model.ChatUser, seedID int32) (string, error) {
	args := c.Called(ctx, user, seedID)
	return args.String(0), args.Error(1)
}

func (c *C) RecordResult(ctx context.Context, user model.ChatUser, gameID int32, url string) (string, error) {
	args := c.Called(ctx, user, gameID, url)
	return args.String(0), args.Error(1)
}

func (c *C) CustomResult(ctx context.Context, gameID int32, result model.Result, url string) (string, error) {
	args := c.Called(ctx, gameID, result, url)
	return args.String(0), args.Error(1)
}

func (c *C) ScheduleGame(ctx context.Context, user model.ChatUser, gameID int32, date, timeOfDay, tz string) (string, error) {
	args := c.Called(ctx, user, gameID, date, timeOfDay, tz)
	return args.String(0), args.Error(1)
}

func (c *C) Seasons(ctx context.Context) ([]model.Season, error) {
	args := c.Called(ctx)

	var res []model.Season
	if args.Get(0) != nil {
		res = args.Get(0).([]model.Season)
	}
	return res, args.Error(1)
}

func (c *C) Standings(ctx context.Context, seasonRef string) (*model.Standings, error) {
	args := c.Called(ctx, seasonRef)

	var s *model.Standings
	if args.Get(0) != nil {
		s = args.Get(0).(*model.Standings)
	}
	return s, args.Error(1)
}

func (c *C) WeekPairings(ctx context.Context, seasonRef string, week int) ([]model.SeasonGame, error) {
	args := c.Called(ctx, seasonRef, week)

	var res []model.SeasonGame
	if args.Get(0) != nil {
		res = args.Get(0).([]model.SeasonGame)
	}
	return res, args.Error(1)
}

func (c *C) Members(ctx context.Context, seasonRef string) ([]model.MemberInfo, error) {
	args := c.Called(ctx, seasonRef)

	var res []model.MemberInfo
	if args.Get(0) != nil {
		res = args.Get(0).([]model.MemberInfo)
	}
	return res, args.Error(1)
}

func (c *C) Calendar(ctx context.Context, seasonRef string) (string, error) {
	args := c.Called(ctx, seasonRef)
	return args.String(0), args.Error(1)
}

func (c *C) Workbook(ctx context.Context, seasonRef string) (*excelize.File, error) {
	args := c.Called(ctx, seasonRef)

	var f *excelize.File
	if args.Get(0) != nil {
		f = args.Get(0).(*excelize.File)
	}
	return f, args.Error(1)
}

func (c *C) EnsureSeasons(ctx context.Context) ([]string, error) {
	args := c.Called(ctx)

	var res []string
	if args.Get(0) != nil {
		res = args.Get(0).([]string)
	}
	return res, args.Error(1)
}

func (c *C) AddTeams(ctx context.Context, seasonRef string, names []string) error {
	args := c.Called(ctx, seasonRef, names)
	return args.Error(0)
}

func (c *C) BalanceTeams(ctx context.Context, seasonRef string, role model.Role) (*balance.Result, error) {
	args := c.Called(ctx, seasonRef, role)

	var r *balance.Result
	if args.Get(0) != nil {
		r = args.Get(0).(*balance.Result)
	}
	return r, args.Error(1)
}

func (c *C) ResetTeams(ctx context.Context, seasonRef string, role model.Role) (int64, error) {
	args := c.Called(ctx, seasonRef, role)
	return args.Get(0).(int64), args.Error(1)
}

func (c *C) PairWeek(ctx context.Context, seasonRef string, week int) ([]model.SeasonGame, error) {
	args := c.Called(ctx, seasonRef, week)

	var res []model.SeasonGame
	if args.Get(0) != nil {
		res = args.Get(0).([]model.SeasonGame)
	}
	return res, args.Error(1)
}

func (c *C) Export(ctx context.Context, seasonRef string) (string, error) {
	args := c.Called(ctx, seasonRef)
	return args.String(0), args.Error(1)
}

func (c *C) RefreshRatings(ctx context.Context, seasonRef string) (int, error) {
	args := c.Called(ctx, seasonRef)
	return args.Int(0), args.Error(1)
}
