package mockdb

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vietd88/grubberbot/model"
)

type DB struct {
	mock.Mock
}

func (db *DB) GetUser(ctx context.Context, externalID string) (*model.User, error) {
	args := db.Called(ctx, externalID)

	var u *model.User
	if args.Get(0) != nil {
		u = args.Get(0).(*model.User)
	}
	return u, args.Error(1)
}

func (db *DB) LinkHandle(ctx context.Context, user model.ChatUser, handle string) (string, error) {
	args := db.Called(ctx, user, handle)
	return args.String(0), args.Error(1)
}

func (db *DB) UpdateDisplayName(ctx context.Context, user model.ChatUser) error {
	args := db.Called(ctx, user)
	return args.Error(0)
}

func (db *DB) EnsureSeasons(ctx context.Context, seasons []model.Season) ([]string, error) {
	args := db.Called(ctx, seasons)

	var r []string
	if args.Get(0) != nil {
		r = args.Get(0).([]string)
	}
	return r, args.Error(1)
}

func (db *DB) ListSeasons(ctx context.Context) ([]model.Season, error) {
	args := db.Called(ctx)

	var r []model.Season
	if args.Get(0) != nil {
		r = args.Get(0).([]model.Season)
	}
	return r, args.Error(1)
}

func (db *DB) GetSeason(ctx context.Context, name string) (*model.Season, error) {
	args := db.Called(ctx, name)

	var s *model.Season
	if args.Get(0) != nil {
		s = args.Get(0).(*model.Season)
	}
	return s, args.Error(1)
}

func (db *DB) AddTeams(ctx context.Context, season string, names []string) error {
	args := db.Called(ctx, season, names)
	return args.Error(0)
}

func (db *DB) ListTeams(ctx context.Context, season string) ([]model.Team, error) {
	args := db.Called(ctx, season)

	var r []model.Team
	if args.Get(0) != nil {
		r = args.Get(0).([]model.Team)
	}
	return r, args.Error(1)
}

func (db *DB) Join(ctx context.Context, season string, userID int32, isPlayer bool, team string) (*model.Member, bool, error) {
	args := db.Called(ctx, season, userID, isPlayer, team)

	var m *model.Member
	if args.Get(0) != nil {
		m = args.Get(0).(*model.Member)
	}
	return m, args.Bool(1), args.Error(2)
}

func (db *DB) Leave(ctx context.Context, season string, userID int32) (model.LeaveOutcome, error) {
	args := db.Called(ctx, season, userID)
	return args.Get(0).(model.LeaveOutcome), args.Error(1)
}

func (db *DB) GetSeasonMember(ctx context.Context, season string, userID int32) (*model.Member, error) {
	args := db.Called(ctx, season, userID)

	var m *model.Member
	if args.Get(0) != nil {
		m = args.Get(0).(*model.Member)
	}
	return m, args.Error(1)
}

func (db *DB) TeamRoster(ctx context.Context, season, team string, isPlayer bool) ([]model.MemberInfo, error) {
	args := db.Called(ctx, season, team, isPlayer)

	var r []model.MemberInfo
	if args.Get(0) != nil {
		r = args.Get(0).([]model.MemberInfo)
	}
	return r, args.Error(1)
}

func (db *DB) AssignTeams(ctx context.Context, season string, assignments map[int32]string) error {
	args := db.Called(ctx, season, assignments)
	return args.Error(0)
}

func (db *DB) ResetTeams(ctx context.Context, season string, isPlayer bool) (int64, error) {
	args := db.Called(ctx, season, isPlayer)
	return args.Get(0).(int64), args.Error(1)
}

func (db *DB) RequestSubstitute(ctx context.Context, season string, week int, userID int32) (int64, error) {
	args := db.Called(ctx, season, week, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (db *DB) SubAnnouncements(ctx context.Context, season string, week int, userID int32) ([]model.SubAnnouncement, error) {
	args := db.Called(ctx, season, week, userID)

	var r []model.SubAnnouncement
	if args.Get(0) != nil {
		r = args.Get(0).([]model.SubAnnouncement)
	}
	return r, args.Error(1)
}

func (db *DB) GetClaimSource(ctx context.Context, seedID int32) (*model.ClaimSource, error) {
	args := db.Called(ctx, seedID)

	var c *model.ClaimSource
	if args.Get(0) != nil {
		c = args.Get(0).(*model.ClaimSource)
	}
	return c, args.Error(1)
}

func (db *DB) CountWeekGames(ctx context.Context, season string, week int, memberID int32) (int, error) {
	args := db.Called(ctx, season, week, memberID)
	return args.Int(0), args.Error(1)
}

func (db *DB) ClaimSubstitute(ctx context.Context, seedID, memberID int32) ([]model.Game, error) {
	args := db.Called(ctx, seedID, memberID)

	var r []model.Game
	if args.Get(0) != nil {
		r = args.Get(0).([]model.Game)
	}
	return r, args.Error(1)
}

func (db *DB) SetSubThreadID(ctx context.Context, seedID int32, threadID string) error {
	args := db.Called(ctx, seedID, threadID)
	return args.Error(0)
}

func (db *DB) PairingRoster(ctx context.Context, season string, week int, team string) ([]model.Participant, error) {
	args := db.Called(ctx, season, week, team)

	var r []model.Participant
	if args.Get(0) != nil {
		r = args.Get(0).([]model.Participant)
	}
	return r, args.Error(1)
}

func (db *DB) CreateGames(ctx context.Context, season string, week int, pairs []model.SeedPair) ([]model.Game, error) {
	args := db.Called(ctx, season, week, pairs)

	var r []model.Game
	if args.Get(0) != nil {
		r = args.Get(0).([]model.Game)
	}
	return r, args.Error(1)
}

func (db *DB) GetGame(ctx context.Context, gameID int32) (*model.SeasonGame, error) {
	args := db.Called(ctx, gameID)

	var g *model.SeasonGame
	if args.Get(0) != nil {
		g = args.Get(0).(*model.SeasonGame)
	}
	return g, args.Error(1)
}

func (db *DB) RecordResult(ctx context.Context, gameID int32, result model.Result, url string) error {
	args := db.Called(ctx, gameID, result, url)
	return args.Error(0)
}

func (db *DB) ScheduleGame(ctx context.Context, gameID int32, eventID string, at time.Time, tz string) (string, error) {
	args := db.Called(ctx, gameID, eventID, at, tz)
	return args.String(0), args.Error(1)
}

func (db *DB) SetGameThreadID(ctx context.Context, gameID int32, threadID string) error {
	args := db.Called(ctx, gameID, threadID)
	return args.Error(0)
}

func (db *DB) GetGamesForWeek(ctx context.Context, season string, week int) ([]model.SeasonGame, error) {
	args := db.Called(ctx, season, week)

	var r []model.SeasonGame
	if args.Get(0) != nil {
		r = args.Get(0).([]model.SeasonGame)
	}
	return r, args.Error(1)
}

func (db *DB) GetSeasonGames(ctx context.Context, season string) ([]model.SeasonGame, error) {
	args := db.Called(ctx, season)

	var r []model.SeasonGame
	if args.Get(0) != nil {
		r = args.Get(0).([]model.SeasonGame)
	}
	return r, args.Error(1)
}

func (db *DB) GetMemberInfo(ctx context.Context, season string) ([]model.MemberInfo, error) {
	args := db.Called(ctx, season)

	var r []model.MemberInfo
	if args.Get(0) != nil {
		r = args.Get(0).([]model.MemberInfo)
	}
	return r, args.Error(1)
}

func (db *DB) GetSeasonStandings(ctx context.Context, season string) (*model.Standings, error) {
	args := db.Called(ctx, season)

	var s *model.Standings
	if args.Get(0) != nil {
		s = args.Get(0).(*model.Standings)
	}
	return s, args.Error(1)
}

func (db *DB) SeasonHandles(ctx context.Context, season string) ([]string, error) {
	args := db.Called(ctx, season)

	var r []string
	if args.Get(0) != nil {
		r = args.Get(0).([]string)
	}
	return r, args.Error(1)
}

func (db *DB) GetRatingRecord(ctx context.Context, handle string) (*model.RatingRecord, error) {
	args := db.Called(ctx, handle)

	var r *model.RatingRecord
	if args.Get(0) != nil {
		r = args.Get(0).(*model.RatingRecord)
	}
	return r, args.Error(1)
}

func (db *DB) SaveExists(ctx context.Context, handle string, exists bool, checked time.Time) error {
	args := db.Called(ctx, handle, exists, checked)
	return args.Error(0)
}

func (db *DB) SaveRating(ctx context.Context, handle string, r *model.Rating) error {
	args := db.Called(ctx, handle, r)
	return args.Error(0)
}

func (db *DB) SaveGameCounts(ctx context.Context, handle string, c *model.GameCounts) error {
	args := db.Called(ctx, handle, c)
	return args.Error(0)
}
