package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/itbasis/go-clock"
	"github.com/vietd88/grubberbot/balance"
	"github.com/vietd88/grubberbot/chesscom"
	"github.com/vietd88/grubberbot/db"
	"github.com/vietd88/grubberbot/export"
	"github.com/vietd88/grubberbot/model"
	"github.com/vietd88/grubberbot/notify"
	"github.com/vietd88/grubberbot/pairing"
	"github.com/vietd88/grubberbot/ratings"
	"github.com/xuri/excelize/v2"
)

// C encapsulates business logic without worrying about any web or chat layers.
//
// Chat commands return the text to show the caller. A rejected command returns a
// *model.ValidationError whose message is meant for the caller as well.
type C interface {
	LinkHandle(ctx context.Context, user model.ChatUser, handle string) (string, error)
	JoinSeason(ctx context.Context, user model.ChatUser, role model.Role, seasonRef string) (string, error)
	LeaveSeason(ctx context.Context, user model.ChatUser, seasonRef string) (string, error)
	RequestSub(ctx context.Context, user model.ChatUser, seasonRef string, week int) (string, error)
	ClaimSub(ctx context.Context, user model.ChatUser, seedID int32) (string, error)
	// RecordResult verifies the game at url against the caller's game history before storing it.
	RecordResult(ctx context.Context, user model.ChatUser, gameID int32, url string) (string, error)
	// CustomResult stores a result without any verification.
	CustomResult(ctx context.Context, gameID int32, result model.Result, url string) (string, error)
	ScheduleGame(ctx context.Context, user model.ChatUser, gameID int32, date, timeOfDay, tz string) (string, error)

	Seasons(ctx context.Context) ([]model.Season, error)
	Standings(ctx context.Context, seasonRef string) (*model.Standings, error)
	WeekPairings(ctx context.Context, seasonRef string, week int) ([]model.SeasonGame, error)
	Members(ctx context.Context, seasonRef string) ([]model.MemberInfo, error)
	Calendar(ctx context.Context, seasonRef string) (string, error)
	Workbook(ctx context.Context, seasonRef string) (*excelize.File, error)

	// EnsureSeasons creates the current season and the following ones up to the horizon,
	// each with the default teams. The names of new seasons are returned.
	EnsureSeasons(ctx context.Context) ([]string, error)
	AddTeams(ctx context.Context, seasonRef string, names []string) error
	BalanceTeams(ctx context.Context, seasonRef string, role model.Role) (*balance.Result, error)
	ResetTeams(ctx context.Context, seasonRef string, role model.Role) (int64, error)
	PairWeek(ctx context.Context, seasonRef string, week int) ([]model.SeasonGame, error)
	// Export uploads the season workbook and returns its public URL.
	Export(ctx context.Context, seasonRef string) (string, error)
	// RefreshRatings warms the rating cache for every linked member of the season.
	RefreshRatings(ctx context.Context, seasonRef string) (int, error)
}

type Options struct {
	MinRapidGames int
	MinTotalGames int
	SubHeadroom   int
	TimeControl   string
	SeasonHorizon int
	TeamNames     []string
	// PublicURL is where the web server is reachable, used for calendar links.
	PublicURL string
	Balance   balance.Options
	Pairing   pairing.Options
}

func DefaultOptions() Options {
	return Options{
		MinRapidGames: 10,
		MinTotalGames: 50,
		SubHeadroom:   100,
		TimeControl:   "900+10",
		SeasonHorizon: 12,
		TeamNames:     []string{"Team Carlsen", "Team Nepomniachtchi"},
		PublicURL:     "http://localhost:3000",
	}
}

type Deps struct {
	DB       db.DB
	Ratings  ratings.Cache
	Chesscom chesscom.Client
	Notifier notify.Notifier
	// Uploader is optional, Export fails without it.
	Uploader export.Uploader
}

type controller struct {
	clock    clock.Clock
	db       db.DB
	ratings  ratings.Cache
	chesscom chesscom.Client
	notifier notify.Notifier
	uploader export.Uploader
	balancer *balance.Balancer
	pairing  *pairing.Engine
	opts     Options
}

func New(clock clock.Clock, deps Deps, opts Options) (C, error) {
	if deps.DB == nil || deps.Ratings == nil || deps.Chesscom == nil {
		return nil, errors.New("controller needs a db, a rating cache and a chess.com client")
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLog()
	}

	c := &controller{
		clock:    clock,
		db:       deps.DB,
		ratings:  deps.Ratings,
		chesscom: deps.Chesscom,
		notifier: deps.Notifier,
		uploader: deps.Uploader,
		balancer: balance.New(clock, opts.Balance),
		pairing:  pairing.New(clock, opts.Pairing),
		opts:     opts,
	}
	return c, nil
}

const (
	SeasonCurrent = "current"
	SeasonNext    = "next"
)

// resolveSeason turns "current", "next" or a season name into a season name.
// The season is not required to exist.
func (c *controller) resolveSeason(ref string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case SeasonCurrent, "":
		return model.SeasonName(c.clock.Now(), 0), nil
	case SeasonNext:
		return model.SeasonName(c.clock.Now(), 1), nil
	}
	if _, err := model.ParseSeasonName(ref); err != nil {
		return "", err
	}
	return ref, nil
}

// existingSeason resolves ref and checks that the season exists.
func (c *controller) existingSeason(ctx context.Context, ref string) (string, error) {
	name, err := c.resolveSeason(ref)
	if err != nil {
		return "", err
	}
	if _, err := c.db.GetSeason(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

// linkedUser returns the stored user, or a validation error telling them to link first.
func (c *controller) linkedUser(ctx context.Context, user model.ChatUser) (*model.User, error) {
	u, err := c.db.GetUser(ctx, user.ExternalID)
	if err != nil && !errors.Is(err, db.ErrUserNotFound) {
		return nil, err
	}
	if u == nil || !u.Linked() {
		return nil, model.NewValidationError(notLinkedMessage(user))
	}
	return u, nil
}

func notLinkedMessage(user model.ChatUser) string {
	return fmt.Sprintf("User %s has not yet linked to chess.com, use link_handle", user.DisplayName)
}

func roleMessage(role model.Role) string {
	return fmt.Sprintf("Expected `[%s %s]`, instead found: `%s`", model.ROLE_PLAYER, model.ROLE_SUBSTITUTE, role)
}
