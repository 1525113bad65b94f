package db

import (
	"context"
	"fmt"
	"time"

	"github.com/vietd88/grubberbot/model"
)

var (
	ErrUserNotFound      = fmt.Errorf("user %w", model.ErrNotFound)
	ErrSeasonNotFound    = fmt.Errorf("season %w", model.ErrNotFound)
	ErrTeamNotFound      = fmt.Errorf("team %w", model.ErrNotFound)
	ErrSeedNotFound      = fmt.Errorf("seed %w", model.ErrNotFound)
	ErrGameNotFound      = fmt.Errorf("game %w", model.ErrNotFound)
	ErrNotMember         = fmt.Errorf("season member %w", model.ErrNotFound)
	ErrRatingNotFound    = fmt.Errorf("rating %w", model.ErrNotFound)
	ErrWeekAlreadyPaired = fmt.Errorf("week is already paired: %w", model.ErrValidation)
	ErrNoSubRequest      = fmt.Errorf("seed does not require a substitute: %w", model.ErrValidation)
)

// DB is the league store. Every mutation runs in its own transaction.
// Who plays a slot is always resolved through the seed's sub_member_id.
type DB interface {
	GetUser(ctx context.Context, externalID string) (*model.User, error)
	// LinkHandle creates the user if needed and sets its handle. The previous handle,
	// if any, is returned.
	LinkHandle(ctx context.Context, user model.ChatUser, handle string) (string, error)
	UpdateDisplayName(ctx context.Context, user model.ChatUser) error

	// EnsureSeasons creates any missing season with its 4 weeks and signup team.
	// The names of the newly created seasons are returned.
	EnsureSeasons(ctx context.Context, seasons []model.Season) ([]string, error)
	ListSeasons(ctx context.Context) ([]model.Season, error)
	GetSeason(ctx context.Context, name string) (*model.Season, error)
	AddTeams(ctx context.Context, season string, names []string) error
	ListTeams(ctx context.Context, season string) ([]model.Team, error)

	// Join adds the user to team in the season. If the user already belongs to any team
	// of the season nothing new is inserted; in both cases the member's 4 seeds exist
	// afterwards with request cleared. The bool reports whether a member row was created.
	Join(ctx context.Context, season string, userID int32, isPlayer bool, team string) (*model.Member, bool, error)
	// Leave deletes the user's membership. When a game or another member's slot still
	// references it, the member is demoted to substitute instead.
	Leave(ctx context.Context, season string, userID int32) (model.LeaveOutcome, error)
	GetSeasonMember(ctx context.Context, season string, userID int32) (*model.Member, error)
	TeamRoster(ctx context.Context, season, team string, isPlayer bool) ([]model.MemberInfo, error)
	// AssignTeams moves members (by member id) to the named teams.
	AssignTeams(ctx context.Context, season string, assignments map[int32]string) error
	// ResetTeams moves every player (or every substitute) back to the signup team.
	ResetTeams(ctx context.Context, season string, isPlayer bool) (int64, error)

	// RequestSubstitute flags the slots the user holds in that week. It returns the number
	// of slots flagged, zero when the user holds none.
	RequestSubstitute(ctx context.Context, season string, week int, userID int32) (int64, error)
	SubAnnouncements(ctx context.Context, season string, week int, userID int32) ([]model.SubAnnouncement, error)
	GetClaimSource(ctx context.Context, seedID int32) (*model.ClaimSource, error)
	// CountWeekGames counts the games of that week in slots currently held by the member.
	CountWeekGames(ctx context.Context, season string, week int, memberID int32) (int, error)
	// ClaimSubstitute gives the slot to memberID, clears the request and strips the schedule
	// from every game tied to the slot. The affected games are returned. A slot with no
	// pending request gives ErrNoSubRequest.
	ClaimSubstitute(ctx context.Context, seedID, memberID int32) ([]model.Game, error)
	SetSubThreadID(ctx context.Context, seedID int32, threadID string) error

	// PairingRoster lists the slots of the team's players for the week, resolved to whoever holds them.
	PairingRoster(ctx context.Context, season string, week int, team string) ([]model.Participant, error)
	CreateGames(ctx context.Context, season string, week int, pairs []model.SeedPair) ([]model.Game, error)
	GetGame(ctx context.Context, gameID int32) (*model.SeasonGame, error)
	RecordResult(ctx context.Context, gameID int32, result model.Result, url string) error
	// ScheduleGame stores the agreed time and calendar event id, returning the replaced event id.
	ScheduleGame(ctx context.Context, gameID int32, eventID string, at time.Time, tz string) (string, error)
	SetGameThreadID(ctx context.Context, gameID int32, threadID string) error
	GetGamesForWeek(ctx context.Context, season string, week int) ([]model.SeasonGame, error)
	GetSeasonGames(ctx context.Context, season string) ([]model.SeasonGame, error)

	GetMemberInfo(ctx context.Context, season string) ([]model.MemberInfo, error)
	GetSeasonStandings(ctx context.Context, season string) (*model.Standings, error)
	// SeasonHandles lists the linked handles of every member of the season.
	SeasonHandles(ctx context.Context, season string) ([]string, error)

	GetRatingRecord(ctx context.Context, handle string) (*model.RatingRecord, error)
	SaveExists(ctx context.Context, handle string, exists bool, checked time.Time) error
	SaveRating(ctx context.Context, handle string, r *model.Rating) error
	SaveGameCounts(ctx context.Context, handle string, c *model.GameCounts) error
}
