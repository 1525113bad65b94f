package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/vietd88/grubberbot/containers"
	"github.com/vietd88/grubberbot/model"
)

var (
	// A test global db instance to use for all of the tests instead of setting up a new one each time.
	testDB DB

	// counters to keep users and seasons of different tests apart
	idCtr     = int32(0)
	seasonCtr = int32(0)
)

// TestMain controls the main for the tests and allows for setup and shutdown of the tests
func TestMain(m *testing.M) {
	container, err := containers.Start(context.Background())
	if err != nil {
		fmt.Printf("error starting db: %v", err)
		os.Exit(-1)
	}

	clock := clock.New()

	defer func() {
		// Catch all panics to make sure the shutdown is successfully run
		if r := recover(); r != nil {
			container.Stop(context.Background())
			fmt.Println("panic")
		}
	}()

	if err := Migrate(container.ConnectionString()); err != nil {
		fmt.Printf("error migrating db: %v", err)
		os.Exit(-1)
	}

	testDB, err = New(context.Background(), container.ConnectionString(), clock)
	if err != nil {
		fmt.Printf("error connecting to db: %v", err)
		os.Exit(-1)
	}

	code := m.Run()
	container.Stop(context.Background())
	os.Exit(code)
}

func TestLinkHandle(t *testing.T) {
	ctx := context.Background()
	u := newChatUser()

	prev, err := testDB.LinkHandle(ctx, u, "first")
	assertFatalf(t, err == nil, "error linking handle: %v", err)
	assertEquals(t, "prev", "", prev)

	prev, err = testDB.LinkHandle(ctx, u, "second")
	assertFatalf(t, err == nil, "error relinking handle: %v", err)
	assertEquals(t, "prev", "first", prev)

	res, err := testDB.GetUser(ctx, u.ExternalID)
	assertFatalf(t, err == nil, "error reading user: %v", err)
	assertEquals(t, "Handle", "second", res.Handle)

	// stored the way the rating cache keys it
	prev, err = testDB.LinkHandle(ctx, u, " Second ")
	assertFatalf(t, err == nil, "error relinking handle: %v", err)
	assertEquals(t, "prev", "second", prev)
	res, _ = testDB.GetUser(ctx, u.ExternalID)
	assertEquals(t, "Handle", "second", res.Handle)
	assertEquals(t, "DisplayName", u.DisplayName, res.DisplayName)

	u.DisplayName = "renamed"
	err = testDB.UpdateDisplayName(ctx, u)
	assertFatalf(t, err == nil, "error renaming user: %v", err)
	res, _ = testDB.GetUser(ctx, u.ExternalID)
	assertEquals(t, "DisplayName", "renamed", res.DisplayName)

	_, err = testDB.GetUser(ctx, "missing")
	if !errors.Is(err, ErrUserNotFound) || !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestEnsureSeasons(t *testing.T) {
	ctx := context.Background()
	s1 := newSeasonDef()
	s2 := newSeasonDef()

	created, err := testDB.EnsureSeasons(ctx, []model.Season{s1, s2})
	assertFatalf(t, err == nil, "error creating seasons: %v", err)
	assertEquals(t, "created", 2, len(created))

	created, err = testDB.EnsureSeasons(ctx, []model.Season{s1, s2})
	assertFatalf(t, err == nil, "error creating seasons again: %v", err)
	assertEquals(t, "created on second call", 0, len(created))

	s, err := testDB.GetSeason(ctx, s1.Name)
	assertFatalf(t, err == nil, "error reading season: %v", err)
	assertTrue(t, "Starts", s.Starts.Equal(s1.Starts))

	teams, err := testDB.ListTeams(ctx, s1.Name)
	assertFatalf(t, err == nil, "error listing teams: %v", err)
	if len(teams) != 1 || !teams[0].IsSignup() {
		t.Errorf("expected only the signup team, got: %v", teams)
	}

	err = testDB.AddTeams(ctx, s1.Name, []string{"Team B", "Team A", "Team A"})
	assertFatalf(t, err == nil, "error adding teams: %v", err)
	teams, _ = testDB.ListTeams(ctx, s1.Name)
	names := make([]string, 0, len(teams))
	for _, team := range teams {
		names = append(names, team.Name)
	}
	assertEquals(t, "teams", "[Team A Team B signup]", fmt.Sprintf("%v", names))

	_, err = testDB.GetSeason(ctx, "1999January")
	if !errors.Is(err, ErrSeasonNotFound) {
		t.Errorf("expected ErrSeasonNotFound, got: %v", err)
	}
}

func TestJoin_idempotent(t *testing.T) {
	ctx := context.Background()
	season := newSeason(t)
	user := newUser(t, "joiner")

	m1, created, err := testDB.Join(ctx, season, user.ID, true, "")
	assertFatalf(t, err == nil, "error joining: %v", err)
	assertTrue(t, "created", created)
	assertEquals(t, "TeamName", model.SignupTeam, m1.TeamName)

	_, err = testDB.RequestSubstitute(ctx, season, 3, user.ID)
	assertFatalf(t, err == nil, "error requesting sub: %v", err)

	m2, created, err := testDB.Join(ctx, season, user.ID, false, "")
	assertFatalf(t, err == nil, "error joining again: %v", err)
	assertTrue(t, "not created", !created)
	assertEquals(t, "member id", m1.ID, m2.ID)
	assertTrue(t, "still a player", m2.IsPlayer)

	members, err := testDB.GetMemberInfo(ctx, season)
	assertFatalf(t, err == nil, "error reading members: %v", err)
	assertFatalf(t, len(members) == 1, "expected 1 member, got %d", len(members))
	assertEquals(t, "seeds", 4, len(members[0].Requests))
	for week, requested := range members[0].Requests {
		if requested {
			t.Errorf("expected request for week %d to be reset", week)
		}
	}

	_, _, err = testDB.Join(ctx, season, user.ID, true, "no such team")
	if err != nil {
		t.Errorf("expected existing member to ignore the team, got: %v", err)
	}

	other := newUser(t, "other")
	_, _, err = testDB.Join(ctx, season, other.ID, true, "no such team")
	if !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("expected ErrTeamNotFound, got: %v", err)
	}
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	season := newSeason(t)
	alice := newUser(t, "alice")
	bob := newUser(t, "bob")
	carol := newUser(t, "carol")
	for _, u := range []*model.User{alice, bob, carol} {
		if _, _, err := testDB.Join(ctx, season, u.ID, true, ""); err != nil {
			t.Fatalf("error joining: %v", err)
		}
	}

	// carol has no games and is removed outright
	outcome, err := testDB.Leave(ctx, season, carol.ID)
	assertFatalf(t, err == nil, "error leaving: %v", err)
	assertEquals(t, "carol outcome", model.LeaveRemoved, outcome)
	_, err = testDB.GetSeasonMember(ctx, season, carol.ID)
	if !errors.Is(err, ErrNotMember) {
		t.Errorf("expected carol to be gone, got: %v", err)
	}

	// alice is paired so leaving demotes her
	pairWeek(t, season, 1, alice, bob)
	outcome, err = testDB.Leave(ctx, season, alice.ID)
	assertFatalf(t, err == nil, "error leaving: %v", err)
	assertEquals(t, "alice outcome", model.LeaveDemoted, outcome)
	m, err := testDB.GetSeasonMember(ctx, season, alice.ID)
	assertFatalf(t, err == nil, "expected alice to remain a member: %v", err)
	assertTrue(t, "alice demoted", !m.IsPlayer)

	_, err = testDB.Leave(ctx, season, carol.ID)
	if !errors.Is(err, ErrNotMember) || !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotMember, got: %v", err)
	}
}

func TestLeave_holdingAnotherSlot(t *testing.T) {
	ctx := context.Background()
	season := newSeason(t)
	alice := newUser(t, "alice")
	bob := newUser(t, "bob")
	sub := newUser(t, "sub")
	aliceMember, _, err := testDB.Join(ctx, season, alice.ID, true, "")
	assertFatalf(t, err == nil, "error joining: %v", err)
	_, _, err = testDB.Join(ctx, season, bob.ID, true, "")
	assertFatalf(t, err == nil, "error joining: %v", err)
	subMember, _, err := testDB.Join(ctx, season, sub.ID, false, "")
	assertFatalf(t, err == nil, "error joining sub: %v", err)

	pairWeek(t, season, 3, alice, bob)
	_, err = testDB.RequestSubstitute(ctx, season, 3, alice.ID)
	assertFatalf(t, err == nil, "error requesting sub: %v", err)
	announcements, err := testDB.SubAnnouncements(ctx, season, 3, alice.ID)
	assertFatalf(t, err == nil && len(announcements) == 1, "error reading announcements: %v", err)
	seedID := announcements[0].SeedID
	_, err = testDB.ClaimSubstitute(ctx, seedID, subMember.ID)
	assertFatalf(t, err == nil, "error claiming: %v", err)

	// the sub plays none of its own seeds but still holds alice's slot
	outcome, err := testDB.Leave(ctx, season, sub.ID)
	assertFatalf(t, err == nil, "error leaving: %v", err)
	assertEquals(t, "sub outcome", model.LeaveDemoted, outcome)

	m, err := testDB.GetSeasonMember(ctx, season, sub.ID)
	assertFatalf(t, err == nil, "expected the sub to remain a member: %v", err)
	assertTrue(t, "sub is not a player", !m.IsPlayer)

	src, err := testDB.GetClaimSource(ctx, seedID)
	assertFatalf(t, err == nil, "error reading claim source: %v", err)
	assertEquals(t, "holder", subMember.ID, src.HolderID)
	assertEquals(t, "original", aliceMember.ID, src.OriginalID)
}

func TestClaimSubstitute(t *testing.T) {
	ctx := context.Background()
	season := newSeason(t)
	alice := newUser(t, "alice")
	bob := newUser(t, "bob")
	sub := newUser(t, "sub")
	for _, u := range []*model.User{alice, bob} {
		if _, _, err := testDB.Join(ctx, season, u.ID, true, ""); err != nil {
			t.Fatalf("error joining: %v", err)
		}
	}
	subMember, _, err := testDB.Join(ctx, season, sub.ID, false, "")
	assertFatalf(t, err == nil, "error joining sub: %v", err)

	games := pairWeek(t, season, 2, alice, bob)
	at := time.Date(2030, 1, 10, 18, 0, 0, 0, time.UTC)
	_, err = testDB.ScheduleGame(ctx, games[0].ID, "event-1", at, "America/New_York")
	assertFatalf(t, err == nil, "error scheduling: %v", err)

	n, err := testDB.RequestSubstitute(ctx, season, 2, alice.ID)
	assertFatalf(t, err == nil, "error requesting sub: %v", err)
	assertEquals(t, "flagged", int64(1), n)

	n, err = testDB.RequestSubstitute(ctx, season, 2, newUser(t, "stranger").ID)
	assertFatalf(t, err == nil, "error requesting sub for non member: %v", err)
	assertEquals(t, "flagged for non member", int64(0), n)

	announcements, err := testDB.SubAnnouncements(ctx, season, 2, alice.ID)
	assertFatalf(t, err == nil, "error reading announcements: %v", err)
	assertFatalf(t, len(announcements) == 1, "expected 1 announcement, got %d", len(announcements))
	seedID := announcements[0].SeedID
	assertEquals(t, "announced seed", games[0].WhiteSeedID, seedID)

	src, err := testDB.GetClaimSource(ctx, seedID)
	assertFatalf(t, err == nil, "error reading claim source: %v", err)
	assertTrue(t, "request pending", src.Request)
	assertEquals(t, "holder handle", alice.Handle, src.Handle)

	count, err := testDB.CountWeekGames(ctx, season, 2, src.HolderID)
	assertFatalf(t, err == nil, "error counting games: %v", err)
	assertEquals(t, "alice games", 1, count)

	cleared, err := testDB.ClaimSubstitute(ctx, seedID, subMember.ID)
	assertFatalf(t, err == nil, "error claiming: %v", err)
	assertFatalf(t, len(cleared) == 1, "expected 1 affected game, got %d", len(cleared))
	assertTrue(t, "schedule cleared", cleared[0].ScheduledAt == nil)

	src, _ = testDB.GetClaimSource(ctx, seedID)
	assertTrue(t, "request reset", !src.Request)
	assertEquals(t, "holder", subMember.ID, src.HolderID)

	g, err := testDB.GetGame(ctx, games[0].ID)
	assertFatalf(t, err == nil, "error reading game: %v", err)
	assertEquals(t, "white player", sub.Handle, g.White.Handle)
	assertEquals(t, "event", "", g.EventID)
	assertTrue(t, "scheduled at", g.ScheduledAt == nil)

	count, _ = testDB.CountWeekGames(ctx, season, 2, subMember.ID)
	assertEquals(t, "sub games", 1, count)

	// a second claim on a slot that no longer asks for a substitute must not take it over
	late, _, err := testDB.Join(ctx, season, newUser(t, "late").ID, false, "")
	assertFatalf(t, err == nil, "error joining late sub: %v", err)
	_, err = testDB.ClaimSubstitute(ctx, seedID, late.ID)
	if !errors.Is(err, ErrNoSubRequest) || !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrNoSubRequest, got: %v", err)
	}
	src, _ = testDB.GetClaimSource(ctx, seedID)
	assertEquals(t, "holder after second claim", subMember.ID, src.HolderID)

	_, err = testDB.ClaimSubstitute(ctx, 999999, subMember.ID)
	if !errors.Is(err, ErrSeedNotFound) {
		t.Errorf("expected ErrSeedNotFound, got: %v", err)
	}
}

func TestCreateGames_alreadyPaired(t *testing.T) {
	ctx := context.Background()
	season := newSeason(t)
	alice := newUser(t, "alice")
	bob := newUser(t, "bob")
	for _, u := range []*model.User{alice, bob} {
		if _, _, err := testDB.Join(ctx, season, u.ID, true, ""); err != nil {
			t.Fatalf("error joining: %v", err)
		}
	}
	games := pairWeek(t, season, 1, alice, bob)

	pairs := []model.SeedPair{{WhiteSeedID: games[0].BlackSeedID, BlackSeedID: games[0].WhiteSeedID}}
	_, err := testDB.CreateGames(ctx, season, 1, pairs)
	if !errors.Is(err, ErrWeekAlreadyPaired) || !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrWeekAlreadyPaired, got: %v", err)
	}

	_, err = testDB.CreateGames(ctx, season, 2, pairs)
	if !errors.Is(err, ErrSeedNotFound) {
		t.Errorf("expected seeds of another week to be rejected, got: %v", err)
	}
}

func TestResultsAndStandings(t *testing.T) {
	ctx := context.Background()
	season := newSeason(t)
	err := testDB.AddTeams(ctx, season, []string{"Team A", "Team B"})
	assertFatalf(t, err == nil, "error adding teams: %v", err)

	alice := newUser(t, "alice")
	bob := newUser(t, "bob")
	ma, _, _ := testDB.Join(ctx, season, alice.ID, true, "")
	mb, _, _ := testDB.Join(ctx, season, bob.ID, true, "")
	err = testDB.AssignTeams(ctx, season, map[int32]string{ma.ID: "Team A", mb.ID: "Team B"})
	assertFatalf(t, err == nil, "error assigning teams: %v", err)

	roster, err := testDB.PairingRoster(ctx, season, 1, "Team A")
	assertFatalf(t, err == nil, "error reading roster: %v", err)
	assertFatalf(t, len(roster) == 1, "expected 1 player on Team A, got %d", len(roster))
	assertEquals(t, "roster handle", alice.Handle, roster[0].Handle)

	games := pairWeek(t, season, 1, alice, bob)
	err = testDB.RecordResult(ctx, games[0].ID, model.RESULT_WHITE_WIN, "https://example.com/game/1")
	assertFatalf(t, err == nil, "error recording result: %v", err)
	// overwrite is allowed
	err = testDB.RecordResult(ctx, games[0].ID, model.RESULT_DRAW, "https://example.com/game/2")
	assertFatalf(t, err == nil, "error overwriting result: %v", err)

	week, err := testDB.GetGamesForWeek(ctx, season, 1)
	assertFatalf(t, err == nil, "error reading week: %v", err)
	assertFatalf(t, len(week) == 1, "expected 1 game, got %d", len(week))
	assertTrue(t, "result", week[0].Result != nil && *week[0].Result == model.RESULT_DRAW)
	assertEquals(t, "url", "https://example.com/game/2", week[0].URL)

	standings, err := testDB.GetSeasonStandings(ctx, season)
	assertFatalf(t, err == nil, "error reading standings: %v", err)
	for _, team := range standings.Teams {
		if len(team.Rows) == 1 && team.Rows[0].Points != 1 {
			t.Errorf("expected a draw to be worth 1 point on %s, got %d", team.Team, team.Rows[0].Points)
		}
	}

	err = testDB.RecordResult(ctx, 999999, model.RESULT_DRAW, "")
	if !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got: %v", err)
	}

	n, err := testDB.ResetTeams(ctx, season, true)
	assertFatalf(t, err == nil, "error resetting teams: %v", err)
	assertEquals(t, "reset", int64(2), n)
	m, _ := testDB.GetSeasonMember(ctx, season, alice.ID)
	assertEquals(t, "team after reset", model.SignupTeam, m.TeamName)
}

func TestRatingRecord(t *testing.T) {
	ctx := context.Background()
	handle := fmt.Sprintf("rated%d", atomic.AddInt32(&idCtr, 1))
	checked := time.Date(2030, 2, 1, 12, 0, 0, 0, time.UTC)

	_, err := testDB.GetRatingRecord(ctx, handle)
	if !errors.Is(err, ErrRatingNotFound) {
		t.Fatalf("expected ErrRatingNotFound, got: %v", err)
	}

	err = testDB.SaveExists(ctx, handle, true, checked)
	assertFatalf(t, err == nil, "error saving exists: %v", err)
	rec, err := testDB.GetRatingRecord(ctx, handle)
	assertFatalf(t, err == nil, "error reading record: %v", err)
	assertTrue(t, "exists", rec.Exists != nil && *rec.Exists)
	assertTrue(t, "rating never fetched", rec.Rating == nil)
	assertTrue(t, "counts never fetched", rec.Counts == nil)

	rapid, blitz := 1500, 1450
	err = testDB.SaveRating(ctx, handle, &model.Rating{Rapid: &rapid, Blitz: &blitz, Checked: checked})
	assertFatalf(t, err == nil, "error saving rating: %v", err)
	err = testDB.SaveGameCounts(ctx, handle, &model.GameCounts{Total: 50, Rapid: 12, Checked: checked})
	assertFatalf(t, err == nil, "error saving counts: %v", err)

	rec, err = testDB.GetRatingRecord(ctx, handle)
	assertFatalf(t, err == nil, "error reading record: %v", err)
	assertEquals(t, "rapid", 1500, rec.Rating.RapidOrZero())
	assertTrue(t, "bullet", rec.Rating.Bullet == nil)
	assertTrue(t, "rating checked", rec.Rating.Checked.Equal(checked))
	assertEquals(t, "total", 50, rec.Counts.Total)
	assertEquals(t, "rapid count", 12, rec.Counts.Rapid)
	assertTrue(t, "exists kept", rec.Exists != nil && *rec.Exists)
}

func newChatUser() model.ChatUser {
	id := atomic.AddInt32(&idCtr, 1)
	return model.ChatUser{
		ExternalID:  fmt.Sprintf("discord-%d", id),
		DisplayName: fmt.Sprintf("user %d", id),
	}
}

func newUser(t *testing.T, name string) *model.User {
	u := newChatUser()
	handle := fmt.Sprintf("%s%d", name, atomic.AddInt32(&idCtr, 1))
	if _, err := testDB.LinkHandle(context.Background(), u, handle); err != nil {
		t.Fatalf("error creating user: %v", err)
	}
	res, err := testDB.GetUser(context.Background(), u.ExternalID)
	if err != nil {
		t.Fatalf("error reading user: %v", err)
	}
	return res
}

func newSeasonDef() model.Season {
	start := model.SeasonStart(time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC), int(atomic.AddInt32(&seasonCtr, 1)))
	return model.Season{
		Name:   start.Format(model.SeasonNameFormat),
		Starts: start,
	}
}

func newSeason(t *testing.T) string {
	s := newSeasonDef()
	if _, err := testDB.EnsureSeasons(context.Background(), []model.Season{s}); err != nil {
		t.Fatalf("error creating season: %v", err)
	}
	return s.Name
}

// pairWeek creates a single game between the slots white and black hold that week.
func pairWeek(t *testing.T, season string, week int, white, black *model.User) []model.Game {
	ctx := context.Background()
	seedOf := func(u *model.User) int32 {
		m, err := testDB.GetSeasonMember(ctx, season, u.ID)
		if err != nil {
			t.Fatalf("error reading member: %v", err)
		}
		roster, err := testDB.PairingRoster(ctx, season, week, m.TeamName)
		if err != nil {
			t.Fatalf("error reading roster: %v", err)
		}
		for _, p := range roster {
			if p.UserID == u.ID {
				return p.SeedID
			}
		}
		t.Fatalf("no seed for user %d in week %d", u.ID, week)
		return 0
	}

	pairs := []model.SeedPair{{WhiteSeedID: seedOf(white), BlackSeedID: seedOf(black)}}
	games, err := testDB.CreateGames(ctx, season, week, pairs)
	if err != nil {
		t.Fatalf("error creating games: %v", err)
	}
	return games
}

func assertFatalf(t *testing.T, c bool, f string, args ...any) {
	t.Helper()
	if !c {
		t.Fatalf(f, args...)
	}
}

func assertEquals(t *testing.T, field string, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s - expected: '%v', got: '%v'", field, expected, actual)
	}
}

func assertTrue(t *testing.T, field string, cond bool) {
	t.Helper()
	if !cond {
		t.Errorf("%s - expected to be true but it was false", field)
	}
}
