package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vietd88/grubberbot/balance"
	"github.com/vietd88/grubberbot/export"
	"github.com/vietd88/grubberbot/model"
	"github.com/vietd88/grubberbot/pairing"
)

func (c *controller) EnsureSeasons(ctx context.Context) ([]string, error) {
	now := c.clock.Now()
	seasons := make([]model.Season, 0, c.opts.SeasonHorizon+1)
	for i := 0; i <= c.opts.SeasonHorizon; i++ {
		seasons = append(seasons, model.Season{
			Name:   model.SeasonName(now, i),
			Starts: model.SeasonStart(now, i),
		})
	}

	created, err := c.db.EnsureSeasons(ctx, seasons)
	if err != nil {
		return nil, fmt.Errorf("error creating seasons: %w", err)
	}
	// Every season in the horizon, so a run that failed halfway is finished by the next one.
	for _, s := range seasons {
		if err := c.db.AddTeams(ctx, s.Name, c.opts.TeamNames); err != nil {
			return created, fmt.Errorf("error adding teams to %s: %w", s.Name, err)
		}
	}
	if len(created) > 0 {
		slog.Info("created seasons", "seasons", created)
	}
	return created, nil
}

func (c *controller) AddTeams(ctx context.Context, seasonRef string, names []string) error {
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == model.SignupTeam || n == "" {
			return model.NewValidationError(fmt.Sprintf("`%s` is not a valid team name", n))
		}
	}
	return c.db.AddTeams(ctx, season, names)
}

// leagueTeams lists the season's teams other than signup, ordered by name.
func (c *controller) leagueTeams(ctx context.Context, season string) ([]string, error) {
	teams, err := c.db.ListTeams(ctx, season)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(teams))
	for _, t := range teams {
		if !t.IsSignup() {
			names = append(names, t.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (c *controller) BalanceTeams(ctx context.Context, seasonRef string, role model.Role) (*balance.Result, error) {
	if role == model.ROLE_UNKNOWN {
		return nil, model.NewValidationError(roleMessage(role))
	}
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return nil, err
	}
	teams, err := c.leagueTeams(ctx, season)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, model.NewValidationError(fmt.Sprintf("season `%s` has no teams", season))
	}

	members, err := c.db.GetMemberInfo(ctx, season)
	if err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(members))
	for _, m := range members {
		if m.IsPlayer == role.IsPlayer() && m.Handle != "" {
			handles = append(handles, m.Handle)
		}
	}
	// Fetched before the assignment transaction.
	ratings, err := c.ratings.Ratings(ctx, handles)
	if err != nil {
		return nil, fmt.Errorf("error reading ratings: %w", err)
	}

	players := make([]balance.Player, 0, len(handles))
	for _, m := range members {
		if m.IsPlayer != role.IsPlayer() {
			continue
		}
		players = append(players, balance.Player{MemberID: m.MemberID, Rating: ratings[model.NormalizeHandle(m.Handle)].Effective()})
	}

	result, err := c.balancer.Split(players, len(teams))
	if err != nil {
		return nil, err
	}

	assignments := make(map[int32]string, len(players))
	for i, team := range result.Teams {
		for _, p := range team {
			assignments[p.MemberID] = teams[i]
		}
	}
	if err := c.db.AssignTeams(ctx, season, assignments); err != nil {
		return nil, fmt.Errorf("error assigning teams: %w", err)
	}
	return result, nil
}

func (c *controller) ResetTeams(ctx context.Context, seasonRef string, role model.Role) (int64, error) {
	if role == model.ROLE_UNKNOWN {
		return 0, model.NewValidationError(roleMessage(role))
	}
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return 0, err
	}
	return c.db.ResetTeams(ctx, season, role.IsPlayer())
}

// PairWeek pairs the teams in name order, first against second and so on, avoiding every
// pairing already played this season by the members who actually played it.
func (c *controller) PairWeek(ctx context.Context, seasonRef string, week int) ([]model.SeasonGame, error) {
	if !model.ValidWeek(week) {
		return nil, model.WeekError(week)
	}
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return nil, err
	}
	teams, err := c.leagueTeams(ctx, season)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 || len(teams)%2 != 0 {
		return nil, model.NewValidationError(fmt.Sprintf("season `%s` needs an even number of teams to pair, has %d", season, len(teams)))
	}

	played, err := c.db.GetSeasonGames(ctx, season)
	if err != nil {
		return nil, err
	}
	history := pairing.History{}
	for _, g := range played {
		history.Add(g.White.MemberID, g.Black.MemberID)
	}

	rosters := make([][]model.Participant, len(teams))
	var handles []string
	for i, team := range teams {
		rosters[i], err = c.db.PairingRoster(ctx, season, week, team)
		if err != nil {
			return nil, err
		}
		for _, p := range rosters[i] {
			if p.Handle != "" {
				handles = append(handles, p.Handle)
			}
		}
	}
	ratings, err := c.ratings.Ratings(ctx, handles)
	if err != nil {
		return nil, fmt.Errorf("error reading ratings: %w", err)
	}

	var pairs []model.SeedPair
	for i := 0; i < len(teams); i += 2 {
		a := toPairingPlayers(rosters[i], ratings)
		b := toPairingPlayers(rosters[i+1], ratings)
		result, err := c.pairing.Pair(a, b, history)
		if err != nil {
			return nil, fmt.Errorf("error pairing %s against %s: %w", teams[i], teams[i+1], err)
		}
		for _, p := range result {
			pairs = append(pairs, model.SeedPair{WhiteSeedID: p.White.SeedID, BlackSeedID: p.Black.SeedID})
		}
	}

	created, err := c.db.CreateGames(ctx, season, week, pairs)
	if err != nil {
		return nil, err
	}
	createdIDs := make(map[int32]bool, len(created))
	for _, g := range created {
		createdIDs[g.ID] = true
	}

	games, err := c.db.GetGamesForWeek(ctx, season, week)
	if err != nil {
		return nil, err
	}
	for i, g := range games {
		if !createdIDs[g.ID] {
			continue
		}
		thread, err := c.notifier.AnnouncePairing(ctx, g)
		if err != nil {
			slog.Error("error announcing pairing", "game_id", g.ID, "error", err)
			continue
		}
		if thread == "" {
			continue
		}
		if err := c.db.SetGameThreadID(ctx, g.ID, thread); err != nil {
			slog.Error("error saving game thread", "game_id", g.ID, "error", err)
			continue
		}
		games[i].ThreadID = thread
	}
	return games, nil
}

func toPairingPlayers(roster []model.Participant, ratings map[string]*model.Rating) []pairing.Player {
	players := make([]pairing.Player, 0, len(roster))
	for _, p := range roster {
		rating := 0
		if r, ok := ratings[model.NormalizeHandle(p.Handle)]; ok {
			rating = r.Effective()
		} else if p.Rating != nil {
			rating = *p.Rating
		}
		players = append(players, pairing.Player{SeedID: p.SeedID, MemberID: p.MemberID, Rating: rating})
	}
	return players
}

func (c *controller) Export(ctx context.Context, seasonRef string) (string, error) {
	if c.uploader == nil {
		return "", model.NewValidationError("uploads are not configured")
	}
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return "", err
	}

	f, err := c.Workbook(ctx, season)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("error writing workbook: %w", err)
	}
	url, err := c.uploader.Upload(ctx, export.WorkbookKey(season), export.XLSXContentType, buf.Bytes())
	if err != nil {
		return "", err
	}
	slog.Info("exported season", "season", season, "url", url)
	return url, nil
}

func (c *controller) RefreshRatings(ctx context.Context, seasonRef string) (int, error) {
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return 0, err
	}
	handles, err := c.db.SeasonHandles(ctx, season)
	if err != nil {
		return 0, err
	}
	ratings, err := c.ratings.Ratings(ctx, handles)
	if err != nil {
		return 0, err
	}
	return len(ratings), nil
}
