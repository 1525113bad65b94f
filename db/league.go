package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/vietd88/grubberbot/model"
)

func (db *postgresDB) EnsureSeasons(ctx context.Context, seasons []model.Season) ([]string, error) {
	const insertSeason = `INSERT INTO seasons (name, starts) VALUES (@name, @starts)
		ON CONFLICT (name) DO NOTHING RETURNING id`
	const insertWeeks = `INSERT INTO weeks (season_id, num)
		SELECT @seasonID, n FROM generate_series(1, @weeks::int) AS n
		ON CONFLICT (season_id, num) DO NOTHING`
	const insertSignup = `INSERT INTO teams (season_id, name) VALUES (@seasonID, @name)
		ON CONFLICT (season_id, name) DO NOTHING`

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created := make([]string, 0, len(seasons))
	for _, s := range seasons {
		args := pgx.NamedArgs{
			"name":   s.Name,
			"starts": pgtype.Date{Time: s.Starts, Valid: true},
		}
		var id int32
		err := tx.QueryRow(ctx, insertSeason, args).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error inserting season %s: %w", s.Name, err)
		}

		args = pgx.NamedArgs{
			"seasonID": id,
			"weeks":    model.WeeksPerSeason,
			"name":     model.SignupTeam,
		}
		if _, err := tx.Exec(ctx, insertWeeks, args); err != nil {
			return nil, fmt.Errorf("error inserting weeks for season %s: %w", s.Name, err)
		}
		if _, err := tx.Exec(ctx, insertSignup, args); err != nil {
			return nil, fmt.Errorf("error inserting signup team for season %s: %w", s.Name, err)
		}
		created = append(created, s.Name)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error commiting season transaction: %w", err)
	}
	return created, nil
}

func (db *postgresDB) ListSeasons(ctx context.Context) ([]model.Season, error) {
	const query = `SELECT id, name, starts FROM seasons ORDER BY starts`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing seasons: %w", err)
	}
	defer rows.Close()

	seasons := make([]model.Season, 0, 12)
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning season: %w", err)
		}
		seasons = append(seasons, *s)
	}
	return seasons, rows.Err()
}

func (db *postgresDB) GetSeason(ctx context.Context, name string) (*model.Season, error) {
	return getSeason(ctx, db.pool, name)
}

func getSeason(ctx context.Context, q querier, name string) (*model.Season, error) {
	const query = `SELECT id, name, starts FROM seasons WHERE name=@name`

	s, err := scanSeason(q.QueryRow(ctx, query, pgx.NamedArgs{"name": name}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("error reading season %s: %w", name, err)
	}
	return s, nil
}

func scanSeason(row pgx.Row) (*model.Season, error) {
	var s model.Season
	var starts pgtype.Date
	if err := row.Scan(&s.ID, &s.Name, &starts); err != nil {
		return nil, err
	}
	s.Starts = starts.Time
	return &s, nil
}

func (db *postgresDB) AddTeams(ctx context.Context, season string, names []string) error {
	const query = `INSERT INTO teams (season_id, name) VALUES (@seasonID, @name)
		ON CONFLICT (season_id, name) DO NOTHING`

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	s, err := getSeason(ctx, tx, season)
	if err != nil {
		return err
	}
	for _, name := range names {
		args := pgx.NamedArgs{
			"seasonID": s.ID,
			"name":     name,
		}
		if _, err := tx.Exec(ctx, query, args); err != nil {
			return fmt.Errorf("error inserting team %s: %w", name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error commiting team transaction: %w", err)
	}
	return nil
}

func (db *postgresDB) ListTeams(ctx context.Context, season string) ([]model.Team, error) {
	const query = `SELECT t.id, t.season_id, t.name FROM teams t
		JOIN seasons s ON t.season_id=s.id
		WHERE s.name=@season ORDER BY t.name`

	if _, err := getSeason(ctx, db.pool, season); err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"season": season})
	if err != nil {
		return nil, fmt.Errorf("error listing teams: %w", err)
	}
	defer rows.Close()

	teams := make([]model.Team, 0, 3)
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.SeasonID, &t.Name); err != nil {
			return nil, fmt.Errorf("error scanning team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func getTeamID(ctx context.Context, q querier, seasonID int32, team string) (int32, error) {
	const query = `SELECT id FROM teams WHERE season_id=@seasonID AND name=@name`

	var id int32
	err := q.QueryRow(ctx, query, pgx.NamedArgs{"seasonID": seasonID, "name": team}).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrTeamNotFound
		}
		return 0, fmt.Errorf("error reading team %s: %w", team, err)
	}
	return id, nil
}

func (db *postgresDB) Join(ctx context.Context, season string, userID int32, isPlayer bool, team string) (*model.Member, bool, error) {
	const insertMember = `INSERT INTO members (user_id, team_id, is_player)
		VALUES (@userID, @teamID, @isPlayer) RETURNING id`
	const upsertSeeds = `INSERT INTO seeds (week_id, member_id, sub_member_id)
		SELECT w.id, @memberID, @memberID FROM weeks w WHERE w.season_id=@seasonID
		ON CONFLICT (week_id, member_id) DO UPDATE SET request=false`

	if team == "" {
		team = model.SignupTeam
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	s, err := getSeason(ctx, tx, season)
	if err != nil {
		return nil, false, err
	}

	created := false
	m, err := getSeasonMember(ctx, tx, season, userID)
	if errors.Is(err, ErrNotMember) {
		teamID, err := getTeamID(ctx, tx, s.ID, team)
		if err != nil {
			return nil, false, err
		}
		m = &model.Member{
			UserID:   userID,
			TeamID:   teamID,
			TeamName: team,
			IsPlayer: isPlayer,
		}
		args := pgx.NamedArgs{
			"userID":   userID,
			"teamID":   teamID,
			"isPlayer": isPlayer,
		}
		if err := tx.QueryRow(ctx, insertMember, args).Scan(&m.ID); err != nil {
			return nil, false, fmt.Errorf("error inserting member: %w", err)
		}
		created = true
	} else if err != nil {
		return nil, false, err
	}

	args := pgx.NamedArgs{
		"memberID": m.ID,
		"seasonID": s.ID,
	}
	if _, err := tx.Exec(ctx, upsertSeeds, args); err != nil {
		return nil, false, fmt.Errorf("error creating seeds for member %d: %w", m.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("error commiting join transaction: %w", err)
	}
	return m, created, nil
}

func (db *postgresDB) Leave(ctx context.Context, season string, userID int32) (model.LeaveOutcome, error) {
	const deleteMember = `DELETE FROM members WHERE id=@id`
	const demote = `UPDATE members SET is_player=false WHERE id=@id`

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.LeaveRemoved, err
	}
	defer tx.Rollback(ctx)

	m, err := getSeasonMember(ctx, tx, season, userID)
	if err != nil {
		return model.LeaveRemoved, err
	}

	// Savepoint so a blocked delete does not abort the outer transaction.
	sp, err := tx.Begin(ctx)
	if err != nil {
		return model.LeaveRemoved, err
	}

	outcome := model.LeaveRemoved
	_, err = sp.Exec(ctx, deleteMember, pgx.NamedArgs{"id": m.ID})
	if err == nil {
		err = sp.Commit(ctx)
	}
	if err != nil {
		if !isForeignKeyViolation(err) {
			return model.LeaveRemoved, fmt.Errorf("error deleting member %d: %w", m.ID, err)
		}
		if err := sp.Rollback(ctx); err != nil {
			return model.LeaveRemoved, fmt.Errorf("error rolling back to savepoint: %w", err)
		}
		if _, err := tx.Exec(ctx, demote, pgx.NamedArgs{"id": m.ID}); err != nil {
			return model.LeaveRemoved, fmt.Errorf("error demoting member %d: %w", m.ID, err)
		}
		outcome = model.LeaveDemoted
	}

	if err := tx.Commit(ctx); err != nil {
		return model.LeaveRemoved, fmt.Errorf("error commiting leave transaction: %w", err)
	}

	if outcome == model.LeaveDemoted {
		slog.Warn("leave blocked by existing games, member demoted to substitute",
			"season", season, "user_id", userID, "member_id", m.ID)
	}
	return outcome, nil
}

func (db *postgresDB) GetSeasonMember(ctx context.Context, season string, userID int32) (*model.Member, error) {
	return getSeasonMember(ctx, db.pool, season, userID)
}

func getSeasonMember(ctx context.Context, q querier, season string, userID int32) (*model.Member, error) {
	const query = `SELECT m.id, m.user_id, m.team_id, t.name, m.is_player
		FROM members m
		JOIN teams t ON m.team_id=t.id
		JOIN seasons s ON t.season_id=s.id
		WHERE s.name=@season AND m.user_id=@userID
		ORDER BY m.id LIMIT 1`

	var m model.Member
	args := pgx.NamedArgs{
		"season": season,
		"userID": userID,
	}
	err := q.QueryRow(ctx, query, args).Scan(&m.ID, &m.UserID, &m.TeamID, &m.TeamName, &m.IsPlayer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("error reading member of season %s: %w", season, err)
	}
	return &m, nil
}

func (db *postgresDB) TeamRoster(ctx context.Context, season, team string, isPlayer bool) ([]model.MemberInfo, error) {
	members, err := db.GetMemberInfo(ctx, season)
	if err != nil {
		return nil, err
	}

	roster := make([]model.MemberInfo, 0, len(members))
	for _, m := range members {
		if m.TeamName == team && m.IsPlayer == isPlayer {
			roster = append(roster, m)
		}
	}
	return roster, nil
}

func (db *postgresDB) AssignTeams(ctx context.Context, season string, assignments map[int32]string) error {
	const query = `UPDATE members SET team_id=@teamID
		WHERE id=@memberID AND team_id IN (SELECT id FROM teams WHERE season_id=@seasonID)`

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	s, err := getSeason(ctx, tx, season)
	if err != nil {
		return err
	}

	teamIDs := make(map[string]int32)
	for memberID, team := range assignments {
		teamID, ok := teamIDs[team]
		if !ok {
			teamID, err = getTeamID(ctx, tx, s.ID, team)
			if err != nil {
				return err
			}
			teamIDs[team] = teamID
		}

		args := pgx.NamedArgs{
			"teamID":   teamID,
			"memberID": memberID,
			"seasonID": s.ID,
		}
		tag, err := tx.Exec(ctx, query, args)
		if err != nil {
			return fmt.Errorf("error assigning member %d to %s: %w", memberID, team, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("member %d is not in season %s: %w", memberID, season, ErrNotMember)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error commiting team assignment transaction: %w", err)
	}
	return nil
}

func (db *postgresDB) ResetTeams(ctx context.Context, season string, isPlayer bool) (int64, error) {
	const query = `UPDATE members SET team_id=@signupID
		WHERE is_player=@isPlayer AND team_id IN (SELECT id FROM teams WHERE season_id=@seasonID)`

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	s, err := getSeason(ctx, tx, season)
	if err != nil {
		return 0, err
	}
	signupID, err := getTeamID(ctx, tx, s.ID, model.SignupTeam)
	if err != nil {
		return 0, err
	}

	args := pgx.NamedArgs{
		"signupID": signupID,
		"isPlayer": isPlayer,
		"seasonID": s.ID,
	}
	tag, err := tx.Exec(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("error resetting teams for season %s: %w", season, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error commiting reset transaction: %w", err)
	}
	return tag.RowsAffected(), nil
}
