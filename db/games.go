package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/vietd88/grubberbot/model"
)

// Both sides are resolved through sub_member_id so a claimed slot shows its substitute.
const seasonGameSelect = `SELECT g.id, g.white_seed_id, g.black_seed_id, g.scheduled_at, g.schedule_tz,
		g.event_id, g.result, g.url, g.thread_id, ss.name, ww.num,
		wm.id, wu.id, wu.external_id, wu.display_name, wu.handle, wt.name, wr.rapid,
		bm.id, bu.id, bu.external_id, bu.display_name, bu.handle, bt.name, br.rapid
	FROM games g
	JOIN seeds ws ON g.white_seed_id=ws.id
	JOIN weeks ww ON ws.week_id=ww.id
	JOIN seasons ss ON ww.season_id=ss.id
	JOIN members wm ON ws.sub_member_id=wm.id
	JOIN users wu ON wm.user_id=wu.id
	JOIN teams wt ON wm.team_id=wt.id
	LEFT JOIN ratings wr ON wr.handle=lower(wu.handle)
	JOIN seeds bs ON g.black_seed_id=bs.id
	JOIN members bm ON bs.sub_member_id=bm.id
	JOIN users bu ON bm.user_id=bu.id
	JOIN teams bt ON bm.team_id=bt.id
	LEFT JOIN ratings br ON br.handle=lower(bu.handle)`

func (db *postgresDB) RequestSubstitute(ctx context.Context, season string, week int, userID int32) (int64, error) {
	const query = `UPDATE seeds SET request=true
		WHERE sub_member_id IN (
			SELECT m.id FROM members m
			JOIN teams t ON m.team_id=t.id
			JOIN seasons s ON t.season_id=s.id
			WHERE s.name=@season AND m.user_id=@userID)
		AND week_id IN (
			SELECT w.id FROM weeks w
			JOIN seasons s ON w.season_id=s.id
			WHERE s.name=@season AND w.num=@week)`

	if !model.ValidWeek(week) {
		return 0, model.WeekError(week)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{
		"season": season,
		"userID": userID,
		"week":   week,
	}
	tag, err := tx.Exec(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("error requesting substitute: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error commiting request transaction: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (db *postgresDB) SubAnnouncements(ctx context.Context, season string, week int, userID int32) ([]model.SubAnnouncement, error) {
	const query = `SELECT sd.id, s.name, w.num, ht.name, hu.display_name, hu.external_id
		FROM seeds sd
		JOIN weeks w ON sd.week_id=w.id
		JOIN seasons s ON w.season_id=s.id
		JOIN members om ON sd.member_id=om.id
		JOIN members hm ON sd.sub_member_id=hm.id
		JOIN users hu ON hm.user_id=hu.id
		JOIN teams ht ON hm.team_id=ht.id
		WHERE s.name=@season AND w.num=@week AND hm.user_id=@userID
			AND sd.request AND om.is_player
		ORDER BY sd.id`

	args := pgx.NamedArgs{
		"season": season,
		"week":   week,
		"userID": userID,
	}
	rows, err := db.pool.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("error reading substitute announcements: %w", err)
	}
	defer rows.Close()

	result := make([]model.SubAnnouncement, 0, 1)
	for rows.Next() {
		var a model.SubAnnouncement
		if err := rows.Scan(&a.SeedID, &a.Season, &a.Week, &a.TeamName, &a.DisplayName, &a.ExternalID); err != nil {
			return nil, fmt.Errorf("error scanning substitute announcement: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (db *postgresDB) GetClaimSource(ctx context.Context, seedID int32) (*model.ClaimSource, error) {
	const query = `SELECT sd.id, s.name, w.num, ht.name, sd.request, hm.id, hu.display_name,
			hu.handle, sd.member_id, sd.sub_thread_id
		FROM seeds sd
		JOIN weeks w ON sd.week_id=w.id
		JOIN seasons s ON w.season_id=s.id
		JOIN members hm ON sd.sub_member_id=hm.id
		JOIN users hu ON hm.user_id=hu.id
		JOIN teams ht ON hm.team_id=ht.id
		WHERE sd.id=@seedID`

	var c model.ClaimSource
	var handle, thread sql.NullString
	err := db.pool.QueryRow(ctx, query, pgx.NamedArgs{"seedID": seedID}).Scan(
		&c.SeedID,
		&c.Season,
		&c.Week,
		&c.TeamName,
		&c.Request,
		&c.HolderID,
		&c.HolderName,
		&handle,
		&c.OriginalID,
		&thread)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSeedNotFound
		}
		return nil, fmt.Errorf("error reading seed %d: %w", seedID, err)
	}
	c.Handle = valueOrEmpty(handle)
	c.SubThreadID = valueOrEmpty(thread)
	return &c, nil
}

func (db *postgresDB) CountWeekGames(ctx context.Context, season string, week int, memberID int32) (int, error) {
	const query = `SELECT count(*) FROM games g
		JOIN seeds sd ON sd.id=g.white_seed_id OR sd.id=g.black_seed_id
		JOIN weeks w ON sd.week_id=w.id
		JOIN seasons s ON w.season_id=s.id
		WHERE s.name=@season AND w.num=@week AND sd.sub_member_id=@memberID`

	args := pgx.NamedArgs{
		"season":   season,
		"week":     week,
		"memberID": memberID,
	}
	var n int
	if err := db.pool.QueryRow(ctx, query, args).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting games for member %d: %w", memberID, err)
	}
	return n, nil
}

func (db *postgresDB) ClaimSubstitute(ctx context.Context, seedID, memberID int32) ([]model.Game, error) {
	const claim = `UPDATE seeds SET sub_member_id=@memberID, request=false WHERE id=@seedID AND request`
	const seedExists = `SELECT EXISTS (SELECT 1 FROM seeds WHERE id=@seedID)`
	const clearSchedule = `UPDATE games SET scheduled_at=NULL, schedule_tz=NULL, event_id=NULL
		WHERE white_seed_id=@seedID OR black_seed_id=@seedID
		RETURNING id, white_seed_id, black_seed_id, scheduled_at, schedule_tz, event_id, result, url, thread_id`

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{
		"seedID":   seedID,
		"memberID": memberID,
	}
	tag, err := tx.Exec(ctx, claim, args)
	if err != nil {
		return nil, fmt.Errorf("error claiming seed %d: %w", seedID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the seed is gone or another claim got there first.
		var exists bool
		if err := tx.QueryRow(ctx, seedExists, args).Scan(&exists); err != nil {
			return nil, fmt.Errorf("error reading seed %d: %w", seedID, err)
		}
		if exists {
			return nil, ErrNoSubRequest
		}
		return nil, ErrSeedNotFound
	}

	rows, err := tx.Query(ctx, clearSchedule, args)
	if err != nil {
		return nil, fmt.Errorf("error clearing schedule for seed %d: %w", seedID, err)
	}
	games := make([]model.Game, 0, 1)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning game: %w", err)
		}
		games = append(games, *g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error commiting claim transaction: %w", err)
	}
	return games, nil
}

func (db *postgresDB) SetSubThreadID(ctx context.Context, seedID int32, threadID string) error {
	const query = `UPDATE seeds SET sub_thread_id=@threadID WHERE id=@seedID`

	tag, err := db.pool.Exec(ctx, query, pgx.NamedArgs{"seedID": seedID, "threadID": nullString(threadID)})
	if err != nil {
		return fmt.Errorf("error setting thread for seed %d: %w", seedID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSeedNotFound
	}
	return nil
}

func (db *postgresDB) PairingRoster(ctx context.Context, season string, week int, team string) ([]model.Participant, error) {
	const query = `SELECT sd.id, hm.id, hu.id, hu.external_id, hu.display_name, hu.handle, ht.name, r.rapid
		FROM seeds sd
		JOIN weeks w ON sd.week_id=w.id
		JOIN seasons s ON w.season_id=s.id
		JOIN members om ON sd.member_id=om.id
		JOIN teams ot ON om.team_id=ot.id
		JOIN members hm ON sd.sub_member_id=hm.id
		JOIN users hu ON hm.user_id=hu.id
		JOIN teams ht ON hm.team_id=ht.id
		LEFT JOIN ratings r ON r.handle=lower(hu.handle)
		WHERE s.name=@season AND w.num=@week AND ot.name=@team AND om.is_player
		ORDER BY sd.id`

	args := pgx.NamedArgs{
		"season": season,
		"week":   week,
		"team":   team,
	}
	rows, err := db.pool.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("error reading pairing roster for %s: %w", team, err)
	}
	defer rows.Close()

	roster := make([]model.Participant, 0, 16)
	for rows.Next() {
		var p model.Participant
		var handle sql.NullString
		var rating pgtype.Int4
		if err := rows.Scan(&p.SeedID, &p.MemberID, &p.UserID, &p.ExternalID, &p.DisplayName, &handle, &p.TeamName, &rating); err != nil {
			return nil, fmt.Errorf("error scanning pairing roster: %w", err)
		}
		p.Handle = valueOrEmpty(handle)
		p.Rating = intPtr(rating)
		roster = append(roster, p)
	}
	return roster, rows.Err()
}

func (db *postgresDB) CreateGames(ctx context.Context, season string, week int, pairs []model.SeedPair) ([]model.Game, error) {
	const countSeeds = `SELECT count(*) FROM seeds sd
		JOIN weeks w ON sd.week_id=w.id
		JOIN seasons s ON w.season_id=s.id
		WHERE s.name=@season AND w.num=@week AND sd.id=ANY(@seedIDs)`
	const countPaired = `SELECT count(*) FROM games
		WHERE white_seed_id=ANY(@seedIDs) OR black_seed_id=ANY(@seedIDs)`
	const insert = `INSERT INTO games (white_seed_id, black_seed_id)
		VALUES (@white, @black) RETURNING id`

	seedIDs := make([]int32, 0, len(pairs)*2)
	seen := make(map[int32]bool)
	for _, p := range pairs {
		for _, id := range []int32{p.WhiteSeedID, p.BlackSeedID} {
			if seen[id] {
				return nil, model.NewValidationError(fmt.Sprintf("seed `%d` appears in more than one game", id))
			}
			seen[id] = true
			seedIDs = append(seedIDs, id)
		}
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{
		"season":  season,
		"week":    week,
		"seedIDs": seedIDs,
	}
	var n int
	if err := tx.QueryRow(ctx, countSeeds, args).Scan(&n); err != nil {
		return nil, fmt.Errorf("error checking seeds: %w", err)
	}
	if n != len(seedIDs) {
		return nil, fmt.Errorf("%d of %d seeds are not in week %d of %s: %w", len(seedIDs)-n, len(seedIDs), week, season, ErrSeedNotFound)
	}
	if err := tx.QueryRow(ctx, countPaired, args).Scan(&n); err != nil {
		return nil, fmt.Errorf("error checking existing games: %w", err)
	}
	if n > 0 {
		return nil, ErrWeekAlreadyPaired
	}

	games := make([]model.Game, 0, len(pairs))
	for _, p := range pairs {
		g := model.Game{
			WhiteSeedID: p.WhiteSeedID,
			BlackSeedID: p.BlackSeedID,
		}
		args := pgx.NamedArgs{
			"white": p.WhiteSeedID,
			"black": p.BlackSeedID,
		}
		if err := tx.QueryRow(ctx, insert, args).Scan(&g.ID); err != nil {
			return nil, fmt.Errorf("error inserting game: %w", err)
		}
		games = append(games, g)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error commiting pairing transaction: %w", err)
	}
	return games, nil
}

func (db *postgresDB) GetGame(ctx context.Context, gameID int32) (*model.SeasonGame, error) {
	const query = seasonGameSelect + ` WHERE g.id=@gameID`

	g, err := scanSeasonGame(db.pool.QueryRow(ctx, query, pgx.NamedArgs{"gameID": gameID}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("error reading game %d: %w", gameID, err)
	}
	return g, nil
}

func (db *postgresDB) RecordResult(ctx context.Context, gameID int32, result model.Result, url string) error {
	const query = `UPDATE games SET result=@result, url=@url WHERE id=@gameID`

	args := pgx.NamedArgs{
		"gameID": gameID,
		"result": int16(result),
		"url":    nullString(url),
	}
	tag, err := db.pool.Exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("error recording result for game %d: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

func (db *postgresDB) ScheduleGame(ctx context.Context, gameID int32, eventID string, at time.Time, tz string) (string, error) {
	const current = `SELECT event_id FROM games WHERE id=@gameID FOR UPDATE`
	const update = `UPDATE games SET scheduled_at=@at, schedule_tz=@tz, event_id=@eventID WHERE id=@gameID`

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var prev sql.NullString
	if err := tx.QueryRow(ctx, current, pgx.NamedArgs{"gameID": gameID}).Scan(&prev); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrGameNotFound
		}
		return "", fmt.Errorf("error reading game %d: %w", gameID, err)
	}

	args := pgx.NamedArgs{
		"gameID":  gameID,
		"at":      timestamptz(at),
		"tz":      nullString(tz),
		"eventID": nullString(eventID),
	}
	if _, err := tx.Exec(ctx, update, args); err != nil {
		return "", fmt.Errorf("error scheduling game %d: %w", gameID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("error commiting schedule transaction: %w", err)
	}
	return valueOrEmpty(prev), nil
}

func (db *postgresDB) SetGameThreadID(ctx context.Context, gameID int32, threadID string) error {
	const query = `UPDATE games SET thread_id=@threadID WHERE id=@gameID`

	tag, err := db.pool.Exec(ctx, query, pgx.NamedArgs{"gameID": gameID, "threadID": nullString(threadID)})
	if err != nil {
		return fmt.Errorf("error setting thread for game %d: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

func (db *postgresDB) GetGamesForWeek(ctx context.Context, season string, week int) ([]model.SeasonGame, error) {
	const query = seasonGameSelect + ` WHERE ss.name=@season AND ww.num=@week ORDER BY g.id`

	if !model.ValidWeek(week) {
		return nil, model.WeekError(week)
	}
	return db.querySeasonGames(ctx, query, pgx.NamedArgs{"season": season, "week": week})
}

func (db *postgresDB) GetSeasonGames(ctx context.Context, season string) ([]model.SeasonGame, error) {
	const query = seasonGameSelect + ` WHERE ss.name=@season ORDER BY ww.num, g.id`

	return db.querySeasonGames(ctx, query, pgx.NamedArgs{"season": season})
}

func (db *postgresDB) querySeasonGames(ctx context.Context, query string, args pgx.NamedArgs) ([]model.SeasonGame, error) {
	rows, err := db.pool.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("error querying games: %w", err)
	}
	defer rows.Close()

	games := make([]model.SeasonGame, 0, 16)
	for rows.Next() {
		g, err := scanSeasonGame(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func scanGame(row pgx.Row) (*model.Game, error) {
	var g model.Game
	var scheduled pgtype.Timestamptz
	var tz, eventID, url, thread sql.NullString
	var result pgtype.Int2
	err := row.Scan(
		&g.ID,
		&g.WhiteSeedID,
		&g.BlackSeedID,
		&scheduled,
		&tz,
		&eventID,
		&result,
		&url,
		&thread)
	if err != nil {
		return nil, err
	}
	fillGame(&g, scheduled, tz, eventID, result, url, thread)
	return &g, nil
}

func scanSeasonGame(row pgx.Row) (*model.SeasonGame, error) {
	var g model.SeasonGame
	var scheduled pgtype.Timestamptz
	var tz, eventID, url, thread, whiteHandle, blackHandle sql.NullString
	var result pgtype.Int2
	var whiteRating, blackRating pgtype.Int4
	err := row.Scan(
		&g.ID,
		&g.WhiteSeedID,
		&g.BlackSeedID,
		&scheduled,
		&tz,
		&eventID,
		&result,
		&url,
		&thread,
		&g.Season,
		&g.Week,
		&g.White.MemberID,
		&g.White.UserID,
		&g.White.ExternalID,
		&g.White.DisplayName,
		&whiteHandle,
		&g.White.TeamName,
		&whiteRating,
		&g.Black.MemberID,
		&g.Black.UserID,
		&g.Black.ExternalID,
		&g.Black.DisplayName,
		&blackHandle,
		&g.Black.TeamName,
		&blackRating)
	if err != nil {
		return nil, err
	}

	fillGame(&g.Game, scheduled, tz, eventID, result, url, thread)
	g.White.SeedID = g.WhiteSeedID
	g.White.Handle = valueOrEmpty(whiteHandle)
	g.White.Rating = intPtr(whiteRating)
	g.Black.SeedID = g.BlackSeedID
	g.Black.Handle = valueOrEmpty(blackHandle)
	g.Black.Rating = intPtr(blackRating)
	return &g, nil
}

func fillGame(g *model.Game, scheduled pgtype.Timestamptz, tz, eventID sql.NullString, result pgtype.Int2, url, thread sql.NullString) {
	g.ScheduledAt = timePtr(scheduled)
	g.ScheduleTZ = valueOrEmpty(tz)
	g.EventID = valueOrEmpty(eventID)
	g.URL = valueOrEmpty(url)
	g.ThreadID = valueOrEmpty(thread)
	if result.Valid {
		r := model.Result(result.Int16)
		g.Result = &r
	}
}
