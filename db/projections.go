package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/vietd88/grubberbot/model"
)

func (db *postgresDB) GetMemberInfo(ctx context.Context, season string) ([]model.MemberInfo, error) {
	const members = `SELECT m.id, u.id, u.external_id, u.display_name, u.handle, t.name, m.is_player, r.rapid
		FROM members m
		JOIN teams t ON m.team_id=t.id
		JOIN seasons s ON t.season_id=s.id
		JOIN users u ON m.user_id=u.id
		LEFT JOIN ratings r ON r.handle=lower(u.handle)
		WHERE s.name=@season
		ORDER BY m.id`

	// Requests are keyed on the original member, not whoever holds the slot now.
	const requests = `SELECT sd.member_id, w.num, sd.request
		FROM seeds sd
		JOIN weeks w ON sd.week_id=w.id
		JOIN seasons s ON w.season_id=s.id
		WHERE s.name=@season`

	if _, err := getSeason(ctx, db.pool, season); err != nil {
		return nil, err
	}

	args := pgx.NamedArgs{"season": season}
	rows, err := db.pool.Query(ctx, members, args)
	if err != nil {
		return nil, fmt.Errorf("error reading members of %s: %w", season, err)
	}
	defer rows.Close()

	result := make([]model.MemberInfo, 0, 32)
	index := make(map[int32]int)
	for rows.Next() {
		var m model.MemberInfo
		var handle sql.NullString
		var rating pgtype.Int4
		if err := rows.Scan(&m.MemberID, &m.UserID, &m.ExternalID, &m.DisplayName, &handle, &m.TeamName, &m.IsPlayer, &rating); err != nil {
			return nil, fmt.Errorf("error scanning member: %w", err)
		}
		m.Handle = valueOrEmpty(handle)
		m.Rating = intPtr(rating)
		m.Requests = make(map[int]bool, model.WeeksPerSeason)
		index[m.MemberID] = len(result)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	rows, err = db.pool.Query(ctx, requests, args)
	if err != nil {
		return nil, fmt.Errorf("error reading requests of %s: %w", season, err)
	}
	defer rows.Close()

	for rows.Next() {
		var memberID int32
		var week int
		var request bool
		if err := rows.Scan(&memberID, &week, &request); err != nil {
			return nil, fmt.Errorf("error scanning request: %w", err)
		}
		if i, ok := index[memberID]; ok {
			result[i].Requests[week] = request
		}
	}
	return result, rows.Err()
}

func (db *postgresDB) GetSeasonStandings(ctx context.Context, season string) (*model.Standings, error) {
	members, err := db.GetMemberInfo(ctx, season)
	if err != nil {
		return nil, err
	}
	games, err := db.GetSeasonGames(ctx, season)
	if err != nil {
		return nil, err
	}
	return model.BuildStandings(season, members, games), nil
}

func (db *postgresDB) SeasonHandles(ctx context.Context, season string) ([]string, error) {
	const query = `SELECT DISTINCT u.handle
		FROM members m
		JOIN teams t ON m.team_id=t.id
		JOIN seasons s ON t.season_id=s.id
		JOIN users u ON m.user_id=u.id
		WHERE s.name=@season AND u.handle IS NOT NULL
		ORDER BY u.handle`

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"season": season})
	if err != nil {
		return nil, fmt.Errorf("error reading handles of %s: %w", season, err)
	}
	defer rows.Close()

	handles := make([]string, 0, 32)
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("error scanning handle: %w", err)
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}
