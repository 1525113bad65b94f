package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vietd88/grubberbot/model"
)

const pgForeignKeyViolation = "23503"

func New(ctx context.Context, connString string, clock clock.Clock) (DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &postgresDB{pool: pool, clock: clock}, nil
}

type postgresDB struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (db *postgresDB) GetUser(ctx context.Context, externalID string) (*model.User, error) {
	u, err := getUser(ctx, db.pool, externalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error reading user %s: %w", externalID, err)
	}
	return u, nil
}

func (db *postgresDB) LinkHandle(ctx context.Context, user model.ChatUser, handle string) (string, error) {
	const upsert = `INSERT INTO users (external_id, display_name, handle)
		VALUES (@externalID, @displayName, @handle)
		ON CONFLICT (external_id) DO UPDATE
		SET display_name=@displayName, handle=@handle, updated=@updated`

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	prev := ""
	old, err := getUser(ctx, tx, user.ExternalID)
	if err == nil {
		prev = old.Handle
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("error reading user %s: %w", user.ExternalID, err)
	}

	args := pgx.NamedArgs{
		"externalID":  user.ExternalID,
		"displayName": user.DisplayName,
		"handle":      model.NormalizeHandle(handle),
		"updated":     db.now(),
	}
	if _, err := tx.Exec(ctx, upsert, args); err != nil {
		return "", fmt.Errorf("error linking handle for user %s: %w", user.ExternalID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("error commiting link transaction: %w", err)
	}
	return prev, nil
}

func (db *postgresDB) UpdateDisplayName(ctx context.Context, user model.ChatUser) error {
	const query = `UPDATE users SET display_name=@displayName, updated=@updated
		WHERE external_id=@externalID AND display_name<>@displayName`

	args := pgx.NamedArgs{
		"externalID":  user.ExternalID,
		"displayName": user.DisplayName,
		"updated":     db.now(),
	}
	if _, err := db.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("error updating display name for %s: %w", user.ExternalID, err)
	}
	return nil
}

func getUser(ctx context.Context, q querier, externalID string) (*model.User, error) {
	const query = `SELECT id, external_id, display_name, handle, created, updated
		FROM users WHERE external_id=@externalID`

	var u model.User
	var handle sql.NullString
	var created, updated pgtype.Timestamptz
	err := q.QueryRow(ctx, query, pgx.NamedArgs{"externalID": externalID}).Scan(
		&u.ID,
		&u.ExternalID,
		&u.DisplayName,
		&handle,
		&created,
		&updated)
	if err != nil {
		return nil, err
	}

	u.Handle = valueOrEmpty(handle)
	u.Created = created.Time
	u.Updated = updated.Time
	return &u, nil
}

func (db *postgresDB) now() pgtype.Timestamptz {
	return timestamptz(db.clock.Now())
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:             t.UTC(),
		InfinityModifier: pgtype.Finite,
		Valid:            !t.IsZero(),
	}
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}

func valueOrEmpty(v sql.NullString) string {
	if v.Valid {
		return v.String
	}
	return ""
}

func intPtr(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func int4(v *int) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
