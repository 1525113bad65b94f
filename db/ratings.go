package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/vietd88/grubberbot/model"
)

func (db *postgresDB) GetRatingRecord(ctx context.Context, handle string) (*model.RatingRecord, error) {
	const query = `SELECT handle, exists_user, exists_checked,
			rapid, rapid_last, blitz, blitz_last, bullet, bullet_last, rating_checked,
			total_count, rapid_count, blitz_count, bullet_count, count_checked
		FROM ratings WHERE handle=@handle`

	var rec model.RatingRecord
	var exists pgtype.Bool
	var existsChecked, ratingChecked, countChecked pgtype.Timestamptz
	var rapidLast, blitzLast, bulletLast pgtype.Timestamptz
	var rapid, blitz, bullet pgtype.Int4
	var total, rapidCount, blitzCount, bulletCount pgtype.Int4
	err := db.pool.QueryRow(ctx, query, pgx.NamedArgs{"handle": handle}).Scan(
		&rec.Handle,
		&exists,
		&existsChecked,
		&rapid,
		&rapidLast,
		&blitz,
		&blitzLast,
		&bullet,
		&bulletLast,
		&ratingChecked,
		&total,
		&rapidCount,
		&blitzCount,
		&bulletCount,
		&countChecked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("error reading rating for %s: %w", handle, err)
	}

	if exists.Valid && existsChecked.Valid {
		v := exists.Bool
		rec.Exists = &v
		rec.ExistsChecked = existsChecked.Time
	}
	if ratingChecked.Valid {
		rec.Rating = &model.Rating{
			Rapid:      intPtr(rapid),
			Blitz:      intPtr(blitz),
			Bullet:     intPtr(bullet),
			RapidLast:  timePtr(rapidLast),
			BlitzLast:  timePtr(blitzLast),
			BulletLast: timePtr(bulletLast),
			Checked:    ratingChecked.Time,
		}
	}
	if countChecked.Valid {
		rec.Counts = &model.GameCounts{
			Total:   int(total.Int32),
			Rapid:   int(rapidCount.Int32),
			Blitz:   int(blitzCount.Int32),
			Bullet:  int(bulletCount.Int32),
			Checked: countChecked.Time,
		}
	}
	return &rec, nil
}

func (db *postgresDB) SaveExists(ctx context.Context, handle string, exists bool, checked time.Time) error {
	const query = `INSERT INTO ratings (handle, exists_user, exists_checked)
		VALUES (@handle, @exists, @checked)
		ON CONFLICT (handle) DO UPDATE SET exists_user=@exists, exists_checked=@checked`

	args := pgx.NamedArgs{
		"handle":  handle,
		"exists":  exists,
		"checked": timestamptz(checked),
	}
	if _, err := db.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("error saving existence of %s: %w", handle, err)
	}
	return nil
}

func (db *postgresDB) SaveRating(ctx context.Context, handle string, r *model.Rating) error {
	const query = `INSERT INTO ratings (handle, rapid, rapid_last, blitz, blitz_last, bullet, bullet_last, rating_checked)
		VALUES (@handle, @rapid, @rapidLast, @blitz, @blitzLast, @bullet, @bulletLast, @checked)
		ON CONFLICT (handle) DO UPDATE SET
			rapid=@rapid,
			rapid_last=@rapidLast,
			blitz=@blitz,
			blitz_last=@blitzLast,
			bullet=@bullet,
			bullet_last=@bulletLast,
			rating_checked=@checked`

	if r == nil {
		return errors.New("SaveRating - rating is nil")
	}
	args := pgx.NamedArgs{
		"handle":     handle,
		"rapid":      int4(r.Rapid),
		"rapidLast":  optionalTimestamptz(r.RapidLast),
		"blitz":      int4(r.Blitz),
		"blitzLast":  optionalTimestamptz(r.BlitzLast),
		"bullet":     int4(r.Bullet),
		"bulletLast": optionalTimestamptz(r.BulletLast),
		"checked":    timestamptz(r.Checked),
	}
	if _, err := db.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("error saving rating of %s: %w", handle, err)
	}
	return nil
}

func (db *postgresDB) SaveGameCounts(ctx context.Context, handle string, c *model.GameCounts) error {
	const query = `INSERT INTO ratings (handle, total_count, rapid_count, blitz_count, bullet_count, count_checked)
		VALUES (@handle, @total, @rapid, @blitz, @bullet, @checked)
		ON CONFLICT (handle) DO UPDATE SET
			total_count=@total,
			rapid_count=@rapid,
			blitz_count=@blitz,
			bullet_count=@bullet,
			count_checked=@checked`

	if c == nil {
		return errors.New("SaveGameCounts - counts are nil")
	}
	args := pgx.NamedArgs{
		"handle":  handle,
		"total":   c.Total,
		"rapid":   c.Rapid,
		"blitz":   c.Blitz,
		"bullet":  c.Bullet,
		"checked": timestamptz(c.Checked),
	}
	if _, err := db.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("error saving game counts of %s: %w", handle, err)
	}
	return nil
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timestamptz(*t)
}
