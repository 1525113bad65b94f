package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietd88/grubberbot/chesscom"
	"github.com/vietd88/grubberbot/model"
)

// TimeZoneWebsite lists the canonical time zone names accepted by ScheduleGame.
const TimeZoneWebsite = "https://en.wikipedia.org/wiki/List_of_tz_database_time_zones"

func (c *controller) RecordResult(ctx context.Context, user model.ChatUser, gameID int32, url string) (string, error) {
	game, err := c.db.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	u, err := c.linkedUser(ctx, user)
	if err != nil {
		return "", err
	}

	ccID, ok := chesscom.GameIDFromURL(url)
	if !ok {
		return "", model.NewValidationError("No chess.com game id found in url")
	}

	archived, err := c.findArchivedGame(ctx, u.Handle, ccID)
	if err != nil {
		return "", err
	}
	if archived == nil {
		return "", model.NewValidationError(fmt.Sprintf("Game not found in user game history: %s", url))
	}

	if problems := c.verifyGame(game, archived, u.Handle); len(problems) > 0 {
		return "", model.NewValidationError(problems...)
	}

	result := model.ResultFromWhiteOutcome(archived.WhiteResult)
	if err := c.db.RecordResult(ctx, gameID, result, url); err != nil {
		return "", err
	}
	return fmt.Sprintf("Set result for game `%d` to `%s`", gameID, result), nil
}

// findArchivedGame searches the handle's current month of games, plus the previous month
// during the first two days of a month.
func (c *controller) findArchivedGame(ctx context.Context, handle string, ccID int64) (*model.ArchivedGame, error) {
	now := c.clock.Now().UTC()
	months := []time.Time{now}
	if now.Day() <= 2 {
		months = append(months, model.SeasonStart(now, -1))
	}

	for _, m := range months {
		games, err := c.chesscom.GamesInMonth(ctx, handle, m.Year(), m.Month())
		if errors.Is(err, chesscom.ErrPlayerNotFound) {
			return nil, model.NewValidationError(fmt.Sprintf("Chess.com username not found: `%s`", handle))
		} else if err != nil {
			return nil, fmt.Errorf("error reading games of %s: %w", handle, err)
		}
		for i := range games {
			if id, ok := chesscom.GameIDFromURL(games[i].URL); ok && id == ccID {
				return &games[i], nil
			}
		}
	}
	return nil, nil
}

func (c *controller) verifyGame(game *model.SeasonGame, archived *model.ArchivedGame, caller string) []string {
	var problems []string

	white, black := strings.ToLower(archived.WhiteHandle), strings.ToLower(archived.BlackHandle)
	if !strings.EqualFold(game.White.Handle, white) || !strings.EqualFold(game.Black.Handle, black) {
		problems = append(problems, fmt.Sprintf("Incorrect players, expected: White: `%s` Black: `%s` "+
			"Instead found: White: `%s` Black: `%s`", game.White.Handle, game.Black.Handle, white, black))
	}
	if archived.TimeControl != c.opts.TimeControl {
		problems = append(problems, fmt.Sprintf("Expected time control: `%s` Instead got time control: `%s`",
			c.opts.TimeControl, archived.TimeControl))
	}
	if !archived.Rated {
		problems = append(problems, "Game is unrated, all games must be rated.")
	}
	if !strings.EqualFold(caller, white) && !strings.EqualFold(caller, black) {
		problems = append(problems, fmt.Sprintf("Incorrect permissions, user `%s` must be one of the players, "+
			"instead found `%s` and `%s`", caller, white, black))
	}
	return problems
}

func (c *controller) CustomResult(ctx context.Context, gameID int32, result model.Result, url string) (string, error) {
	if _, err := model.ParseResult(int(result)); err != nil {
		return "", err
	}
	if err := c.db.RecordResult(ctx, gameID, result, url); err != nil {
		return "", err
	}
	slog.Info("custom result recorded", "game_id", gameID, "result", result.String())
	return fmt.Sprintf("Set result for game `%d` to `%s`", gameID, result), nil
}

func (c *controller) ScheduleGame(ctx context.Context, user model.ChatUser, gameID int32, date, timeOfDay, tz string) (string, error) {
	loc, err := canonicalZone(tz)
	if err != nil {
		return "", err
	}

	at, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(timeOfDay), loc)
	if err != nil {
		return "", model.NewValidationError("Incorrect date or time format. Please use `YYYY-MM-DD` and `HH:MM` " +
			"(in a 24 hour format, no AM or PM)")
	}

	game, err := c.db.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	if user.ExternalID != game.White.ExternalID && user.ExternalID != game.Black.ExternalID {
		return "", model.NewValidationError(fmt.Sprintf("User %s is not playing game `%d`", user.DisplayName, gameID))
	}

	eventID := uuid.NewString()
	prev, err := c.db.ScheduleGame(ctx, gameID, eventID, at.UTC(), tz)
	if err != nil {
		return "", err
	}
	if prev != "" {
		slog.Info("calendar event replaced", "game_id", gameID, "previous", prev, "event", eventID)
	}

	return fmt.Sprintf("Scheduled game `%d` at `%s` in time zone `%s`, see the game on the calendar at %s",
		gameID, at.Format("2006-01-02 15:04"), tz, c.calendarURL(game.Season)), nil
}

func (c *controller) calendarURL(season string) string {
	return fmt.Sprintf("%s/seasons/%s/calendar.ics", strings.TrimSuffix(c.opts.PublicURL, "/"), season)
}

// legacyZonePrefixes are tz database links kept for backwards compatibility only.
var legacyZonePrefixes = []string{"US/", "Canada/", "Brazil/", "Chile/", "Mexico/", "Etc/", "SystemV/"}

var zoneSuggestions = map[string]string{
	"EST": "America/New_York",
	"EDT": "America/New_York",
	"ET":  "America/New_York",
	"CST": "America/Chicago",
	"PST": "America/Los_Angeles",
	"GMT": "Europe/London",
}

// canonicalZone loads tz, rejecting deprecated aliases and abbreviations.
func canonicalZone(tz string) (*time.Location, error) {
	deprecated := tz != "UTC" && !strings.Contains(tz, "/")
	for _, p := range legacyZonePrefixes {
		if strings.HasPrefix(tz, p) {
			deprecated = true
		}
	}

	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" || strings.EqualFold(tz, "Local") {
		msg := fmt.Sprintf("Time zone `%s` does not exist, please use a time zone from the `TZ database name` "+
			"column and ensure the `Status` is `Canonical` here: %s", tz, TimeZoneWebsite)
		if s, ok := zoneSuggestions[strings.ToUpper(tz)]; ok {
			msg += fmt.Sprintf(". Perhaps you meant `%s`?", s)
		}
		return nil, model.NewValidationError(msg)
	}
	if deprecated {
		msg := fmt.Sprintf("Time zone `%s` is deprecated, please check the `Status` column on this site and only use "+
			"`Canonical` time zones: %s", tz, TimeZoneWebsite)
		if s, ok := zoneSuggestions[strings.ToUpper(tz)]; ok {
			msg += fmt.Sprintf(". Perhaps you meant `%s`?", s)
		}
		return nil, model.NewValidationError(msg)
	}
	return loc, nil
}
