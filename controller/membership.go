package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vietd88/grubberbot/db"
	"github.com/vietd88/grubberbot/model"
)

func (c *controller) LinkHandle(ctx context.Context, user model.ChatUser, handle string) (string, error) {
	handle = model.NormalizeHandle(handle)
	if handle == "" {
		return "", model.NewValidationError("A chess.com username is required")
	}

	exists, err := c.ratings.Exists(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("error checking chess.com username %s: %w", handle, err)
	}
	if !exists {
		return "", model.NewValidationError(fmt.Sprintf("Chess.com username not found: `%s`", handle))
	}

	prev, err := c.db.LinkHandle(ctx, user, handle)
	if err != nil {
		return "", fmt.Errorf("error linking %s: %w", user.ExternalID, err)
	}

	if prev == "" {
		return fmt.Sprintf("successfully linked %s to Chess.com username `%s`", user.DisplayName, handle), nil
	}
	return fmt.Sprintf("user %s was linked to Chess.com username `%s` but is now linked to `%s`",
		user.DisplayName, prev, handle), nil
}

func (c *controller) JoinSeason(ctx context.Context, user model.ChatUser, role model.Role, seasonRef string) (string, error) {
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return "", err
	}

	var problems []string
	u, err := c.db.GetUser(ctx, user.ExternalID)
	if err != nil && !errors.Is(err, db.ErrUserNotFound) {
		return "", err
	}
	if u == nil || !u.Linked() {
		problems = append(problems, notLinkedMessage(user))
	}
	if role != model.ROLE_PLAYER && role != model.ROLE_SUBSTITUTE {
		problems = append(problems, roleMessage(role))
	}

	if u != nil && u.Linked() {
		counts, err := c.ratings.GameCounts(ctx, u.Handle)
		if err != nil {
			return "", fmt.Errorf("error reading game counts for %s: %w", u.Handle, err)
		}
		if counts == nil {
			problems = append(problems, fmt.Sprintf("Chess.com username not found: `%s`", u.Handle))
		} else {
			if counts.Rapid < c.opts.MinRapidGames {
				problems = append(problems, fmt.Sprintf("Minimum %d rapid games required, `%s` has played only `%d` rapid games",
					c.opts.MinRapidGames, u.Handle, counts.Rapid))
			}
			if counts.Total < c.opts.MinTotalGames {
				problems = append(problems, fmt.Sprintf("Minimum %d games of any time control required, `%s` has played only `%d` games",
					c.opts.MinTotalGames, u.Handle, counts.Total))
			}
		}
	}

	if len(problems) > 0 {
		return "", model.NewValidationError(problems...)
	}

	if u.DisplayName != user.DisplayName {
		if err := c.db.UpdateDisplayName(ctx, user); err != nil {
			return "", err
		}
	}

	member, created, err := c.db.Join(ctx, season, u.ID, role.IsPlayer(), model.SignupTeam)
	if err != nil {
		return "", fmt.Errorf("error joining %s to %s: %w", user.ExternalID, season, err)
	}
	if !created {
		return fmt.Sprintf("%s is already signed up for the `%s` season as a `%s` on team `%s`",
			user.DisplayName, season, member.Role(), member.TeamName), nil
	}

	return strings.Join([]string{
		fmt.Sprintf("added %s to the league `%s` season", user.DisplayName, season),
		fmt.Sprintf("* Chess.com username: `%s`", u.Handle),
		fmt.Sprintf("* Signed up as a: `%s`", role),
	}, "\n"), nil
}

func (c *controller) LeaveSeason(ctx context.Context, user model.ChatUser, seasonRef string) (string, error) {
	season, err := c.resolveSeason(seasonRef)
	if err != nil {
		return "", err
	}

	notSignedUp := model.NewValidationError(fmt.Sprintf(
		"user %s is not currently signed up for the rapid league `%s` season", user.DisplayName, season))

	u, err := c.db.GetUser(ctx, user.ExternalID)
	if errors.Is(err, db.ErrUserNotFound) {
		return "", notSignedUp
	} else if err != nil {
		return "", err
	}

	outcome, err := c.db.Leave(ctx, season, u.ID)
	if errors.Is(err, db.ErrNotMember) || errors.Is(err, db.ErrSeasonNotFound) {
		return "", notSignedUp
	} else if err != nil {
		return "", fmt.Errorf("error leaving %s: %w", season, err)
	}

	if outcome == model.LeaveDemoted {
		return fmt.Sprintf("user %s still has games or substitute slots in the rapid league `%s` season "+
			"and was moved to substitute instead of leaving", user.DisplayName, season), nil
	}
	return fmt.Sprintf("user %s has left the rapid league `%s` season", user.DisplayName, season), nil
}
