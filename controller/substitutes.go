package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vietd88/grubberbot/db"
	"github.com/vietd88/grubberbot/model"
	"github.com/vietd88/grubberbot/notify"
)

// MaxGamesPerWeek is how many games a member may play in one week, their own included.
const MaxGamesPerWeek = 2

func (c *controller) RequestSub(ctx context.Context, user model.ChatUser, seasonRef string, week int) (string, error) {
	if !model.ValidWeek(week) {
		return "", model.WeekError(week)
	}
	season, err := c.resolveSeason(seasonRef)
	if err != nil {
		return "", err
	}
	u, err := c.linkedUser(ctx, user)
	if err != nil {
		return "", err
	}

	if _, err := c.db.GetSeasonMember(ctx, season, u.ID); err != nil {
		if errors.Is(err, db.ErrNotMember) || errors.Is(err, db.ErrSeasonNotFound) {
			return "", model.NewValidationError(fmt.Sprintf(
				"User %s is not signed up for the Rapid League `%s` season", user.DisplayName, season))
		}
		return "", err
	}

	flagged, err := c.db.RequestSubstitute(ctx, season, week, u.ID)
	if err != nil {
		return "", fmt.Errorf("error requesting a substitute: %w", err)
	}
	if flagged == 0 {
		return "", model.NewValidationError(fmt.Sprintf(
			"User %s has no games to hand over in week %d of the `%s` season", user.DisplayName, week, season))
	}

	announcements, err := c.db.SubAnnouncements(ctx, season, week, u.ID)
	if err != nil {
		return "", fmt.Errorf("error reading substitute announcements: %w", err)
	}
	for _, a := range announcements {
		thread, err := c.notifier.AnnounceSubstitute(ctx, a)
		if err != nil {
			slog.Error("error announcing substitute request", "seed_id", a.SeedID, "error", err)
			continue
		}
		if thread == "" {
			continue
		}
		if err := c.db.SetSubThreadID(ctx, a.SeedID, thread); err != nil {
			slog.Error("error saving substitute thread", "seed_id", a.SeedID, "error", err)
		}
	}

	return fmt.Sprintf("user %s has requested a substitute on week %d of the rapid league `%s` season",
		user.DisplayName, week, season), nil
}

func (c *controller) ClaimSub(ctx context.Context, user model.ChatUser, seedID int32) (string, error) {
	source, err := c.db.GetClaimSource(ctx, seedID)
	if errors.Is(err, db.ErrSeedNotFound) {
		return "", noClaimError(seedID)
	} else if err != nil {
		return "", err
	}
	if !source.Request {
		return "", noClaimError(seedID)
	}

	u, err := c.linkedUser(ctx, user)
	if err != nil {
		return "", err
	}

	check := claimCheck{source: source, claimant: user.DisplayName, headroom: c.opts.SubHeadroom}
	check.member, err = c.db.GetSeasonMember(ctx, source.Season, u.ID)
	if err != nil && !errors.Is(err, db.ErrNotMember) {
		return "", err
	}
	if check.member != nil {
		check.weekGames, err = c.db.CountWeekGames(ctx, source.Season, source.Week, check.member.ID)
		if err != nil {
			return "", err
		}
	}

	// Ratings come from the provider, so they are read before any store write.
	holder, err := c.ratings.Rating(ctx, source.Handle)
	if err != nil {
		return "", fmt.Errorf("error reading rating for %s: %w", source.Handle, err)
	}
	claimant, err := c.ratings.Rating(ctx, u.Handle)
	if err != nil {
		return "", fmt.Errorf("error reading rating for %s: %w", u.Handle, err)
	}
	check.holderRating = holder.RapidOrZero()
	check.claimantRating = claimant.RapidOrZero()

	if err := check.validate(); err != nil {
		return "", err
	}

	games, err := c.db.ClaimSubstitute(ctx, seedID, check.member.ID)
	if errors.Is(err, db.ErrNoSubRequest) || errors.Is(err, db.ErrSeedNotFound) {
		return "", noClaimError(seedID)
	} else if err != nil {
		return "", fmt.Errorf("error claiming seed %d: %w", seedID, err)
	}

	err = c.notifier.AnnounceClaim(ctx, notify.Claim{Source: *source, Claimant: user, Games: games})
	if err != nil {
		slog.Error("error announcing substitute claim", "seed_id", seedID, "error", err)
	}

	msg := fmt.Sprintf("User %s has successfully claimed a substitute.", user.DisplayName)
	for _, g := range games {
		if g.ScheduledAt != nil {
			msg += " Game times were cleared, please schedule again."
			break
		}
	}
	return msg, nil
}

func noClaimError(seedID int32) error {
	return model.NewValidationError(fmt.Sprintf("Seed ID `%d` does not require a substitute", seedID))
}

// claimCheck holds everything the claim rules look at.
type claimCheck struct {
	source         *model.ClaimSource
	claimant       string
	member         *model.Member // the claimant's membership, nil when not in the season
	weekGames      int
	holderRating   int
	claimantRating int
	headroom       int
}

// validate applies the rules in order and reports the first one broken.
func (k claimCheck) validate() error {
	if !k.source.Request {
		return noClaimError(k.source.SeedID)
	}
	if k.member == nil {
		return model.NewValidationError(fmt.Sprintf("User %s is not playing in season `%s`", k.claimant, k.source.Season))
	}
	if k.member.ID == k.source.HolderID {
		return model.NewValidationError(fmt.Sprintf("User %s already holds seed `%d`", k.claimant, k.source.SeedID))
	}
	if k.member.TeamName != k.source.TeamName {
		return model.NewValidationError(fmt.Sprintf("Error, user %s is not on team `%s` but is instead on team `%s`",
			k.claimant, k.source.TeamName, k.member.TeamName))
	}
	if k.weekGames >= MaxGamesPerWeek {
		return model.NewValidationError(fmt.Sprintf("User %s is already playing `%d` games this week", k.claimant, k.weekGames))
	}
	maxRating := k.holderRating + k.headroom
	if k.claimantRating > maxRating {
		return model.NewValidationError(fmt.Sprintf("Error, max Elo for this game is `%d`, but user %s has a rapid rating of `%d`",
			maxRating, k.claimant, k.claimantRating))
	}
	return nil
}
