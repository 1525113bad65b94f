package controller

import (
	"context"

	"github.com/vietd88/grubberbot/export"
	"github.com/vietd88/grubberbot/model"
	"github.com/xuri/excelize/v2"
)

func (c *controller) Seasons(ctx context.Context) ([]model.Season, error) {
	return c.db.ListSeasons(ctx)
}

func (c *controller) Standings(ctx context.Context, seasonRef string) (*model.Standings, error) {
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return nil, err
	}
	return c.db.GetSeasonStandings(ctx, season)
}

func (c *controller) WeekPairings(ctx context.Context, seasonRef string, week int) ([]model.SeasonGame, error) {
	if !model.ValidWeek(week) {
		return nil, model.WeekError(week)
	}
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return nil, err
	}
	return c.db.GetGamesForWeek(ctx, season, week)
}

func (c *controller) Members(ctx context.Context, seasonRef string) ([]model.MemberInfo, error) {
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return nil, err
	}
	return c.db.GetMemberInfo(ctx, season)
}

func (c *controller) Calendar(ctx context.Context, seasonRef string) (string, error) {
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return "", err
	}
	games, err := c.db.GetSeasonGames(ctx, season)
	if err != nil {
		return "", err
	}
	return export.Calendar(season, games, c.clock.Now()), nil
}

func (c *controller) Workbook(ctx context.Context, seasonRef string) (*excelize.File, error) {
	season, err := c.existingSeason(ctx, seasonRef)
	if err != nil {
		return nil, err
	}
	standings, err := c.db.GetSeasonStandings(ctx, season)
	if err != nil {
		return nil, err
	}
	members, err := c.db.GetMemberInfo(ctx, season)
	if err != nil {
		return nil, err
	}
	games, err := c.db.GetSeasonGames(ctx, season)
	if err != nil {
		return nil, err
	}

	weeks := make(map[int][]model.SeasonGame)
	for _, g := range games {
		weeks[g.Week] = append(weeks[g.Week], g)
	}
	return export.Workbook(standings, members, weeks)
}
