// Package mcpserver exposes the league chat commands as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/vietd88/grubberbot/chesscom"
	"github.com/vietd88/grubberbot/controller"
	"github.com/vietd88/grubberbot/model"
)

const (
	name    = "grubberbot"
	version = "1.0.0"
)

// Every command tool takes the caller's user_id and display_name, filled in by the chat front end.
func chatUser(id, displayName string) model.ChatUser {
	return model.ChatUser{ExternalID: strings.TrimSpace(id), DisplayName: displayName}
}

type LinkHandleArgs struct {
	UserID      string `json:"user_id" jsonschema:"Chat platform id of the user running the command"`
	DisplayName string `json:"display_name" jsonschema:"Name to show for the user"`
	Handle      string `json:"handle" jsonschema:"chess.com username"`
}

type SeasonArgs struct {
	UserID      string `json:"user_id" jsonschema:"Chat platform id of the user running the command"`
	DisplayName string `json:"display_name" jsonschema:"Name to show for the user"`
	Season      string `json:"season,omitempty" jsonschema:"current, next or a season name like 2024March (default next)"`
}

type JoinSeasonArgs struct {
	UserID      string `json:"user_id" jsonschema:"Chat platform id of the user running the command"`
	DisplayName string `json:"display_name" jsonschema:"Name to show for the user"`
	Role        string `json:"role" jsonschema:"player or substitute"`
	Season      string `json:"season,omitempty" jsonschema:"current, next or a season name like 2024March (default next)"`
}

type RequestSubstituteArgs struct {
	UserID      string `json:"user_id" jsonschema:"Chat platform id of the user running the command"`
	DisplayName string `json:"display_name" jsonschema:"Name to show for the user"`
	Week        int    `json:"week" jsonschema:"Week of the season, 1 to 4"`
	Season      string `json:"season,omitempty" jsonschema:"current, next or a season name (default current)"`
}

type ClaimSubstituteArgs struct {
	UserID      string `json:"user_id" jsonschema:"Chat platform id of the user running the command"`
	DisplayName string `json:"display_name" jsonschema:"Name to show for the user"`
	SeedID      int32  `json:"seed_id" jsonschema:"Id of the substitute request to claim"`
}

type RecordResultArgs struct {
	UserID      string `json:"user_id" jsonschema:"Chat platform id of the user running the command"`
	DisplayName string `json:"display_name" jsonschema:"Name to show for the user"`
	GameID      int32  `json:"game_id" jsonschema:"League game id"`
	URL         string `json:"url" jsonschema:"chess.com link to the finished game"`
}

type ScheduleGameArgs struct {
	UserID      string `json:"user_id" jsonschema:"Chat platform id of the user running the command"`
	DisplayName string `json:"display_name" jsonschema:"Name to show for the user"`
	GameID      int32  `json:"game_id" jsonschema:"League game id"`
	Date        string `json:"date" jsonschema:"Date as YYYY-MM-DD"`
	Time        string `json:"time" jsonschema:"Time of day as HH:MM, 24 hour clock"`
	TimeZone    string `json:"time_zone" jsonschema:"IANA time zone, e.g. America/New_York"`
}

type StandingsArgs struct {
	Season string `json:"season,omitempty" jsonschema:"current, next or a season name (default current)"`
}

// NewServer registers the chat command tools against ctrl.
func NewServer(ctrl controller.C) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)

	addTool(server, &mcp.Tool{
		Name:        "link_handle",
		Description: "Link the caller to a chess.com account",
	}, func(ctx context.Context, args LinkHandleArgs) (string, error) {
		return ctrl.LinkHandle(ctx, chatUser(args.UserID, args.DisplayName), args.Handle)
	})

	addTool(server, &mcp.Tool{
		Name:        "join_season",
		Description: "Sign up for a season as a player or a substitute",
	}, func(ctx context.Context, args JoinSeasonArgs) (string, error) {
		season := args.Season
		if season == "" {
			season = controller.SeasonNext
		}
		return ctrl.JoinSeason(ctx, chatUser(args.UserID, args.DisplayName), model.ParseRole(args.Role), season)
	})

	addTool(server, &mcp.Tool{
		Name:        "leave_season",
		Description: "Withdraw from a season",
	}, func(ctx context.Context, args SeasonArgs) (string, error) {
		season := args.Season
		if season == "" {
			season = controller.SeasonNext
		}
		return ctrl.LeaveSeason(ctx, chatUser(args.UserID, args.DisplayName), season)
	})

	addTool(server, &mcp.Tool{
		Name:        "request_substitute",
		Description: "Ask for a substitute to play the caller's games in a week",
	}, func(ctx context.Context, args RequestSubstituteArgs) (string, error) {
		return ctrl.RequestSub(ctx, chatUser(args.UserID, args.DisplayName), args.Season, args.Week)
	})

	addTool(server, &mcp.Tool{
		Name:        "claim_substitute",
		Description: "Claim an open substitute request",
	}, func(ctx context.Context, args ClaimSubstituteArgs) (string, error) {
		return ctrl.ClaimSub(ctx, chatUser(args.UserID, args.DisplayName), args.SeedID)
	})

	addTool(server, &mcp.Tool{
		Name:        "record_result",
		Description: "Record the result of a league game from its chess.com link",
	}, func(ctx context.Context, args RecordResultArgs) (string, error) {
		return ctrl.RecordResult(ctx, chatUser(args.UserID, args.DisplayName), args.GameID, args.URL)
	})

	addTool(server, &mcp.Tool{
		Name:        "schedule_game",
		Description: "Set the date and time a league game will be played",
	}, func(ctx context.Context, args ScheduleGameArgs) (string, error) {
		return ctrl.ScheduleGame(ctx, chatUser(args.UserID, args.DisplayName), args.GameID, args.Date, args.Time, args.TimeZone)
	})

	addTool(server, &mcp.Tool{
		Name:        "standings",
		Description: "Team and member standings for a season",
	}, func(ctx context.Context, args StandingsArgs) (string, error) {
		standings, err := ctrl.Standings(ctx, args.Season)
		if err != nil {
			return "", err
		}
		return formatStandings(standings), nil
	})

	return server
}

// New returns a streamable HTTP handler serving the league tools.
func New(ctrl controller.C) http.Handler {
	server := NewServer(ctrl)
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func addTool[T any](server *mcp.Server, tool *mcp.Tool, handler func(context.Context, T) (string, error)) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args T) (*mcp.CallToolResult, any, error) {
		text, err := handler(ctx, args)
		if err != nil {
			return toolError(tool.Name, err), nil, nil
		}
		return toolText(text), nil, nil
	})
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// toolError shows rejections to the caller as they are. Anything unexpected is logged
// and replaced by a generic message.
func toolError(tool string, err error) *mcp.CallToolResult {
	var (
		text string
		verr *model.ValidationError
	)
	switch {
	case errors.As(err, &verr):
		text = verr.Error()
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrNotFound):
		text = err.Error()
	case errors.Is(err, chesscom.ErrProviderUnavailable):
		text = "chess.com is unavailable, try again later"
	default:
		slog.Error("tool failed", "tool", tool, "error", err)
		text = fmt.Sprintf("Something went wrong running `%s`, please contact a moderator", tool)
	}

	result := toolText(text)
	result.IsError = true
	return result
}

func formatStandings(s *model.Standings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Standings for %s\n", s.Season)
	for _, t := range s.Teams {
		fmt.Fprintf(&sb, "\n%s (%s)\n", t.Team, t.Score())
		for _, row := range t.Rows {
			rating := "unrated"
			if row.Rating != nil {
				rating = fmt.Sprintf("%d", *row.Rating)
			}
			fmt.Fprintf(&sb, "  %s (%s) %s, %s, %s\n", row.DisplayName, row.Handle, row.Role, rating, row.Score())
		}
	}
	return sb.String()
}
