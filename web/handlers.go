package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/unrolled/render"
	"github.com/vietd88/grubberbot/chesscom"
	"github.com/vietd88/grubberbot/controller"
	"github.com/vietd88/grubberbot/export"
	"github.com/vietd88/grubberbot/model"
	"github.com/vietd88/grubberbot/pairing"
)

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// writeError maps domain errors onto status codes. Unexpected errors are logged and hidden.
func writeError(render *render.Render, w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		render.JSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Problems: verr.Problems})
	case errors.Is(err, model.ErrValidation):
		render.JSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrNotFound):
		render.JSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, chesscom.ErrProviderUnavailable):
		render.JSON(w, http.StatusServiceUnavailable, errorResponse{Error: "chess.com is unavailable, try again later"})
	case errors.Is(err, pairing.ErrSchedulingInfeasible):
		render.JSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		render.JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func weekParam(r *http.Request) (int, error) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || !model.ValidWeek(week) {
		return 0, model.WeekError(week)
	}
	return week, nil
}

func healthHandler(render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type seasonView struct {
	Name   string `json:"name"`
	Starts string `json:"starts"`
}

func seasonsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seasons, err := ctrl.Seasons(r.Context())
		if err != nil {
			writeError(render, w, r, err)
			return
		}

		views := make([]seasonView, 0, len(seasons))
		for _, s := range seasons {
			views = append(views, seasonView{Name: s.Name, Starts: s.Starts.Format(time.DateOnly)})
		}
		render.JSON(w, http.StatusOK, views)
	}
}

type standingsRowView struct {
	DisplayName string   `json:"display_name"`
	Handle      string   `json:"handle"`
	Role        string   `json:"role"`
	Rating      *int     `json:"rating"`
	Score       string   `json:"score"`
	Requests    []string `json:"requests"`
}

type teamStandingsView struct {
	Team  string             `json:"team"`
	Score string             `json:"score"`
	Rows  []standingsRowView `json:"rows"`
}

type standingsView struct {
	Season string              `json:"season"`
	Teams  []teamStandingsView `json:"teams"`
}

func newStandingsView(s *model.Standings) standingsView {
	v := standingsView{Season: s.Season, Teams: make([]teamStandingsView, 0, len(s.Teams))}
	for _, t := range s.Teams {
		tv := teamStandingsView{Team: t.Team, Score: t.Score(), Rows: make([]standingsRowView, 0, len(t.Rows))}
		for _, row := range t.Rows {
			tv.Rows = append(tv.Rows, standingsRowView{
				DisplayName: row.DisplayName,
				Handle:      row.Handle,
				Role:        string(row.Role),
				Rating:      row.Rating,
				Score:       row.Score(),
				Requests:    row.Requests[:],
			})
		}
		v.Teams = append(v.Teams, tv)
	}
	return v
}

func standingsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		standings, err := ctrl.Standings(r.Context(), chi.URLParam(r, "season"))
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		render.JSON(w, http.StatusOK, newStandingsView(standings))
	}
}

type memberView struct {
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	Team        string `json:"team"`
	Role        string `json:"role"`
	Rating      *int   `json:"rating"`
}

func membersHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := ctrl.Members(r.Context(), chi.URLParam(r, "season"))
		if err != nil {
			writeError(render, w, r, err)
			return
		}

		views := make([]memberView, 0, len(members))
		for _, m := range members {
			views = append(views, memberView{
				DisplayName: m.DisplayName,
				Handle:      m.Handle,
				Team:        m.TeamName,
				Role:        string(model.RoleOf(m.IsPlayer)),
				Rating:      m.Rating,
			})
		}
		render.JSON(w, http.StatusOK, views)
	}
}

type sideView struct {
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	Team        string `json:"team"`
	SeedID      int32  `json:"seed_id"`
}

type gameView struct {
	ID          int32      `json:"id"`
	Week        int        `json:"week"`
	White       sideView   `json:"white"`
	Black       sideView   `json:"black"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Result      string     `json:"result,omitempty"`
	URL         string     `json:"url,omitempty"`
}

func newGameViews(games []model.SeasonGame) []gameView {
	side := func(p model.Participant) sideView {
		return sideView{DisplayName: p.DisplayName, Handle: p.Handle, Team: p.TeamName, SeedID: p.SeedID}
	}

	views := make([]gameView, 0, len(games))
	for _, g := range games {
		v := gameView{
			ID:          g.ID,
			Week:        g.Week,
			White:       side(g.White),
			Black:       side(g.Black),
			ScheduledAt: g.ScheduledAt,
			URL:         g.URL,
		}
		if g.Result != nil {
			v.Result = g.Result.String()
		}
		views = append(views, v)
	}
	return views
}

func pairingsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		week, err := weekParam(r)
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		games, err := ctrl.WeekPairings(r.Context(), chi.URLParam(r, "season"), week)
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		render.JSON(w, http.StatusOK, newGameViews(games))
	}
}

func calendarHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cal, err := ctrl.Calendar(r.Context(), chi.URLParam(r, "season"))
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		w.Header().Set("Content-Type", export.CalendarContentType)
		render.Data(w, http.StatusOK, []byte(cal))
	}
}
