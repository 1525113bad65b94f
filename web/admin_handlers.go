package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/unrolled/render"
	"github.com/vietd88/grubberbot/controller"
	"github.com/vietd88/grubberbot/export"
	"github.com/vietd88/grubberbot/model"
)

func roleParam(r *http.Request) model.Role {
	role := r.URL.Query().Get("role")
	if role == "" {
		return model.ROLE_PLAYER
	}
	return model.ParseRole(role)
}

func ensureSeasonsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		created, err := ctrl.EnsureSeasons(r.Context())
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		if created == nil {
			created = []string{}
		}
		render.JSON(w, http.StatusOK, map[string][]string{"created": created})
	}
}

func addTeamsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Names []string `json:"names" validate:"required,min=1,dive,required,max=64"`
		}
		if err := decode(r, &body); err != nil {
			writeError(render, w, r, err)
			return
		}

		if err := ctrl.AddTeams(r.Context(), chi.URLParam(r, "season"), body.Names); err != nil {
			writeError(render, w, r, err)
			return
		}
		render.JSON(w, http.StatusOK, map[string][]string{"added": body.Names})
	}
}

type balanceView struct {
	Teams        [][]int32 `json:"teams"`
	Score        float64   `json:"score"`
	InitialScore float64   `json:"initial_score"`
	Iterations   int       `json:"iterations"`
}

func balanceHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := ctrl.BalanceTeams(r.Context(), chi.URLParam(r, "season"), roleParam(r))
		if err != nil {
			writeError(render, w, r, err)
			return
		}

		v := balanceView{
			Teams:        make([][]int32, 0, len(result.Teams)),
			Score:        result.Score,
			InitialScore: result.InitialScore,
			Iterations:   result.Iterations,
		}
		for _, team := range result.Teams {
			ids := make([]int32, 0, len(team))
			for _, p := range team {
				ids = append(ids, p.MemberID)
			}
			v.Teams = append(v.Teams, ids)
		}
		render.JSON(w, http.StatusOK, v)
	}
}

func resetHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := ctrl.ResetTeams(r.Context(), chi.URLParam(r, "season"), roleParam(r))
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		render.JSON(w, http.StatusOK, map[string]int64{"moved": n})
	}
}

func pairHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		week, err := weekParam(r)
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		games, err := ctrl.PairWeek(r.Context(), chi.URLParam(r, "season"), week)
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		render.JSON(w, http.StatusCreated, newGameViews(games))
	}
}

func exportHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := ctrl.Export(r.Context(), chi.URLParam(r, "season"))
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		render.JSON(w, http.StatusOK, map[string]string{"url": url})
	}
}

func workbookHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		season := chi.URLParam(r, "season")
		f, err := ctrl.Workbook(r.Context(), season)
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", export.XLSXContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", season+".xlsx"))
		if err := f.Write(w); err != nil {
			slog.Error("error writing workbook", "season", season, "error", err)
		}
	}
}

func refreshRatingsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := ctrl.RefreshRatings(r.Context(), chi.URLParam(r, "season"))
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		render.JSON(w, http.StatusOK, map[string]int{"handles": n})
	}
}

func customResultHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 32)
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("error parsing game id: %v", err)})
			return
		}

		var body struct {
			Result *int   `json:"result" validate:"required,oneof=-1 0 1"`
			URL    string `json:"url" validate:"omitempty,url"`
		}
		if err := decode(r, &body); err != nil {
			writeError(render, w, r, err)
			return
		}
		result, err := model.ParseResult(*body.Result)
		if err != nil {
			writeError(render, w, r, err)
			return
		}

		msg, err := ctrl.CustomResult(r.Context(), int32(id), result, body.URL)
		if err != nil {
			writeError(render, w, r, err)
			return
		}
		render.JSON(w, http.StatusOK, map[string]string{"message": msg})
	}
}
