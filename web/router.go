package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/render"
	"github.com/vietd88/grubberbot/controller"
)

func getRouter(ctrl controller.C, render *render.Render, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(render))

	r.Group(func(r chi.Router) {
		// Set a timeout value on the request context (ctx), that will signal
		// through ctx.Done() that the request has timed out and further
		// processing should be stopped.
		r.Use(middleware.Timeout(10 * time.Second))

		r.Get("/seasons", seasonsHandler(ctrl, render))
		r.Route("/seasons/{season}", func(r chi.Router) {
			r.Get("/standings", standingsHandler(ctrl, render))
			r.Get("/members", membersHandler(ctrl, render))
			r.Get("/weeks/{week:\\d+}/pairings", pairingsHandler(ctrl, render))
			r.Get("/calendar.ics", calendarHandler(ctrl, render))
		})
	})

	if opts.AdminPassword != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.BasicAuth("grubberbot", map[string]string{opts.AdminUser: opts.AdminPassword}))
			// Balancing and pairing searches run for several seconds.
			r.Use(middleware.Timeout(2 * time.Minute))

			r.Post("/seasons", ensureSeasonsHandler(ctrl, render))
			r.Route("/seasons/{season}", func(r chi.Router) {
				r.Post("/teams", addTeamsHandler(ctrl, render))
				r.Post("/balance", balanceHandler(ctrl, render))
				r.Post("/reset", resetHandler(ctrl, render))
				r.Post("/weeks/{week:\\d+}/pair", pairHandler(ctrl, render))
				r.Post("/export", exportHandler(ctrl, render))
				r.Get("/workbook.xlsx", workbookHandler(ctrl, render))
				r.Post("/ratings", refreshRatingsHandler(ctrl, render))
			})
			r.Post("/games/{gameID:\\d+}/result", customResultHandler(ctrl, render))
		})
	}

	if opts.MCPHandler != nil {
		r.With(apiKey(opts.MCPAPIKey)).Handle(opts.MCPPath, opts.MCPHandler)
	}

	return r
}

// apiKey accepts the key from X-API-Key or an Authorization bearer token. An empty key
// lets every request through.
func apiKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if got == "" {
				if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					got = strings.TrimSpace(authz[7:])
				}
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
