package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/unrolled/render"
	"github.com/vietd88/grubberbot/controller"
)

// Options configures the routes mounted next to the public league pages.
type Options struct {
	// AdminUser and AdminPassword guard /admin. Without a password the admin routes are not mounted.
	AdminUser     string
	AdminPassword string
	// MCPPath is where MCPHandler is mounted, when it is not nil.
	MCPPath    string
	MCPHandler http.Handler
	// MCPAPIKey is required from MCP clients, unless empty.
	MCPAPIKey string
}

type Server struct {
	server *http.Server
}

func NewServer(port int, ctrl controller.C, opts Options) (*Server, error) {
	if port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", port)
	}
	router := getRouter(ctrl, newRender(), opts)

	s := &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	return s, nil
}

func (s *Server) ListenAndServe(shutdown chan bool, wg *sync.WaitGroup) {
	go func() {
		defer wg.Done()

		// Wait for the shutdown signal and safely close the server.
		<-shutdown

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			slog.Error("error shutting down web server", "error", err)
		}
	}()

	slog.Info("web server is listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("web server stopped", "error", err)
	}
}

func newRender() *render.Render {
	return render.New(render.Options{
		IndentJSON: true,
	})
}
