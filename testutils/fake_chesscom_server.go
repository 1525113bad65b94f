package testutils

import (
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

//go:embed chesscomdata
var chesscomdata embed.FS

// FakeChesscomServer serves canned chess.com public API responses and counts requests per path.
type FakeChesscomServer struct {
	s *httptest.Server

	mu       sync.Mutex
	requests map[string]int
	failing  bool
}

func NewFakeChesscomServer() *FakeChesscomServer {
	f := &FakeChesscomServer{requests: make(map[string]int)}

	r := chi.NewRouter()
	r.Use(f.count)
	r.Route("/pub/player/{handle}", func(r chi.Router) {
		r.Get("/", f.profileHandler)
		r.Get("/stats", f.statsHandler)
		r.Get("/games/{year}/{month}", f.archiveHandler)
	})

	f.s = httptest.NewServer(r)
	return f
}

func (f *FakeChesscomServer) Close() {
	f.s.Close()
}

func (f *FakeChesscomServer) URL() string {
	return f.s.URL
}

// Requests returns how many times path has been requested.
func (f *FakeChesscomServer) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

// SetFailing makes every request return a 502 until reset.
func (f *FakeChesscomServer) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *FakeChesscomServer) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.URL.Path]++
		failing := f.failing
		f.mu.Unlock()

		if failing {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeChesscomServer) profileHandler(w http.ResponseWriter, r *http.Request) {
	handle := strings.ToLower(chi.URLParam(r, "handle"))
	serveChesscomFile(w, fmt.Sprintf("%s.json", handle))
}

func (f *FakeChesscomServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	handle := strings.ToLower(chi.URLParam(r, "handle"))
	serveChesscomFile(w, fmt.Sprintf("%s_stats.json", handle))
}

func (f *FakeChesscomServer) archiveHandler(w http.ResponseWriter, r *http.Request) {
	handle := strings.ToLower(chi.URLParam(r, "handle"))
	year := chi.URLParam(r, "year")
	month := chi.URLParam(r, "month")

	if !chesscomFileExists(fmt.Sprintf("%s.json", handle)) {
		notFound(w)
		return
	}

	name := fmt.Sprintf("%s_games_%s_%s.json", handle, year, month)
	if !chesscomFileExists(name) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"games":[]}`))
		return
	}
	serveChesscomFile(w, name)
}

func chesscomFileExists(name string) bool {
	_, err := chesscomdata.ReadFile(fmt.Sprintf("chesscomdata/%s", name))
	return err == nil
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"code":0,"message":"User \"unknown\" not found."}`))
}

func serveChesscomFile(w http.ResponseWriter, name string) {
	b, err := chesscomdata.ReadFile(fmt.Sprintf("chesscomdata/%s", name))
	if err != nil {
		slog.Debug("fake chess.com has no fixture", "name", name)
		notFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
