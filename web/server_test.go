package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vietd88/grubberbot/controller/mockcontroller"
)

func TestNewServer(t *testing.T) {
	tests := map[string]struct {
		port    int
		isError bool
	}{
		"valid port":    {port: 3000},
		"zero port":     {port: 0, isError: true},
		"negative port": {port: -1, isError: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := NewServer(tc.port, &mockcontroller.C{}, Options{})
			if tc.isError {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, ":3000", s.server.Addr)
		})
	}
}

func TestAPIKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := map[string]struct {
		key     string
		headers map[string]string
		status  int
	}{
		"no key configured": {key: "", status: http.StatusTeapot},
		"x-api-key":         {key: "s3cret", headers: map[string]string{"X-API-Key": "s3cret"}, status: http.StatusTeapot},
		"bearer token":      {key: "s3cret", headers: map[string]string{"Authorization": "Bearer s3cret"}, status: http.StatusTeapot},
		"lowercase bearer":  {key: "s3cret", headers: map[string]string{"Authorization": "bearer s3cret"}, status: http.StatusTeapot},
		"wrong key":         {key: "s3cret", headers: map[string]string{"X-API-Key": "guess"}, status: http.StatusUnauthorized},
		"basic auth":        {key: "s3cret", headers: map[string]string{"Authorization": "Basic s3cret"}, status: http.StatusUnauthorized},
		"missing key":       {key: "s3cret", status: http.StatusUnauthorized},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			apiKey(tc.key)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
			}
		})
	}
}

func TestMCPMount(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mcp"))
	})
	s := httptest.NewServer(getRouter(&mockcontroller.C{}, newRender(), Options{
		MCPPath:    "/mcp",
		MCPHandler: mcp,
		MCPAPIKey:  "s3cret",
	}))
	defer s.Close()

	req, err := http.NewRequest(http.MethodPost, s.URL+"/mcp", nil)
	if err != nil {
		t.Fatalf("error creating request: %v", err)
	}
	req.Header.Set("X-API-Key", "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("error sending request: %v", err)
	}
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodPost, s.URL+"/mcp", "", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "unauthorized")
}
