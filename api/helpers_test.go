package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"testing/fstest"

	"bangd/api"
	"bangd/bang"
	"bangd/live"
	"bangd/registry"
	"bangd/snapshot"
)

// newTestRegistry creates a registry backed by a temp snapshot with a few
// well known bangs.
func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	file := snapshot.NewFile(filepath.Join(t.TempDir(), "bangs.json"), nil)
	reg := registry.New(file, "g")
	for _, rec := range []bang.Record{
		{Key: "g", Name: "Google", URL: "https://www.google.com/search?q={{{s}}}"},
		{Key: "gh", Name: "GitHub", URL: "https://github.com/search?q={{{s}}}"},
		{Key: "yt", Name: "YouTube", URL: "https://www.youtube.com/results?search_query={{{s}}}"},
	} {
		if _, err := reg.Add(context.Background(), rec); err != nil {
			t.Fatalf("seed %s: %v", rec.Key, err)
		}
	}
	return reg
}

func newTestServer(t *testing.T) (*httptest.Server, *registry.Registry, *live.Manager) {
	t.Helper()
	reg := newTestRegistry(t)
	lm := live.NewManager()
	staticFS := fstest.MapFS{
		"index.html": {Data: []byte("<html>bangd</html>")},
	}
	srv := httptest.NewServer(api.RegisterRoutes(reg, lm, nil, staticFS, nil))
	t.Cleanup(srv.Close)
	return srv, reg, lm
}

// noRedirect is a client that reports redirects instead of following them.
var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}
