package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestIndexServesPage(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "bangd") {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}
}

func TestRedirectExplicitBang(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	resp, err := noRedirect.Get(srv.URL + "/?q=" + url.QueryEscape("!gh golang/go"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://github.com/search?q=golang/go" {
		t.Fatalf("unexpected location %q", loc)
	}
	if recent := reg.RecentlyUsed(); len(recent) != 1 || recent[0] != "gh" {
		t.Fatalf("expected gh in recently used, got %v", recent)
	}
}

func TestRedirectDefaultEngine(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := noRedirect.Get(srv.URL + "/?q=" + url.QueryEscape("cats & dogs"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); loc != "https://www.google.com/search?q=cats%20%26%20dogs" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestRedirectBareBangGoesToDomain(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := noRedirect.Get(srv.URL + "/?q=" + url.QueryEscape("!yt"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); loc != "https://www.youtube.com" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestRedirectBlankQueryGoesToDefaultDomain(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := noRedirect.Get(srv.URL + "/?q=" + url.QueryEscape("   "))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); loc != "https://www.google.com" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestRedirectUnresolved404(t *testing.T) {
	srv, reg, _ := newTestServer(t)
	g, _ := reg.Find("g")
	if _, err := reg.Delete(t.Context(), g.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	resp, err := noRedirect.Get(srv.URL + "/?q=" + url.QueryEscape("!gj cats"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Did you mean: !gh") {
		t.Fatalf("expected a suggestion, got %q", body)
	}
}

func TestSearchAPI(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/search?q=" + url.QueryEscape("domain:github gh"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Query struct {
			Filters []struct{ Type, Value string } `json:"filters"`
			Terms   []string                       `json:"terms"`
		} `json:"query"`
		Results []struct {
			Bang  struct{ T string } `json:"bang"`
			Score int                `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Query.Filters) != 1 || body.Query.Filters[0].Type != "domain" {
		t.Fatalf("unexpected filters %+v", body.Query.Filters)
	}
	if len(body.Results) != 1 || body.Results[0].Bang.T != "gh" || body.Results[0].Score != 115 {
		t.Fatalf("unexpected results %+v", body.Results)
	}
}

func TestResolveAPI(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/resolve?q=" + url.QueryEscape("!nope cats"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["outcome"] != "fallback" || body["url"] != "https://www.google.com/search?q=cats" {
		t.Fatalf("unexpected body %v", body)
	}

	resp2, err := http.Get(srv.URL + "/api/resolve?q=")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty query, got %d", resp2.StatusCode)
	}
}

func TestInfo(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/info")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)

	want := srv.URL + "/?q=%s"
	if body["searchURL"] != want {
		t.Fatalf("searchURL = %v, want %s", body["searchURL"], want)
	}
	if body["count"] != float64(3) || body["default"] != "g" || body["remote"] != false {
		t.Fatalf("unexpected info %v", body)
	}
}

func TestSyncWithoutRemote503(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/sync", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
