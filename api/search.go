package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"bangd/bang"
	"bangd/syncer"
)

// index redirects when the request carries a query and otherwise serves
// the management page.
func (h *handler) index(page http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			page(w, r)
			return
		}

		res, err := h.reg.Resolve(q)
		if err != nil {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintln(w, unresolvedMessage(res.Candidate))
			if s := h.reg.Suggest(res.Candidate); len(s) > 0 {
				fmt.Fprintf(w, "Did you mean: !%s\n", strings.Join(s, ", !"))
			}
			return
		}
		h.log.Debug("redirect",
			zap.String("outcome", string(res.Outcome)),
			zap.String("bang", res.Record.Key),
			zap.String("url", res.URL))
		http.Redirect(w, r, res.URL, http.StatusFound)
	}
}

func unresolvedMessage(candidate string) string {
	if candidate == "" {
		return "No default search engine is configured."
	}
	return fmt.Sprintf("No bang named !%s and no default search engine is configured.", candidate)
}

type searchResponse struct {
	Query   bang.Query    `json:"query"`
	Results []bang.Scored `json:"results"`
}

func (h *handler) runSearch(raw string) searchResponse {
	q, results := h.reg.Search(raw)
	if q.Filters == nil {
		q.Filters = []bang.Filter{}
	}
	if q.Terms == nil {
		q.Terms = []string{}
	}
	if results == nil {
		results = []bang.Scored{}
	}
	return searchResponse{Query: q, Results: results}
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.runSearch(r.URL.Query().Get("q")))
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	res, err := h.reg.Resolve(r.URL.Query().Get("q"))
	switch {
	case errors.Is(err, bang.ErrEmptyQuery):
		http.Error(w, "missing query", http.StatusBadRequest)
	case errors.Is(err, bang.ErrUnresolved):
		suggestions := h.reg.Suggest(res.Candidate)
		if suggestions == nil {
			suggestions = []string{}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":       unresolvedMessage(res.Candidate),
			"candidate":   res.Candidate,
			"suggestions": suggestions,
		})
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *handler) info(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"searchURL": fmt.Sprintf("%s://%s/?q=%%s", scheme, r.Host),
		"count":     len(h.reg.Records()),
		"default":   h.reg.Default(),
		"remote":    h.reg.HasRemote(),
		"updatedAt": h.reg.UpdatedAt(),
		"recent":    h.reg.RecentlyUsed(),
	})
}

func (h *handler) sync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		http.Error(w, syncer.ErrNoRemote.Error(), http.StatusServiceUnavailable)
		return
	}
	action, err := h.syncer.Sync(r.Context())
	if err != nil {
		h.log.Warn("sync failed", zap.Error(err))
		http.Error(w, "sync failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"action":    action,
		"updatedAt": h.reg.UpdatedAt(),
	})
}
