package api

import (
	"encoding/json"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"bangd/live"
	"bangd/registry"
	"bangd/syncer"
)

// RegisterRoutes builds the HTTP surface. sy may be nil when no remote
// store is configured.
func RegisterRoutes(reg *registry.Registry, lm *live.Manager, sy *syncer.Syncer, staticFS fs.FS, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{reg: reg, live: lm, syncer: sy, log: log}

	// Store changes re-push results to every live search client.
	reg.Subscribe(lm.Broadcast)

	// Static sub-FS: strip the "static/" prefix when staticFS is a tree
	// that contains it. A directory passed with --static-dir is already
	// rooted at the pages, so probe index.html to tell the two apart.
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		staticSub = staticFS
	} else if _, statErr := fs.Stat(staticSub, "index.html"); statErr != nil {
		staticSub = staticFS
	}

	// The browser's search URL lands here: /?q=!gh cats
	r.Get("/", h.index(serveFile(staticSub, "index.html")))

	r.Route("/api", func(r chi.Router) {
		r.Get("/bangs", h.listBangs)
		r.Post("/bangs", h.createBang)
		r.Get("/bangs/{id}", h.getBang)
		r.Put("/bangs/{id}", h.updateBang)
		r.Delete("/bangs/{id}", h.deleteBang)

		r.Get("/search", h.search)
		r.Get("/resolve", h.resolve)
		r.Get("/default", h.getDefault)
		r.Put("/default", h.putDefault)
		r.Get("/info", h.info)
		r.Post("/sync", h.sync)

		r.Get("/live", h.handleWS)
		r.Get("/live/sessions", h.listSessions)
		r.Delete("/live/sessions/{id}", h.removeSession)
	})

	fileServer := http.FileServer(http.FS(staticSub))
	r.Get("/css/*", fileServer.ServeHTTP)
	r.Get("/js/*", fileServer.ServeHTTP)

	return r
}

// serveFile returns a handler that reads a single file from fsys and sends it.
func serveFile(fsys fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}
}

type handler struct {
	reg    *registry.Registry
	live   *live.Manager
	syncer *syncer.Syncer
	log    *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
