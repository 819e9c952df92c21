package api

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"bangd/live"
)

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.live.List()
	infos := make([]live.Info, len(sessions))
	for i, s := range sessions {
		infos[i] = s.Info()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.Before(infos[j].CreatedAt) })
	writeJSON(w, http.StatusOK, infos)
}

func (h *handler) removeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.live.Remove(id); err != nil {
		if errors.Is(err, live.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to remove session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
