package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bangd/bang"
)

func (h *handler) listBangs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, h.reg.Records())
		return
	}
	_, scored := h.reg.Search(q)
	records := make([]bang.Record, len(scored))
	for i, s := range scored {
		records[i] = s.Record
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) getBang(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.reg.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "bang not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) createBang(w http.ResponseWriter, r *http.Request) {
	var rec bang.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	added, err := h.reg.Add(r.Context(), rec)
	if err != nil {
		h.mutationError(w, "add", err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *handler) updateBang(w http.ResponseWriter, r *http.Request) {
	var rec bang.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.reg.Update(r.Context(), chi.URLParam(r, "id"), rec)
	if err != nil {
		h.mutationError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteBang(w http.ResponseWriter, r *http.Request) {
	if _, err := h.reg.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.mutationError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getDefault(w http.ResponseWriter, r *http.Request) {
	key := h.reg.Default()
	resp := struct {
		Key  string       `json:"key"`
		Bang *bang.Record `json:"bang,omitempty"`
	}{Key: key}
	if rec, ok := h.reg.Find(key); ok {
		resp.Bang = &rec
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) putDefault(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.reg.SetDefault(req.Key); err != nil {
		h.mutationError(w, "set default", err)
		return
	}
	h.getDefault(w, r)
}

// mutationError maps registry errors to status codes.
func (h *handler) mutationError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, bang.ErrNotFound):
		http.Error(w, "bang not found", http.StatusNotFound)
	case errors.Is(err, bang.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error("bang mutation failed", zap.String("op", op), zap.Error(err))
		http.Error(w, "failed to "+op+" bang", http.StatusInternalServerError)
	}
}
