package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/lazypower/memboost/internal/procs"
	"github.com/lazypower/memboost/internal/reclaim"
	"github.com/lazypower/memboost/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.collector.Read()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	n := 10
	if q := r.URL.Query().Get("n"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid n")
			return
		}
		n = parsed
	}

	records, err := s.procs.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, procs.TopN(records, n))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	// Default window: the last 24 hours.
	to := time.Now().Add(time.Minute)
	from := to.Add(-24 * time.Hour)

	if q := r.URL.Query().Get("from"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from: "+err.Error())
			return
		}
		from = t
	}
	if q := r.URL.Query().Get("to"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to: "+err.Error())
			return
		}
		to = t
	}

	events, err := s.db.Query(from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleBoost triggers a manual boost through the same serialized entry
// point the monitor uses. Termination over HTTP is never forced and
// never interactively confirmed: only auto-eligible candidates act.
func (s *Server) handleBoost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Terminate bool `json:"terminate"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}

	// A client disconnect must not truncate an in-flight reclaim.
	res, err := s.orch.Boost(context.WithoutCancel(r.Context()), reclaim.Options{
		Trigger:        store.TriggerManual,
		AllowTerminate: req.Terminate,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{"event": res.Event}
	if res.LogErr != nil {
		// The boost result stands even when logging failed.
		resp["log_error"] = res.LogErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
