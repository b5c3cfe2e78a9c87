package runs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/core/runlog"
	"github.com/evopti/chargepilot/core/sim"
)

// Controller is the slice of the control loop the API needs.
type Controller interface {
	Start(ctx context.Context, mode model.RunMode) (string, error)
	Abort()
	Status() model.RunStatus
}

type handler struct {
	// ctx bounds runs started over the API. It must be the service
	// context, not a request context: the run outlives the request
	// that started it.
	ctx   context.Context
	ctrl  Controller
	store runlog.Store
	token string
}

// NewHandler returns an HTTP handler exposing run control under
// /api/runs. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewHandler(ctx context.Context, ctrl Controller, store runlog.Store, token string) http.Handler {
	if store == nil {
		store = runlog.NopStore{}
	}
	h := &handler{ctx: ctx, ctrl: ctrl, store: store, token: token}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", h.handleRuns)
	mux.HandleFunc("/api/runs/current", h.handleCurrent)
	mux.HandleFunc("/api/runs/history", h.handleHistory)
	return h.authorized(mux)
}

func (h *handler) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type startRequest struct {
	Mode string `json:"mode"`
}

type startResponse struct {
	RunID string `json:"run_id"`
	Mode  string `json:"mode"`
	State string `json:"state"`
}

func (h *handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := model.ParseRunMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.ctrl.Start(h.ctx, mode)
	if errors.Is(err, sim.ErrRunActive) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, startResponse{
		RunID: id,
		Mode:  mode.String(),
		State: model.StateRunning.String(),
	})
}

func (h *handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctrl.Status())
	case http.MethodDelete:
		h.ctrl.Abort()
		writeJSON(w, http.StatusAccepted, h.ctrl.Status())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleHistory serves recent run-log records, oldest first. from/to
// are RFC3339; limit keeps only the most recent N records.
func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var from, to time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			from = t
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			to = t
		}
	}
	records, err := h.store.Query(r.Context(), from, to, r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(records) {
			records = records[len(records)-n:]
		}
	}
	if records == nil {
		records = []runlog.RunRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
