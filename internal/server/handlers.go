package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/internal/notifier"
	"github.com/leapstack-labs/polyscan/internal/state"
	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// defaultListLimit caps GET /runs when no limit is given.
const defaultListLimit = 50

// Handlers provides the HTTP handlers of the run API.
type Handlers struct {
	ctx      context.Context
	engine   *engine.Engine
	store    core.Store
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance. Runs it starts are bound
// to ctx.
func NewHandlers(ctx context.Context, eng *engine.Engine, store core.Store, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		ctx:      ctx,
		engine:   eng,
		store:    store,
		notifier: notify,
		logger:   logger,
	}
}

// VariableList accepts either a JSON array or a comma-separated string.
type VariableList []string

// UnmarshalJSON implements json.Unmarshaler.
func (v *VariableList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("variables must be a list or a comma-separated string")
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	*v = parts
	return nil
}

// StartRequest is the body of POST /runs.
type StartRequest struct {
	Expression string       `json:"expression"`
	Variables  VariableList `json:"variables"`
	NStart     int64        `json:"n_start"`
	NEnd       int64        `json:"n_end"`
	Radius     int64        `json:"radius"`
}

// StartResponse is returned when a run was accepted.
type StartResponse struct {
	ID    string `json:"id"`
	Total int64  `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StartRun starts a search. Parameters are checked up front so clients
// get a 400 instead of a failed run.
func (h *Handlers) StartRun(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	p := engine.Params{
		Expression: req.Expression,
		Variables:  req.Variables,
		NStart:     req.NStart,
		NEnd:       req.NEnd,
		Radius:     req.Radius,
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := expression.Compile(p.Expression, p.Variables, expression.WithBackend(h.engine.Evaluator())); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	run, err := h.engine.Start(h.ctx, p)
	if errors.Is(err, engine.ErrRunActive) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	go h.forward(run)

	w.Header().Set("Location", "/runs/"+run.ID())
	writeJSON(w, http.StatusAccepted, StartResponse{ID: run.ID(), Total: p.Total()})
}

// forward drains the run's events into the notifier.
func (h *Handlers) forward(run *engine.Run) {
	total := run.Params().Total()
	for ev := range run.Events() {
		u := notifier.Update{
			RunID:     run.ID(),
			Kind:      ev.Kind.String(),
			Processed: run.Processed(),
			Total:     total,
		}
		if ev.Kind == engine.EventFinished || ev.Kind == engine.EventError {
			u.Status = string(ev.Status)
		}
		h.notifier.Broadcast(u)
	}
	status, err := run.Wait()
	h.logger.Debug("run forwarded", "run_id", run.ID(), "status", status, "error", err)
}

// StopRun requests a stop of the active run.
func (h *Handlers) StopRun(w http.ResponseWriter, _ *http.Request) {
	run := h.engine.Active()
	if run == nil || !h.engine.Stop() {
		writeError(w, http.StatusNotFound, errors.New("no active run"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": run.ID(), "status": "stopping"})
}

// ListRuns lists archived runs, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for i, run := range runs {
		runs[i] = h.withLiveState(run)
	}
	if runs == nil {
		runs = []*core.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one run. The active run reports live progress.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")

	run, err := h.store.GetRun(id)
	if err != nil {
		if active := h.engine.Active(); active != nil && active.ID() == id {
			writeJSON(w, http.StatusOK, active.Snapshot(string(h.engine.Evaluator())))
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.withLiveState(run))
}

// GetRecords returns the archived records of a run in ascending n.
func (h *Handlers) GetRecords(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")

	if _, err := h.store.GetRun(id); err != nil {
		writeStoreError(w, err)
		return
	}
	records, err := h.store.GetRecords(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []core.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Events streams run updates as server-sent events until the client
// disconnects or the server shuts down.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	updates, cancel := h.notifier.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(u)
			if err != nil {
				h.logger.Warn("failed to encode update", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", u.Kind, data)
			flusher.Flush()
		}
	}
}

// withLiveState overlays the progress of the active run on its row.
func (h *Handlers) withLiveState(run *core.Run) *core.Run {
	active := h.engine.Active()
	if active == nil || active.ID() != run.ID {
		return run
	}
	run.Status = active.State()
	run.Processed = active.Processed()
	return run
}

func (h *Handlers) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("result archive is disabled"))
		return false
	}
	return true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, state.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
