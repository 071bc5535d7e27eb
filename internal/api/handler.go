// Package api implements the HTTP surface of the ingestion service.
//
// Routes:
//
//	GET  /health?stage=             → liveness plus the current pipeline stage;
//	                                  503 when stage is given and differs
//	GET  /metrics                   → Prometheus exposition
//	POST /runs?dryRun=&force=       → run ingestion now and return its summary
//	GET  /runs/latest               → latest recorded run for today's batch
//	POST /sweeps?dryRun=            → run the migration sweep now
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"jobmate/ingestion-service/internal/ingest"
	"jobmate/ingestion-service/internal/model"
	"jobmate/ingestion-service/internal/runner"
	"jobmate/ingestion-service/internal/store"
	"jobmate/ingestion-service/internal/sweep"
)

// Pipeline is what the handler drives.
type Pipeline interface {
	Ingest(ctx context.Context, req runner.Request) (ingest.Result, error)
	Sweep(ctx context.Context, dryRun bool) (sweep.Result, error)
	Latest(ctx context.Context) (model.BatchRun, error)
	Stage() ingest.Stage
}

// Handler holds shared dependencies.
type Handler struct {
	pipeline Pipeline
	metrics  http.Handler
	version  string
}

// NewHandler returns a configured Handler. metrics may be nil.
func NewHandler(p Pipeline, metrics http.Handler, version string) *Handler {
	return &Handler{pipeline: p, metrics: metrics, version: version}
}

// RegisterRoutes mounts all ingestion-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/runs", h.handleRuns)
	mux.HandleFunc("/runs/latest", h.handleLatest)
	mux.HandleFunc("/sweeps", h.handleSweeps)
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics)
	}
}

// ─── Route handlers ───────────────────────────────────────────────────────────

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cur := h.pipeline.Stage()
	body := map[string]any{
		"status":  "ok",
		"service": "ingestion-service",
		"version": h.version,
		"stage":   string(cur),
		"writing": ingest.IsWriting(cur),
	}

	// ?stage=IDLE lets a deploy wait until no run is in flight.
	if raw := r.URL.Query().Get("stage"); raw != "" {
		want, err := ingest.ParseStage(raw)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if cur != want {
			body["status"] = "waiting"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	jsonOK(w, body)
}

// handleRuns handles POST /runs
func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dryRun, err := boolParam(r, "dryRun")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	force, err := boolParam(r, "force")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The run outlives a disconnected client; it is recorded either way.
	res, err := h.pipeline.Ingest(context.WithoutCancel(r.Context()), runner.Request{DryRun: dryRun, Force: force})
	if err != nil {
		writeRunError(w, "run", err)
		return
	}
	jsonOK(w, res)
}

// handleLatest handles GET /runs/latest
func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	run, err := h.pipeline.Latest(r.Context())
	if err != nil {
		writeRunError(w, "latest", err)
		return
	}
	jsonOK(w, run)
}

// handleSweeps handles POST /sweeps
func (h *Handler) handleSweeps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dryRun, err := boolParam(r, "dryRun")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.pipeline.Sweep(context.WithoutCancel(r.Context()), dryRun)
	if err != nil {
		writeRunError(w, "sweep", err)
		return
	}
	jsonOK(w, res)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func boolParam(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", name, s)
	}
	return v, nil
}

func writeRunError(w http.ResponseWriter, op string, err error) {
	var cfgErr *ingest.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		jsonError(w, cfgErr.Error(), http.StatusBadRequest)
	case errors.Is(err, runner.ErrBusy):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, "no run recorded for today's batch", http.StatusNotFound)
	default:
		log.Printf("[ingestion] %s error: %v", op, err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
