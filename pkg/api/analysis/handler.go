// Package analysis exposes the analysis pipeline over HTTP: run submission,
// job status polling, and cached context retrieval.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"finaudit/pkg/core/faults"
	"finaudit/pkg/core/pipeline"
	"finaudit/pkg/core/store"
)

// Job tracks one background analysis run.
type Job struct {
	ID         string    `json:"id"`
	Entity     string    `json:"entity"`
	Status     string    `json:"status"` // running | completed | failed
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Handler holds dependencies for analysis endpoints.
type Handler struct {
	Runner *pipeline.Runner
	Cache  *store.ContextCache

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewHandler creates an analysis handler.
func NewHandler(runner *pipeline.Runner, cache *store.ContextCache) *Handler {
	return &Handler{Runner: runner, Cache: cache, jobs: make(map[string]*Job)}
}

type runRequest struct {
	Company string `json:"company"`
}

type runResponse struct {
	JobID string `json:"job_id"`
}

// HandleRun starts a background analysis run and returns its job id.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Company == "" {
		http.Error(w, "company is required", http.StatusBadRequest)
		return
	}

	job := &Job{
		ID:        uuid.New().String(),
		Entity:    req.Company,
		Status:    "running",
		StartedAt: time.Now(),
	}
	h.mu.Lock()
	h.jobs[job.ID] = job
	h.mu.Unlock()

	// The run outlives the request; cancellation is the run's own timeout.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		_, err := h.Runner.RunFullAnalysis(ctx, job.Entity)
		h.mu.Lock()
		defer h.mu.Unlock()
		job.FinishedAt = time.Now()
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
			job.ErrorKind = string(faults.KindOf(err))
			log.Error().Str("entity", job.Entity).Err(err).Msg("background analysis failed")
			return
		}
		job.Status = "completed"
	}()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runResponse{JobID: job.ID})
}

// HandleStatus reports a job's state.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	job, ok := h.jobs[id]
	var snapshot Job
	if ok {
		snapshot = *job
	}
	h.mu.Unlock()

	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// HandleContext returns the cached analysis context for a company.
func (h *Handler) HandleContext(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	company := r.URL.Query().Get("company")
	if company == "" {
		http.Error(w, "Missing 'company' query parameter", http.StatusBadRequest)
		return
	}

	actx := h.Cache.Get(company)
	if actx == nil {
		http.Error(w, fmt.Sprintf("No analysis context for %s", company), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(actx)
}

// HandleEntities lists companies with a cached analysis.
func (h *Handler) HandleEntities(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"entities": h.Cache.Entities()})
}
