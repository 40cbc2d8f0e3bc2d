package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"SheetMailer/internal/models"
	"SheetMailer/internal/pipeline"
	"SheetMailer/internal/scheduler"
)

type Pipeline interface {
	Run(ctx context.Context) (*models.RunSummary, error)
	Preview(ctx context.Context) *pipeline.Preview
	ValidateConfiguration(ctx context.Context) []string
	Status(ctx context.Context) pipeline.ProcessingStatus
}

type Scheduler interface {
	Start(minutes int) bool
	Stop() bool
	UpdateInterval(minutes int) bool
	Interval() int
	State() scheduler.State
	TriggerNow(ctx context.Context) (*models.RunSummary, error)
}

type Handler struct {
	Pipeline  Pipeline
	Scheduler Scheduler
	Log       *zap.Logger
}

type intervalRequest struct {
	Interval int `json:"interval"`
}

type controlResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	State   scheduler.State `json:"state"`
}

// Process runs the pipeline synchronously and returns the run summary.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Pipeline.Run(r.Context())
	if err != nil {
		h.runError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Pipeline.Preview(r.Context()))
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	issues := h.Pipeline.ValidateConfiguration(r.Context())
	if issues == nil {
		issues = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ready":  len(issues) == 0,
		"issues": issues,
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.Pipeline.Status(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"processing":    st.Processing,
		"authenticated": st.Authenticated,
		"scheduler":     h.Scheduler.State(),
	})
}

func (h *Handler) SchedulerState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Scheduler.State())
}

// StartScheduler accepts an optional {"interval": n}; the current interval
// is used when omitted.
func (h *Handler) StartScheduler(w http.ResponseWriter, r *http.Request) {
	req := intervalRequest{Interval: h.Scheduler.Interval()}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	ok := h.Scheduler.Start(req.Interval)
	h.control(w, ok, "scheduler started", "scheduler is already active or the interval is invalid")
}

func (h *Handler) StopScheduler(w http.ResponseWriter, r *http.Request) {
	ok := h.Scheduler.Stop()
	h.control(w, ok, "scheduler stopped", "scheduler is not active")
}

func (h *Handler) UpdateInterval(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ok := h.Scheduler.UpdateInterval(req.Interval)
	h.control(w, ok, "interval updated", "interval must be at least 1 minute")
}

// Trigger is the hook for external schedulers and manual runs.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Scheduler.TriggerNow(r.Context())
	if err != nil {
		h.runError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) control(w http.ResponseWriter, ok bool, success, failure string) {
	resp := controlResponse{Success: ok, Message: success, State: h.Scheduler.State()}
	status := http.StatusOK
	if !ok {
		resp.Message = failure
		status = http.StatusConflict
	}
	writeJSON(w, status, resp)
}

func (h *Handler) runError(w http.ResponseWriter, err error) {
	var cfgErr *pipeline.ConfigurationError

	switch {
	case errors.Is(err, pipeline.ErrConcurrentRun):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
		})
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "configuration error",
			"issues": cfgErr.Issues,
		})
	default:
		h.Log.Error("email run failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
