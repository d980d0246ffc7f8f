package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/newthinker/compass/internal/api/job"
	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/app"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/core"
	"go.uber.org/zap"
)

// JobTypeValidate labels validation jobs.
const JobTypeValidate = "validate"

// ValidateRequest is the request body for starting a validation run.
type ValidateRequest struct {
	Coin string `json:"coin"`
	Days int    `json:"days"`
}

// ValidateService defines what the handler needs from app.Service.
type ValidateService interface {
	Validate(ctx context.Context, req app.ValidateRequest) (*backtest.Report, error)
}

// JobObserver is told how many jobs of a type are active.
type JobObserver func(jobType string, active int)

// ValidateHandler runs validations as async jobs.
type ValidateHandler struct {
	jobStore *job.Store
	svc      ValidateService
	baseCtx  context.Context
	observe  JobObserver
	logger   *zap.Logger
}

// NewValidateHandler creates a new validate handler. Jobs run under
// baseCtx, so cancelling it stops running validations.
func NewValidateHandler(baseCtx context.Context, jobStore *job.Store, svc ValidateService, observe JobObserver, logger *zap.Logger) *ValidateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidateHandler{
		jobStore: jobStore,
		svc:      svc,
		baseCtx:  baseCtx,
		observe:  observe,
		logger:   logger,
	}
}

// Create starts a new validation job.
func (h *ValidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidInput, err))
		return
	}

	if req.Coin == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, errors.New("coin is required")))
		return
	}
	if req.Days < 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, errors.New("days must not be negative")))
		return
	}

	j := h.jobStore.Create(JobTypeValidate)

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	h.notify()
	go h.run(jobID, req)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

// run executes the validation and updates job status.
func (h *ValidateHandler) run(jobID string, req ValidateRequest) {
	defer h.notify()

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	report, err := h.svc.Validate(h.baseCtx, app.ValidateRequest{
		Coin: req.Coin,
		Days: req.Days,
		Progress: func(done, total int) {
			if total <= 0 {
				return
			}
			pct := done * 100 / total
			h.jobStore.Update(jobID, func(j *job.Job) { j.Progress = pct })
		},
	})

	if err != nil {
		h.logger.Warn("validation job failed", zap.String("job_id", jobID), zap.Error(err))
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = report
	})
}

func (h *ValidateHandler) notify() {
	if h.observe != nil {
		h.observe(JobTypeValidate, h.jobStore.Active(JobTypeValidate))
	}
}

// GetStatus returns the status of a job.
func (h *ValidateHandler) GetStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	j, err := h.jobStore.Get(jobID)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"type":     j.Type,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

func asCoreError(err error) *core.Error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return core.WrapError(ce, err)
	}
	return core.WrapError(core.ErrValidationFailed, err)
}
