package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/compass/internal/api/job"
	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/app"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockValidateService struct {
	err error
}

func (m *mockValidateService) Validate(ctx context.Context, req app.ValidateRequest) (*backtest.Report, error) {
	if m.err != nil {
		return nil, m.err
	}
	if req.Progress != nil {
		req.Progress(1, 2)
		req.Progress(2, 2)
	}
	return &backtest.Report{
		ID:               "report-1",
		Coin:             req.Coin,
		TotalPredictions: 2,
		AccuracyRate:     0.5,
	}, nil
}

func waitForJob(t *testing.T, store *job.Store, id string) *job.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := store.Get(id)
		require.NoError(t, err)
		if j.Status.Done() {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

func createJob(t *testing.T, handler *ValidateHandler, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/validate", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	var resp struct {
		Data map[string]any `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	id, _ := resp.Data["job_id"].(string)
	return w.Code, id
}

func TestValidateHandler_Create(t *testing.T) {
	store := job.NewStore(100, time.Hour)

	var mu sync.Mutex
	var observed []int
	observe := func(jobType string, active int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, JobTypeValidate, jobType)
		observed = append(observed, active)
	}

	handler := NewValidateHandler(context.Background(), store, &mockValidateService{}, observe, nil)

	code, id := createJob(t, handler, `{"coin": "BTC", "days": 7}`)
	require.Equal(t, http.StatusAccepted, code)
	require.NotEmpty(t, id)

	j := waitForJob(t, store, id)
	assert.Equal(t, job.StatusComplete, j.Status)
	assert.Equal(t, 100, j.Progress)

	report, ok := j.Result.(*backtest.Report)
	require.True(t, ok)
	assert.Equal(t, "BTC", report.Coin)

	// the observer runs after the final update
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(observed) == 2
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int{1, 0}, observed)
	mu.Unlock()
}

func TestValidateHandler_Create_MissingCoin(t *testing.T) {
	handler := NewValidateHandler(context.Background(), job.NewStore(100, time.Hour), &mockValidateService{}, nil, nil)

	code, _ := createJob(t, handler, `{"days": 7}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = createJob(t, handler, `{"coin": "BTC", "days": -1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = createJob(t, handler, `nope`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestValidateHandler_Failed(t *testing.T) {
	store := job.NewStore(100, time.Hour)
	svc := &mockValidateService{err: core.WrapError(core.ErrInsufficientHistory, nil)}
	handler := NewValidateHandler(context.Background(), store, svc, nil, nil)

	_, id := createJob(t, handler, `{"coin": "BTC"}`)
	j := waitForJob(t, store, id)

	assert.Equal(t, job.StatusFailed, j.Status)
	require.NotNil(t, j.Error)
	assert.Equal(t, "INSUFFICIENT_HISTORY", j.Error.Code)

	req := httptest.NewRequest("GET", "/api/v1/jobs/"+id, nil)
	w := httptest.NewRecorder()
	handler.GetStatus(w, req, id)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Data["status"])
	errBody := resp.Data["error"].(map[string]any)
	assert.Equal(t, "INSUFFICIENT_HISTORY", errBody["code"])
}

func TestValidateHandler_GetStatus_NotFound(t *testing.T) {
	handler := NewValidateHandler(context.Background(), job.NewStore(100, time.Hour), &mockValidateService{}, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/jobs/nope", nil)
	w := httptest.NewRecorder()
	handler.GetStatus(w, req, "nope")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}
