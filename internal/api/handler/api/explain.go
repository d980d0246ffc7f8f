package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/app"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/storage/explanation"
)

const defaultListLimit = 50

// ExplainService defines what the handler needs from app.Service.
type ExplainService interface {
	Explain(ctx context.Context, req app.ExplainRequest) (*explanation.Entry, error)
	Explanations(ctx context.Context, filter explanation.ListFilter) ([]explanation.Entry, int, error)
	Explanation(ctx context.Context, id string) (*explanation.Entry, error)
}

// ExplainHandler handles explanation API requests.
type ExplainHandler struct {
	svc ExplainService
}

// NewExplainHandler creates a new explain handler.
func NewExplainHandler(svc ExplainService) *ExplainHandler {
	return &ExplainHandler{svc: svc}
}

// Explain explains a coin's movement synchronously.
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req app.ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidInput, err))
		return
	}

	entry, err := h.svc.Explain(r.Context(), req)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, entry)
}

// List returns stored explanations matching query parameters.
func (h *ExplainHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := explanation.ListFilter{
		Coin:     q.Get("coin"),
		Movement: core.MovementType(q.Get("movement")),
		Limit:    defaultListLimit,
	}

	if from := q.Get("from"); from != "" {
		t, err := parseTime(from)
		if err != nil {
			response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidInput, err))
			return
		}
		filter.From = t
	}

	if to := q.Get("to"); to != "" {
		t, err := parseTime(to)
		if err != nil {
			response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidInput, err))
			return
		}
		filter.To = t
	}

	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	entries, total, err := h.svc.Explanations(r.Context(), filter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"explanations": entries,
		"total":        total,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

// GetByID returns a single explanation by ID.
func (h *ExplainHandler) GetByID(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := h.svc.Explanation(r.Context(), id)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, entry)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
