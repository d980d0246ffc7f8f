package api

import (
	"context"
	"net/http"

	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/storage/archive"
)

// ReportService defines what the handler needs from app.Service.
type ReportService interface {
	Reports(ctx context.Context, coin string) ([]archive.ReportSummary, error)
	Report(ctx context.Context, coin, id string) (*backtest.Report, error)
}

// ReportsHandler serves archived validation reports.
type ReportsHandler struct {
	svc ReportService
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(svc ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// List returns archived report summaries, optionally for one coin.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.Reports(r.Context(), r.URL.Query().Get("coin"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"reports": summaries,
		"total":   len(summaries),
	})
}

// Get returns one archived report. ?format=text renders it as plain text.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request, coin, id string) {
	report, err := h.svc.Report(r.Context(), coin, id)
	if err != nil {
		response.Fail(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(backtest.RenderText(report)))
		return
	}

	response.JSON(w, http.StatusOK, report)
}
