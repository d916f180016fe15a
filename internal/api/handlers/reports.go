package handlers

import (
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dohyunkim/moneytree/internal/api/middleware"
	"github.com/dohyunkim/moneytree/internal/domain"
	"github.com/dohyunkim/moneytree/internal/report"
)

// ReportsHandler handles the daily and monthly report endpoints.
type ReportsHandler struct {
	reports *report.Aggregator
	log     zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reports *report.Aggregator, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{reports: reports, log: log}
}

// reportQuery parses the branch/from/to query parameters shared by both
// report endpoints.
func reportQuery(r *http.Request) (branch string, from, to civil.Date, err error) {
	branch = r.URL.Query().Get("branch")
	if branch == "" {
		return "", civil.Date{}, civil.Date{}, domain.InvalidInputf("branch is required")
	}
	from, err = civil.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return "", civil.Date{}, civil.Date{}, domain.InvalidInputf("invalid date format, must be YYYY-MM-DD")
	}
	to, err = civil.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return "", civil.Date{}, civil.Date{}, domain.InvalidInputf("invalid date format, must be YYYY-MM-DD")
	}
	return branch, from, to, nil
}

// Daily handles GET /api/reports/daily?branch=&from=&to=.
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	branch, from, to, err := reportQuery(r)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	txs, err := h.reports.Daily(ctx, ownerID, branch, from, to)
	if err != nil {
		h.log.Error().Err(err).Int64("uid", ownerID).Str("branch", branch).Msg("daily report failed")
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"message": txs})
}

// Monthly handles GET /api/reports/monthly?branch=&from=&to=.
func (h *ReportsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	branch, from, to, err := reportQuery(r)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	summaries, err := h.reports.Monthly(ctx, ownerID, branch, from, to)
	if err != nil {
		h.log.Error().Err(err).Int64("uid", ownerID).Str("branch", branch).Msg("monthly report failed")
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"message": summaries})
}
