package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tracelens/trace-diag/internal/diag"
	"github.com/tracelens/trace-diag/internal/models"
	"github.com/tracelens/trace-diag/internal/store"
)

// maxUploadBytes caps HAR payload size; captures beyond this are better
// split upstream than analysed in one pass.
const maxUploadBytes = 64 << 20

// AnalysisAPI is the service surface the handlers require.
type AnalysisAPI interface {
	AnalyzeHAR(ctx context.Context, payload []byte) (models.Report, error)
	GetReport(ctx context.Context, id string) (models.Report, error)
	ListReports(ctx context.Context, limit int) ([]models.ReportSummary, error)
	RecurringFindings(ctx context.Context, limit int) ([]models.RecurringFinding, error)
}

type handlers struct {
	logger  *slog.Logger
	service AnalysisAPI
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) analyze(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}
	if len(payload) == 0 {
		writeError(w, http.StatusBadRequest, "empty request body")
		return
	}

	report, err := h.service.AnalyzeHAR(r.Context(), payload)
	if err != nil {
		h.logger.Warn("analysis request failed", slog.Any("error", err))
		writeError(w, statusForAnalysisError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListReports(r.Context(), queryLimit(r, 50))
	if err != nil {
		h.logger.Error("list reports failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (h *handlers) getReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := h.service.GetReport(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		h.logger.Error("get report failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to fetch report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) recurring(w http.ResponseWriter, r *http.Request) {
	mined, err := h.service.RecurringFindings(r.Context(), queryLimit(r, 100))
	if err != nil {
		h.logger.Error("recurring findings failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to mine recurring findings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": mined})
}

// statusForAnalysisError maps engine failures onto HTTP semantics: the
// upload was received fine, the trace inside it was not analysable.
func statusForAnalysisError(err error) int {
	var malformed *diag.MalformedTraceError
	var unusable *diag.TraceUnusableError
	if errors.As(err, &malformed) || errors.As(err, &unusable) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout
	}
	return http.StatusBadRequest
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
