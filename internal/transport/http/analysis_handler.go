package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "labpulse/internal/errors"
	"labpulse/internal/exporter"
	mw "labpulse/internal/middleware"
	"labpulse/internal/services"
	api "labpulse/pkg/contracts/api/v1"
)

// exportFormat is the query's format, JSON unless asked otherwise.
func exportFormat(q api.AnalysisQuery) exporter.Format {
	if q.Format == "" {
		return exporter.FormatJSON
	}
	return exporter.Format(q.Format)
}

// AnalysisHandler serves the aggregation views as JSON or file downloads
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validation   *mw.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:      service,
		validation:   mw.NewValidationMiddleware(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "analysis_handler")),
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validation.ValidateRequest)

	r.Get("/status", h.GetStatus)
	r.Get("/profiles", h.GetProfiles)
	r.Get("/labs", h.GetLabs)

	r.Group(func(r chi.Router) {
		r.Use(h.QueryCtx)
		r.Get("/profile-summary", h.GetProfileSummary)
		r.Get("/lots", h.GetLotSummary)
		r.Get("/trend", h.GetTrend)
		r.Get("/weekly", h.GetWeeklyByLab)
		r.Get("/report", h.GetReport)
	})

	r.With(mw.AuditLog(h.logger)).Post("/reload", h.Reload)
	return r
}

type queryKey struct{}

// QueryCtx parses and validates the view query into the request context.
func (h *AnalysisHandler) QueryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		q := api.AnalysisQuery{
			Profile: values.Get("profile"),
			Lab:     values.Get("lab"),
			Format:  strings.ToLower(values.Get("format")),
			Period:  strings.ToLower(values.Get("period")),
		}
		if err := h.validation.ValidateStruct(q); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), queryKey{}, q)))
	})
}

func queryFrom(r *http.Request) api.AnalysisQuery {
	q, _ := r.Context().Value(queryKey{}).(api.AnalysisQuery)
	return q
}

// GetStatus handles GET /status
func (h *AnalysisHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.NewResponse(h.service.Status()))
}

// GetProfiles handles GET /profiles
func (h *AnalysisHandler) GetProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.Profiles(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, api.NewListResponse(profiles))
}

// GetLabs handles GET /labs
func (h *AnalysisHandler) GetLabs(w http.ResponseWriter, r *http.Request) {
	labs, err := h.service.Labs(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, api.NewListResponse(labs))
}

// GetProfileSummary handles GET /profile-summary. The CSV download is the
// per-lab table; XLSX carries the overall block too.
func (h *AnalysisHandler) GetProfileSummary(w http.ResponseWriter, r *http.Request) {
	q := queryFrom(r)
	res, ok, err := h.service.ProfileSummary(r.Context(), q.Filter())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if !ok {
		h.renderEmpty(w, r)
		return
	}

	h.respond(w, r, q, exporter.ReportProfile, res,
		[]exporter.Sheet{{Name: "Lab Summary", Table: res.Labs}},
		[]exporter.Sheet{{Name: "Overall", Table: res.Overall}, {Name: "Lab Summary", Table: res.Labs}})
}

// GetLotSummary handles GET /lots
func (h *AnalysisHandler) GetLotSummary(w http.ResponseWriter, r *http.Request) {
	q := queryFrom(r)
	res, ok, err := h.service.LotSummary(r.Context(), q.Filter())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if !ok {
		h.renderEmpty(w, r)
		return
	}

	h.respond(w, r, q, exporter.ReportLots, res,
		[]exporter.Sheet{{Name: "Lots", Table: res.Lots}},
		[]exporter.Sheet{{Name: "Lots", Table: res.Lots}, {Name: "Top 20 Lots", Table: res.TopLots}})
}

// GetTrend handles GET /trend. The CSV download holds the table named by
// period, monthly unless asked otherwise.
func (h *AnalysisHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	q := queryFrom(r)
	res, ok, err := h.service.Trend(r.Context(), q.Filter())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if !ok {
		h.renderEmpty(w, r)
		return
	}

	report := exporter.ReportMonthlyTrend
	csvSheets := []exporter.Sheet{{Name: "Monthly Trend", Table: res.Monthly}}
	if q.Period == "weekly" {
		report = exporter.ReportWeeklyTrend
		csvSheets = []exporter.Sheet{{Name: "Weekly Trend", Table: res.Weekly}}
	}

	h.respond(w, r, q, report, res, csvSheets,
		[]exporter.Sheet{{Name: "Monthly Trend", Table: res.Monthly}, {Name: "Weekly Trend", Table: res.Weekly}})
}

// GetWeeklyByLab handles GET /weekly
func (h *AnalysisHandler) GetWeeklyByLab(w http.ResponseWriter, r *http.Request) {
	q := queryFrom(r)
	table, ok, err := h.service.WeeklyByLab(r.Context(), q.Filter())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if !ok {
		h.renderEmpty(w, r)
		return
	}

	sheets := []exporter.Sheet{{Name: "Weekly Analysis", Table: table}}
	h.respond(w, r, q, exporter.ReportWeeklyByLab, table, sheets, sheets)
}

// GetReport handles GET /report, every view of the selection as JSON.
func (h *AnalysisHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	q := queryFrom(r)
	report, err := h.service.Report(r.Context(), q.Filter())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if report.Empty {
		h.renderEmpty(w, r)
		return
	}
	render.JSON(w, r, api.NewResponse(report))
}

// Reload handles POST /reload
func (h *AnalysisHandler) Reload(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.TryReload(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset reloaded",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("version", status.Version),
		slog.Int("records", status.Records))

	render.JSON(w, r, api.NewResponse(status))
}

// respond writes data as JSON or encodes it as a download. CSV takes a
// single table, XLSX one sheet per table.
func (h *AnalysisHandler) respond(w http.ResponseWriter, r *http.Request, q api.AnalysisQuery, report exporter.Report, data any, csvSheets, xlsxSheets []exporter.Sheet) {
	format := exportFormat(q)
	if format == exporter.FormatJSON {
		render.JSON(w, r, api.NewResponse(data))
		return
	}

	sheets := csvSheets
	if format == exporter.FormatXLSX {
		sheets = xlsxSheets
	}

	body, err := exporter.Encode(format, sheets...)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode export",
			slog.String("report", string(report)),
			slog.String("format", string(format)),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, apierrors.ErrExportFailed)
		return
	}

	mw.GetBusinessMetricsFromContext(r.Context()).RecordExport(r.Context(), string(report), string(format))

	name := exporter.FileName(report, q.Filter(), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *AnalysisHandler) renderEmpty(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.NewEmptyResponse())
}

// handleServiceError maps service sentinels to API errors.
func (h *AnalysisHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoDataset):
		h.errorHandler.HandleError(w, r, apierrors.ErrNoDataset)
	case errors.Is(err, services.ErrReloadInProgress):
		h.errorHandler.HandleError(w, r, apierrors.ErrReloadInProgress)
	case errors.Is(err, services.ErrNoInputFiles), errors.Is(err, services.ErrNoReadableFiles):
		h.errorHandler.HandleError(w, r, apierrors.LoadFailed(err))
	default:
		h.logger.ErrorContext(r.Context(), "analysis request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
	}
}
