package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"plapulse/internal/dataset"
	apierrors "plapulse/internal/errors"
	"plapulse/internal/fetch"
	"plapulse/internal/services"
)

// DataHandler handles dataset-related HTTP requests.
type DataHandler struct {
	service  DataServiceInterface
	logger   *slog.Logger
	validate *validator.Validate
}

// NewDataHandler creates a new data handler.
func NewDataHandler(service DataServiceInterface, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "data_handler")),
		validate: validator.New(),
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/query", h.Query)
	r.Get("/diagnostics", h.GetDiagnostics)
	r.Get("/export/csv", h.ExportCSV)
	r.Get("/export/xlsx", h.ExportXLSX)

	r.Route("/load/{kind}", func(r chi.Router) {
		r.Use(h.KindCtx)
		r.Post("/", h.LoadDataset)
	})

	return r
}

// queryParams is the validated shape of the query-style endpoints.
type queryParams struct {
	Kind string `validate:"required,oneof=comprehensive strait-transit"`
	From string `validate:"required"`
	To   string `validate:"required"`
}

// KindCtx validates the {kind} URL parameter.
func (h *DataHandler) KindCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind := dataset.Kind(chi.URLParam(r, "kind"))
		if !kind.Valid() {
			render.Render(w, r, apierrors.NewErrorResponse(
				apierrors.ErrValidation("kind", fmt.Sprintf("unknown dataset kind %q", kind))))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoadDataset handles POST /api/data/load/{kind}. It replaces the kind's
// table wholesale and returns the load diagnostics report.
func (h *DataHandler) LoadDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := dataset.Kind(chi.URLParam(r, "kind"))

	diags, err := h.service.LoadDataset(ctx, kind)
	if err != nil {
		h.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":      "success",
		"diagnostics": diags,
	})
}

// Query handles GET /api/data/query?kind=&from=&to=.
func (h *DataHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, from, to, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	result, err := h.service.Query(ctx, kind, from, to)
	if err != nil {
		if !errors.Is(err, services.ErrQuerySuperseded) {
			h.logger.ErrorContext(ctx, "query failed",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
		}
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"records": result.Records,
		"stats":   result.Stats,
		"count":   len(result.Records),
	})
}

// GetDiagnostics handles GET /api/data/diagnostics?kind=.
func (h *DataHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	kind := dataset.Kind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		render.Render(w, r, apierrors.NewErrorResponse(
			apierrors.ErrValidation("kind", fmt.Sprintf("unknown dataset kind %q", kind))))
		return
	}

	diags, err := h.service.Diagnostics(kind)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":      "success",
		"diagnostics": diags,
	})
}

// ExportCSV handles GET /api/data/export/csv?kind=&from=&to= and returns
// a downloadable canonical CSV attachment.
func (h *DataHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/csv; charset=utf-8", h.service.ExportCSV)
}

// ExportXLSX handles GET /api/data/export/xlsx?kind=&from=&to=.
func (h *DataHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", h.service.ExportXLSX)
}

// exportFunc is the shared shape of the service export methods.
type exportFunc func(ctx context.Context, kind dataset.Kind, from, to dataset.Date) ([]byte, string, error)

func (h *DataHandler) export(w http.ResponseWriter, r *http.Request, contentType string, run exportFunc) {
	ctx := r.Context()

	kind, from, to, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	data, filename, err := run(ctx, kind, from, to)
	if err != nil {
		h.logger.ErrorContext(ctx, "export failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		h.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// parseWindow validates the kind/from/to query parameters shared by the
// query and export endpoints.
func (h *DataHandler) parseWindow(w http.ResponseWriter, r *http.Request) (dataset.Kind, dataset.Date, dataset.Date, bool) {
	q := r.URL.Query()
	params := queryParams{
		Kind: q.Get("kind"),
		From: q.Get("from"),
		To:   q.Get("to"),
	}

	if err := h.validate.Struct(params); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(
			apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error())))
		return "", dataset.Date{}, dataset.Date{}, false
	}

	from, err := dataset.ParseDate(params.From)
	if err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrValidation("from", err.Error())))
		return "", dataset.Date{}, dataset.Date{}, false
	}
	to, err := dataset.ParseDate(params.To)
	if err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrValidation("to", err.Error())))
		return "", dataset.Date{}, dataset.Date{}, false
	}

	return dataset.Kind(params.Kind), from, to, true
}

// renderError maps service and engine errors onto API errors.
func (h *DataHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrQuerySuperseded):
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrQuerySuperseded))
	case errors.Is(err, dataset.ErrNotLoaded):
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrDatasetNotLoaded))
	case errors.Is(err, dataset.ErrUnknownKind):
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrDatasetUnknown))
	case errors.Is(err, fetch.ErrUnavailable):
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.DatasetUnavailableError(err)))
	default:
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInternalServer))
	}
}
