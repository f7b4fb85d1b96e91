package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"guestlist/internal/report/models"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/platform/httputil"
	"guestlist/pkg/requestcontext"
)

const MsgSent = "Enviado."

// Service defines the report channel operations exposed over HTTP.
type Service interface {
	Report(ctx context.Context, req models.ReportRequest) (*models.ErrorReport, error)
	List(ctx context.Context) ([]*models.ErrorReport, error)
}

// Handler wires error report endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts report endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/report-error", h.HandleReportError)
	r.Get("/get-errors", h.HandleGetErrors)
}

// HandleReportError handles POST /report-error.
func (h *Handler) HandleReportError(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.ReportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if _, err := h.service.Report(ctx, *req); err != nil {
		h.logFailure(ctx, "error report rejected", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, MsgSent)
}

// HandleGetErrors handles GET /get-errors.
func (h *Handler) HandleGetErrors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reports, err := h.service.List(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list error reports", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reports)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
