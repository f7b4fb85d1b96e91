package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"guestlist/internal/export/service"
	"guestlist/pkg/platform/httputil"
	"guestlist/pkg/requestcontext"
)

// Service renders the printable guest list.
type Service interface {
	GuestListPDF(ctx context.Context) (*service.Result, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/download-pdf", h.HandleDownloadPDF)
}

// HandleDownloadPDF handles GET /download-pdf.
func (h *Handler) HandleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.GuestListPDF(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "guest list export failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}
