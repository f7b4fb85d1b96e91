package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"guestlist/internal/guest/models"
	"guestlist/internal/guest/service"
	"guestlist/internal/platform/middleware"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/platform/httputil"
	"guestlist/pkg/platform/validation"
	"guestlist/pkg/requestcontext"
)

// Response messages.
const (
	MsgConfirmed     = "¡Confirmado!"
	MsgSaved         = "Guardado."
	MsgDeleted       = "Eliminado."
	MsgEmptyRegistry = "No se encontró nada en la base de datos"
	MsgInvalidType   = "Tipo de invitado inválido."
	MsgInvalidID     = "ID inválido."
)

// Guest list kinds accepted by GET /get-guests/{type}.
const (
	TypeLeader = "leader"
	TypeAll    = "all"
)

// Service defines the guest registry operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Guest, error)
	GetGroup(ctx context.Context, email string) ([]*models.Guest, error)
	Edit(ctx context.Context, id int64, name, lastname string, menu *string) (*models.Guest, error)
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context, query string) ([]*models.Guest, error)
	ListLeaders(ctx context.Context) ([]*models.Guest, error)
	ListCompanionsOf(ctx context.Context, leaderID int64) ([]*models.Guest, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
}

// Handler wires guest endpoints to the registry.
type Handler struct {
	service    Service
	logger     *slog.Logger
	sessions   middleware.SessionVerifier
	cookieName string
}

// New constructs a guest handler. Edit and delete routes are gated on the
// session cookie named cookieName.
func New(service Service, logger *slog.Logger, sessions middleware.SessionVerifier, cookieName string) *Handler {
	return &Handler{
		service:    service,
		logger:     logger,
		sessions:   sessions,
		cookieName: cookieName,
	}
}

// Register mounts guest endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/add-guest", h.HandleAddGuest)
	r.Get("/get-guests/{type}", h.HandleGetGuests)
	r.Get("/get-companions-of/{id}", h.HandleGetCompanions)
	r.Post("/get-group", h.HandleGetGroup)
	r.Get("/get-statistics", h.HandleGetStatistics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.sessions, h.cookieName, h.logger))
		r.Post("/update-guest", h.HandleUpdateGuest)
		r.Post("/delete-guest", h.HandleDeleteGuest)
	})
}

// HandleAddGuest handles POST /add-guest.
func (h *Handler) HandleAddGuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	g, err := h.service.Register(ctx, *req)
	if err != nil {
		h.writeError(ctx, w, "guest registration failed", err)
		return
	}

	h.logger.InfoContext(ctx, "guest registered",
		"request_id", requestID,
		"guest_id", g.ID,
		"role", g.Role(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteMessage(w, MsgConfirmed)
}

// HandleGetGuests handles GET /get-guests/{type}. Leaders are listed as
// summaries; "all" returns full records and accepts ?q= to search by name.
func (h *Handler) HandleGetGuests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch chi.URLParam(r, "type") {
	case TypeLeader:
		leaders, err := h.service.ListLeaders(ctx)
		if err != nil {
			h.writeError(ctx, w, "failed to list leaders", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, models.Summaries(leaders))
	case TypeAll:
		guests, err := h.service.ListAll(ctx, r.URL.Query().Get("q"))
		if err != nil {
			h.writeError(ctx, w, "failed to list guests", err)
			return
		}
		if len(guests) == 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, MsgEmptyRegistry))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, guests)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, MsgInvalidType))
	}
}

// HandleGetCompanions handles GET /get-companions-of/{id}.
func (h *Handler) HandleGetCompanions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leaderID, err := service.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, MsgInvalidID))
		return
	}

	companions, err := h.service.ListCompanionsOf(ctx, leaderID)
	if err != nil {
		h.writeError(ctx, w, "failed to list companions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.Summaries(companions))
}

// HandleGetGroup handles POST /get-group.
func (h *Handler) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.GroupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	group, err := h.service.GetGroup(ctx, req.Email)
	if err != nil {
		h.writeError(ctx, w, "failed to load group", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

// HandleGetStatistics handles GET /get-statistics.
func (h *Handler) HandleGetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Statistics(ctx)
	if err != nil {
		h.writeError(ctx, w, "failed to compute statistics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statisticEntries(stats))
}

// statisticEntries flattens stats into Total, one entry per menu in menu
// order, and the unspecified bucket last.
func statisticEntries(stats *models.Statistics) []models.StatisticEntry {
	entries := make([]models.StatisticEntry, 0, len(validation.Menus)+2)
	entries = append(entries, models.StatisticEntry{Name: "Total", Quantity: stats.Total})
	for _, menu := range validation.Menus {
		entries = append(entries, models.StatisticEntry{Name: menu, Quantity: stats.ByMenu[menu]})
	}
	return append(entries, models.StatisticEntry{
		Name:     models.MenuUnspecified,
		Quantity: stats.ByMenu[models.MenuUnspecified],
	})
}

// HandleUpdateGuest handles POST /update-guest. Requires an organizer session.
func (h *Handler) HandleUpdateGuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.EditRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	id, err := service.ParseID(req.ID.String())
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, MsgInvalidID))
		return
	}

	if _, err := h.service.Edit(ctx, id, req.Name, req.Lastname, req.Menu); err != nil {
		h.writeError(ctx, w, "guest edit failed", err)
		return
	}

	h.logger.InfoContext(ctx, "guest edited",
		"request_id", requestID,
		"guest_id", id,
		"organizer", requestcontext.Organizer(ctx),
	)
	httputil.WriteMessage(w, MsgSaved)
}

// HandleDeleteGuest handles POST /delete-guest. Requires an organizer session.
func (h *Handler) HandleDeleteGuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.DeleteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	id, err := service.ParseID(req.ID.String())
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, MsgInvalidID))
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeError(ctx, w, "guest deletion failed", err)
		return
	}

	h.logger.InfoContext(ctx, "guest deleted",
		"request_id", requestID,
		"guest_id", id,
		"organizer", requestcontext.Organizer(ctx),
	)
	httputil.WriteMessage(w, MsgDeleted)
}

// writeError logs client errors at warn and everything else at error, then
// writes the envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
