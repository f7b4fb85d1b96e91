package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"guestlist/internal/guest/metrics"
	"guestlist/internal/guest/models"
	guestStore "guestlist/internal/guest/store/guest"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/platform/sentinel"
	"guestlist/pkg/platform/validation"
	"guestlist/pkg/requestcontext"
)

// Messages shown to guests and organizers.
const (
	MsgDuplicateEmail  = "El e-mail ya está en uso. Quizás esta intentando confirmar un acompañante"
	MsgInvalidLeaderID = "ID de líder inválido."
	MsgLeaderNotFound  = "No se encontró un invitado líder con ese ID."
	MsgEmailNotFound   = "No pudimos encontrar esa direccion de email."
	MsgGuestNotFound   = "No encontramos al invitado."
	MsgLeaderDeletion  = "No se puede eliminar a líderes por el momento."
	MsgUnavailable     = "No pudimos completar la operación. Intente de nuevo."
	MsgInternal        = "Algo salió mal de nuestro lado."
)

func msgDuplicateGuest(name, lastname string) string {
	return fmt.Sprintf("%s %s ya está registrado.", name, lastname)
}

// Store is the persistence port of the registry.
type Store interface {
	Create(ctx context.Context, g *models.Guest) error
	FindByID(ctx context.Context, id int64) (*models.Guest, error)
	FindByName(ctx context.Context, name, lastname string) (*models.Guest, error)
	FindByEmail(ctx context.Context, email string) (*models.Guest, error)
	Update(ctx context.Context, id int64, patch models.Patch) (*models.Guest, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.ListFilter) ([]*models.Guest, error)
	Count(ctx context.Context) (int, error)
	CountByMenu(ctx context.Context) (map[string]int, error)
}

// Service is the guest registry. It owns the leader/companion invariants;
// the store backs them up atomically.
type Service struct {
	store        Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	storeTimeout time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithStoreTimeout bounds every store round-trip. Zero disables the bound.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = d
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tracer: noop.NewTracerProvider().Tracer("guestlist/guest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates a candidate and inserts it as a leader or companion.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (g *models.Guest, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "guest.Register")
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveRegister(start)
	}

	name, err := validation.ValidateName(req.Name)
	if err != nil {
		return nil, s.reject(metrics.ReasonInvalid, err)
	}
	lastname, err := validation.ValidateLastname(req.Lastname)
	if err != nil {
		return nil, s.reject(metrics.ReasonInvalid, err)
	}
	role, err := validation.ValidateRole(req.Role)
	if err != nil {
		return nil, s.reject(metrics.ReasonInvalid, err)
	}
	menu, err := validation.ValidateMenu(req.Menu)
	if err != nil {
		return nil, s.reject(metrics.ReasonInvalid, err)
	}
	span.SetAttributes(attribute.String("guest.role", role))

	if _, err := s.findByName(ctx, name, lastname); err == nil {
		return nil, s.reject(metrics.ReasonDuplicateName,
			dErrors.New(dErrors.CodeConflict, msgDuplicateGuest(name, lastname)))
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.reject(metrics.ReasonUnavailable, s.translate(err, "check guest name"))
	}

	now := requestcontext.Now(ctx)
	if role == validation.RoleLeader {
		g, err = s.prepareLeader(ctx, name, lastname, req.Email, menu, now)
	} else {
		g, err = s.prepareCompanion(ctx, name, lastname, string(req.Leader), menu, now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.create(ctx, g); err != nil {
		switch {
		case errors.Is(err, guestStore.ErrDuplicateName):
			return nil, s.reject(metrics.ReasonDuplicateName,
				dErrors.New(dErrors.CodeConflict, msgDuplicateGuest(name, lastname)))
		case errors.Is(err, guestStore.ErrDuplicateEmail):
			return nil, s.reject(metrics.ReasonDuplicateEmail, dErrors.New(dErrors.CodeConflict, MsgDuplicateEmail))
		case errors.Is(err, guestStore.ErrLeaderNotFound):
			return nil, s.reject(metrics.ReasonLeaderNotFound, dErrors.New(dErrors.CodeNotFound, MsgLeaderNotFound))
		}
		return nil, s.reject(metrics.ReasonUnavailable, s.translate(err, "create guest"))
	}

	span.SetAttributes(attribute.Int64("guest.id", g.ID))
	s.logAudit(ctx, "guest_registered", "guest_id", g.ID, "role", role)
	if s.metrics != nil {
		s.metrics.IncrementRegistered(role)
	}
	return g, nil
}

func (s *Service) prepareLeader(ctx context.Context, name, lastname, rawEmail, menu string, now time.Time) (*models.Guest, error) {
	email, err := validation.ValidateEmail(rawEmail)
	if err != nil {
		return nil, s.reject(metrics.ReasonInvalid, err)
	}
	if _, err := s.findByEmail(ctx, email); err == nil {
		return nil, s.reject(metrics.ReasonDuplicateEmail, dErrors.New(dErrors.CodeConflict, MsgDuplicateEmail))
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.reject(metrics.ReasonUnavailable, s.translate(err, "check leader email"))
	}
	return models.NewLeader(name, lastname, email, menu, now), nil
}

func (s *Service) prepareCompanion(ctx context.Context, name, lastname, rawLeader, menu string, now time.Time) (*models.Guest, error) {
	leaderID, err := ParseID(rawLeader)
	if err != nil {
		return nil, s.reject(metrics.ReasonInvalid, dErrors.New(dErrors.CodeValidation, MsgInvalidLeaderID))
	}
	leader, err := s.findByID(ctx, leaderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.reject(metrics.ReasonLeaderNotFound, dErrors.New(dErrors.CodeNotFound, MsgLeaderNotFound))
		}
		return nil, s.reject(metrics.ReasonUnavailable, s.translate(err, "load leader"))
	}
	if !leader.IsLeader {
		return nil, s.reject(metrics.ReasonLeaderNotFound, dErrors.New(dErrors.CodeNotFound, MsgLeaderNotFound))
	}
	return models.NewCompanion(name, lastname, leader.ID, menu, now), nil
}

// GetGroup returns the leader registered with email followed by their
// companions ordered by lastname.
func (s *Service) GetGroup(ctx context.Context, rawEmail string) (group []*models.Guest, err error) {
	ctx, span := s.tracer.Start(ctx, "guest.GetGroup")
	defer func() { endSpan(span, err) }()

	email, err := validation.ValidateEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	leader, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, MsgEmailNotFound)
		}
		return nil, s.translate(err, "load leader")
	}
	if !leader.IsLeader {
		return []*models.Guest{leader}, nil
	}

	companions, err := s.list(ctx, models.ListFilter{CompanionOf: &leader.ID})
	if err != nil {
		return nil, s.translate(err, "list companions")
	}
	return append([]*models.Guest{leader}, companions...), nil
}

// Edit renames a guest and optionally changes the menu. Role, email and leader
// reference cannot change.
func (s *Service) Edit(ctx context.Context, id int64, rawName, rawLastname string, rawMenu *string) (g *models.Guest, err error) {
	ctx, span := s.tracer.Start(ctx, "guest.Edit", trace.WithAttributes(attribute.Int64("guest.id", id)))
	defer func() { endSpan(span, err) }()

	name, err := validation.ValidateName(rawName)
	if err != nil {
		return nil, err
	}
	lastname, err := validation.ValidateLastname(rawLastname)
	if err != nil {
		return nil, err
	}
	patch := models.Patch{Name: name, Lastname: lastname}
	if rawMenu != nil {
		menu, err := validation.ValidateMenu(*rawMenu)
		if err != nil {
			return nil, err
		}
		patch.Menu = &menu
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()
	g, err = s.store.Update(sctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, MsgGuestNotFound)
		case errors.Is(err, guestStore.ErrDuplicateName):
			return nil, dErrors.New(dErrors.CodeConflict, msgDuplicateGuest(name, lastname))
		}
		return nil, s.translate(err, "update guest")
	}

	s.logAudit(ctx, "guest_edited", "guest_id", id)
	return g, nil
}

// Delete removes a companion. Leaders are never deleted.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "guest.Delete", trace.WithAttributes(attribute.Int64("guest.id", id)))
	defer func() { endSpan(span, err) }()

	g, err := s.findByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, MsgGuestNotFound)
		}
		return s.translate(err, "load guest")
	}
	if g.IsLeader {
		return dErrors.New(dErrors.CodeInvariantViolation, MsgLeaderDeletion)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.store.Delete(sctx, id); err != nil {
		switch {
		case errors.Is(err, guestStore.ErrLeaderDeletion):
			return dErrors.New(dErrors.CodeInvariantViolation, MsgLeaderDeletion)
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, MsgGuestNotFound)
		}
		return s.translate(err, "delete guest")
	}

	s.logAudit(ctx, "guest_deleted", "guest_id", id)
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	return nil
}

// ListAll returns every guest ordered by lastname; query narrows by name or lastname.
func (s *Service) ListAll(ctx context.Context, query string) ([]*models.Guest, error) {
	guests, err := s.list(ctx, models.ListFilter{Query: query})
	if err != nil {
		return nil, s.translate(err, "list guests")
	}
	return guests, nil
}

// ListLeaders returns group leaders ordered by lastname.
func (s *Service) ListLeaders(ctx context.Context) ([]*models.Guest, error) {
	guests, err := s.list(ctx, models.ListFilter{LeadersOnly: true})
	if err != nil {
		return nil, s.translate(err, "list leaders")
	}
	return guests, nil
}

// ListCompanionsOf returns the companions of leaderID ordered by lastname. An
// unknown leader yields an empty list.
func (s *Service) ListCompanionsOf(ctx context.Context, leaderID int64) ([]*models.Guest, error) {
	guests, err := s.list(ctx, models.ListFilter{CompanionOf: &leaderID})
	if err != nil {
		return nil, s.translate(err, "list companions")
	}
	return guests, nil
}

// Statistics counts all guests and breaks the count down by menu. Every known
// menu appears, plus models.MenuUnspecified.
func (s *Service) Statistics(ctx context.Context) (stats *models.Statistics, err error) {
	ctx, span := s.tracer.Start(ctx, "guest.Statistics")
	defer func() { endSpan(span, err) }()

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	var (
		total  int
		byMenu map[string]int
	)
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byMenu, err = s.store.CountByMenu(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.translate(err, "compute statistics")
	}

	out := &models.Statistics{Total: total, ByMenu: make(map[string]int, len(validation.Menus)+1)}
	for _, m := range validation.Menus {
		out.ByMenu[m] = byMenu[m]
	}
	out.ByMenu[models.MenuUnspecified] = byMenu[""]
	return out, nil
}

// ParseID parses a positive guest ID as sent by forms.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid guest id %q", raw)
	}
	return id, nil
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *Service) findByID(ctx context.Context, id int64) (*models.Guest, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.store.FindByID(ctx, id)
}

func (s *Service) findByName(ctx context.Context, name, lastname string) (*models.Guest, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.store.FindByName(ctx, name, lastname)
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.Guest, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.store.FindByEmail(ctx, email)
}

func (s *Service) create(ctx context.Context, g *models.Guest) error {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.store.Create(ctx, g)
}

func (s *Service) list(ctx context.Context, filter models.ListFilter) ([]*models.Guest, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.store.List(ctx, filter)
}

// translate maps infrastructure failures: timeouts and outages become
// CodeUnavailable, everything else CodeInternal.
func (s *Service) translate(err error, op string) error {
	if errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, MsgUnavailable)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}

func (s *Service) reject(reason string, err error) error {
	if s.metrics != nil {
		s.metrics.IncrementRejected(reason)
	}
	return err
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if organizer := requestcontext.Organizer(ctx); organizer != "" {
		attributes = append(attributes, "organizer", organizer)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
