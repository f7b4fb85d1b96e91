package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"guestlist/internal/report/metrics"
	"guestlist/internal/report/models"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/platform/sentinel"
	"guestlist/pkg/platform/validation"
	"guestlist/pkg/requestcontext"
)

const (
	MsgEmailNotFound      = "No pudimos encontrar esa direccion de email."
	MsgMissingDescription = "Descripción inválida"
	MsgNoReports          = "No hay errores."
	MsgUnavailable        = "No pudimos completar la operación. Intente de nuevo."
)

// Store persists error reports.
type Store interface {
	Create(ctx context.Context, r *models.ErrorReport) error
	List(ctx context.Context) ([]*models.ErrorReport, error)
}

// GuestDirectory answers whether an email belongs to a registered guest.
type GuestDirectory interface {
	GuestExists(ctx context.Context, email string) (bool, error)
}

// Service files and lists error reports.
type Service struct {
	store        Store
	guests       GuestDirectory
	logger       *slog.Logger
	metrics      *metrics.Metrics
	storeTimeout time.Duration
}

type Option func(*Service)

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

// WithStoreTimeout bounds every store and directory call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = d
	}
}

func New(store Store, guests GuestDirectory, opts ...Option) *Service {
	s := &Service{
		store:  store,
		guests: guests,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report files a report for the guest registered with email. Name and
// lastname are validated only when present.
func (s *Service) Report(ctx context.Context, req models.ReportRequest) (*models.ErrorReport, error) {
	report, err := s.prepare(ctx, req)
	if err != nil {
		s.reject(err)
		return nil, err
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.store.Create(sctx, report); err != nil {
		err = translate(err, "file error report")
		s.reject(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "error_report_filed",
		"report_id", report.ID,
		"request_id", requestcontext.RequestID(ctx),
		"event", "error_report_filed",
		"log_type", "audit",
	)
	if s.metrics != nil {
		s.metrics.IncrementFiled()
	}
	return report, nil
}

func (s *Service) prepare(ctx context.Context, req models.ReportRequest) (*models.ErrorReport, error) {
	email, err := validation.ValidateEmail(req.Email)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, dErrors.New(dErrors.CodeValidation, MsgMissingDescription)
	}
	report := &models.ErrorReport{
		Email:       email,
		Description: description,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if strings.TrimSpace(req.Name) != "" {
		if report.Name, err = validation.ValidateName(req.Name); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(req.Lastname) != "" {
		if report.Lastname, err = validation.ValidateLastname(req.Lastname); err != nil {
			return nil, err
		}
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()
	exists, err := s.guests.GuestExists(sctx, email)
	if err != nil {
		return nil, translate(err, "check guest email")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, MsgEmailNotFound)
	}
	return report, nil
}

// List returns every report. An empty list is reported as not found.
func (s *Service) List(ctx context.Context) ([]*models.ErrorReport, error) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()
	reports, err := s.store.List(sctx)
	if err != nil {
		return nil, translate(err, "list error reports")
	}
	if len(reports) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, MsgNoReports)
	}
	return reports, nil
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *Service) reject(err error) {
	if s.metrics != nil {
		s.metrics.IncrementRejected(string(dErrors.CodeOf(err)))
	}
}

func translate(err error, op string) error {
	if errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, MsgUnavailable)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}
