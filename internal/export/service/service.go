package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	guestModels "guestlist/internal/guest/models"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/requestcontext"
)

const (
	// Filename is the attachment name of the guest list.
	Filename = "listado_de_invitados.pdf"
	MimeType = "application/pdf"

	title          = "Listado de invitados"
	MsgUnavailable = "No pudimos generar el listado. Intente de nuevo."
)

// GuestSource is the slice of the guest registry the export reads.
type GuestSource interface {
	ListAll(ctx context.Context, query string) ([]*guestModels.Guest, error)
	Statistics(ctx context.Context) (*guestModels.Statistics, error)
}

// Renderer turns an HTML document into PDF bytes.
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// Result is a rendered export.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Service renders the printable guest list.
type Service struct {
	guests   GuestSource
	renderer Renderer
	logger   *slog.Logger
	timeout  time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTimeout bounds PDF rendering.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

func New(guests GuestSource, renderer Renderer, opts ...Option) *Service {
	s := &Service{
		guests:   guests,
		renderer: renderer,
		logger:   slog.New(slog.DiscardHandler),
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GuestListPDF renders every guest ordered by lastname.
func (s *Service) GuestListPDF(ctx context.Context) (*Result, error) {
	var (
		guests []*guestModels.Guest
		stats  *guestModels.Statistics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		guests, err = s.guests.ListAll(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.guests.Statistics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		// Registry errors are already domain errors.
		return nil, err
	}

	html, err := renderHTML(TemplateData{
		Title:       title,
		GeneratedAt: requestcontext.Now(ctx),
		Total:       stats.Total,
		Guests:      guests,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render guest list")
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	pdf, err := s.renderer.RenderPDF(rctx, html)
	if err != nil {
		if errors.Is(err, ErrPDFDependencyMissing) || errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, MsgUnavailable)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to print guest list")
	}

	s.logger.InfoContext(ctx, "guest list exported",
		"request_id", requestcontext.RequestID(ctx),
		"guests", len(guests),
		"bytes", len(pdf),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Result{Data: pdf, Filename: Filename, MimeType: MimeType}, nil
}
