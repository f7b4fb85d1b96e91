package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"guestlist/internal/auth/metrics"
	"guestlist/internal/auth/models"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/platform/circuit"
	"guestlist/pkg/platform/sentinel"
)

// Messages shown to organizers.
const (
	MsgInvalidCredentials = "Credenciales inválidas"
	MsgMissingToken       = "Token inexistente o no estás autorizado."
	MsgInvalidToken       = "No estás autorizado."
	MsgTokenExpired       = "Token expirado, vuelva a iniciar sesión"
	MsgUnavailable        = "No pudimos autenticarte."
)

const (
	opLogin  = "login"
	opVerify = "verify"
	opLogout = "logout"
)

// Provider is the identity provider port. Rejections are reported with the
// errors in models; transport failures wrap sentinel.ErrUnavailable.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	GetUser(ctx context.Context, token string) (*models.Identity, error)
	SignOut(ctx context.Context, token string) error
}

// Gate verifies organizer sessions against the identity provider. Every call
// is bounded by a timeout and guarded by a circuit breaker so an unreachable
// provider fails fast with CodeUnavailable.
type Gate struct {
	provider Provider
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		g.timeout = d
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(g *Gate) {
		g.breaker = b
	}
}

func New(provider Provider, opts ...Option) *Gate {
	g := &Gate{
		provider: provider,
		breaker:  circuit.New("identity-provider"),
		logger:   slog.New(slog.DiscardHandler),
		timeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login exchanges organizer credentials for a session.
func (g *Gate) Login(ctx context.Context, email, password string) (*models.Session, error) {
	var session *models.Session
	err := g.call(ctx, opLogin, func(ctx context.Context) error {
		var err error
		session, err = g.provider.SignIn(ctx, email, password)
		return err
	})
	if err != nil {
		return nil, err
	}
	if g.metrics != nil {
		g.metrics.IncrementLogin()
	}
	return session, nil
}

// Verify resolves a session token to the organizer identity.
func (g *Gate) Verify(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		g.recordFailure(opVerify, metrics.ReasonInvalidToken)
		return nil, dErrors.New(dErrors.CodeUnauthorized, MsgMissingToken)
	}
	var identity *models.Identity
	err := g.call(ctx, opVerify, func(ctx context.Context) error {
		var err error
		identity, err = g.provider.GetUser(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// VerifySession satisfies middleware.SessionVerifier.
func (g *Gate) VerifySession(ctx context.Context, token string) (string, error) {
	identity, err := g.Verify(ctx, token)
	if err != nil {
		return "", err
	}
	if identity.Email != "" {
		return identity.Email, nil
	}
	return identity.Subject, nil
}

// Logout ends the session at the provider. Callers clear the cookie whatever
// the outcome.
func (g *Gate) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return g.call(ctx, opLogout, func(ctx context.Context) error {
		return g.provider.SignOut(ctx, token)
	})
}

func (g *Gate) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if !g.breaker.Allow() {
		g.recordFailure(op, metrics.ReasonCircuitOpen)
		return dErrors.New(dErrors.CodeUnavailable, MsgUnavailable)
	}

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	err := fn(cctx)

	if isTransportFailure(err) {
		_, change := g.breaker.RecordFailure()
		if change.Opened {
			g.logger.WarnContext(ctx, "identity provider circuit opened", "breaker", g.breaker.Name())
			if g.metrics != nil {
				g.metrics.SetCircuitOpen(true)
			}
		}
	} else {
		_, change := g.breaker.RecordSuccess()
		if change.Closed {
			g.logger.InfoContext(ctx, "identity provider circuit closed", "breaker", g.breaker.Name())
			if g.metrics != nil {
				g.metrics.SetCircuitOpen(false)
			}
		}
	}
	if err == nil {
		return nil
	}
	return g.translate(ctx, op, err)
}

func (g *Gate) translate(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		g.recordFailure(op, metrics.ReasonInvalidCredentials)
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, MsgInvalidCredentials)
	case errors.Is(err, models.ErrTokenExpired):
		g.recordFailure(op, metrics.ReasonExpired)
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, MsgTokenExpired)
	case errors.Is(err, models.ErrInvalidToken):
		g.recordFailure(op, metrics.ReasonInvalidToken)
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, MsgInvalidToken)
	case isTransportFailure(err):
		g.recordFailure(op, metrics.ReasonUnavailable)
		g.logger.ErrorContext(ctx, "identity provider unavailable", "operation", op, "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, MsgUnavailable)
	}
	g.logger.ErrorContext(ctx, "identity provider call failed", "operation", op, "error", err)
	return dErrors.Wrap(err, dErrors.CodeInternal, "identity provider "+op+" failed")
}

func (g *Gate) recordFailure(op, reason string) {
	if g.metrics != nil {
		g.metrics.IncrementFailure(op, reason)
	}
}

func isTransportFailure(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
