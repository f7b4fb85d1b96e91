// Package local authenticates organizers configured on the server: bcrypt
// password hashes, self-issued JWT access tokens and a revocation list for
// logout.
package local

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"guestlist/internal/auth/models"
)

// RevocationList records logged-out token IDs until they expire.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Provider implements the gate's identity provider port for locally
// configured organizers.
type Provider struct {
	organizers map[string][]byte
	// dummyHash is compared against for unknown emails so both paths cost one
	// bcrypt comparison.
	dummyHash  []byte
	tokens     *TokenIssuer
	revoked    RevocationList
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// New builds a provider from lowercase email to bcrypt-hash pairs.
func New(organizers map[string]string, tokens *TokenIssuer, revoked RevocationList, opts ...Option) *Provider {
	p := &Provider{
		organizers: make(map[string][]byte, len(organizers)),
		tokens:     tokens,
		revoked:    revoked,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for email, hash := range organizers {
		p.organizers[strings.ToLower(email)] = []byte(hash)
	}
	p.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("guestlist"), bcrypt.MinCost)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) SignIn(_ context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, known := p.organizers[email]
	if !known {
		hash = p.dummyHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !known {
		return nil, models.ErrInvalidCredentials
	}

	token, claims, err := p.tokens.Issue(email, p.now())
	if err != nil {
		return nil, err
	}
	return &models.Session{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
		Identity:    models.Identity{Subject: claims.Subject, Email: email},
	}, nil
}

func (p *Provider) GetUser(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := p.tokens.Validate(token, p.now())
	if err != nil {
		return nil, err
	}
	revoked, err := p.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, models.ErrInvalidToken
	}
	// Organizers removed from config lose access on their next request.
	if _, ok := p.organizers[claims.Email]; !ok {
		return nil, models.ErrInvalidToken
	}
	return &models.Identity{Subject: claims.Subject, Email: claims.Email}, nil
}

// SignOut revokes the token for the rest of its lifetime. Invalid or expired
// tokens need no revocation.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	now := p.now()
	claims, err := p.tokens.Validate(token, now)
	if err != nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	if err := p.revoked.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "access token revoked", "jti", claims.ID)
	return nil
}
