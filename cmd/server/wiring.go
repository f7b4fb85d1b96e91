package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	authHandler "guestlist/internal/auth/handler"
	authMetrics "guestlist/internal/auth/metrics"
	"guestlist/internal/auth/providers/local"
	"guestlist/internal/auth/providers/supabase"
	authService "guestlist/internal/auth/service"
	"guestlist/internal/auth/store/revocation"
	exportHandler "guestlist/internal/export/handler"
	exportService "guestlist/internal/export/service"
	guestHandler "guestlist/internal/guest/handler"
	guestMetrics "guestlist/internal/guest/metrics"
	guestService "guestlist/internal/guest/service"
	guestStore "guestlist/internal/guest/store/guest"
	"guestlist/internal/platform/config"
	"guestlist/internal/platform/metrics"
	"guestlist/internal/platform/middleware"
	"guestlist/internal/platform/postgres"
	"guestlist/internal/platform/redis"
	"guestlist/internal/report/adapters"
	reportHandler "guestlist/internal/report/handler"
	reportMetrics "guestlist/internal/report/metrics"
	reportService "guestlist/internal/report/service"
	reportStore "guestlist/internal/report/store/report"
	"guestlist/pkg/platform/circuit"
)

// infra holds the optional external resources. A nil field means the
// in-memory fallback is in use.
type infra struct {
	DB    *sql.DB
	Redis *redis.Client
}

func (i *infra) Close() {
	if i.DB != nil {
		_ = i.DB.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	out := &infra{}
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		out.DB = db
		if cfg.Database.MigrateOnStart {
			if err := postgres.MigrateUp(db); err != nil {
				out.Close()
				return nil, err
			}
			log.Info("database migrations applied")
		}
	} else {
		log.Warn("DATABASE_URL not set; guests and reports are kept in memory")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.Redis = rc
	return out, nil
}

type guestStores struct {
	guests  guestService.Store
	reports reportService.Store
}

func buildStores(in *infra) guestStores {
	if in.DB != nil {
		return guestStores{guests: guestStore.NewPostgres(in.DB), reports: reportStore.NewPostgres(in.DB)}
	}
	return guestStores{guests: guestStore.NewInMemory(), reports: reportStore.NewInMemory()}
}

func buildProvider(cfg config.AuthConfig, in *infra, log *slog.Logger) (authService.Provider, error) {
	switch cfg.Provider {
	case config.AuthProviderSupabase:
		return supabase.New(cfg.SupabaseURL, cfg.SupabaseKey), nil
	case config.AuthProviderLocal:
		organizers, err := cfg.OrganizerHashes()
		if err != nil {
			return nil, err
		}
		if len(organizers) == 0 {
			log.Warn("no organizers configured; login will always fail")
		}
		var revoked local.RevocationList = revocation.NewInMemoryTRL()
		if in.Redis != nil {
			revoked = revocation.NewRedisTRL(in.Redis.Client)
		}
		tokens := local.NewTokenIssuer(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)
		return local.New(organizers, tokens, revoked, local.WithLogger(log)), nil
	}
	return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
}

func buildRouter(cfg config.Server, in *infra, log *slog.Logger) (*chi.Mux, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)

	stores := buildStores(in)

	provider, err := buildProvider(cfg.Auth, in, log)
	if err != nil {
		return nil, err
	}
	breaker := circuit.New("identity-provider",
		circuit.WithFailureThreshold(cfg.Auth.BreakerFails),
		circuit.WithCooldown(cfg.Auth.BreakerBackoff),
	)
	gate := authService.New(provider,
		authService.WithLogger(log),
		authService.WithMetrics(authMetrics.New(reg)),
		authService.WithTimeout(cfg.Auth.Timeout),
		authService.WithBreaker(breaker),
	)

	guests := guestService.New(stores.guests,
		guestService.WithLogger(log),
		guestService.WithMetrics(guestMetrics.New(reg)),
		guestService.WithTracer(otel.Tracer("guestlist/guest")),
		guestService.WithStoreTimeout(cfg.Database.StoreTimeout),
	)
	reports := reportService.New(stores.reports, adapters.NewGuestDirectory(stores.guests),
		reportService.WithLogger(log),
		reportService.WithMetrics(reportMetrics.New(reg)),
		reportService.WithStoreTimeout(cfg.Database.StoreTimeout),
	)
	export := exportService.New(guests, exportService.NewChromeRenderer(cfg.Export.ChromePath),
		exportService.WithLogger(log),
		exportService.WithTimeout(cfg.Export.Timeout),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.LatencyMiddleware(httpMetrics))

	r.Get("/healthz", handleLiveness)
	r.Get("/readyz", handleReadiness(in, log))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		authHandler.New(gate, log, authHandler.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		}).Register(r)
		guestHandler.New(guests, log, gate, cfg.Auth.CookieName).Register(r)
		reportHandler.New(reports, log).Register(r)
		exportHandler.New(export, log).Register(r)
	})

	return r, nil
}
