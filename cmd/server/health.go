package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"guestlist/pkg/platform/httputil"
)

const readinessTimeout = 2 * time.Second

func handleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadiness pings postgres and redis when they are configured.
func handleReadiness(in *infra, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		ready := true
		if in.DB != nil {
			checks["postgres"] = "ok"
			if err := in.DB.PingContext(ctx); err != nil {
				log.WarnContext(ctx, "readiness check failed", "dependency", "postgres", "error", err)
				checks["postgres"] = "unavailable"
				ready = false
			}
		}
		if in.Redis != nil {
			checks["redis"] = "ok"
			if err := in.Redis.Health(ctx); err != nil {
				log.WarnContext(ctx, "readiness check failed", "dependency", "redis", "error", err)
				checks["redis"] = "unavailable"
				ready = false
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, checks)
	}
}
