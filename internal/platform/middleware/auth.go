package middleware

import (
	"context"
	"log/slog"
	"net/http"

	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/platform/httputil"
	"guestlist/pkg/requestcontext"
)

// SessionVerifier resolves a session token to the organizer's subject.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (string, error)
}

// MsgMissingToken is returned when the session cookie is absent.
const MsgMissingToken = "Token inexistente o no estás autorizado."

// RequireSession gates a route on the session cookie. Verification failures are
// written as returned by the verifier (401 for rejected tokens, 503 when the
// identity provider is unreachable).
func RequireSession(verifier SessionVerifier, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				logger.WarnContext(ctx, "unauthorized access - missing session cookie",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, MsgMissingToken))
				return
			}

			subject, err := verifier.VerifySession(ctx, cookie.Value)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - session rejected",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithOrganizer(ctx, subject)))
		})
	}
}
