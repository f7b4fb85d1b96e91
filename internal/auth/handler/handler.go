package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"guestlist/internal/auth/models"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/platform/httputil"
	"guestlist/pkg/requestcontext"
)

const (
	MsgLoggedIn  = "Login exitoso"
	MsgLoggedOut = "Logout exitoso"
)

// Service defines the auth gate operations used by login and logout.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context, token string) error
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Handler serves organizer login and logout.
type Handler struct {
	service Service
	logger  *slog.Logger
	cookie  CookieConfig
}

func New(service Service, logger *slog.Logger, cookie CookieConfig) *Handler {
	return &Handler{service: service, logger: logger, cookie: cookie}
}

// Register mounts auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
}

// HandleLogin handles POST /auth/login and stores the access token in the
// session cookie.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, err := h.service.Login(ctx, req.Email, req.Passwd)
	if err != nil {
		level := slog.LevelWarn
		if dErrors.CodeOf(err) != dErrors.CodeUnauthorized {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "organizer login failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(session.AccessToken, session.ExpiresAt))

	ua := useragent.New(r.UserAgent())
	browser, version := ua.Browser()
	h.logger.InfoContext(ctx, "organizer_logged_in",
		"request_id", requestID,
		"organizer", session.Identity.Email,
		"client_ip", requestcontext.ClientIP(ctx),
		"browser", browser,
		"browser_version", version,
		"os", ua.OS(),
		"mobile", ua.Mobile(),
		"event", "organizer_logged_in",
		"log_type", "audit",
	)
	httputil.WriteMessage(w, MsgLoggedIn)
}

// HandleLogout handles POST /auth/logout. The cookie is always cleared, even
// when the provider could not be reached.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if cookie, err := r.Cookie(h.cookie.Name); err == nil && cookie.Value != "" {
		if err := h.service.Logout(ctx, cookie.Value); err != nil {
			h.logger.WarnContext(ctx, "provider sign out failed",
				"request_id", requestID,
				"error", err,
			)
		}
	}

	expired := h.sessionCookie("", time.Unix(0, 0))
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	httputil.WriteMessage(w, MsgLoggedOut)
}

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteNoneMode,
	}
}
