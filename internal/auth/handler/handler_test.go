package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestlist/internal/auth/models"
	"guestlist/internal/auth/service"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/testutil"
)

const cookieName = "auth-cookie"

type stubGate struct {
	loginErr  error
	logoutErr error
	loggedOut []string
}

func (s *stubGate) Login(_ context.Context, email, password string) (*models.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &models.Session{
		AccessToken: "tok-" + email,
		ExpiresAt:   time.Now().Add(time.Hour),
		Identity:    models.Identity{Email: email},
	}, nil
}

func (s *stubGate) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return s.logoutErr
}

func newRouter(gate *stubGate) chi.Router {
	r := chi.NewRouter()
	New(gate, slog.New(slog.DiscardHandler), CookieConfig{Name: cookieName, Secure: true}).Register(r)
	return r
}

func TestLogin(t *testing.T) {
	t.Run("sets the session cookie", func(t *testing.T) {
		router := newRouter(&stubGate{})
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", models.LoginRequest{Email: " novia@boda.com ", Passwd: "pw"})
		req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148 Safari/604.1")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "message", MsgLoggedIn)
		cookie := testutil.FindCookie(rr, cookieName)
		require.NotNil(t, cookie)
		assert.Equal(t, "tok-novia@boda.com", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
		assert.Equal(t, "/", cookie.Path)
	})

	t.Run("missing password", func(t *testing.T) {
		router := newRouter(&stubGate{})
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", models.LoginRequest{Email: "novia@boda.com"})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
		assert.Nil(t, testutil.FindCookie(rr, cookieName))
	})

	t.Run("bad credentials", func(t *testing.T) {
		router := newRouter(&stubGate{loginErr: dErrors.New(dErrors.CodeUnauthorized, service.MsgInvalidCredentials)})
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", models.LoginRequest{Email: "novia@boda.com", Passwd: "x"})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		assert.Equal(t, service.MsgInvalidCredentials, testutil.UnmarshalErrorResponse(t, rr)["error_description"])
		assert.Nil(t, testutil.FindCookie(rr, cookieName))
	})

	t.Run("provider down", func(t *testing.T) {
		router := newRouter(&stubGate{loginErr: dErrors.New(dErrors.CodeUnavailable, service.MsgUnavailable)})
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", models.LoginRequest{Email: "novia@boda.com", Passwd: "x"})
		testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusServiceUnavailable)
	})
}

func TestLogout(t *testing.T) {
	t.Run("revokes and clears", func(t *testing.T) {
		gate := &stubGate{}
		req := testutil.WithSessionCookie(testutil.NewRequest(t, http.MethodPost, "/auth/logout"), cookieName, "tok-1")
		rr := testutil.DoRequest(newRouter(gate), req)

		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "message", MsgLoggedOut)
		assert.Equal(t, []string{"tok-1"}, gate.loggedOut)
		cookie := testutil.FindCookie(rr, cookieName)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	})

	t.Run("clears even when the provider fails", func(t *testing.T) {
		gate := &stubGate{logoutErr: dErrors.New(dErrors.CodeUnavailable, service.MsgUnavailable)}
		req := testutil.WithSessionCookie(testutil.NewRequest(t, http.MethodPost, "/auth/logout"), cookieName, "tok-1")
		rr := testutil.DoRequest(newRouter(gate), req)
		testutil.AssertStatusOK(t, rr)
		require.NotNil(t, testutil.FindCookie(rr, cookieName))
	})

	t.Run("without a cookie", func(t *testing.T) {
		gate := &stubGate{}
		rr := testutil.DoRequest(newRouter(gate), testutil.NewRequest(t, http.MethodPost, "/auth/logout"))
		testutil.AssertStatusOK(t, rr)
		assert.Empty(t, gate.loggedOut)
	})
}
