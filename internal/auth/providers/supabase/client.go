// Package supabase talks to a Supabase project's GoTrue auth API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"guestlist/internal/auth/models"
	"guestlist/pkg/platform/sentinel"
)

// Client implements the gate's identity provider port over the GoTrue REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	now     func() time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// New builds a client for the project at baseURL (e.g. https://xyz.supabase.co)
// authenticated with the project's anon key.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        user   `json:"user"`
}

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// apiError covers both GoTrue error shapes: {error, error_description} and
// {code, error_code, msg}.
type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
}

func (e apiError) String() string {
	return strings.Join([]string{e.Error, e.ErrorCode, e.ErrorDescription, e.Msg}, " ")
}

// SignIn uses the password grant.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode sign in: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, unavailable("sign in", resp)
	default:
		return nil, models.ErrInvalidCredentials
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode sign in: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, models.ErrInvalidCredentials
	}
	return &models.Session{
		AccessToken: tok.AccessToken,
		ExpiresAt:   c.now().Add(time.Duration(tok.ExpiresIn) * time.Second),
		Identity:    models.Identity{Subject: tok.User.ID, Email: tok.User.Email},
	}, nil
}

// GetUser resolves token. GoTrue reports expiry only in the error message.
func (c *Client) GetUser(ctx context.Context, token string) (*models.Identity, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/v1/user", token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, unavailable("get user", resp)
	default:
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if strings.Contains(strings.ToLower(apiErr.String()), "expired") {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrInvalidToken
	}

	var u user
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return nil, models.ErrInvalidToken
	}
	return &models.Identity{Subject: u.ID, Email: u.Email}, nil
}

// SignOut revokes the session server side. Tokens GoTrue no longer accepts are
// already signed out.
func (c *Client) SignOut(ctx context.Context, token string) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return unavailable("sign out", resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase %s %s: %w: %w", method, path, sentinel.ErrUnavailable, err)
	}
	return resp, nil
}

func unavailable(op string, resp *http.Response) error {
	return fmt.Errorf("supabase %s: status %d: %w", op, resp.StatusCode, sentinel.ErrUnavailable)
}
