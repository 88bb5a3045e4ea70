package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vigilclub/vigil/pkg/domain"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// AccessToken implements TokenSource.
func (s StaticToken) AccessToken() string { return string(s) }

// Client is the club API client.
type Client struct {
	baseURL       string
	tokens        TokenSource
	httpClient    *http.Client
	hooks         *hookTransport
	verifyLimiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithTransport replaces the base round tripper (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.hooks.base = rt }
}

// WithVerifyRate caps ticket verifications per second. Scanners re-read the
// same code many times a second.
func WithVerifyRate(perSecond float64) Option {
	return func(c *Client) {
		c.verifyLimiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// New creates a new API client. tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	hooks := newHookTransport(http.DefaultTransport)
	c := &Client{
		baseURL: baseURL,
		tokens:  tokens,
		hooks:   hooks,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: hooks,
		},
		verifyLimiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBearer returns a client pinned to token. It shares the transport,
// interceptors and limiter with c.
func (c *Client) WithBearer(token string) *Client {
	cp := *c
	cp.tokens = StaticToken(token)
	return &cp
}

// --- Auth ---

// Login exchanges email/password credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/api/auth/login/", body, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// ExchangeCode trades a one-time federated login code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.post(ctx, "/api/auth/cli-exchange/", map[string]string{"code": code}, &resp); err != nil {
		return nil, fmt.Errorf("client.ExchangeCode: %w", err)
	}
	return &resp, nil
}

// RevokeSession signs the refresh token out on the server side.
func (c *Client) RevokeSession(ctx context.Context, refresh string) error {
	if err := c.post(ctx, "/api/auth/logout/", map[string]string{"refresh": refresh}, nil); err != nil {
		return fmt.Errorf("client.RevokeSession: %w", err)
	}
	return nil
}

// GetMe returns the authenticated user's profile.
func (c *Client) GetMe(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/api/auth/me/", &u); err != nil {
		return nil, fmt.Errorf("client.GetMe: %w", err)
	}
	return &u, nil
}

// UpdateProfile saves the profile fields and returns the updated record.
func (c *Client) UpdateProfile(ctx context.Context, req domain.ProfileUpdateRequest) (*domain.User, error) {
	var u domain.User
	if err := c.doRequest(ctx, http.MethodPatch, "/api/auth/profile/", req, &u); err != nil {
		return nil, fmt.Errorf("client.UpdateProfile: %w", err)
	}
	return &u, nil
}

// --- Events ---

// ListEvents fetches all events, optionally narrowed to a category.
func (c *Client) ListEvents(ctx context.Context, category string) ([]domain.Event, error) {
	path := "/api/events/"
	if category != "" {
		params := url.Values{}
		params.Set("category", category)
		path += "?" + params.Encode()
	}
	var events []domain.Event
	if err := c.get(ctx, path, &events); err != nil {
		return nil, fmt.Errorf("client.ListEvents: %w", err)
	}
	return events, nil
}

// GetEvent fetches a single event by ID.
func (c *Client) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var e domain.Event
	if err := c.get(ctx, "/api/events/"+url.PathEscape(id.String())+"/", &e); err != nil {
		return nil, fmt.Errorf("client.GetEvent: %w", err)
	}
	return &e, nil
}

// RegisterForEvent registers the authenticated user for an event.
func (c *Client) RegisterForEvent(ctx context.Context, id uuid.UUID, req domain.RegisterRequest) (*domain.Registration, error) {
	var reg domain.Registration
	if err := c.post(ctx, "/api/events/"+url.PathEscape(id.String())+"/register/", req, &reg); err != nil {
		return nil, fmt.Errorf("client.RegisterForEvent: %w", err)
	}
	return &reg, nil
}

// MyRegistrations lists the authenticated user's registrations.
func (c *Client) MyRegistrations(ctx context.Context) ([]domain.Registration, error) {
	var regs []domain.Registration
	if err := c.get(ctx, "/api/registrations/me/", &regs); err != nil {
		return nil, fmt.Errorf("client.MyRegistrations: %w", err)
	}
	return regs, nil
}

// --- Staff ---

// ListRegistrations lists registrations for an event (staff only).
func (c *Client) ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]domain.Registration, error) {
	var regs []domain.Registration
	if err := c.get(ctx, "/api/events/"+url.PathEscape(eventID.String())+"/registrations/", &regs); err != nil {
		return nil, fmt.Errorf("client.ListRegistrations: %w", err)
	}
	return regs, nil
}

// VerifyTicket checks a ticket token in at the door (staff only).
func (c *Client) VerifyTicket(ctx context.Context, token string) (*domain.VerifyResult, error) {
	if err := c.verifyLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("client.VerifyTicket: %w", err)
	}
	var res domain.VerifyResult
	if err := c.post(ctx, "/verify/"+url.PathEscape(token)+"/", nil, &res); err != nil {
		return nil, fmt.Errorf("client.VerifyTicket: %w", err)
	}
	return &res, nil
}

// ListNotifications returns staff console notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	var ns []domain.Notification
	if err := c.get(ctx, "/api/notifications/", &ns); err != nil {
		return nil, fmt.Errorf("client.ListNotifications: %w", err)
	}
	return ns, nil
}

// MarkNotificationRead marks a notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	if err := c.post(ctx, "/api/notifications/"+url.PathEscape(id.String())+"/read/", nil, nil); err != nil {
		return fmt.Errorf("client.MarkNotificationRead: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if tok := c.tokens.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if apiErr.Error != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
			}
			if apiErr.Detail != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Detail}
			}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}
