// Package client is a typed HTTP client for the room rental API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"room_rental/internal/domain"
	"room_rental/internal/service"

	"github.com/go-resty/resty/v2"
)

// APIError is the error envelope returned by the server.
type APIError struct {
	Status  int      `json:"-"`
	Code    string   `json:"error"`
	Details []string `json:"details"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%d %s (%s)", e.Status, e.Code, strings.Join(e.Details, ", "))
	}
	return fmt.Sprintf("%d %s", e.Status, e.Code)
}

// Client talks to one API server on behalf of one user.
type Client struct {
	http *resty.Client
	auth *AuthStore
}

type Option func(*Client)

// WithHTTPClient swaps the underlying transport, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = resty.NewWithClient(hc) }
}

func WithAuthStore(s *AuthStore) Option {
	return func(c *Client) { c.auth = s }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{http: resty.New(), auth: NewAuthStore()}
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")
	c.http.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if token := c.auth.Token(); token != "" {
			r.SetAuthToken(token)
		}
		return nil
	})
	// A rejected token is gone for good: drop it like the browser client does
	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.StatusCode() == http.StatusUnauthorized {
			c.auth.Clear()
		}
		return nil
	})
	return c
}

func (c *Client) Auth() *AuthStore { return c.auth }

// do sends one request and decodes either out or the error envelope.
func (c *Client) do(ctx context.Context, method, path string, body, out any, query url.Values) error {
	apiErr := &APIError{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}
	return nil
}

func (c *Client) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	var res service.AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &res, nil); err != nil {
		return nil, err
	}
	return &res, c.auth.Set(res.Token)
}

// Login signs in and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	var res service.AuthResult
	in := service.LoginInput{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &res, nil); err != nil {
		return nil, err
	}
	return &res, c.auth.Set(res.Token)
}

func (c *Client) Logout() { c.auth.Clear() }

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var res struct {
		User domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/usuario/me", nil, &res, nil); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// ChangePassword swaps the stored token for the one the server reissues.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	var res struct {
		Token string `json:"token"`
	}
	in := service.ChangePasswordInput{Current: current, New: next}
	if err := c.do(ctx, http.MethodPatch, "/api/usuario/me/password", in, &res, nil); err != nil {
		return err
	}
	return c.auth.Set(res.Token)
}

func (c *Client) ListRooms(ctx context.Context, filters url.Values) (*service.RoomPage, error) {
	var page service.RoomPage
	if err := c.do(ctx, http.MethodGet, "/api/habitacion", nil, &page, filters); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetRoom(ctx context.Context, id uint) (*service.RoomDetail, error) {
	var detail service.RoomDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/habitacion/%d", id), nil, &detail, nil); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Join moves the signed-in user into a room.
func (c *Client) Join(ctx context.Context, roomID uint) (*service.JoinResult, error) {
	var res service.JoinResult
	if err := c.do(ctx, http.MethodPost, "/api/usuario-habitacion/join", service.JoinInput{RoomID: roomID}, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Leave(ctx context.Context) (*domain.Stay, error) {
	var res struct {
		Stay domain.Stay `json:"stay"`
	}
	if err := c.do(ctx, http.MethodPatch, "/api/usuario-habitacion/leave", nil, &res, nil); err != nil {
		return nil, err
	}
	return &res.Stay, nil
}

func (c *Client) Roommates(ctx context.Context, pisoID uint) ([]service.Roommate, error) {
	var res struct {
		Roommates []service.Roommate `json:"convivientes"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/usuario-habitacion/piso/%d/convivientes", pisoID), nil, &res, nil); err != nil {
		return nil, err
	}
	return res.Roommates, nil
}

func (c *Client) CastVote(ctx context.Context, in service.VoteInput) (*service.VoteResult, error) {
	var res service.VoteResult
	if err := c.do(ctx, http.MethodPost, "/api/voto-usuario", in, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) VoteSummary(ctx context.Context, userID uint) (*service.VoteSummary, error) {
	var sum service.VoteSummary
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/voto-usuario/usuario/%d/resumen", userID), nil, &sum, nil); err != nil {
		return nil, err
	}
	return &sum, nil
}
