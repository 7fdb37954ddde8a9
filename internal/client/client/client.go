package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const maxResponseBytes = 1 << 20

// Token is the server's answer to register and login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is the profile returned by /auth/me.
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	Picture  *string `json:"picture"`
	IsActive bool    `json:"is_active"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the server at baseURL
// (e.g. "http://127.0.0.1:8000"). timeout bounds each request.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Register(ctx context.Context, email string, password []byte, fullName string) (*Token, error) {
	body := map[string]string{"email": email, "password": string(password)}
	if fullName != "" {
		body["full_name"] = fullName
	}
	var tok Token
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*Token, error) {
	var tok Token
	body := map[string]string{"email": email, "password": string(password)}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *HTTPClient) Me(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/me", accessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", accessToken, nil, nil)
}

// Ping checks /health.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var e struct {
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(body, &e)
	if e.Detail == "" {
		e.Detail = http.StatusText(status)
	}

	var kind error
	switch status {
	case http.StatusBadRequest:
		kind = common.ErrorValidation
	case http.StatusUnauthorized:
		kind = common.ErrorUnauthorized
	case http.StatusForbidden:
		kind = common.ErrorForbidden
	case http.StatusNotFound:
		kind = common.ErrorNotFound
	case http.StatusBadGateway:
		kind = common.ErrorUpstreamAuth
	case http.StatusServiceUnavailable:
		kind = ErrUnavailable
	default:
		kind = common.ErrorInternal
	}
	return fmt.Errorf("%w: %s", kind, e.Detail)
}

var kinds = []error{
	common.ErrorValidation, common.ErrorUnauthorized, common.ErrorForbidden,
	common.ErrorNotFound, common.ErrorUpstreamAuth, common.ErrorInternal, ErrUnavailable,
}

// Detail extracts the server's message from an error returned by
// HTTPClient, or returns err.Error() for anything else.
func Detail(err error) string {
	msg := err.Error()
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return strings.TrimPrefix(msg, kind.Error()+": ")
		}
	}
	return msg
}
