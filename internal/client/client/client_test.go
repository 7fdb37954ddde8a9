package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRegister_SendsBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "a@b.co", "password": "pw", "full_name": "A"}, body)

		writeJSON(w, http.StatusOK, Token{AccessToken: "t", TokenType: "bearer"})
	})

	tok, err := c.Register(context.Background(), "a@b.co", []byte("pw"), "A")
	require.NoError(t, err)
	assert.Equal(t, &Token{AccessToken: "t", TokenType: "bearer"}, tok)
}

func TestLoginMeLogout(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, http.StatusOK, Token{AccessToken: "tok-1", TokenType: "bearer"})
		case "/auth/me":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{
				"id": "u1", "email": "a@b.co", "full_name": nil, "picture": "p", "is_active": true,
			})
		case "/auth/logout":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	tok, err := c.Login(ctx, "a@b.co", []byte("pw"))
	require.NoError(t, err)

	u, err := c.Me(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Nil(t, u.FullName)
	require.NotNil(t, u.Picture)
	assert.Equal(t, "p", *u.Picture)
	assert.True(t, u.IsActive)

	require.NoError(t, c.Logout(ctx, tok.AccessToken))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		detail string
		want   error
	}{
		{http.StatusBadRequest, "User with this email already exists", common.ErrorValidation},
		{http.StatusUnauthorized, "Incorrect email or password", common.ErrorUnauthorized},
		{http.StatusForbidden, "Inactive user", common.ErrorForbidden},
		{http.StatusBadGateway, "provider down", common.ErrorUpstreamAuth},
		{http.StatusServiceUnavailable, "", ErrUnavailable},
		{http.StatusInternalServerError, "", common.ErrorInternal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.detail == "" {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, map[string]string{"detail": tt.detail})
			})

			_, err := c.Login(context.Background(), "a@b.co", []byte("pw"))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			want := tt.detail
			if want == "" {
				want = http.StatusText(tt.status)
			}
			assert.Equal(t, want, Detail(err))
		})
	}
}

func TestUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, time.Second)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestPing(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestBadResponseBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	_, err := c.Login(context.Background(), "a@b.co", []byte("pw"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
