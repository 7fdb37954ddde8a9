package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRealServer wires the real service stack over a temporary SQLite file.
func newRealServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, m, err := repomanager.Open("sqlite:///" + filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, m.RunMigrations(context.Background(), db))

	tokens, err := auth.NewJWTManager([]byte("scenario-secret"), "HS256", 30*time.Minute)
	require.NoError(t, err)
	hasher := cryptox.Argon2Hasher{Params: cryptox.Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}}

	svc := services.NewAuthService(db, m, tokens, hasher, logging.Nop())
	reg := prometheus.NewRegistry()
	h := NewHandler(svc, &fakeProvider{}, db, NewMetrics(reg), logging.Nop(), HandlerConfig{FrontendURL: "http://localhost:3000"})

	srv := httptest.NewServer(NewRouter(h, logging.Nop(), reg))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string, hdr ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if len(hdr) == 2 {
		req.Header.Set(hdr[0], hdr[1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestScenario_RegisterLoginMe(t *testing.T) {
	srv := newRealServer(t)

	resp := post(t, srv.URL+"/auth/register", `{"email":"alice@example.com","password":"pw12345"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, srv.URL+"/auth/login", `{"email":"alice@example.com","password":"pw12345"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok services.Token
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	resp.Body.Close()
	assert.Equal(t, "bearer", tok.TokenType)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me userResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "alice@example.com", me.Email)
	assert.True(t, me.IsActive)
	assert.NotEmpty(t, me.ID)

	// wrong password and unknown email look the same
	r1 := post(t, srv.URL+"/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
	r2 := post(t, srv.URL+"/auth/login", `{"email":"nobody@example.com","password":"wrong"}`)
	defer r1.Body.Close()
	defer r2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, r1.StatusCode)
	assert.Equal(t, r1.StatusCode, r2.StatusCode)
	var b1, b2 errorBody
	require.NoError(t, json.NewDecoder(r1.Body).Decode(&b1))
	require.NoError(t, json.NewDecoder(r2.Body).Decode(&b2))
	assert.Equal(t, b1, b2)
}

func TestScenario_ConcurrentDuplicateRegistration(t *testing.T) {
	srv := newRealServer(t)

	const n = 6
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/auth/register", strings.NewReader(`{"email":"race@example.com","password":"pw"}`))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			codes[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	ok, dup := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusBadRequest:
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
}
