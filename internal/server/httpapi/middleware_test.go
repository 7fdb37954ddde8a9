package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	h := recovery(logging.NewJSONLogger(&buf, "info"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), msgInternal)
	assert.NotContains(t, rec.Body.String(), "kaboom")
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestSecurityHeaders(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodGet, "/health", "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAccessLog_LevelAndUser(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewJSONLogger(&buf, "debug")

	h := NewHandler(&fakeAuth{}, &fakeProvider{}, nil, nil, logging.Nop(), HandlerConfig{})
	router := NewRouter(h, l, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer t")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	line := buf.String()
	assert.Contains(t, line, `"level":"INFO"`)
	assert.Contains(t, line, `"user_id":"u-1"`)
	assert.Contains(t, line, `"status":200`)

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.NotContains(t, buf.String(), "user_id")
}

func TestMetrics(t *testing.T) {
	e := newEnv(t)

	e.do(http.MethodPost, "/auth/login", `{"email":"a@b.co","password":"x"}`)
	e.do(http.MethodGet, "/nope", "")

	rec := e.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gophauth_http_requests_total{method="POST",route="/auth/login",status="200"} 1`)
	assert.Contains(t, body, `route="unmatched"`)
	assert.Contains(t, body, `gophauth_auth_events_total{flow="login",outcome="success"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordAuth("login", "success")
	m.RecordRequest("GET", "/", 200, 0)
}

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordAuth("register", "conflict")

	n, err := testutil.GatherAndCount(reg, "gophauth_auth_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP gophauth_auth_events_total Authentication attempts by flow and outcome.
# TYPE gophauth_auth_events_total counter
gophauth_auth_events_total{flow="register",outcome="conflict"} 1
`), "gophauth_auth_events_total"))
}
