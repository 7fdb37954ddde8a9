package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/oauth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

const (
	stateCookieName   = "oauth_state"
	stateCookiePath   = "/auth/google"
	stateCookieMaxAge = 600
	stateBytes        = 16

	maxBodyBytes = 1 << 16
)

// AuthService is what the handlers need from services.AuthService.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, *services.Token, error)
	Login(ctx context.Context, email, password string) (*models.User, *services.Token, error)
	AuthenticateOAuth(ctx context.Context, p services.OAuthProfile) (*models.User, *services.Token, error)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// OAuthProvider is what the handlers need from oauth.GoogleProvider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Profile, error)
}

// HealthChecker is satisfied by *sql.DB.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

type HandlerConfig struct {
	FrontendURL  string
	SecureCookie bool
}

type Handler struct {
	auth     AuthService
	provider OAuthProvider
	health   HealthChecker
	metrics  *Metrics
	logger   logging.Logger
	cfg      HandlerConfig
}

func NewHandler(a AuthService, p OAuthProvider, hc HealthChecker, m *Metrics, l logging.Logger, cfg HandlerConfig) *Handler {
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &Handler{
		auth:     a,
		provider: p,
		health:   hc,
		metrics:  m,
		logger:   l.With("module", "http_handler"),
		cfg:      cfg,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	Picture  *string `json:"picture"`
	IsActive bool    `json:"is_active"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Picture:  u.Picture,
		IsActive: u.IsActive,
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	return nil
}

// fail writes the mapped error response and logs anything unexpected.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	_, token, err := h.auth.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	h.metrics.RecordAuth("register", outcome(err))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	_, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	h.metrics.RecordAuth("login", outcome(err))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(userFromContext(r.Context())))
}

// Logout only confirms the token is valid; tokens are stateless and the
// client discards its copy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.PingContext(r.Context()); err != nil {
			h.logger.Error(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GoogleLogin starts the authorization code flow.
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := common.MakeRandHexString(stateBytes)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback completes the flow and redirects to the frontend with the
// access token.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// the state cookie is single use
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if !h.validState(r, q.Get("state")) {
		h.metrics.RecordAuth("oauth", "invalid")
		writeError(w, http.StatusBadRequest, msgStateMismatch)
		return
	}

	// the provider's text is logged only
	if e := q.Get("error"); e != "" {
		h.logger.Warn(r.Context(), "provider returned error", "error", e)
		h.metrics.RecordAuth("oauth", "denied")
		writeError(w, http.StatusBadRequest, msgProviderDenied)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.metrics.RecordAuth("oauth", "invalid")
		writeError(w, http.StatusBadRequest, msgMissingCode)
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn(r.Context(), "oauth exchange failed", "error", err)
		h.metrics.RecordAuth("oauth", outcome(err))
		writeError(w, http.StatusBadGateway, msgUpstream)
		return
	}

	_, token, err := h.auth.AuthenticateOAuth(r.Context(), services.OAuthProfile{
		ExternalID: profile.ID,
		Email:      profile.Email,
		FullName:   profile.Name,
		Picture:    profile.Picture,
	})
	h.metrics.RecordAuth("oauth", outcome(err))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, h.cfg.FrontendURL+"/?"+url.Values{"token": {token.AccessToken}}.Encode(), http.StatusTemporaryRedirect)
}

func (h *Handler) validState(r *http.Request, state string) bool {
	c, err := r.Cookie(stateCookieName)
	if err != nil || c.Value == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) == 1
}
