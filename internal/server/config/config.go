// Package config builds the server configuration from defaults, an optional
// JSON file, the environment and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/auth"
)

// Config holds runtime settings for the auth server. It is built once at
// startup and treated as read-only afterwards.
type Config struct {
	HTTPAddr                    string
	DatabaseDSN                 string
	SecretKey                   string
	Algorithm                   string
	AccessTokenValidityDuration time.Duration
	GoogleClientID              string
	GoogleClientSecret          string
	GoogleRedirectURI           string
	FrontendURL                 string
	OAuthTimeout                time.Duration
	LogLevel                    string
}

// LoadDefaults populates Config with development defaults. SecretKey is
// left empty on purpose and must be supplied.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = "0.0.0.0:8000"
	c.DatabaseDSN = "sqlite:///./oauth_app.db"
	c.Algorithm = "HS256"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.GoogleRedirectURI = "http://localhost:8000/auth/google/callback"
	c.FrontendURL = "http://localhost:3000"
	c.OAuthTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SecretKey) == "" {
		errs = append(errs, errors.New("secret key is required (SECRET_KEY)"))
	}
	if !auth.IsSupportedAlgorithm(c.Algorithm) {
		errs = append(errs, fmt.Errorf("unsupported signing algorithm %q", c.Algorithm))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token lifetime must be positive"))
	}
	if c.OAuthTimeout <= 0 {
		errs = append(errs, errors.New("oauth timeout must be positive"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	return errors.Join(errs...)
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// environ, then flags from args, and validates the result. args excludes
// the program name; environ is in os.Environ form.
func LoadConfig(args []string, environ []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg, environ); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
