package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config with the variable names operators set.
// Variables that are not set keep the value already in the struct.
type envConfig struct {
	HTTPAddr           string        `env:"HTTP_ADDR"`
	DatabaseDSN        string        `env:"DATABASE_URL"`
	SecretKey          string        `env:"SECRET_KEY"`
	Algorithm          string        `env:"ALGORITHM"`
	AccessTokenMinutes int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string        `env:"GOOGLE_REDIRECT_URI"`
	FrontendURL        string        `env:"FRONTEND_URL"`
	OAuthTimeout       time.Duration `env:"OAUTH_TIMEOUT"`
	LogLevel           string        `env:"LOG_LEVEL"`
}

func parseEnv(config *Config, environ []string) error {
	e := envConfig{
		HTTPAddr:           config.HTTPAddr,
		DatabaseDSN:        config.DatabaseDSN,
		SecretKey:          config.SecretKey,
		Algorithm:          config.Algorithm,
		AccessTokenMinutes: int(config.AccessTokenValidityDuration / time.Minute),
		GoogleClientID:     config.GoogleClientID,
		GoogleClientSecret: config.GoogleClientSecret,
		GoogleRedirectURI:  config.GoogleRedirectURI,
		FrontendURL:        config.FrontendURL,
		OAuthTimeout:       config.OAuthTimeout,
		LogLevel:           config.LogLevel,
	}
	minutesBefore := e.AccessTokenMinutes

	if err := env.ParseWithOptions(&e, env.Options{Environment: toMap(environ)}); err != nil {
		return err
	}

	config.HTTPAddr = e.HTTPAddr
	config.DatabaseDSN = e.DatabaseDSN
	config.SecretKey = e.SecretKey
	config.Algorithm = e.Algorithm
	if e.AccessTokenMinutes != minutesBefore {
		config.AccessTokenValidityDuration = time.Duration(e.AccessTokenMinutes) * time.Minute
	}
	config.GoogleClientID = e.GoogleClientID
	config.GoogleClientSecret = e.GoogleClientSecret
	config.GoogleRedirectURI = e.GoogleRedirectURI
	config.FrontendURL = e.FrontendURL
	config.OAuthTimeout = e.OAuthTimeout
	config.LogLevel = e.LogLevel
	return nil
}

func toMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
