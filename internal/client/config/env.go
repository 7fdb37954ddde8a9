package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	ServerURL      string        `env:"SERVER_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

func parseEnv(cfg *Config, environ []string) error {
	e := envConfig{ServerURL: cfg.ServerURL, RequestTimeout: cfg.RequestTimeout}

	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return err
	}

	cfg.ServerURL = e.ServerURL
	cfg.RequestTimeout = e.RequestTimeout
	return nil
}
