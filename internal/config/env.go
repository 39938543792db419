package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// environment holds the variables the deployment sets next to the config
// file. Non-empty values win over the file.
type environment struct {
	ClientID        string           `env:"KEYCLOAK_CLIENT"`
	ClientSecret    string           `env:"KEYCLOAK_CREDENTIALS_SECRET"`
	RedirectURI     string           `env:"REDIRECT_URI"`
	IdPHost         string           `env:"KEYCLOAK_HOST"`
	IdPPort         int              `env:"KEYCLOAK_PORT"`
	Realm           string           `env:"KEYCLOAK_REALM"`
	RefreshInterval millisOrDuration `env:"REFRESH_TOKEN_TIME"`
	FrontendHomeURL string           `env:"FRONTEND_HOME_URL"`
	RedisPassword   string           `env:"REDIS_PASSWORD"`
}

func (c *Config) loadFromEnv() error {
	var e environment
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&c.IdP.ClientID, e.ClientID)
	setString(&c.IdP.ClientSecret, e.ClientSecret)
	setString(&c.IdP.RedirectURI, e.RedirectURI)
	setString(&c.IdP.Host, e.IdPHost)
	setString(&c.IdP.Realm, e.Realm)
	setString(&c.Server.FrontendHomeURL, e.FrontendHomeURL)

	if e.IdPPort != 0 {
		c.IdP.Port = e.IdPPort
	}
	if e.RefreshInterval != 0 {
		c.Session.RefreshInterval = time.Duration(e.RefreshInterval)
	}

	if e.RedisPassword != "" && c.Store.Redis != nil {
		c.Store.Redis.Password = e.RedisPassword
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// millisOrDuration accepts a Go duration ("4m") or a bare number of
// milliseconds ("240000"), the form older deployments set.
type millisOrDuration time.Duration

func (d *millisOrDuration) UnmarshalText(text []byte) error {
	raw := string(text)

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms < 0 {
			return fmt.Errorf("negative interval: %s", raw)
		}
		*d = millisOrDuration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", raw, err)
	}
	*d = millisOrDuration(parsed)
	return nil
}
