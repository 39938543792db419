package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.validateIdP(); err != nil {
		return fmt.Errorf("idp config: %w", err)
	}

	if err := c.validateSession(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := c.validateStore(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if err := c.validateAgent(); err != nil {
		return fmt.Errorf("agent config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.FrontendHomeURL != "" {
		if err := validateAbsoluteURL(c.Server.FrontendHomeURL); err != nil {
			return fmt.Errorf("invalid frontend_home_url: %w", err)
		}
	}

	return nil
}

func (c *Config) validateIdP() error {
	if c.IdP.Host == "" {
		return fmt.Errorf("host is required")
	}

	if err := validateAbsoluteURL(c.IdP.BaseURL()); err != nil {
		return fmt.Errorf("invalid host: %w", err)
	}

	if c.IdP.Port < 0 || c.IdP.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.IdP.Port)
	}

	if c.IdP.Realm == "" {
		return fmt.Errorf("realm is required")
	}

	if c.IdP.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}

	if c.IdP.RedirectURI == "" {
		return fmt.Errorf("redirect_uri is required")
	}

	if err := validateAbsoluteURL(c.IdP.RedirectURI); err != nil {
		return fmt.Errorf("invalid redirect_uri: %w", err)
	}

	if c.IdP.InternalURL != "" {
		if err := validateAbsoluteURL(c.IdP.InternalURL); err != nil {
			return fmt.Errorf("invalid internal_url: %w", err)
		}
	}

	return nil
}

func (c *Config) validateSession() error {
	if c.Session.RefreshInterval < time.Second {
		return fmt.Errorf("refresh_interval must be at least 1 second")
	}

	if c.Session.BackendURL != "" {
		if err := validateAbsoluteURL(c.Session.BackendURL); err != nil {
			return fmt.Errorf("invalid backend_url: %w", err)
		}
	}

	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Type != "memory" && c.Store.Type != "redis" {
		return fmt.Errorf("invalid type: %s (must be memory or redis)", c.Store.Type)
	}

	if c.Store.Type == "redis" {
		if c.Store.Redis == nil {
			return fmt.Errorf("redis config is required when type is redis")
		}
		if c.Store.Redis.Address == "" {
			return fmt.Errorf("redis address is required")
		}
	}

	return nil
}

func (c *Config) validateAgent() error {
	if c.Agent.APIURL != "" {
		if err := validateAbsoluteURL(c.Agent.APIURL); err != nil {
			return fmt.Errorf("invalid api_url: %w", err)
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" {
		return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}
