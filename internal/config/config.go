package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	IdP     IdPConfig     `yaml:"idp"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
	Agent   AgentConfig   `yaml:"agent"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the token backend.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	FrontendHomeURL string        `yaml:"frontend_home_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

type IdPConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	Realm                 string `yaml:"realm"`
	InternalURL           string `yaml:"internal_url,omitempty"`
	ClientID              string `yaml:"client_id"`
	ClientSecret          string `yaml:"client_secret"`
	RedirectURI           string `yaml:"redirect_uri"`
	PostLogoutRedirectURI string `yaml:"post_logout_redirect_uri"`
	VerifyIDToken         bool   `yaml:"verify_id_token"`
}

// BaseURL is the browser-facing address of the IdP, host and port joined
// the way the IdP issues its URLs.
func (c IdPConfig) BaseURL() string {
	if c.Port == 0 {
		return c.Host
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// BackendURL is the address the token backend uses to reach the IdP.
func (c IdPConfig) BackendURL() string {
	if c.InternalURL != "" {
		return c.InternalURL
	}
	return c.BaseURL()
}

type SessionConfig struct {
	BackendURL      string        `yaml:"backend_url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Timeout         time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Type      string       `yaml:"type"`
	Namespace string       `yaml:"namespace"`
	Redis     *RedisConfig `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	MaxRetries int    `yaml:"max_retries"`
}

// AgentConfig configures the local session agent. The agent listens on the
// host of idp.redirect_uri unless ListenAddr is set.
type AgentConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	APIURL     string `yaml:"api_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 10 * time.Second
	}

	if c.IdP.PostLogoutRedirectURI == "" {
		c.IdP.PostLogoutRedirectURI = c.IdP.RedirectURI
	}

	if c.Session.BackendURL == "" {
		c.Session.BackendURL = fmt.Sprintf("http://127.0.0.1:%d", c.Server.Port)
	}
	if c.Session.RefreshInterval == 0 {
		c.Session.RefreshInterval = 4 * time.Minute
	}
	if c.Session.Timeout == 0 {
		c.Session.Timeout = 10 * time.Second
	}

	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = "sso-session"
	}
	if c.Store.Type == "redis" && c.Store.Redis != nil {
		if c.Store.Redis.PoolSize == 0 {
			c.Store.Redis.PoolSize = 10
		}
		if c.Store.Redis.MaxRetries == 0 {
			c.Store.Redis.MaxRetries = 3
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}
