package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/marcogenualdo/sso-session/internal/agent"
	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/internal/keycloak"
	"github.com/marcogenualdo/sso-session/internal/server"
	"github.com/marcogenualdo/sso-session/internal/store"
)

const version = "1.0.0"

const defaultConfigPath = "/etc/sso-session/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	configPathShort := flag.String("c", defaultConfigPath, "path to configuration file (short)")
	mode := flag.String("mode", "server", "what to run: server (token backend) or agent (session agent)")
	showVersion := flag.Bool("version", false, "show version and exit")
	showHelp := flag.Bool("help", false, "show help and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("SSO Session v%s\n", version)
		os.Exit(0)
	}

	if *showHelp {
		fmt.Println("SSO Session - OIDC session lifecycle for a Keycloak realm")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfgPath := *configPath
	if *configPathShort != defaultConfigPath {
		cfgPath = *configPathShort
	}

	if err := run(cfgPath, *mode); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, mode string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting sso-session", "version", version, "mode", mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "server":
		return runServer(ctx, cfg, logger)
	case "agent":
		return runAgent(ctx, cfg, logger)
	default:
		return fmt.Errorf("unsupported mode: %s", mode)
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	redirectURL := cfg.Server.FrontendHomeURL
	if redirectURL == "" {
		redirectURL = cfg.IdP.RedirectURI
	}

	httpClient := &http.Client{Timeout: cfg.Server.RequestTimeout}
	svc := keycloak.NewService(ctx, cfg.IdP, redirectURL, logger,
		keycloak.WithHTTPClient(httpClient),
	)
	logger.Info("keycloak client initialized",
		"realm", cfg.IdP.Realm,
		"token_endpoint", oidc.NewEndpoints(cfg.IdP.BackendURL(), cfg.IdP.Realm).Token(),
		"verify_id_token", cfg.IdP.VerifyIDToken,
	)

	return server.New(*cfg, svc, logger).Run(ctx)
}

func runAgent(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to create token store: %w", err)
	}
	defer st.Close()
	logger.Info("token store initialized", "type", cfg.Store.Type)

	client := oidc.NewClient(cfg.IdP, cfg.Session, &http.Client{Timeout: cfg.Session.Timeout})

	a, err := agent.New(*cfg, st, client, os.Stderr, logger)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	return a.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
