package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type HealthHandler struct {
	discoveryURL string
	client       *http.Client
	logger       *slog.Logger
	startTime    time.Time
}

// NewHealthHandler reports the backend healthy while the realm's discovery
// document at discoveryURL is reachable.
func NewHealthHandler(discoveryURL string, client *http.Client, logger *slog.Logger) *HealthHandler {
	if client == nil {
		client = http.DefaultClient
	}

	return &HealthHandler{
		discoveryURL: discoveryURL,
		client:       client,
		logger:       logger,
		startTime:    time.Now(),
	}
}

type HealthResponse struct {
	Status   string         `json:"status"`
	Uptime   string         `json:"uptime"`
	Provider ProviderHealth `json:"provider"`
}

type ProviderHealth struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status: "healthy",
		Uptime: time.Since(h.startTime).String(),
		Provider: ProviderHealth{
			URL:    h.discoveryURL,
			Status: "reachable",
		},
	}

	if err := h.probe(ctx); err != nil {
		h.logger.Warn("identity provider unreachable", "error", err)
		response.Provider.Status = "unreachable"
		response.Status = "degraded"
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (h *HealthHandler) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.discoveryURL, nil)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.code)
}
