package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/sso-session/internal/auth"
)

// TokenExchanger performs the grants against the identity provider.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code, currentPath string) (*auth.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenSet, error)
}

type TokenHandler struct {
	exchanger TokenExchanger
	logger    *slog.Logger
}

func NewTokenHandler(exchanger TokenExchanger, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		exchanger: exchanger,
		logger:    logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleExchange serves POST /token.
func (h *TokenHandler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form data"})
		return
	}

	code := r.PostForm.Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "code is required"})
		return
	}

	tokens, err := h.exchanger.ExchangeCode(r.Context(), code, r.PostForm.Get("currentPath"))
	if err != nil {
		h.logger.Error("code exchange failed", "error", err)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "code exchange failed"})
		return
	}

	h.logger.Info("code exchanged", "roles", tokens.Roles)
	writeJSON(w, http.StatusOK, tokens)
}

// HandleRefresh serves POST /token/refresh.
func (h *TokenHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form data"})
		return
	}

	refreshToken := r.PostForm.Get("refreshToken")
	if refreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "refreshToken is required"})
		return
	}

	tokens, err := h.exchanger.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.logger.Warn("token refresh failed", "error", err)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "token refresh failed"})
		return
	}

	writeJSON(w, http.StatusOK, auth.TokenSet{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
