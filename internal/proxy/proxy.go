package proxy

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/marcogenualdo/sso-session/internal/session"
	"github.com/marcogenualdo/sso-session/internal/store"
)

// ReverseProxy forwards record API calls with the session's access token.
type ReverseProxy struct {
	proxy      *httputil.ReverseProxy
	store      store.Store
	capability session.Capability
	logger     *slog.Logger
}

func NewReverseProxy(apiURL string, st store.Store, capability session.Capability, logger *slog.Logger) (*ReverseProxy, error) {
	target, err := url.Parse(apiURL)
	if err != nil {
		return nil, err
	}

	rp := &ReverseProxy{
		store:      st,
		capability: capability,
		logger:     logger,
	}

	rp.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("proxy error",
				"error", err,
				"backend", target.String(),
				"path", r.URL.Path,
			)
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}

	return rp, nil
}

func (rp *ReverseProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	accessToken, err := rp.store.Get(r.Context(), store.KeyAccessToken)
	if err != nil || accessToken == "" {
		rp.logger.Warn("no access token for authenticated session", "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	InjectHeaders(r, accessToken, rp.capability.Roles())

	rp.logger.Debug("proxying request", "path", r.URL.Path)

	rp.proxy.ServeHTTP(w, r)
}
