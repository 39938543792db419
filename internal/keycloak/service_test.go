package keycloak_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/internal/keycloak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	clientID    = "admin-ui"
	redirectURL = "http://localhost:3000/home"
	tokenPath   = "/realms/template/protocol/openid-connect/token"
)

type fakeRealm struct {
	t        *testing.T
	server   *httptest.Server
	key      *rsa.PrivateKey
	idClaims jwt.MapClaims
	noID     bool
}

func newFakeRealm(t *testing.T) *fakeRealm {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	r := &fakeRealm{t: t, key: key}
	r.server = httptest.NewServer(http.HandlerFunc(r.serveToken))
	t.Cleanup(r.server.Close)

	r.idClaims = jwt.MapClaims{
		"iss": r.issuer(),
		"aud": clientID,
		"sub": "alice",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	return r
}

func (r *fakeRealm) issuer() string {
	return r.server.URL + "/realms/template"
}

func (r *fakeRealm) config() config.IdPConfig {
	return config.IdPConfig{
		Host:         r.server.URL,
		Realm:        "template",
		ClientID:     clientID,
		ClientSecret: "s3cret",
		RedirectURI:  redirectURL,
	}
}

func (r *fakeRealm) verifier() *gooidc.IDTokenVerifier {
	keySet := &gooidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&r.key.PublicKey}}
	return gooidc.NewVerifier(r.issuer(), keySet, &gooidc.Config{ClientID: clientID})
}

func (r *fakeRealm) serveToken(w http.ResponseWriter, req *http.Request) {
	t := r.t
	assert.Equal(t, tokenPath, req.URL.Path)
	assert.NoError(t, req.ParseForm())
	assert.Equal(t, clientID, req.PostForm.Get("client_id"))
	assert.Equal(t, "s3cret", req.PostForm.Get("client_secret"))

	resp := map[string]interface{}{
		"token_type": "Bearer",
		"expires_in": 300,
	}

	switch req.PostForm.Get("grant_type") {
	case "authorization_code":
		assert.Equal(t, redirectURL, req.PostForm.Get("redirect_uri"))
		if req.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		resp["access_token"] = signHS(t, jwt.MapClaims{
			"exp":          time.Now().Add(5 * time.Minute).Unix(),
			"realm_access": map[string]interface{}{"roles": []string{"admin", "offline_access"}},
		})
		resp["refresh_token"] = "refresh-1"
		if !r.noID {
			idToken, err := jwt.NewWithClaims(jwt.SigningMethodRS256, r.idClaims).SignedString(r.key)
			assert.NoError(t, err)
			resp["id_token"] = idToken
		}
	case "refresh_token":
		if req.PostForm.Get("refresh_token") != "refresh-1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		resp["access_token"] = "access-2"
		resp["refresh_token"] = "refresh-2"
	default:
		t.Errorf("unexpected grant type %q", req.PostForm.Get("grant_type"))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func signHS(t *testing.T, claims jwt.MapClaims) string {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	assert.NoError(t, err)
	return raw
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_ExchangeCode(t *testing.T) {
	ctx := context.Background()

	t.Run("success with verification", func(t *testing.T) {
		realm := newFakeRealm(t)
		svc := keycloak.NewService(ctx, realm.config(), redirectURL, discard(), keycloak.WithVerifier(realm.verifier()))

		tokens, err := svc.ExchangeCode(ctx, "good-code", "/home")
		require.NoError(t, err)
		require.True(t, tokens.Complete())
		require.Equal(t, "refresh-1", tokens.RefreshToken)
		require.Equal(t, []string{"admin", "offline_access"}, tokens.Roles)
	})

	t.Run("rejected code", func(t *testing.T) {
		realm := newFakeRealm(t)
		svc := keycloak.NewService(ctx, realm.config(), redirectURL, discard())

		_, err := svc.ExchangeCode(ctx, "bad-code", "/home")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to exchange code")
	})

	t.Run("missing id token", func(t *testing.T) {
		realm := newFakeRealm(t)
		realm.noID = true
		svc := keycloak.NewService(ctx, realm.config(), redirectURL, discard())

		_, err := svc.ExchangeCode(ctx, "good-code", "/home")
		require.ErrorIs(t, err, keycloak.ErrMissingIDToken)
	})

	t.Run("id token for another client", func(t *testing.T) {
		realm := newFakeRealm(t)
		realm.idClaims["aud"] = "someone-else"
		svc := keycloak.NewService(ctx, realm.config(), redirectURL, discard(), keycloak.WithVerifier(realm.verifier()))

		_, err := svc.ExchangeCode(ctx, "good-code", "/home")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to verify ID token")
	})
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()
	realm := newFakeRealm(t)
	svc := keycloak.NewService(ctx, realm.config(), redirectURL, discard(), keycloak.WithHTTPClient(realm.server.Client()))

	tokens, err := svc.Refresh(ctx, "refresh-1")
	require.NoError(t, err)
	require.True(t, tokens.Renewed())
	require.Equal(t, "access-2", tokens.AccessToken)
	require.Equal(t, "refresh-2", tokens.RefreshToken)

	_, err = svc.Refresh(ctx, "revoked")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to refresh token")
}
