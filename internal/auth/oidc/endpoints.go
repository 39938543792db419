package oidc

import (
	"net/url"
	"strings"
)

// Endpoints locates the OpenID Connect endpoints of one realm.
type Endpoints struct {
	baseURL string
	realm   string
}

func NewEndpoints(baseURL, realm string) Endpoints {
	return Endpoints{
		baseURL: strings.TrimRight(baseURL, "/"),
		realm:   realm,
	}
}

func (e Endpoints) Issuer() string {
	return e.baseURL + "/realms/" + url.PathEscape(e.realm)
}

func (e Endpoints) Auth() string {
	return e.Issuer() + "/protocol/openid-connect/auth"
}

func (e Endpoints) Token() string {
	return e.Issuer() + "/protocol/openid-connect/token"
}

func (e Endpoints) Logout() string {
	return e.Issuer() + "/protocol/openid-connect/logout"
}

func (e Endpoints) Certs() string {
	return e.Issuer() + "/protocol/openid-connect/certs"
}

func (e Endpoints) Discovery() string {
	return e.Issuer() + "/.well-known/openid-configuration"
}
