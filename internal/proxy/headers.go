package proxy

import (
	"net/http"
	"strings"

	"github.com/marcogenualdo/sso-session/internal/roles"
)

const RolesHeader = "X-Auth-Roles"

// InjectHeaders replaces any client-supplied credentials with the session's.
func InjectHeaders(req *http.Request, accessToken string, granted roles.Set) {
	req.Header.Del("Authorization")
	req.Header.Del(RolesHeader)

	req.Header.Set("Authorization", "Bearer "+accessToken)
	if granted.Len() > 0 {
		req.Header.Set(RolesHeader, strings.Join(granted.Sorted(), ","))
	}
}
