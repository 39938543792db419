package auth

// TokenSet is the JSON body of the backend's /token and /token/refresh
// responses. Refresh responses leave IDToken and Roles empty.
type TokenSet struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	IDToken      string   `json:"id_token,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}

// Complete reports whether a code exchange produced all three tokens.
func (t *TokenSet) Complete() bool {
	return t != nil && t.AccessToken != "" && t.RefreshToken != "" && t.IDToken != ""
}

// Renewed reports whether a refresh produced both a new access and refresh token.
func (t *TokenSet) Renewed() bool {
	return t != nil && t.AccessToken != "" && t.RefreshToken != ""
}
