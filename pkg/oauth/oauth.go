package oauth

import (
	"encoding/base64"
	"fmt"
	"net/url"
)

// Token is the JSON body returned by an OAuth2 token endpoint.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	TokenType    string `json:"token_type"`
}

// BasicCredentials renders the Authorization header value for a client id/secret pair.
func BasicCredentials(clientId, clientSecret string) string {
	raw := fmt.Sprintf("%s:%s", clientId, clientSecret)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// ClientCredentialsForm is the form body of a client credentials grant.
func ClientCredentialsForm(scope string) url.Values {
	form := url.Values{}
	form.Add("grant_type", "client_credentials")
	if scope != "" {
		form.Add("scope", scope)
	}
	return form
}
