package social

import (
	"net/url"

	"github.com/resonant-ai/resonant-engine/pkg/config"
)

const linkedinAuthURL = "https://www.linkedin.com/oauth/v2/authorization"

// linkedinScopes are the OpenID Connect sign-in scopes.
const linkedinScopes = "openid profile email"

// LinkedInAuthorizeURL builds the LinkedIn OAuth authorization redirect used
// as the sign-in entry point. The actual code exchange happens at the hosted
// auth provider, not here.
func LinkedInAuthorizeURL(cfg config.LinkedInConfig, state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", cfg.RedirectURL)
	q.Set("state", state)
	q.Set("scope", linkedinScopes)
	return linkedinAuthURL + "?" + q.Encode()
}
