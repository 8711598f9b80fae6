package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

// Store is the global session store for OAuth flows. It holds temporary
// state during the authorization redirect (state parameter, PKCE verifier).
var Store *sessions.CookieStore

// SessionName is the name of the OAuth session cookie.
const SessionName = "oauth-session"

// Session value keys.
const (
	SessionKeyState        = "state"
	SessionKeyCodeVerifier = "code_verifier"
)

// InitSessionStore initializes the cookie-based session store for OAuth
// flows. The secret can be any passphrase; it is SHA-256 hashed to derive a
// 32-byte signing key and must be consistent across restarts.
//
// The session has a short TTL since it only needs to persist during the
// OAuth redirect.
func InitSessionStore(secret string) {
	key := sha256.Sum256([]byte(secret))

	Store = sessions.NewCookieStore(key[:])
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// GetSession retrieves the OAuth session from the request, creating a new
// one if none exists.
func GetSession(r *http.Request) (*sessions.Session, error) {
	return Store.Get(r, SessionName)
}

// SaveSession saves the session to the response.
func SaveSession(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	return session.Save(r, w)
}

// ClearSessionValues removes OAuth values from the session after the flow
// completes.
func ClearSessionValues(session *sessions.Session) {
	delete(session.Values, SessionKeyState)
	delete(session.Values, SessionKeyCodeVerifier)
}
