package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SessionCookie is the name of the authentication cookie.
const SessionCookie = "authenticated"

// SessionTTL is how long a session cookie stays valid after login.
const SessionTTL = 30 * 24 * time.Hour

// clockSkew tolerates tokens issued slightly in the future.
const clockSkew = time.Minute

// SessionToken issues a cookie value "<unix issue time>.<hmac>" for secret.
func SessionToken(secret string, issued time.Time) string {
	ts := strconv.FormatInt(issued.Unix(), 10)
	return ts + "." + sessionMAC(secret, ts)
}

// ValidSessionToken reports whether token was issued for secret and is not expired at now.
func ValidSessionToken(secret, token string, now time.Time) bool {
	ts, sig, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	if !hmac.Equal([]byte(sig), []byte(sessionMAC(secret, ts))) {
		return false
	}

	age := now.Sub(time.Unix(unix, 0))
	return age >= -clockSkew && age <= SessionTTL
}

func sessionMAC(secret, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(SessionCookie + ":" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthMiddleware sprawdza, czy użytkownik jest zalogowany (ma poprawne cookie sesji).
// Pusty secret wyłącza uwierzytelnianie.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Strona logowania i zasoby statyczne bez uwierzytelnienia
			if r.URL.Path == "/login" ||
				r.URL.Path == "/auth/login" ||
				strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(SessionCookie)
			if err != nil || !ValidSessionToken(secret, cookie.Value, time.Now()) {
				// Zapytania API dostają 401
				if strings.HasPrefix(r.URL.Path, "/api/") ||
					r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
					r.Header.Get("Content-Type") == "application/json" {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				// Dla zwykłych żądań przekieruj na login
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
