package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"inventorycam/internal/config"
	"inventorycam/internal/logger"
	"inventorycam/internal/middleware"
)

// AuthSecret returns the secret session cookies are derived from.
func AuthSecret(cfg *config.Config) string {
	if cfg.PasswordHash != "" {
		return cfg.PasswordHash
	}
	return cfg.Password
}

func checkPassword(cfg *config.Config, password string) bool {
	if cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(cfg.Password), []byte(password)) == 1
}

// LoginHandler handles POST /auth/login by validating password and issuing an auth cookie.
func LoginHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		password := r.FormValue("password")
		if !checkPassword(cfg, password) {
			logger.Warning("Failed login attempt from %s", r.RemoteAddr)
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    middleware.SessionToken(AuthSecret(cfg), time.Now()),
			Path:     "/",
			MaxAge:   int(middleware.SessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler clears the authentication cookie and redirects to the login page.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   middleware.SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
