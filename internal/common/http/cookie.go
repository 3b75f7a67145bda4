package http

import (
	"net/http"
	"time"
)

type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// CookieManager writes and clears one HttpOnly cookie with fixed attributes.
type CookieManager struct {
	cfg CookieConfig
}

func NewCookieManager(cfg CookieConfig) *CookieManager {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &CookieManager{cfg: cfg}
}

func (m *CookieManager) Name() string {
	return m.cfg.Name
}

func (m *CookieManager) Set(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.Name,
		Value:    value,
		Path:     m.cfg.Path,
		MaxAge:   int(m.cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: m.cfg.SameSite,
	})
}

func (m *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.Name,
		Value:    "",
		Path:     m.cfg.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: m.cfg.SameSite,
	})
}

// Read returns the cookie value, or "" when the cookie is absent.
func (m *CookieManager) Read(r *http.Request) string {
	c, err := r.Cookie(m.cfg.Name)
	if err != nil {
		return ""
	}
	return c.Value
}
