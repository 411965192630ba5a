package handlers

import (
	"net/http"
	"time"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
)

// Register handles account creation
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Login sets the session cookies
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	session, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setCookie(w, AccessCookie, session.AccessToken, session.AccessTTL)
	if session.RefreshToken != "" {
		h.setCookie(w, RefreshCookie, session.RefreshToken, session.RefreshTTL)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Refresh issues a new access cookie from the refresh cookie
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(RefreshCookie); err == nil {
		token = c.Value
	}

	session, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setCookie(w, AccessCookie, session.AccessToken, session.AccessTTL)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, AccessCookie)
	h.clearCookie(w, RefreshCookie)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), currentUser(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileUpdateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	profile, err := h.authService.UpdateProfile(r.Context(), currentUser(r), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

func (h *Handlers) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
