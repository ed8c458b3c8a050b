package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

const sessionCookieName = "fintrack_session"

func (s *Server) sessionToken(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   !s.devMode,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.devMode,
		SameSite: http.SameSiteLaxMode,
	})
}

// handleRegister creates an account. A duplicate email is reported with
// the same generic body as any other failure so the endpoint does not
// leak which addresses exist.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, core.ErrEmailTaken):
		slog.InfoContext(r.Context(), "registration rejected: email taken")
		writeError(w, http.StatusInternalServerError, "Registration failed")
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		slog.ErrorContext(r.Context(), "registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful"})
	}
}

// handleLogin verifies credentials and sets the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, core.ErrAuth):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case err != nil:
		slog.ErrorContext(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
	default:
		s.setSessionCookie(w, token)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"user": map[string]any{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
		})
	}
}

// handleLogout destroys the session and clears the cookie. Always succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), s.sessionToken(r)); err != nil {
		slog.WarnContext(r.Context(), "logout cleanup failed", "error", err)
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// handleCheckAuth reports the logged-in user's display name.
func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	name, err := s.auth.CheckAuth(r.Context(), userID)
	switch {
	case errors.Is(err, core.ErrAuth):
		s.clearSessionCookie(w)
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case err != nil:
		slog.ErrorContext(r.Context(), "check-auth failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"name": name})
	}
}
