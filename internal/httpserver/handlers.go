package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tourbook/backend/internal/usecase/auth"
	userusecase "tourbook/backend/internal/usecase/user"

	"github.com/go-chi/chi/v5"
)

type sessionResponse struct {
	Status string         `json:"status"`
	Token  string         `json:"token"`
	Data   map[string]any `json:"data"`
}

// sendSession writes the session envelope and sets the transport cookie.
func (s *Server) sendSession(w http.ResponseWriter, status int, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(s.cookieTTLDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, sessionResponse{
		Status: "success",
		Token:  session.Token,
		Data:   map[string]any{"user": session.Identity},
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
		Role            string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, fmt.Errorf("%w: invalid JSON payload", auth.ErrValidation))
		return
	}

	session, err := s.authService.Signup(r.Context(), auth.SignupInput{
		Name:            payload.Name,
		Email:           payload.Email,
		Password:        payload.Password,
		PasswordConfirm: payload.PasswordConfirm,
		Role:            payload.Role,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.sendSession(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, fmt.Errorf("%w: invalid JSON payload", auth.ErrValidation))
		return
	}

	session, err := s.authService.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.sendSession(w, http.StatusOK, session)
}

// handleIsLoggedIn is the non-failing session probe: whatever goes wrong, the
// caller gets an isAuthenticated verdict, never an error status above 401.
func (s *Server) handleIsLoggedIn(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"isAuthenticated": false})
		return
	}

	ident, err := s.authService.VerifyToken(r.Context(), token)
	if err != nil {
		status := http.StatusOK
		if errors.Is(err, auth.ErrIdentityGone) {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]any{"isAuthenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"isAuthenticated": true,
		"data":            map[string]any{"user": ident},
	})
}

// handleLogout overwrites the cookie with a short-lived placeholder; there is
// no server-side session to tear down.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, fmt.Errorf("%w: invalid JSON payload", auth.ErrValidation))
		return
	}

	if err := s.authService.ForgotPassword(r.Context(), payload.Email); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "token sent to mail",
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, fmt.Errorf("%w: invalid JSON payload", auth.ErrValidation))
		return
	}

	session, err := s.authService.ResetPassword(r.Context(), chi.URLParam(r, "token"), payload.Password, payload.PasswordConfirm)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.sendSession(w, http.StatusOK, session)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, errAuthRequired)
		return
	}

	var payload struct {
		PasswordCurrent string `json:"passwordCurrent"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, fmt.Errorf("%w: invalid JSON payload", auth.ErrValidation))
		return
	}

	session, err := s.authService.UpdatePassword(r.Context(), ident.ID, payload.PasswordCurrent, payload.Password, payload.PasswordConfirm)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.sendSession(w, http.StatusOK, session)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, errAuthRequired)
		return
	}

	me, err := s.userService.Get(r.Context(), ident.ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"user": me},
	})
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, errAuthRequired)
		return
	}

	var payload struct {
		Name            *string `json:"name"`
		Email           *string `json:"email"`
		Photo           *string `json:"photo"`
		Password        *string `json:"password"`
		PasswordConfirm *string `json:"passwordConfirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, fmt.Errorf("%w: invalid JSON payload", auth.ErrValidation))
		return
	}
	if payload.Password != nil || payload.PasswordConfirm != nil {
		s.respondError(w, fmt.Errorf("%w: this route is not for password updates, please use /updateMyPassword", auth.ErrValidation))
		return
	}

	updated, err := s.userService.UpdateMe(r.Context(), ident.ID, userusecase.UpdateMeInput{
		Name:  payload.Name,
		Email: payload.Email,
		Photo: payload.Photo,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"user": updated},
	})
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, errAuthRequired)
		return
	}

	if err := s.userService.DeleteMe(r.Context(), ident.ID); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userService.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(users),
		"data":    map[string]any{"users": users},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
