package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"tourbook/backend/internal/domain/identity"
)

var (
	errAuthRequired = errors.New("you are not logged in, please log in to get access")
	errForbidden    = errors.New("you do not have permission to perform this action")
)

// sessionCookieName is the transport cookie carrying the session token.
const sessionCookieName = "jwt"

type ctxKeyIdentity struct{}

type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)
		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		log.Printf("%s %s %d %dB %s", r.Method, r.URL.Path, status, recorder.size, duration)
	})
}

// protect authenticates the request: token extraction, verification, subject
// lookup and the stale-session check all happen in the auth service. The
// authenticated identity rides the request context from here on.
func (s *Server) protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			s.respondError(w, errAuthRequired)
			return
		}

		ident, err := s.authService.VerifyToken(r.Context(), token)
		if err != nil {
			s.respondError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyIdentity{}, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// restrictTo authorizes by role. It assumes protect already ran; a request
// without an attached identity is rejected outright.
func (s *Server) restrictTo(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := identityFromContext(r.Context())
			if !ok {
				s.respondError(w, errAuthRequired)
				return
			}
			for _, role := range roles {
				if ident.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			s.respondError(w, errForbidden)
		})
	}
}

func identityFromContext(ctx context.Context) (*identity.Identity, bool) {
	ident, ok := ctx.Value(ctxKeyIdentity{}).(*identity.Identity)
	if !ok || ident == nil {
		return nil, false
	}
	return ident, true
}

// extractToken prefers the Authorization header and falls back to the
// session cookie.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
