package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tourbook/backend/internal/config"
	"tourbook/backend/internal/domain/identity"
	authusecase "tourbook/backend/internal/usecase/auth"
	userusecase "tourbook/backend/internal/usecase/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer    *http.Server
	router        chi.Router
	authService   *authusecase.Service
	userService   *userusecase.Service
	cookieTTLDays int
	production    bool
	addr          string
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.Config, authService *authusecase.Service, userService *userusecase.Service) *Server {
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	srv := &Server{
		authService:   authService,
		userService:   userService,
		cookieTTLDays: cfg.CookieTTLDays,
		production:    cfg.IsProduction(),
		addr:          addr,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(withLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", srv.handleHealth)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/signup", srv.handleSignup)
		r.Post("/login", srv.handleLogin)
		r.Get("/isLoggedIn", srv.handleIsLoggedIn)
		r.Post("/logout", srv.handleLogout)
		r.Post("/forgotPassword", srv.handleForgotPassword)
		r.Patch("/resetPassword/{token}", srv.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(srv.protect)
			r.Patch("/updateMyPassword", srv.handleUpdatePassword)
			r.Get("/me", srv.handleGetMe)
			r.Patch("/updateMe", srv.handleUpdateMe)
			r.Delete("/deleteMe", srv.handleDeleteMe)

			r.With(srv.restrictTo(identity.RoleAdmin)).Get("/", srv.handleListUsers)
		})
	})

	srv.router = r
	srv.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
	}
	return srv
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
