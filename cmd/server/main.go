package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tourbook/backend/internal/config"
	"tourbook/backend/internal/httpserver"
	"tourbook/backend/internal/infrastructure/email"
	"tourbook/backend/internal/infrastructure/postgres"
	"tourbook/backend/internal/infrastructure/token"
	"tourbook/backend/internal/security"
	authusecase "tourbook/backend/internal/usecase/auth"
	userusecase "tourbook/backend/internal/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	rootCtx := context.Background()
	db, err := postgres.New(rootCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(rootCtx); err != nil {
		log.Fatalf("failed to run database migrations: %v", err)
	}

	identities := postgres.NewIdentityRepository(db.Pool)
	tokenManager := token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)
	hasher := security.NewHasher(cfg.HashCost)
	resets := security.NewResetTokenSource(cfg.ResetTokenTTL)
	dispatcher := email.NewSMTPDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom, cfg.EmailTimeout)

	authService := authusecase.NewService(identities, tokenManager, hasher, resets, dispatcher, cfg.ResetURLBase, cfg.EmailTimeout)
	userService := userusecase.NewService(identities)

	server := httpserver.NewServer(cfg, authService, userService)
	log.Printf("HTTP server listening on %s", server.Addr())

	go func() {
		if err := server.Start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				log.Printf("HTTP server closed: %v", err)
				return
			}
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	} else {
		log.Printf("graceful shutdown completed")
	}
}
