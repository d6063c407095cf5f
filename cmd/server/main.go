package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpdesk/internal/api"
	"helpdesk/internal/api/handlers"
	"helpdesk/internal/api/middleware"
	"helpdesk/internal/pkg/logger"
	"helpdesk/internal/platform/auth"
	"helpdesk/internal/platform/config"
	"helpdesk/internal/platform/database"
	"helpdesk/internal/platform/repositories"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories
	personRepo := repositories.NewPersonRepository(db)
	companyRepo := repositories.NewCompanyRepository(db)
	ticketRepo := repositories.NewTicketRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT, tokenRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(personRepo, companyRepo, tokenRepo, tokenSvc, cfg.Auth.BcryptCost)
	ticketHandler := handlers.NewTicketHandler(ticketRepo)
	messageHandler := handlers.NewMessageHandler(messageRepo)
	userHandler := handlers.NewUserHandler(personRepo, companyRepo, cfg.Auth.BcryptCost)
	companyHandler := handlers.NewCompanyHandler(companyRepo)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc, personRepo, companyRepo, tokenRepo)
	ticketMiddleware := middleware.NewTicketAccessMiddleware(ticketRepo)
	rateLimiter := middleware.NewRateLimiter()

	router := api.NewRouter(&api.Dependencies{
		AuthHandler:    authHandler,
		TicketHandler:  ticketHandler,
		MessageHandler: messageHandler,
		UserHandler:    userHandler,
		CompanyHandler: companyHandler,
		HealthHandler:  healthHandler,

		AuthMiddleware:   authMiddleware,
		TicketMiddleware: ticketMiddleware,
		RateLimiter:      rateLimiter,

		AuthRequestsPerMinute: cfg.RateLimit.AuthPerMinute,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
