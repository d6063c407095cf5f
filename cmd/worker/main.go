package main

import (
	"log"
	"os"
	"time"

	"helpdesk/internal/pkg/logger"
	"helpdesk/internal/platform/config"
	"helpdesk/internal/platform/database"
	"helpdesk/internal/platform/repositories"
	"helpdesk/internal/workers"
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

	tokenRepo := repositories.NewTokenRepository(db)

	interval := cfg.Worker.TokenPurgeInterval
	if interval <= 0 {
		interval = time.Hour
	}

	log.Printf("Token purge worker starting, interval %v", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := workers.PurgeSessionTokens(tokenRepo, cfg.JWT.RefreshTokenTTL); err != nil {
			log.Printf("Error purging session tokens: %v", err)
		}
		<-ticker.C
	}
}
