package main

import (
	"log/slog"
	"os"

	"github.com/saber-nyan/gchan/config"
	"github.com/saber-nyan/gchan/database"
	"github.com/saber-nyan/gchan/logger"
)

func main() {
	dotenv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if !dotenv {
		log.Warn("No .env file found, using environment variables")
	}

	if err := database.Migrate(cfg.DatabaseURL, log); err != nil {
		log.Error("Failed to create schema", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("Schema is up to date")
}
