package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/saber-nyan/gchan/config"
	"github.com/saber-nyan/gchan/database"
	"github.com/saber-nyan/gchan/logger"
	"github.com/saber-nyan/gchan/models"
	"github.com/saber-nyan/gchan/repository"

	"gopkg.in/yaml.v3"
)

const defaultSeedFile = "boards.yaml"

// seedFile is the layout of the board seed file
type seedFile struct {
	Boards []models.Board `yaml:"boards"`
}

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

	path := defaultSeedFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	f, err := os.Open(path)
	if err != nil {
		log.Error("Failed to open seed file", slog.String("path", path), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer f.Close()

	boards, err := parseBoards(f)
	if err != nil {
		log.Error("Invalid seed file", slog.String("path", path), slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	repo := repository.NewBoardRepository(db)
	for i := range boards {
		if err := repo.Upsert(ctx, &boards[i]); err != nil {
			log.Error("Failed to save board", slog.String("board", boards[i].Name), slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("✓ %s\n", boards[i])
	}
	log.Info("Boards seeded", slog.Int("count", len(boards)))
}

// parseBoards decodes and validates a seed file. Unknown keys are errors so
// typos do not silently fall back to zero limits.
func parseBoards(r io.Reader) ([]models.Board, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed seedFile
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(seed.Boards) == 0 {
		return nil, fmt.Errorf("no boards defined")
	}

	seen := make(map[string]bool, len(seed.Boards))
	for _, b := range seed.Boards {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("board %s defined twice", b.Name)
		}
		seen[b.Name] = true
	}
	return seed.Boards, nil
}
