package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saber-nyan/gchan/config"
	"github.com/saber-nyan/gchan/database"
	"github.com/saber-nyan/gchan/handlers"
	"github.com/saber-nyan/gchan/logger"
	"github.com/saber-nyan/gchan/media"
	"github.com/saber-nyan/gchan/metrics"
	"github.com/saber-nyan/gchan/repository"
	"github.com/saber-nyan/gchan/service"
	"github.com/saber-nyan/gchan/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := database.Migrate(cfg.DatabaseURL, log); err != nil {
		return err
	}
	db, err := database.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize storage
	fileStorage, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", slog.String("type", string(cfg.Storage.Type)))

	// Initialize repositories
	boardRepo := repository.NewBoardRepository(db)
	fileRepo := repository.NewFileRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	postRepo := repository.NewPostRepository(db)

	// Initialize services
	thumbnailer := media.NewThumbnailer(
		media.WithFFmpegPath(cfg.FFmpegPath),
		media.WithScratchDir(cfg.ScratchDir),
		media.WithDecodeTimeout(cfg.DecodeTimeout),
		media.WithMaxPixels(cfg.MaxPixels),
		media.WithLogger(log),
	)
	fileCache := service.NewFileCache(cfg.FileCacheSize, cfg.FileCacheTTL)

	ingestService := service.NewIngestService(
		service.WithBoardStore(boardRepo),
		service.WithFileStore(fileRepo),
		service.WithStorage(fileStorage),
		service.WithThumbnailer(thumbnailer),
		service.WithFileCache(fileCache),
		service.WithIngestLogger(log),
	)
	boardService := service.NewBoardService(
		service.BoardWithCatalog(boardRepo),
		service.BoardWithThreadStore(threadRepo),
		service.BoardWithPostStore(postRepo),
		service.BoardWithFileStore(fileRepo),
		service.BoardWithThreadsPerPage(cfg.ThreadsPerPage),
		service.BoardWithMaxPostFiles(cfg.MaxUploadFiles),
		service.BoardWithLogger(log),
	)
	fileService := service.NewFileService(fileRepo, fileStorage, fileCache)

	// Initialize handlers
	boardHandler := handlers.NewBoardHandler(boardService)
	fileHandler := handlers.NewFileHandler(ingestService, fileService, cfg.MaxUploadFiles)

	// Setup Gin router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(log), metrics.Middleware())

	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(r, boardHandler, fileHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", slog.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
