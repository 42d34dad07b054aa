package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"courtfetch/internal/config"
	"courtfetch/internal/scraper"
	"courtfetch/internal/storage"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:           "courtfetch",
	Short:         "courtfetch looks up case status on the Delhi High Court website.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./configs", "directory holding config.yaml")
}

func executeContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the components every subcommand needs.
type app struct {
	cfg     config.Config
	log     *logrus.Logger
	repo    storage.Repository
	service *scraper.Service
}

// loadApp reads .env and configuration, then opens storage and the scraper service.
// Callers must call close.
func loadApp() (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	log := cfg.NewLogger()
	log.WithFields(logrus.Fields{
		"storage_driver": cfg.StorageDriver,
		"storage_path":   cfg.StoragePath(),
		"scraper_mode":   cfg.ScraperMode,
	}).Info("Configuration loaded successfully")

	repo, err := storage.Open(cfg.StorageDriver, cfg.StoragePath(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	opts, err := cfg.ScraperOptions()
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	service, err := scraper.NewService(opts, repo, log)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to initialize scraper: %w", err)
	}

	return &app{cfg: cfg, log: log, repo: repo, service: service}, nil
}

func (a *app) close() {
	a.log.Info("Closing database...")
	if err := a.repo.Close(); err != nil {
		a.log.WithError(err).Error("Error closing database")
	}
}
