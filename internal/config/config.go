package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"courtfetch/internal/scraper"
	"courtfetch/internal/storage"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	BadgerDBPath  string `mapstructure:"BADGERDB_PATH"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	CourtName      string `mapstructure:"COURT_NAME"`
	CourtBaseURL   string `mapstructure:"COURT_BASE_URL"`
	CourtSearchURL string `mapstructure:"COURT_SEARCH_URL"`

	ScraperMode     string        `mapstructure:"SCRAPER_MODE"`
	BrowserBin      string        `mapstructure:"BROWSER_BIN"`
	BrowserHeadless bool          `mapstructure:"BROWSER_HEADLESS"`
	PageTimeout     time.Duration `mapstructure:"PAGE_TIMEOUT"`
	MockDelay       time.Duration `mapstructure:"MOCK_DELAY"`
	PacingEnabled   bool          `mapstructure:"PACING_ENABLED"`
	UserAgent       string        `mapstructure:"USER_AGENT"`

	// TelegramBotToken enables the chat bot when set.
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`

	// Selectors overrides scraper selector groups, e.g. submit: ["#go", "button::search"].
	Selectors map[string][]string `mapstructure:"SELECTORS"`
}

var defaults = map[string]any{
	"HTTP_ADDR":        ":5000",
	"STORAGE_DRIVER":   storage.DriverBadger,
	"BADGERDB_PATH":    "./badger_data",
	"SQLITE_PATH":      "./data/court_data.db",
	"LOG_LEVEL":        "info",
	"LOG_FORMAT":       "json",
	"COURT_NAME":       "Delhi High Court",
	"COURT_BASE_URL":   "https://delhihighcourt.nic.in",
	"COURT_SEARCH_URL": "https://delhihighcourt.nic.in/case_status.asp",
	"SCRAPER_MODE":     string(scraper.ModeAuto),
	"BROWSER_BIN":      "",
	"BROWSER_HEADLESS": true,
	"PAGE_TIMEOUT":     "30s",
	"MOCK_DELAY":       "2s",
	"PACING_ENABLED":   true,
	"USER_AGENT":       scraper.DefaultUserAgent,

	"TELEGRAM_BOT_TOKEN": "",
}

// LoadConfig reads config.yaml from path (if present) and environment variables.
// Environment variables win over the file; unset keys take their defaults.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Defaults also register every key, which AutomaticEnv needs for Unmarshal to see env values
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; everything can come from the environment
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate checks values that would otherwise fail much later.
func (c Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case storage.DriverBadger:
		if c.BadgerDBPath == "" {
			errs = append(errs, errors.New("BADGERDB_PATH is required for the badger driver"))
		}
	case storage.DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of badger, sqlite", c.StorageDriver))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of json, text", c.LogFormat))
	}
	if _, err := scraper.ParseMode(c.ScraperMode); err != nil {
		errs = append(errs, fmt.Errorf("SCRAPER_MODE: %w", err))
	}
	if c.PageTimeout <= 0 {
		errs = append(errs, errors.New("PAGE_TIMEOUT must be positive"))
	}
	if c.MockDelay < 0 {
		errs = append(errs, errors.New("MOCK_DELAY must not be negative"))
	}
	if c.CourtBaseURL == "" || c.CourtSearchURL == "" {
		errs = append(errs, errors.New("COURT_BASE_URL and COURT_SEARCH_URL are required"))
	}
	return errors.Join(errs...)
}

// StoragePath returns the path for the configured storage driver.
func (c Config) StoragePath() string {
	if c.StorageDriver == storage.DriverSQLite {
		return c.SQLitePath
	}
	return c.BadgerDBPath
}

// ScraperOptions builds the scraper service options, applying selector overrides to the defaults.
func (c Config) ScraperOptions() (scraper.Options, error) {
	mode, err := scraper.ParseMode(c.ScraperMode)
	if err != nil {
		return scraper.Options{}, err
	}

	selectors := scraper.DefaultSelectors()
	if err := selectors.Override(c.Selectors); err != nil {
		return scraper.Options{}, fmt.Errorf("SELECTORS: %w", err)
	}

	pacing := scraper.Pacing{}
	if c.PacingEnabled {
		pacing = scraper.DefaultPacing()
	}

	return scraper.Options{
		Mode:        mode,
		BrowserBin:  c.BrowserBin,
		Headless:    c.BrowserHeadless,
		PageTimeout: c.PageTimeout,
		MockDelay:   c.MockDelay,
		Pacing:      pacing,
		UserAgent:   c.UserAgent,
		BaseURL:     c.CourtBaseURL,
		SearchURL:   c.CourtSearchURL,
		CourtName:   c.CourtName,
		Selectors:   selectors,
	}, nil
}

// NewLogger builds the application logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if c.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
