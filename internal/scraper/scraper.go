package scraper

import (
	"context"
	"fmt"
	"strings"

	"courtfetch/internal/domain"
)

// Backend answers a case query. It is chosen once when the Service is built.
type Backend interface {
	// Search returns an Outcome for q, or an error when automation broke down.
	Search(ctx context.Context, q domain.SearchQuery, captchaText string) (domain.Outcome, error)

	// Name identifies the backend in logs and health output.
	Name() string
}

// Mode selects the backend.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeLive Mode = "live"
	ModeMock Mode = "mock"
)

// ParseMode reads a configured mode. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeLive, ModeMock:
		return m, nil
	default:
		return "", fmt.Errorf("unknown scraper mode %q (want auto, live or mock)", s)
	}
}
