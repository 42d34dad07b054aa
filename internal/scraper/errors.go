package scraper

import (
	"errors"
	"fmt"
)

// Stage names the step of the search flow a fault happened in.
type Stage string

const (
	StageLaunch   Stage = "launch"
	StageNavigate Stage = "navigate"
	StageForm     Stage = "locate_form"
	StageFill     Stage = "fill_fields"
	StageCaptcha  Stage = "captcha"
	StageSubmit   Stage = "submit"
	StageResults  Stage = "results"
	StagePanic    Stage = "panic"
)

// AutomationFault is any failure while driving the browser.
// Service recovers from it by falling back to mock data.
type AutomationFault struct {
	Stage Stage
	Err   error
}

func (f *AutomationFault) Error() string {
	return fmt.Sprintf("browser automation failed during %s: %v", f.Stage, f.Err)
}

func (f *AutomationFault) Unwrap() error { return f.Err }

func fault(stage Stage, err error) *AutomationFault {
	return &AutomationFault{Stage: stage, Err: err}
}

var (
	// ErrFormNotFound is reported when neither the search form nor enough text inputs exist.
	ErrFormNotFound = errors.New("could not locate search form elements")

	// ErrBrowserUnavailable is reported when live mode is forced without a browser binary.
	ErrBrowserUnavailable = errors.New("no chromium browser binary found")
)
