package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// Session is one browser with one open tab. Close releases the browser process.
type Session interface {
	Page() Page
	Close() error
}

// BrowserFactory opens a fresh browser session per search.
type BrowserFactory interface {
	Open(ctx context.Context) (Session, error)
}

// FindBrowser returns the configured binary when it exists, otherwise whatever
// rod's launcher can find on this machine.
func FindBrowser(configured string) (string, bool) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, true
		}
	}
	return launcher.LookPath()
}

// RodBrowser launches Chromium through rod.
type RodBrowser struct {
	bin       string
	headless  bool
	timeout   time.Duration
	userAgent string
	log       logrus.FieldLogger
}

// NewRodBrowser creates a factory for bin. timeout bounds every page operation.
func NewRodBrowser(bin string, headless bool, timeout time.Duration, userAgent string, logger logrus.FieldLogger) *RodBrowser {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RodBrowser{
		bin:       bin,
		headless:  headless,
		timeout:   timeout,
		userAgent: userAgent,
		log:       logger.WithField("component", "rod_browser"),
	}
}

// Open launches a browser and a 1920x1080 tab with the configured user agent.
func (b *RodBrowser) Open(ctx context.Context) (sess Session, err error) {
	l := launcher.New().
		Context(ctx).
		Bin(b.bin).
		Headless(b.headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-gpu")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().Context(ctx).ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	s := &rodSession{launcher: l, browser: browser, log: b.log}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1920, Height: 1080, DeviceScaleFactor: 1}); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.userAgent}); err != nil {
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}

	s.page = &rodPage{page: page, timeout: b.timeout}
	b.log.WithField("headless", b.headless).Debug("Browser session opened")
	return s, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rodPage
	log      logrus.FieldLogger
}

func (s *rodSession) Page() Page { return s.page }

func (s *rodSession) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing page: %w", err))
		}
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing browser: %w", err))
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
	s.log.Debug("Browser session closed")
	return errors.Join(errs...)
}

type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx).Timeout(p.timeout)
	defer page.CancelTimeout()

	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	wait()
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page %s did not load: %w", url, err)
	}
	return nil
}

func (p *rodPage) Query(css string) ([]Element, error) {
	els, err := p.page.Elements(css)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, timeout: p.timeout})
	}
	return out, nil
}

// WaitSettled waits for load, network quiet and a stable DOM. Running out of
// page time is not an error: whatever has rendered by then is used.
func (p *rodPage) WaitSettled(ctx context.Context) error {
	page := p.page.Context(ctx).Timeout(p.timeout)
	defer page.CancelTimeout()

	err := page.WaitStable(time.Second)
	if err == nil || ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *rodPage) HTML() (string, error) {
	return p.page.Timeout(p.timeout).HTML()
}

type rodElement struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *rodElement) bounded() (*rod.Element, func()) {
	el := e.el.Timeout(e.timeout)
	return el, func() { el.CancelTimeout() }
}

func (e *rodElement) Visible() (bool, error) {
	el, done := e.bounded()
	defer done()
	return el.Visible()
}

func (e *rodElement) Text() (string, error) {
	el, done := e.bounded()
	defer done()
	return el.Text()
}

func (e *rodElement) TagName() (string, error) {
	el, done := e.bounded()
	defer done()
	prop, err := el.Property("tagName")
	if err != nil {
		return "", err
	}
	return strings.ToLower(prop.Str()), nil
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	el, done := e.bounded()
	defer done()
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *rodElement) Fill(text string) error {
	el, done := e.bounded()
	defer done()
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (e *rodElement) SelectByValue(value string) error {
	el, done := e.bounded()
	defer done()
	return el.Select([]string{fmt.Sprintf(`option[value=%q]`, value)}, true, rod.SelectorTypeCSSSector)
}

func (e *rodElement) SelectByLabel(label string) error {
	el, done := e.bounded()
	defer done()
	return el.Select([]string{label}, true, rod.SelectorTypeText)
}

func (e *rodElement) Click() error {
	el, done := e.bounded()
	defer done()
	return el.Click(proto.InputMouseButtonLeft, 1)
}
