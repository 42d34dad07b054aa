package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"courtfetch/internal/domain"
	"courtfetch/internal/scraper"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

//go:embed templates/*.html
var templateFS embed.FS

// Searcher runs case searches on behalf of a caller.
type Searcher interface {
	SearchCaseFor(ctx context.Context, caller scraper.Caller, q domain.SearchQuery, captchaText string) domain.Outcome
	Backend() string
}

// CaseReader serves stored data.
type CaseReader interface {
	GetCase(ctx context.Context, q domain.SearchQuery) (*domain.CaseRecord, error)
	ListCases(ctx context.Context, limit int) ([]domain.CaseRecord, error)
	RecentSearches(ctx context.Context, limit int) ([]domain.SearchLog, error)
}

// Server is the HTTP front end: HTML search pages plus a JSON API.
type Server struct {
	engine           *gin.Engine
	search           Searcher
	cases            CaseReader
	log              logrus.FieldLogger
	now              func() time.Time
	browserAvailable func() bool
}

// Option customizes a Server.
type Option func(*Server)

// WithBrowserCheck sets the probe used by /health to report browser availability.
func WithBrowserCheck(check func() bool) Option {
	return func(s *Server) { s.browserAvailable = check }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer builds the router. gin's mode is left to the caller (gin.SetMode).
func NewServer(search Searcher, cases CaseReader, logger logrus.FieldLogger, opts ...Option) *Server {
	s := &Server{
		search:           search,
		cases:            cases,
		log:              logger.WithField("component", "web"),
		now:              time.Now,
		browserAvailable: func() bool { return false },
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(requestLogger(s.log), gin.CustomRecovery(s.recoverPanic))
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")))

	r.GET("/", s.index)
	r.GET("/search", s.searchPage)
	r.POST("/search", s.searchSubmit)
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.POST("/search", s.apiSearch)
		api.GET("/cases", s.apiListCases)
		api.GET("/cases/lookup", s.apiLookupCase)
		api.GET("/searches", s.apiRecentSearches)
		api.GET("/case-types", s.apiCaseTypes)
	}

	s.engine = r
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.log.WithField("panic", recovered).WithField("path", c.Request.URL.Path).Error("Recovered panic in handler")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "Internal server error",
	})
}

var templateFuncs = template.FuncMap{
	"year": func() int { return time.Now().Year() },
}
