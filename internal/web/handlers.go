package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"courtfetch/internal/domain"
	"courtfetch/internal/scraper"
	"courtfetch/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// flash is a one-shot banner on an HTML page.
type flash struct {
	Kind    string // error, info, warning or success
	Message string
}

type searchForm struct {
	CaseType    string `form:"case_type"`
	CaseNumber  string `form:"case_number"`
	FilingYear  string `form:"filing_year"`
	CaptchaText string `form:"captcha_text"`
}

// searchRequest is the JSON body of POST /api/search.
type searchRequest struct {
	CaseType    string    `json:"case_type"`
	CaseNumber  string    `json:"case_number"`
	FilingYear  yearInput `json:"filing_year"`
	CaptchaText string    `json:"captcha_text"`
}

// yearInput accepts the filing year as either a JSON number or a string.
type yearInput string

func (y *yearInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = yearInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = yearInput(n.String())
	return nil
}

func (s *Server) caller(c *gin.Context, channel domain.Channel) scraper.Caller {
	return scraper.Caller{
		Channel:   channel,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"CaseTypes": domain.CaseTypes,
		"Backend":   s.search.Backend(),
	})
}

func (s *Server) searchPage(c *gin.Context) {
	c.HTML(http.StatusOK, "search.html", gin.H{
		"CaseTypes": domain.CaseTypes,
		"Form":      searchForm{},
	})
}

func (s *Server) searchSubmit(c *gin.Context) {
	var form searchForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderSearch(c, http.StatusBadRequest, form, flash{"error", "Invalid form submission"})
		return
	}

	q, err := domain.ValidateQuery(form.CaseType, form.CaseNumber, form.FilingYear, s.now())
	if err != nil {
		var invalid *domain.ValidationError
		if errors.As(err, &invalid) {
			flashes := make([]flash, 0, len(invalid.Problems))
			for _, p := range invalid.Problems {
				flashes = append(flashes, flash{"error", p})
			}
			s.renderSearch(c, http.StatusBadRequest, form, flashes...)
			return
		}
		s.renderSearch(c, http.StatusBadRequest, form, flash{"error", err.Error()})
		return
	}

	out := s.search.SearchCaseFor(c.Request.Context(), s.caller(c, domain.ChannelWeb), q, strings.TrimSpace(form.CaptchaText))

	switch out.Kind {
	case domain.OutcomeCaptchaRequired:
		c.HTML(http.StatusOK, "search.html", gin.H{
			"CaseTypes":    domain.CaseTypes,
			"Form":         searchForm{CaseType: q.CaseType, CaseNumber: q.CaseNumber, FilingYear: strconv.Itoa(q.FilingYear)},
			"NeedCaptcha":  true,
			"CaptchaImage": template.URL(out.Captcha.Image),
			"Flashes":      []flash{{"info", "Please solve the CAPTCHA to continue"}},
		})
	case domain.OutcomeSuccess:
		flashes := []flash{{"success", out.Message}}
		if out.Mock {
			flashes = append(flashes, flash{"warning", "Showing sample data: live scraping is unavailable"})
		}
		c.HTML(http.StatusOK, "results.html", gin.H{
			"Record":    out.Record,
			"Fields":    domain.DisplayFields(*out.Record),
			"Documents": out.Record.DocumentLinks,
			"Mock":      out.Mock,
			"Flashes":   flashes,
		})
	default:
		s.renderSearch(c, http.StatusOK, form, flash{"error", out.Message})
	}
}

func (s *Server) renderSearch(c *gin.Context, status int, form searchForm, flashes ...flash) {
	form.CaptchaText = ""
	c.HTML(status, "search.html", gin.H{
		"CaseTypes": domain.CaseTypes,
		"Form":      form,
		"Flashes":   flashes,
	})
}

func (s *Server) apiSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No data provided"})
		return
	}

	q, err := domain.ValidateQuery(req.CaseType, req.CaseNumber, string(req.FilingYear), s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	out := s.search.SearchCaseFor(c.Request.Context(), s.caller(c, domain.ChannelAPI), q, strings.TrimSpace(req.CaptchaText))

	switch out.Kind {
	case domain.OutcomeCaptchaRequired:
		c.JSON(http.StatusOK, gin.H{
			"success":       false,
			"need_captcha":  true,
			"captcha_image": out.Captcha.Image,
			"search_params": q,
			"message":       out.Message,
		})
	case domain.OutcomeSuccess:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"mock":    out.Mock,
			"data": gin.H{
				"record":    out.Record,
				"fields":    domain.DisplayFields(*out.Record),
				"documents": out.Record.DocumentLinks,
			},
			"search_params": q,
			"message":       out.Message,
		})
	default:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": out.Message})
	}
}

func (s *Server) apiListCases(c *gin.Context) {
	cases, err := s.cases.ListCases(c.Request.Context(), listLimit(c))
	if err != nil {
		s.internalError(c, err)
		return
	}
	if cases == nil {
		cases = []domain.CaseRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(cases), "cases": cases})
}

func (s *Server) apiLookupCase(c *gin.Context) {
	q, err := domain.ValidateQuery(c.Query("case_type"), c.Query("case_number"), c.Query("filing_year"), s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	record, err := s.cases.GetCase(c.Request.Context(), q)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No stored case " + q.Key()})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"record":    record,
			"fields":    domain.DisplayFields(*record),
			"documents": record.DocumentLinks,
		},
	})
}

func (s *Server) apiRecentSearches(c *gin.Context) {
	entries, err := s.cases.RecentSearches(c.Request.Context(), listLimit(c))
	if err != nil {
		s.internalError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.SearchLog{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(entries), "searches": entries})
}

func (s *Server) apiCaseTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "case_types": domain.CaseTypes})
}

func (s *Server) health(c *gin.Context) {
	browser := "not_installed"
	available := s.browserAvailable()
	if available {
		browser = "available"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"version":   Version,
		"scraper":   "delhi_high_court",
		"backend":   s.search.Backend(),
		"browser":   browser,
		"features": gin.H{
			"real_scraping":   available,
			"captcha_support": true,
			"pdf_extraction":  true,
			"mock_fallback":   true,
		},
	})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
}

// listLimit reads ?limit=, clamped to [1, maxListLimit].
func listLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}
