package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelector(t *testing.T) {
	sel, err := ParseSelector(`button::search`)
	require.NoError(t, err)
	assert.Equal(t, "button", sel.CSS)
	assert.Equal(t, "search", sel.Text)
	assert.True(t, sel.MatchesText("  SEARCH now"))
	assert.False(t, sel.MatchesText("Reset"))
	assert.Equal(t, "button::search", sel.String())

	sel, err = ParseSelector(` input[type="text"] `)
	require.NoError(t, err)
	assert.Equal(t, `input[type="text"]`, sel.CSS)
	assert.True(t, sel.MatchesText("anything"))

	_, err = ParseSelector("::search")
	assert.Error(t, err)

	_, err = ParseSelector("a::(unclosed")
	assert.Error(t, err)
}

func TestSelector_LiteralWithoutCompiledPattern(t *testing.T) {
	sel := Selector{CSS: "a", Text: `case\s+status`}
	assert.True(t, sel.MatchesText("Case Status"))
	assert.False(t, Selector{CSS: "a", Text: "("}.MatchesText("("))
}

func TestSelectorSet_Override(t *testing.T) {
	set := DefaultSelectors()
	defaultForm := set.Form

	err := set.Override(map[string][]string{
		"submit":    {`#go`, `a.btn::find`},
		"case_type": nil,
	})
	require.NoError(t, err)
	require.Len(t, set.Submit, 2)
	assert.Equal(t, "#go", set.Submit[0].CSS)
	assert.Equal(t, "find", set.Submit[1].Text)
	assert.Equal(t, defaultForm, set.Form)
	assert.NotEmpty(t, set.CaseType, "empty overrides keep the defaults")

	assert.Error(t, set.Override(map[string][]string{"nope": {"a"}}))
	assert.Error(t, set.Override(map[string][]string{"form": {"::x"}}))
}

func TestFirstVisible_SkipsHiddenAndTextMismatch(t *testing.T) {
	site := &fakeSite{pages: map[string]string{searchURL: `<html><body>
<button style="display:none">Search</button>
<button>Reset</button>
<button id="go">Search</button>
</body></html>`}}
	page := site.newPage()
	require.NoError(t, page.Navigate(context.Background(), searchURL))

	el, sel, ok := firstVisible(page, selectors(`button::^\s*search`), testLogger())
	require.True(t, ok)
	assert.Equal(t, "button", sel.CSS)
	id, _, _ := el.Attribute("id")
	assert.Equal(t, "go", id)

	_, _, ok = firstVisible(page, selectors(`select`, `input`), testLogger())
	assert.False(t, ok)
}

func TestCaptchaDataURI(t *testing.T) {
	images := &stubImages{body: []byte{0x89, 'P', 'N', 'G'}}

	uri, err := captchaDataURI(context.Background(), images, "data:image/gif;base64,R0lG", searchURL)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,R0lG", uri)
	assert.Empty(t, images.urls)

	uri, err = captchaDataURI(context.Background(), images, "img/cap.jpg", searchURL)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw==", uri)
	assert.Equal(t, []string{"https://court.example/img/cap.jpg"}, images.urls)

	_, err = captchaDataURI(context.Background(), images, "", searchURL)
	assert.Error(t, err)
	_, err = captchaDataURI(context.Background(), images, "data:image/png;base64", searchURL)
	assert.Error(t, err)
}

func TestRestyImageFetcher(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/captcha.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("image-bytes"))
		case "/empty.png":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewRestyImageFetcher("", 5*time.Second)

	body, err := f.FetchImage(context.Background(), srv.URL+"/captcha.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), body)
	assert.Equal(t, DefaultUserAgent, gotUA)

	_, err = f.FetchImage(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)

	_, err = f.FetchImage(context.Background(), srv.URL+"/empty.png")
	assert.Error(t, err)
}
