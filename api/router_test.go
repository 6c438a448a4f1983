package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrynk/scrynk/api/middleware"
	"github.com/scrynk/scrynk/client"
	"github.com/scrynk/scrynk/config"
	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/notify"
	"github.com/scrynk/scrynk/session"
)

const postURL = "https://www.linkedin.com/posts/someone_activity-123"

type testApp struct {
	router   *gin.Engine
	store    *session.Store
	recorder *notify.Recorder
	cookie   *http.Cookie
}

func setup(t *testing.T, upstream http.HandlerFunc, tweak ...func(*config.Config)) *testApp {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	cfg.API.BaseURL = srv.URL
	cfg.API.Timeout = 5 * time.Second
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000}
	for _, f := range tweak {
		f(cfg)
	}

	store := session.New(cfg.Session.TTL, cfg.Session.MaxEntries)
	t.Cleanup(store.Close)

	rec := &notify.Recorder{}
	router, err := NewRouter(cfg, client.New(cfg.API), store, notify.Multi{notify.NewFlash(store), rec}, time.Now())
	require.NoError(t, err)

	return &testApp{router: router, store: store, recorder: rec}
}

// do sends req, carrying the visitor cookie from earlier responses.
func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.VisitorCookie {
			a.cookie = ck
		}
	}
	return w
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (a *testApp) submit(email, password, post string) *httptest.ResponseRecorder {
	form := url.Values{"email": {email}, "password": {password}, "post_url": {post}}
	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func parse(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

func jsonEmails(emails ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"emails": emails})
	}
}

func TestExtractForm_SubmitDisabledUntilFilled(t *testing.T) {
	app := setup(t, jsonEmails())

	w := app.get("/extract")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	doc := parse(t, w)
	_, disabled := doc.Find("#submit").Attr("disabled")
	assert.True(t, disabled, "empty form cannot be submitted")
	for _, name := range []string{"email", "password", "post_url"} {
		_, required := doc.Find(`input[name="` + name + `"]`).Attr("required")
		assert.True(t, required, name)
	}
	assert.Equal(t, "email", doc.Find(`input[name="email"]`).AttrOr("type", ""))
	assert.Equal(t, "password", doc.Find(`input[name="password"]`).AttrOr("type", ""))
	assert.Equal(t, "url", doc.Find(`input[name="post_url"]`).AttrOr("type", ""))
}

func TestExtract_MissingFieldNeverCallsUpstream(t *testing.T) {
	var calls atomic.Int32
	app := setup(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	w := app.submit("me@example.com", "", postURL)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, calls.Load())
	assert.Equal(t, 1, app.recorder.Errors())

	doc := parse(t, w)
	assert.Equal(t, "me@example.com", doc.Find(`input[name="email"]`).AttrOr("value", ""))
	_, disabled := doc.Find("#submit").Attr("disabled")
	assert.True(t, disabled)
}

func TestExtract_SuccessNavigatesToResults(t *testing.T) {
	var got models.ExtractionRequest
	app := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		jsonEmails("a@x.com", "b@y.com")(w, r)
	})

	w := app.submit("me@example.com", "hunter2", postURL)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, postURL, got.PostURL)
	assert.Zero(t, app.recorder.Errors())

	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/results?state="), location)

	w = app.get(location)
	require.Equal(t, http.StatusOK, w.Code)

	doc := parse(t, w)
	assert.Equal(t, "success", doc.Find(".status").AttrOr("data-status", ""))
	assert.Equal(t, "2", doc.Find("#email-count").Text())

	var emails []string
	doc.Find("#emails li").Each(func(_ int, s *goquery.Selection) {
		emails = append(emails, s.Text())
	})
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, emails)

	link := doc.Find("#post-url")
	assert.Equal(t, postURL, link.AttrOr("href", ""))
	assert.Equal(t, "_blank", link.AttrOr("target", ""))
	assert.Equal(t, "noopener noreferrer", link.AttrOr("rel", ""))
	assert.Equal(t, "/extract", doc.Find("#try-again").AttrOr("href", ""))
	assert.Equal(t, "/status", doc.Find("#to-status").AttrOr("href", ""))

	// Navigation state does not survive a reload.
	w = app.get(location)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/extract", w.Header().Get("Location"))
}

func TestResults_EmptyState(t *testing.T) {
	app := setup(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	w := app.submit("me@example.com", "hunter2", postURL)
	require.Equal(t, http.StatusSeeOther, w.Code)

	doc := parse(t, app.get(w.Header().Get("Location")))
	assert.Equal(t, "0", doc.Find("#email-count").Text())
	assert.Equal(t, 1, doc.Find("#empty").Length())
	assert.Zero(t, doc.Find("#emails").Length())
}

func TestExtract_UpstreamErrorStaysOnForm(t *testing.T) {
	app := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	w := app.submit("me@example.com", "hunter2", postURL)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"), "page echoes the password")
	assert.Equal(t, 1, app.recorder.Errors())

	doc := parse(t, w)
	assert.Equal(t, 1, doc.Find("#extract-form").Length())
	assert.Equal(t, 1, doc.Find(".toast-error").Length())
	assert.Equal(t, "me@example.com", doc.Find(`input[name="email"]`).AttrOr("value", ""))
	assert.Equal(t, "hunter2", doc.Find(`input[name="password"]`).AttrOr("value", ""))
	assert.Equal(t, postURL, doc.Find(`input[name="post_url"]`).AttrOr("value", ""))

	// The toast was shown once and is not repeated.
	doc = parse(t, app.get("/extract"))
	assert.Zero(t, doc.Find(".toast").Length())
	assert.Zero(t, doc.Find(`meta[http-equiv="refresh"]`).Length())
}

func TestResults_FailureStatus(t *testing.T) {
	app := setup(t, jsonEmails())

	token := app.store.Put(&models.ExtractionResult{
		Emails:  []string{},
		PostURL: postURL,
		Status:  models.StatusFailure,
	})

	w := app.get("/results?state=" + url.QueryEscape(token))
	require.Equal(t, http.StatusOK, w.Code)

	doc := parse(t, w)
	status := doc.Find(".status")
	assert.Equal(t, "failure", status.AttrOr("data-status", ""))
	assert.Contains(t, status.Text(), "Extraction failed")
	assert.Equal(t, "0", doc.Find("#email-count").Text())

	link := doc.Find("#post-url")
	assert.Equal(t, postURL, link.AttrOr("href", ""))
	assert.Equal(t, "_blank", link.AttrOr("target", ""))
	assert.Equal(t, "noopener noreferrer", link.AttrOr("rel", ""))
}

func TestResults_UnknownStatusRedirects(t *testing.T) {
	app := setup(t, jsonEmails())

	token := app.store.Put(&models.ExtractionResult{PostURL: postURL, Status: "no data found"})

	w := app.get("/results?state=" + url.QueryEscape(token))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/extract", w.Header().Get("Location"))
}

func TestResults_WithoutStateRedirects(t *testing.T) {
	app := setup(t, jsonEmails())

	for _, path := range []string{"/results", "/results?state=unknown"} {
		w := app.get(path)
		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.Equal(t, "/extract", w.Header().Get("Location"), path)
		assert.NotContains(t, w.Body.String(), `id="results"`, path)
	}
}

func TestExtract_DuplicateSubmissionIgnored(t *testing.T) {
	var calls atomic.Int32
	arrived := make(chan struct{})
	release := make(chan struct{})
	app := setup(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(arrived)
		}
		<-release
		jsonEmails("a@x.com")(w, r)
	})

	// Establish the visitor before racing two submissions.
	app.get("/extract")

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- app.submitWith(app.cookie, "me@example.com", "hunter2", postURL)
	}()
	<-arrived

	w := app.submitWith(app.cookie, "me@example.com", "hunter2", postURL)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	doc := parse(t, w)
	_, disabled := doc.Find("#submit").Attr("disabled")
	assert.True(t, disabled, "form stays in loading state")
	assert.Equal(t, "5;url=/extract", doc.Find(`meta[http-equiv="refresh"]`).AttrOr("content", ""))
	assert.Equal(t, 1, doc.Find(".toast-info").Length())
	assert.Zero(t, app.recorder.Errors())

	close(release)
	assert.Equal(t, http.StatusSeeOther, (<-first).Code)
	assert.Equal(t, int32(1), calls.Load(), "no second upstream request")

	// The guard is released once the first call completes.
	w = app.submitWith(app.cookie, "me@example.com", "hunter2", postURL)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

// submitWith posts the form without touching the shared cookie, so it is safe
// to call from several goroutines.
func (a *testApp) submitWith(cookie *http.Cookie, email, password, post string) *httptest.ResponseRecorder {
	form := url.Values{"email": {email}, "password": {password}, "post_url": {post}}
	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestDownload_SavesNamedFile(t *testing.T) {
	app := setup(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("format") {
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("Name,Email\nAnn,ann@x.com\n"))
		case "txt":
			_, _ = w.Write([]byte("Ann - ann@x.com"))
		}
	})

	for _, tc := range []struct{ format, filename, body string }{
		{"csv", "emails.csv", "Name,Email\nAnn,ann@x.com\n"},
		{"txt", "emails.txt", "Ann - ann@x.com"},
	} {
		w := app.get("/download?format=" + tc.format + "&from=status")
		require.Equal(t, http.StatusOK, w.Code, tc.format)
		assert.Equal(t, `attachment; filename="`+tc.filename+`"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, tc.body, w.Body.String())
	}
	assert.Zero(t, app.recorder.Errors())
}

func TestDownload_NotFound(t *testing.T) {
	app := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	w := app.get("/download?format=csv&from=extract")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/extract", w.Header().Get("Location"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Equal(t, 1, app.recorder.Errors())

	doc := parse(t, app.get("/extract"))
	assert.Equal(t, 1, doc.Find(".toast-error").Length())
}

func TestDownload_BadFormatGoesBackToStatus(t *testing.T) {
	var calls atomic.Int32
	app := setup(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	w := app.get("/download?format=pdf&from=elsewhere")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/status", w.Header().Get("Location"))
	assert.Zero(t, calls.Load())
	assert.Equal(t, 1, app.recorder.Errors())
}

func TestLandingAndStatus(t *testing.T) {
	app := setup(t, jsonEmails())

	doc := parse(t, app.get("/"))
	assert.Equal(t, "/extract", doc.Find("a.cta").AttrOr("href", ""))

	doc = parse(t, app.get("/status"))
	var hrefs []string
	doc.Find("a.download").Each(func(_ int, s *goquery.Selection) {
		hrefs = append(hrefs, s.AttrOr("href", ""))
	})
	assert.Equal(t, []string{"/download?format=csv&from=status", "/download?format=txt&from=status"}, hrefs)
}

func TestRateLimit(t *testing.T) {
	var calls atomic.Int32
	app := setup(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		jsonEmails()(w, r)
	}, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	})

	require.Equal(t, http.StatusSeeOther, app.submit("me@example.com", "hunter2", postURL).Code)

	w := app.submit("me@example.com", "hunter2", postURL)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/extract", w.Header().Get("Location"))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, app.recorder.Errors())
}

func TestHealth(t *testing.T) {
	app := setup(t, jsonEmails())

	w := app.get("/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies(), "probes get no visitor cookie")

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.True(t, strings.HasPrefix(resp.Upstream, "http://127.0.0.1:"))
}
