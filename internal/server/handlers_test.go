package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/inkwell/internal/config"
	"github.com/hyperjump/inkwell/internal/metrics"
	"github.com/hyperjump/inkwell/internal/render"
	"github.com/hyperjump/inkwell/internal/search"
	"github.com/hyperjump/inkwell/internal/storage"
	"github.com/hyperjump/inkwell/internal/webhook"
	"go.uber.org/zap"
)

const testIndex = `{"posts":[
 {"id":1,"path":"/test","title":"Test Post","tags":"test","meta_description":"desc","related":[2,99]},
 {"id":2,"path":"/notes/go-routers","title":"Routers in Go","tags":["go","web"],"meta_description":"chi and friends","related":[]}
]}`

type countingRunner struct {
	mu    sync.Mutex
	calls int
}

func (c *countingRunner) Run(context.Context) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil
}

type testEnv struct {
	srv     *Server
	runner  *countingRunner
	index   string
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, content string, secret *string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	index := filepath.Join(dir, "index.json")
	if err := os.WriteFile(index, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Content.IndexPath = index
	cfg.Webhook.Secret = secret

	renderer, err := render.New()
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.New()
	engine := search.NewEngine(storage.NewJSONStorage(index), search.WithObserver(m))
	runner := &countingRunner{}
	hook := webhook.NewHandler(cfg.Webhook.Secret, cfg.Webhook.Keyword, runner, webhook.WithObserver(m))
	srv := NewServer(engine, renderer, hook, cfg, zap.NewNop(), WithMetrics(m))
	return &testEnv{srv: srv, runner: runner, index: index, metrics: m}
}

func (e *testEnv) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, r)
	return w
}

func postForm(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func assertContains(t *testing.T, w *httptest.ResponseRecorder, want ...string) {
	t.Helper()
	body := w.Body.String()
	for _, s := range want {
		if !strings.Contains(body, s) {
			t.Errorf("body missing %q", s)
		}
	}
}

func TestHandleIndex(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	assertContains(t, w, "My Blog")
}

func TestHandlePosts(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	w := env.do(httptest.NewRequest(http.MethodGet, "/posts", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	assertContains(t, w, "Posts", "Test Post", "Routers in Go", `href="/notes/go-routers"`)
	if strings.Index(w.Body.String(), "Test Post") > strings.Index(w.Body.String(), "Routers in Go") {
		t.Error("posts should be listed in index order")
	}
}

func TestHandleSearchForm(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	for _, path := range []string{"/search", "/results"} {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s status: got %d", path, w.Code)
		}
		assertContains(t, w, "Search", `name="search"`)
		if strings.Contains(w.Body.String(), MessageEmptySearch) {
			t.Errorf("%s should not show the validation message", path)
		}
	}
}

func TestHandleSearchSubmit(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	tests := []struct {
		name     string
		form     url.Values
		status   int
		location string
		message  bool
	}{
		{"empty term", url.Values{"search": {""}}, http.StatusOK, "", true},
		{"missing field", url.Values{}, http.StatusOK, "", true},
		{"term", url.Values{"search": {"foo"}}, http.StatusTemporaryRedirect, "/results?search=foo", false},
		{"term with space", url.Values{"search": {"two words"}}, http.StatusTemporaryRedirect, "/results?search=two+words", false},
		{"term with ampersand", url.Values{"search": {"a&b"}}, http.StatusTemporaryRedirect, "/results?search=a%26b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(postForm("/search", tt.form))
			if w.Code != tt.status {
				t.Fatalf("status: got %d, want %d", w.Code, tt.status)
			}
			if got := w.Header().Get("Location"); got != tt.location {
				t.Errorf("location: got %q, want %q", got, tt.location)
			}
			if got := strings.Contains(w.Body.String(), MessageEmptySearch); got != tt.message {
				t.Errorf("validation message shown = %v, want %v", got, tt.message)
			}
		})
	}
}

func TestHandleResults(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)

	w := env.do(httptest.NewRequest(http.MethodPost, "/results?search=test", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	assertContains(t, w, "Results", "Test Post", "1 result for")
	if strings.Contains(w.Body.String(), "Routers in Go") {
		t.Error("non-matching post listed")
	}

	w = env.do(httptest.NewRequest(http.MethodPost, "/results?search=Non-existent", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	assertContains(t, w, "0 results for")
}

func TestHandleResults_ignoresBody(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	w := env.do(postForm("/results?search=web", url.Values{"search": {"test"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	assertContains(t, w, "Routers in Go")
	if strings.Contains(w.Body.String(), "Test Post") {
		t.Error("term should come from the query string, not the body")
	}
}

func TestSearchRedirectFlow(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	w := env.do(postForm("/search", url.Values{"search": {"routers"}}))
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status: got %d", w.Code)
	}
	follow := postForm(w.Header().Get("Location"), url.Values{"search": {"routers"}})
	w = env.do(follow)
	if w.Code != http.StatusOK {
		t.Fatalf("follow-up status: got %d", w.Code)
	}
	assertContains(t, w, "Routers in Go")
}

func TestHandlePost(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	w := env.do(httptest.NewRequest(http.MethodGet, "/test", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	assertContains(t, w, "<h1>Test Post</h1>", "Related posts", "Routers in Go", "<title>Test Post | My Blog</title>")

	w = env.do(httptest.NewRequest(http.MethodGet, "/notes/go-routers", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("nested path status: got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "Related posts") {
		t.Error("post without related ids should not render the related section")
	}
}

func TestHandlePost_notFound(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	for _, path := range []string{"/missing", "/this/does/not/exist", "/TEST"} {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s status: got %d, want 404", path, w.Code)
		}
		assertContains(t, w, "<h1>Error 404</h1>")
	}
}

func TestMalformedStorageRenders500(t *testing.T) {
	env := newTestEnv(t, `{"posts": [`, nil)
	for _, r := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/posts", nil),
		httptest.NewRequest(http.MethodGet, "/test", nil),
		httptest.NewRequest(http.MethodPost, "/results?search=x", nil),
	} {
		w := env.do(r)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s %s status: got %d, want 500", r.Method, r.URL.Path, w.Code)
		}
		assertContains(t, w, "<h1>Error 500</h1>")
		if strings.Contains(w.Body.String(), env.index) {
			t.Error("500 page leaks the content path")
		}
		assertSecurityHeaders(t, w)
	}
}

func TestMissingStorageRenders500(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	if err := os.Remove(env.index); err != nil {
		t.Fatal(err)
	}
	w := env.do(httptest.NewRequest(http.MethodGet, "/posts", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", w.Code)
	}
}

func TestWebhookRoute(t *testing.T) {
	secret := "s3cret"
	env := newTestEnv(t, testIndex, &secret)
	body := `{"commits":[{"message":"fix bug [update] now"}]}`

	r := httptest.NewRequest(http.MethodPost, "/update_webhook/", strings.NewReader(body))
	r.Header.Set(webhook.SignatureHeader, webhook.Sign(secret, []byte(body)))
	w := env.do(r)
	if w.Code != http.StatusOK || w.Body.String() != webhook.MessageTriggered {
		t.Errorf("valid delivery: got %d %q", w.Code, w.Body.String())
	}
	assertSecurityHeaders(t, w)

	r = httptest.NewRequest(http.MethodPost, "/update_webhook/", strings.NewReader(body))
	r.Header.Set(webhook.SignatureHeader, "sha256=deadbeef")
	w = env.do(r)
	if w.Code != http.StatusForbidden {
		t.Errorf("invalid delivery: got %d, want 403", w.Code)
	}
	assertSecurityHeaders(t, w)

	if env.runner.calls != 1 {
		t.Errorf("runner calls: got %d, want 1", env.runner.calls)
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	assertContains(t, w, `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	env.do(httptest.NewRequest(http.MethodGet, "/posts", nil))
	env.do(httptest.NewRequest(http.MethodPost, "/results?search=test", nil))

	w := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	assertContains(t, w,
		`http_requests_total{method="GET",route="/posts",status="200"} 1`,
		`search_queries_total{result="hit"} 1`,
	)
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	w := env.do(r)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID: got %q", got)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("generated X-Request-ID should be a UUID, got %q", got)
	}
}

func TestRecovererRenders500(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	h := securityHeaders(env.srv.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", w.Code)
	}
	assertContains(t, w, "<h1>Error 500</h1>")
	if strings.Contains(w.Body.String(), "boom") {
		t.Error("panic value leaked to the visitor")
	}
	assertSecurityHeaders(t, w)
}

func TestHeadServedByGetRoutes(t *testing.T) {
	env := newTestEnv(t, testIndex, nil)
	for _, path := range []string{"/", "/posts", "/search", "/test", "/healthz"} {
		w := env.do(httptest.NewRequest(http.MethodHead, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("HEAD %s: got %d, want 200", path, w.Code)
		}
		assertSecurityHeaders(t, w)
	}
	w := env.do(httptest.NewRequest(http.MethodHead, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("HEAD /missing: got %d, want 404", w.Code)
	}
}

func TestNonStringTagsStillServed(t *testing.T) {
	env := newTestEnv(t, `{"posts":[{"id":1,"path":"/year","title":"Year in review","tags":[2023],"meta_description":"","related":[]}]}`, nil)
	w := env.do(httptest.NewRequest(http.MethodGet, "/posts", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /posts: got %d, want 200", w.Code)
	}
	w = env.do(httptest.NewRequest(http.MethodPost, "/results?search=2023", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("POST /results: got %d", w.Code)
	}
	assertContains(t, w, "Year in review", "1 result for")
}
