package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/detarget/internal/config"
	"github.com/JonMunkholm/detarget/internal/core"
	"github.com/JonMunkholm/detarget/internal/core/tables"
	"golang.org/x/net/html"
)

const tableKey = tables.DetargetingKey

const scenarioCSV = "id,gender_male,impressions,reason\n" +
	"A,0.5,100,a\n" +
	"B,0.5,50,b\n" +
	"C,0.2,9999,c\n"

type stubFetcher struct {
	body string
	err  error
}

func (f stubFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func (f stubFetcher) Locator() string { return "stub://scores.csv" }

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second},
		View:     config.ViewConfig{EmbedBase: "https://www.youtube.com/embed/"},
		Export:   config.ExportConfig{MaxConcurrent: 2, MaxWait: 50 * time.Millisecond},
		Rate:     config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer loads body through the real loader and returns a server
// over it. mutate adjusts the config before the server is built.
func newTestServer(t *testing.T, body string, mutate ...func(*config.Config)) *Server {
	t.Helper()

	svc := core.NewService("stub://scores.csv")
	loader := &core.Loader{Fetcher: stubFetcher{body: body}, Logger: quietLogger()}
	if _, err := svc.Load(context.Background(), loader); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return serverFor(t, svc, mutate...)
}

func serverFor(t *testing.T, svc *core.Service, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

// get serves a GET for target. query, when non-nil, replaces the target's
// query string.
func get(t *testing.T, srv *Server, target string, query url.Values, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	if query != nil {
		target += "?" + query.Encode()
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func parseHTML(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	return doc
}

// findAll returns every element named tag in document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// rowIDs reads the rendered row order from the table body.
func rowIDs(t *testing.T, body string) []string {
	t.Helper()
	ids := []string{}
	for _, tr := range findAll(parseHTML(t, body), "tr") {
		if id, ok := attr(tr, "data-id"); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// headerLink returns the sort link of a column header.
func headerLink(t *testing.T, body, column string) url.Values {
	t.Helper()
	for _, th := range findAll(parseHTML(t, body), "th") {
		if c, _ := attr(th, "data-column"); c != column {
			continue
		}
		links := findAll(th, "a")
		if len(links) == 0 {
			t.Fatalf("header %s has no sort link", column)
		}
		href, _ := attr(links[0], "href")
		u, err := url.Parse(href)
		if err != nil {
			t.Fatalf("parse href %q: %v", href, err)
		}
		return u.Query()
	}
	t.Fatalf("header %s not found", column)
	return nil
}

// textContent concatenates the text nodes under n, entities decoded.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// wrappedCells returns the text of every wrapped (reason) cell in row order.
func wrappedCells(t *testing.T, body string) []string {
	t.Helper()
	cells := []string{}
	for _, td := range findAll(parseHTML(t, body), "td") {
		if class, _ := attr(td, "class"); class == "wrap" {
			cells = append(cells, textContent(td))
		}
	}
	return cells
}
