package research

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const searchResultsHTML = `<html><body>
<div class="result">
  <a class="result__a" href="https://example.com/one">First Result</a>
  <div class="result__snippet">Snippet one</div>
</div>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%%3A%%2F%%2Fexample.com%%2Ftwo">Second Result</a>
  <div class="result__snippet">` + "%s" + `</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/3">R3</a><div class="result__snippet">s3</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/4">R4</a><div class="result__snippet">s4</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/5">R5</a><div class="result__snippet">s5</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/6">R6</a><div class="result__snippet">s6</div>
</div>
</body></html>`

func newSearchServer(t *testing.T, longSnippet string) *Researcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got == "" {
			t.Error("missing q parameter")
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("unexpected User-Agent: %s", ua)
		}
		fmt.Fprintf(w, searchResultsHTML, longSnippet)
	}))
	t.Cleanup(srv.Close)

	r := New()
	r.searchURL = srv.URL
	return r
}

func TestSearch(t *testing.T) {
	r := newSearchServer(t, "Snippet two")

	results, err := r.Search(context.Background(), "go testing")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("got %d results, want capped at 5", len(results))
	}
	if results[0].Title != "First Result" || results[0].URL != "https://example.com/one" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[0].Snippet != "Snippet one" {
		t.Fatalf("unexpected snippet: %q", results[0].Snippet)
	}
	// Redirect wrapper unwrapped to the destination URL.
	if results[1].URL != "https://example.com/two" {
		t.Fatalf("redirect not unwrapped: %q", results[1].URL)
	}
}

func TestSearchTruncatesSnippets(t *testing.T) {
	r := newSearchServer(t, strings.Repeat("x", 300))

	results, err := r.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	got := results[1].Snippet
	if len(got) != maxSnippetLen+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("snippet not truncated: len=%d", len(got))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	if _, err := New().Search(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	r := New()
	r.searchURL = srv.URL
	if _, err := r.Search(context.Background(), "blocked"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Demo Page</title>
<style>body { color: red }</style></head>
<body><script>alert("hidden")</script>
<h1>Heading</h1><p>First paragraph.</p><p>Second paragraph.</p></body></html>`)
	}))
	defer srv.Close()

	page, err := New().FetchPage(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.Title != "Demo Page" {
		t.Fatalf("title = %q", page.Title)
	}
	if strings.Contains(page.Content, "alert") || strings.Contains(page.Content, "color: red") {
		t.Fatalf("script/style leaked into content: %q", page.Content)
	}
	for _, want := range []string{"Heading", "First paragraph.", "Second paragraph."} {
		if !strings.Contains(page.Content, want) {
			t.Errorf("content missing %q", want)
		}
	}
}

func TestFetchPageLimitsLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>")
		for i := 0; i < 80; i++ {
			fmt.Fprintf(w, "<p>line %d</p>", i)
		}
		fmt.Fprint(w, "</body></html>")
	}))
	defer srv.Close()

	page, err := New().FetchPage(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := len(strings.Split(page.Content, "\n")); got != maxContentLines {
		t.Fatalf("got %d lines, want %d", got, maxContentLines)
	}
}

func TestFetchPageSchemeDefaulting(t *testing.T) {
	if _, err := New().FetchPage(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
	// https:// is prefixed before the request; an unreachable host proves
	// the scheme was accepted by the client.
	_, err := New().FetchPage(context.Background(), "definitely-not-a-real-host.invalid")
	if err == nil {
		t.Fatal("expected network error")
	}
}

func TestFetchPageUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := New().FetchPage(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}
