// Package research performs live web lookups: DuckDuckGo HTML search and
// single-page fetches reduced to readable text.
package research

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxResults     = 5
	maxSnippetLen  = 200
	maxFetchSize   = 5 << 20
	defaultTimeout = 10 * time.Second

	searchEndpoint = "https://duckduckgo.com/html/"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Researcher issues outbound HTTP requests; endpoints are overridable in
// tests.
type Researcher struct {
	httpClient *http.Client
	searchURL  string
}

func New() *Researcher {
	return &Researcher{
		httpClient: &http.Client{Timeout: defaultTimeout},
		searchURL:  searchEndpoint,
	}
}

// Search runs a DuckDuckGo HTML search and returns up to five results.
func (r *Researcher) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}

	endpoint := r.searchURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("❌ Search request failed: %v\n", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("⚠️ Search returned status code: %d\n", resp.StatusCode)
		return nil, fmt.Errorf("search failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return nil, err
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find(".result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		snippet := strings.TrimSpace(s.Find(".result__snippet").First().Text())
		if len(snippet) > maxSnippetLen {
			snippet = snippet[:maxSnippetLen] + "..."
		}
		results = append(results, Result{Title: title, URL: cleanResultURL(href), Snippet: snippet})
		return len(results) < maxResults
	})

	log.Printf("🔍 Search %q returned %d results\n", query, len(results))
	return results, nil
}

// cleanResultURL unwraps DuckDuckGo's redirect links (//duckduckgo.com/l/?uddg=...)
// to the destination URL.
func cleanResultURL(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if dest := u.Query().Get("uddg"); dest != "" {
		return dest
	}
	return href
}
