package research

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

const maxContentLines = 50

// Page is the readable reduction of a fetched web page.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FetchPage downloads a page and reduces it to a title plus the first
// non-empty text lines, with script and style blocks dropped.
func (r *Researcher) FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("❌ Error fetching URL content %s: %v\n", target, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("⚠️ URL %s returned status code: %d\n", target, resp.StatusCode)
		return nil, fmt.Errorf("failed to fetch page: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		log.Printf("❌ Error parsing HTML content: %v\n", err)
		return nil, err
	}

	title, content := reduceDocument(doc)
	return &Page{URL: target, Title: title, Content: content}, nil
}

// reduceDocument walks the parse tree collecting the title and visible text,
// skipping script and style subtrees, and keeps the first non-empty lines.
func reduceDocument(doc *html.Node) (string, string) {
	var title string
	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(parts) > maxContentLines {
		parts = parts[:maxContentLines]
	}
	return title, strings.Join(parts, "\n")
}
