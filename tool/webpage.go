package tool

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// WebPage is a tool that fetches a URL and returns its readable text.
type WebPage struct {
	MaxChars int

	client   *http.Client
	sanitize *bluemonday.Policy
}

// WebPageOption customizes a WebPage tool.
type WebPageOption func(*WebPage)

// WithPageMaxChars caps the returned text length.
func WithPageMaxChars(n int) WebPageOption {
	return func(w *WebPage) {
		w.MaxChars = n
	}
}

// WithPageHTTPClient sets the HTTP client used for fetching.
func WithPageHTTPClient(c *http.Client) WebPageOption {
	return func(w *WebPage) {
		w.client = c
	}
}

// NewWebPage creates a web page reader tool.
func NewWebPage(opts ...WebPageOption) *WebPage {
	w := &WebPage{
		MaxChars: 8000,
		client:   &http.Client{},
		sanitize: bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the name of the tool.
func (w *WebPage) Name() string {
	return "Web_Page_Reader"
}

// Description returns the description of the tool.
func (w *WebPage) Description() string {
	return "Fetches a web page and returns its readable text content. " +
		"Input should be a URL."
}

// Call fetches the page, strips unsafe markup and extracts visible text.
func (w *WebPage) Call(ctx context.Context, input string) (string, error) {
	pageURL := strings.TrimSpace(input)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	doc.Find("title, h1, h2, h3, p, li, td, pre").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	})

	text := w.sanitize.Sanitize(sb.String())
	text = strings.TrimSpace(text)
	if text == "" {
		return "No readable content found", nil
	}
	if w.MaxChars > 0 && len(text) > w.MaxChars {
		text = text[:w.MaxChars] + "..."
	}
	return text, nil
}
