package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// WebSearch is a tool that queries the Brave Search API.
type WebSearch struct {
	APIKey  string
	BaseURL string
	Count   int
	Country string
	Lang    string

	client *http.Client
}

// WebSearchOption customizes a WebSearch tool.
type WebSearchOption func(*WebSearch)

// WithSearchBaseURL sets the base URL for the search API.
func WithSearchBaseURL(baseURL string) WebSearchOption {
	return func(w *WebSearch) {
		w.BaseURL = baseURL
	}
}

// WithSearchCount sets the number of results to return (1-20).
func WithSearchCount(count int) WebSearchOption {
	return func(w *WebSearch) {
		if count < 1 {
			count = 1
		}
		if count > 20 {
			count = 20
		}
		w.Count = count
	}
}

// WithSearchCountry sets the country code for search results (e.g. "US").
func WithSearchCountry(country string) WebSearchOption {
	return func(w *WebSearch) {
		w.Country = country
	}
}

// WithSearchLang sets the language code for search results (e.g. "en").
func WithSearchLang(lang string) WebSearchOption {
	return func(w *WebSearch) {
		w.Lang = lang
	}
}

// NewWebSearch creates a web search tool. If apiKey is empty it falls back
// to the BRAVE_API_KEY environment variable.
func NewWebSearch(apiKey string, opts ...WebSearchOption) (*WebSearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("BRAVE_API_KEY not set")
	}

	w := &WebSearch{
		APIKey:  apiKey,
		BaseURL: "https://api.search.brave.com/res/v1/web/search",
		Count:   10,
		Country: "US",
		Lang:    "en",
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Name returns the name of the tool.
func (w *WebSearch) Name() string {
	return "Web_Search"
}

// Description returns the description of the tool.
func (w *WebSearch) Description() string {
	return "Searches the web for current information. " +
		"Input should be a search query."
}

// Call executes the search.
func (w *WebSearch) Call(ctx context.Context, input string) (string, error) {
	params := url.Values{}
	params.Set("q", input)
	params.Set("count", fmt.Sprintf("%d", w.Count))
	if w.Country != "" {
		params.Set("country", w.Country)
	}
	if w.Lang != "" {
		params.Set("search_lang", w.Lang)
	}

	reqURL := fmt.Sprintf("%s?%s", w.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", w.APIKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search api returned status: %d", resp.StatusCode)
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var sb strings.Builder
	if web, ok := result["web"].(map[string]any); ok {
		if results, ok := web["results"].([]any); ok {
			for i, r := range results {
				item, ok := r.(map[string]any)
				if !ok {
					continue
				}
				title, _ := item["title"].(string)
				link, _ := item["url"].(string)
				description, _ := item["description"].(string)
				sb.WriteString(fmt.Sprintf("%d. Title: %s\nURL: %s\nDescription: %s\n\n",
					i+1, title, link, description))
			}
		}
	}

	if sb.Len() == 0 {
		return "No results found", nil
	}
	return sb.String(), nil
}
