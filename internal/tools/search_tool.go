// In file: internal/tools/search_tool.go
package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/net/html"
)

const (
	DefaultSearchEndpoint = "https://html.duckduckgo.com/html/"
	maxSearchResults      = 5
	maxSearchBody         = 2 << 20
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// WebSearchTool queries DuckDuckGo's HTML endpoint, which needs no API key,
// and returns the top results as numbered text.
type WebSearchTool struct {
	endpoint string
	client   httpDoer
}

var _ ToolExecutor = (*WebSearchTool)(nil)

// NewWebSearchTool uses DefaultSearchEndpoint when endpoint is empty.
func NewWebSearchTool(endpoint string) *WebSearchTool {
	if endpoint == "" {
		endpoint = DefaultSearchEndpoint
	}
	return &WebSearchTool{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (wt *WebSearchTool) Definition() Tool {
	return NewFunctionTool(
		"web_search",
		"Useful to browse information from the internet to know recent results and information you don't know, such as flood zone definitions or recent storms. Then, tell the user the result.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"query": {
					Type:        "string",
					Description: "The search query.",
				},
			},
			Required: []string{"query"},
		},
	)
}

func (wt *WebSearchTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for web_search: %w", err)
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "Error: a search query is required.", nil
	}

	u, err := url.Parse(wt.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint: %w", err)
	}
	params := u.Query()
	params.Set("q", query)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; FEMAChat/1.0)")
	req.Header.Set("Accept", "text/html")

	resp, err := wt.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error: the web search failed: %v", err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error: the search engine returned status %d.", resp.StatusCode), nil
	}

	results, err := parseSearchResults(io.LimitReader(resp.Body, maxSearchBody), maxSearchResults)
	if err != nil {
		return "", fmt.Errorf("failed to parse search results: %w", err)
	}
	if len(results) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, "   %s\n", r.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

// parseSearchResults walks the result page and collects the "result__a"
// links and "result__snippet" blocks, stopping after limit results.
func parseSearchResults(r io.Reader, limit int) ([]searchResult, error) {
	var (
		results []searchResult
		field   *string
		depth   int
		text    strings.Builder
	)
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return results, nil
			}
			return results, z.Err()

		case html.StartTagToken:
			tok := z.Token()
			if field != nil {
				if !voidElements[tok.Data] {
					depth++
				}
				continue
			}
			class := attr(tok, "class")
			switch {
			case hasClass(class, "result__a"):
				if len(results) == limit {
					return results, nil
				}
				results = append(results, searchResult{URL: resultURL(attr(tok, "href"))})
				field = &results[len(results)-1].Title
			case hasClass(class, "result__snippet") && len(results) > 0:
				field = &results[len(results)-1].Snippet
			default:
				continue
			}
			depth = 0
			text.Reset()

		case html.EndTagToken:
			if field == nil {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			*field = strings.Join(strings.Fields(text.String()), " ")
			field = nil

		case html.TextToken:
			if field != nil {
				text.Write(z.Text())
				text.WriteByte(' ')
			}
		}
	}
}

var voidElements = map[string]bool{"br": true, "img": true, "wbr": true, "hr": true}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(class, want string) bool {
	for _, c := range strings.Fields(class) {
		if c == want {
			return true
		}
	}
	return false
}

// resultURL unwraps DuckDuckGo's "/l/?uddg=<target>" redirect links.
func resultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
