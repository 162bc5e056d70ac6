package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultWikipediaAPIURL  = "https://en.wikipedia.org/w/api.php"
	defaultWikipediaRESTURL = "https://en.wikipedia.org/api/rest_v1"

	// WikipediaTimeout はWikipediaへの各リクエストのタイムアウト。
	WikipediaTimeout = 6 * time.Second

	userAgent = "elora/1.0 (personal assistant)"
)

// WikipediaConfig はWikipedia回答元の設定。
type WikipediaConfig struct {
	// テスト用にオーバーライド可能なURL
	APIURL  string
	RESTURL string
}

// WikipediaAnswerer は検索の先頭記事の要約で回答する。
type WikipediaAnswerer struct {
	config WikipediaConfig
	client *http.Client
}

// NewWikipediaAnswerer はWikipediaAnswererを生成する。
func NewWikipediaAnswerer(config WikipediaConfig, client *http.Client) *WikipediaAnswerer {
	if config.APIURL == "" {
		config.APIURL = defaultWikipediaAPIURL
	}
	if config.RESTURL == "" {
		config.RESTURL = defaultWikipediaRESTURL
	}
	if client == nil {
		client = &http.Client{Timeout: WikipediaTimeout}
	}
	return &WikipediaAnswerer{config: config, client: client}
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiSummary struct {
	Extract string `json:"extract"`
}

func (a *WikipediaAnswerer) Answer(ctx context.Context, question string) (string, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {question},
		"utf8":     {"1"},
		"format":   {"json"},
		"srlimit":  {"1"},
	}

	var search wikiSearchResponse
	if err := a.getJSON(ctx, a.config.APIURL+"?"+params.Encode(), &search); err != nil {
		return "", fmt.Errorf("wikipedia search: %w", err)
	}
	if len(search.Query.Search) == 0 {
		return "", nil
	}

	title := search.Query.Search[0].Title
	var summary wikiSummary
	if err := a.getJSON(ctx, a.config.RESTURL+"/page/summary/"+url.PathEscape(title), &summary); err != nil {
		return "", fmt.Errorf("wikipedia summary: %w", err)
	}
	return strings.TrimSpace(summary.Extract), nil
}

func (a *WikipediaAnswerer) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Answerer = (*WikipediaAnswerer)(nil)
