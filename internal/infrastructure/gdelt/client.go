package gdelt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NewsCommenter/internal/domain"
	"NewsCommenter/internal/source"
)

const (
	defaultEndpoint = "https://api.gdeltproject.org/api/v2/doc/doc"
	seenDateLayout  = "20060102T150405Z"
	queryDateLayout = "20060102150405"
)

// Client fetches articles from the GDELT Doc 2.0 API.
type Client struct {
	endpoint   string
	maxRecords int
	httpClient *http.Client
}

var _ source.Source = (*Client)(nil)

// NewClient wires an HTTP client; maxRecords defaults to 75.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{endpoint: defaultEndpoint, maxRecords: 75, httpClient: client}
}

// Name identifies the strategy inside the registry.
func (c *Client) Name() string {
	return "gdelt"
}

type artListResponse struct {
	Articles []struct {
		URL           string `json:"url"`
		Title         string `json:"title"`
		SeenDate      string `json:"seendate"`
		Language      string `json:"language"`
		SourceCountry string `json:"sourcecountry"`
		Domain        string `json:"domain"`
	} `json:"articles"`
}

// Fetch queries the article list for the requested day and filters the result
// by language, mirroring the server-side keyword/country filter with a
// client-side language check (GDELT reports language per article).
func (c *Client) Fetch(ctx context.Context, req source.Request) ([]domain.Article, error) {
	if req.Keyword == "" {
		return nil, fmt.Errorf("gdelt: keyword is required")
	}

	pageURL, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "NewsCommenter/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gdelt returned %s", resp.Status)
	}

	var payload artListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		if req.Language != "" && !strings.EqualFold(item.Language, req.Language) {
			continue
		}
		if item.Title == "" || item.URL == "" {
			continue
		}

		seenAt := req.Day
		if parsed, err := time.Parse(seenDateLayout, item.SeenDate); err == nil {
			seenAt = parsed
		}

		articles = append(articles, domain.Article{
			Title:    item.Title,
			URL:      item.URL,
			Language: item.Language,
			Country:  item.SourceCountry,
			Source:   item.Domain,
			SeenAt:   seenAt,
		})
	}

	return articles, nil
}

func (c *Client) buildURL(req source.Request) (string, error) {
	parsed, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %s: %w", c.endpoint, err)
	}

	dayStart := req.Day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24*time.Hour - time.Second)

	query := parsed.Query()
	query.Set("query", buildQuery(req.Keyword, req.Countries))
	query.Set("mode", "artlist")
	query.Set("format", "json")
	query.Set("startdatetime", dayStart.Format(queryDateLayout))
	query.Set("enddatetime", dayEnd.Format(queryDateLayout))
	query.Set("maxrecords", strconv.Itoa(c.maxRecords))
	query.Set("sort", "hybridrel")
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func buildQuery(keyword string, countries []string) string {
	q := keyword
	if strings.ContainsRune(keyword, ' ') {
		q = `"` + keyword + `"`
	}

	if len(countries) == 0 {
		return q
	}

	terms := make([]string, 0, len(countries))
	for _, country := range countries {
		terms = append(terms, "sourcecountry:"+country)
	}
	if len(terms) == 1 {
		return q + " " + terms[0]
	}
	return q + " (" + strings.Join(terms, " OR ") + ")"
}
