package googlenews

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"NewsCommenter/internal/domain"
	"NewsCommenter/internal/source"
)

const defaultFeedURL = "https://news.google.com/rss/search"

// Feed fetches headlines from the Google News RSS search endpoint.
type Feed struct {
	feedURL string
	parser  *gofeed.Parser
}

var _ source.Source = (*Feed)(nil)

// NewFeed builds an RSS-backed source.
func NewFeed() *Feed {
	return &Feed{feedURL: defaultFeedURL, parser: gofeed.NewParser()}
}

// Name identifies the strategy inside the registry.
func (f *Feed) Name() string {
	return "googlenews"
}

// Fetch parses the search feed for the configured keyword and returns items
// published on the requested day. Item descriptions arrive as HTML snippets;
// they are only used to backfill missing titles after tag stripping.
func (f *Feed) Fetch(ctx context.Context, req source.Request) ([]domain.Article, error) {
	if req.Keyword == "" {
		return nil, fmt.Errorf("googlenews: keyword is required")
	}

	feed, err := f.parser.ParseURLWithContext(f.buildURL(req), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	targetDay := req.Day.UTC().Truncate(24 * time.Hour)

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		publishedAt := targetDay
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		}
		if !publishedAt.Truncate(24 * time.Hour).Equal(targetDay) {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = stripHTML(item.Description)
		}
		if title == "" {
			continue
		}

		articles = append(articles, domain.Article{
			Title:    title,
			URL:      item.Link,
			Language: req.Language,
			SeenAt:   publishedAt,
		})
	}

	return articles, nil
}

func (f *Feed) buildURL(req source.Request) string {
	country := "US"
	if len(req.Countries) > 0 {
		country = req.Countries[0]
	}

	query := url.Values{}
	query.Set("q", req.Keyword)
	query.Set("hl", "en-"+country)
	query.Set("gl", country)
	query.Set("ceid", country+":en")

	return f.feedURL + "?" + query.Encode()
}

func stripHTML(snippet string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return strings.TrimSpace(snippet)
	}
	return strings.TrimSpace(doc.Text())
}
