// Package indiehackers implements the founder-community adapter. The site
// has no official API, so the adapter scrapes the HTML feed directly.
package indiehackers

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/scrape"
)

const defaultBaseURL = "https://www.indiehackers.com"

// maxBodyChars truncates long feed excerpts; the analyzer clips again anyway.
const maxBodyChars = 500

var votesPattern = regexp.MustCompile(`(?i)(\d+)\s*votes?`)
var digitsPattern = regexp.MustCompile(`\d+`)

// Scraper fetches the site feed. Targets are site sections ("newest",
// "product-ideas") or "" for the homepage.
type Scraper struct {
	client  *scrape.HTTPClient
	baseURL string
}

// New returns an unconfigured Indie Hackers scraper.
func New() *Scraper {
	return &Scraper{}
}

func (s *Scraper) Name() string     { return "indiehackers" }
func (s *Scraper) Platform() string { return "Indie Hackers" }

func (s *Scraper) Capabilities() []scrape.Capability {
	return []scrape.Capability{
		scrape.CapabilitySearch,
		scrape.CapabilityComments,
		scrape.CapabilityHistorical,
	}
}

// Configure accepts optional base_url and user_agent overrides. No
// credentials: the feed is public HTML.
func (s *Scraper) Configure(config map[string]string) error {
	s.baseURL = config["base_url"]
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}
	s.client = scrape.NewHTTPClient(scrape.HTTPClientConfig{
		Name:         s.Name(),
		RateLimitRPS: 1.0,
		UserAgent:    config["user_agent"],
	})
	return nil
}

// Scrape fetches one feed page and extracts up to limit posts.
func (s *Scraper) Scrape(ctx context.Context, target string, limit int, opts scrape.Options) ([]models.Post, error) {
	if s.client == nil {
		return nil, scrape.ErrNotConfigured
	}

	endpoint := s.baseURL + "/"
	if target != "" && target != "newest" {
		endpoint = s.baseURL + "/" + target
	}

	body, err := s.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("indiehackers: fetch %s: %w", endpoint, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("indiehackers: parse feed page: %w", err)
	}

	posts := make([]models.Post, 0, limit)
	doc.Find(`article[class*="border"]`).EachWithBreak(func(_ int, article *goquery.Selection) bool {
		post, ok := s.extractPost(article)
		if !ok {
			return true
		}
		posts = append(posts, post)
		return len(posts) < limit
	})
	return posts, nil
}

// HealthCheck probes the newest feed.
func (s *Scraper) HealthCheck(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.client.Get(ctx, s.baseURL+"/newest", nil)
	return err == nil
}

// extractPost maps one feed article to a Post. Markup is best-effort: a
// missing piece degrades to a fallback rather than dropping the item, except
// an article with neither title nor id, which carries nothing to analyze.
func (s *Scraper) extractPost(article *goquery.Selection) (models.Post, bool) {
	title := strings.TrimSpace(article.Find("h1, h2, h3, h4").First().Text())
	if title == "" {
		title = strings.TrimSpace(article.Find(`a[class*="title"]`).First().Text())
	}
	rawID := article.AttrOr("id", "")
	if title == "" && rawID == "" {
		log.Debug().Msg("Skipping unidentifiable feed article")
		return models.Post{}, false
	}
	if title == "" {
		title = "Untitled"
	}

	id := rawID
	if id == "" {
		// Stable fallback so re-scrapes upsert instead of duplicating.
		h := fnv.New64a()
		h.Write([]byte(title))
		id = strconv.FormatUint(h.Sum64()%1e12, 10)
	}

	body := strings.TrimSpace(article.Find(`div[class*="content"]`).First().Text())
	body = clipUTF8(strings.Join(strings.Fields(body), " "), maxBodyChars)

	postURL := article.Find("a").First().AttrOr("href", "")
	switch {
	case postURL == "":
		postURL = s.baseURL
	case strings.HasPrefix(postURL, "/"):
		postURL = s.baseURL + postURL
	}

	author := strings.TrimSpace(article.Find(`span[class*="author"]`).First().Text())
	if author == "" {
		author = "Indie Hacker"
	}

	upvotes := 0
	if m := votesPattern.FindStringSubmatch(article.Text()); m != nil {
		upvotes, _ = strconv.Atoi(m[1])
	}
	comments := 0
	if raw := article.Find(`span[class*="comment"], a[class*="comment"]`).First().Text(); raw != "" {
		if m := digitsPattern.FindString(raw); m != "" {
			comments, _ = strconv.Atoi(m)
		}
	}

	created := time.Time{}
	if stamp := article.Find("time").First().AttrOr("datetime", ""); stamp != "" {
		created = scrape.ParseUpstreamDate(stamp)
	}

	return models.Post{
		ID:            "ih_" + id,
		Source:        s.Name(),
		Title:         title,
		Body:          body,
		Author:        author,
		URL:           postURL,
		Upvotes:       upvotes,
		CommentsCount: comments,
		CreatedAt:     scrape.NormalizeTime(created),
		Channel:       "indiehackers",
		Metadata: map[string]any{
			"indiehackers_id": rawID,
			"extracted_at":    time.Now().UTC().Format(time.RFC3339),
		},
	}, true
}

func clipUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
