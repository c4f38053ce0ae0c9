// Package reddit implements the discussion-forum adapter against Reddit's
// OAuth listing API.
package reddit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/scrape"
)

const (
	defaultAuthURL    = "https://www.reddit.com/api/v1/access_token"
	defaultAPIBaseURL = "https://oauth.reddit.com"
)

// Scraper fetches subreddit listings with new|hot|top sorts. Top listings
// accept a time window. Targets are bare subreddit names ("saas").
type Scraper struct {
	client       *scrape.HTTPClient
	clientID     string
	clientSecret string
	userAgent    string
	authURL      string
	apiBaseURL   string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New returns an unconfigured Reddit scraper.
func New() *Scraper {
	return &Scraper{}
}

func (s *Scraper) Name() string     { return "reddit" }
func (s *Scraper) Platform() string { return "Reddit" }

func (s *Scraper) Capabilities() []scrape.Capability {
	return []scrape.Capability{
		scrape.CapabilitySearch,
		scrape.CapabilitySortNew,
		scrape.CapabilitySortHot,
		scrape.CapabilitySortTop,
		scrape.CapabilityComments,
		scrape.CapabilityHistorical,
	}
}

// Configure requires client_id and client_secret; user_agent is optional.
func (s *Scraper) Configure(config map[string]string) error {
	s.clientID = config["client_id"]
	s.clientSecret = config["client_secret"]
	s.userAgent = config["user_agent"]
	if s.userAgent == "" {
		s.userAgent = "SignalHound/1.0"
	}
	if s.clientID == "" || s.clientSecret == "" {
		return fmt.Errorf("reddit: client_id and client_secret are required")
	}
	s.authURL = config["auth_url"]
	if s.authURL == "" {
		s.authURL = defaultAuthURL
	}
	s.apiBaseURL = config["api_base"]
	if s.apiBaseURL == "" {
		s.apiBaseURL = defaultAPIBaseURL
	}
	s.client = scrape.NewHTTPClient(scrape.HTTPClientConfig{
		Name:         s.Name(),
		RateLimitRPS: 1.0,
		UserAgent:    s.userAgent,
	})
	return nil
}

// listing is the subset of Reddit's Listing envelope the adapter reads.
type listing struct {
	Data struct {
		Children []struct {
			Data submission `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type submission struct {
	ID                string  `json:"id"`
	Subreddit         string  `json:"subreddit"`
	Title             string  `json:"title"`
	Selftext          string  `json:"selftext"`
	Author            string  `json:"author"`
	Permalink         string  `json:"permalink"`
	Score             int     `json:"score"`
	NumComments       int     `json:"num_comments"`
	CreatedUTC        float64 `json:"created_utc"`
	UpvoteRatio       float64 `json:"upvote_ratio"`
	IsSelf            bool    `json:"is_self"`
	RemovedByCategory string  `json:"removed_by_category"`
}

// Scrape lists a subreddit. opts.Sort selects new|hot|top (default new);
// opts.TimeFilter bounds top listings (default all).
func (s *Scraper) Scrape(ctx context.Context, target string, limit int, opts scrape.Options) ([]models.Post, error) {
	if s.client == nil {
		return nil, scrape.ErrNotConfigured
	}

	sort := opts.Sort
	switch sort {
	case "new", "hot", "top":
	default:
		sort = "new"
	}

	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	if sort == "top" {
		window := opts.TimeFilter
		if window == "" {
			window = "all"
		}
		params.Set("t", window)
	}

	var endpoint string
	if opts.Search {
		// Site-wide search: the target is the query, not a subreddit.
		params.Set("q", target)
		params.Set("sort", sort)
		params.Set("type", "link")
		endpoint = fmt.Sprintf("%s/search.json?%s", s.apiBaseURL, params.Encode())
	} else {
		endpoint = fmt.Sprintf("%s/r/%s/%s.json?%s", s.apiBaseURL, url.PathEscape(target), sort, params.Encode())
	}
	body, err := s.authorizedGet(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("reddit: list %s: %w", target, err)
	}

	var page listing
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("reddit: decode listing for r/%s: %w", target, err)
	}

	posts := make([]models.Post, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		sub := child.Data
		if sub.ID == "" || sub.RemovedByCategory != "" ||
			sub.Selftext == "[removed]" || sub.Selftext == "[deleted]" {
			continue
		}

		body := ""
		if sub.IsSelf {
			body = sub.Selftext
		}
		author := sub.Author
		if author == "" {
			author = "[deleted]"
		}
		subreddit := sub.Subreddit
		if subreddit == "" && !opts.Search {
			subreddit = target
		}

		posts = append(posts, models.Post{
			ID:            scrape.PrefixID(s.Name(), sub.ID),
			Source:        s.Name(),
			Title:         sub.Title,
			Body:          body,
			Author:        author,
			URL:           "https://reddit.com" + sub.Permalink,
			Upvotes:       maxInt(0, sub.Score),
			CommentsCount: maxInt(0, sub.NumComments),
			CreatedAt:     scrape.NormalizeTime(time.Unix(int64(sub.CreatedUTC), 0)),
			Channel:       "r/" + subreddit,
			Subreddit:     subreddit,
			Metadata: map[string]any{
				"upvote_ratio": sub.UpvoteRatio,
				"is_self":      sub.IsSelf,
			},
		})
		if len(posts) >= limit {
			break
		}
	}
	return posts, nil
}

// HealthCheck verifies a token can be minted.
func (s *Scraper) HealthCheck(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.token(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Reddit health check failed")
	}
	return err == nil
}

func (s *Scraper) authorizedGet(ctx context.Context, endpoint string) ([]byte, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("User-Agent", s.userAgent)
	return s.client.Get(ctx, endpoint, header)
}

// token returns a cached app-only OAuth token, minting a fresh one when the
// cached token is within a minute of expiry.
func (s *Scraper) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Until(s.tokenExpiry) > time.Minute {
		return s.accessToken, nil
	}

	creds := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))
	header := http.Header{}
	header.Set("Authorization", "Basic "+creds)
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Set("User-Agent", s.userAgent)

	body, err := s.client.Post(ctx, s.authURL, header, []byte("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("decode access token: %w", err)
	}
	if tokenResp.Error != "" || tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token request rejected: %s", strings.TrimSpace(tokenResp.Error))
	}

	s.accessToken = tokenResp.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return s.accessToken, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
