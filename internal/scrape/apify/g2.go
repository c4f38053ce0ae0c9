package apify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/scrape"
)

const defaultG2ActorID = "misceres/g2-product-scraper"

// G2Scraper pulls product reviews through the G2 product-scraper actor.
// Targets are G2 product slugs ("slack", "notion").
type G2Scraper struct {
	client  *Client
	actorID string
}

// NewG2 returns an unconfigured G2 review scraper.
func NewG2() *G2Scraper {
	return &G2Scraper{}
}

func (s *G2Scraper) Name() string     { return "g2" }
func (s *G2Scraper) Platform() string { return "G2" }

func (s *G2Scraper) Capabilities() []scrape.Capability {
	return []scrape.Capability{
		scrape.CapabilityReviews,
		scrape.CapabilitySearch,
		scrape.CapabilitySortNew,
		scrape.CapabilityHistorical,
	}
}

// Configure requires api_token (or apify_api_token); actor_id and api_base
// are optional overrides.
func (s *G2Scraper) Configure(config map[string]string) error {
	token := config["apify_api_token"]
	if token == "" {
		token = config["api_token"]
	}
	if token == "" {
		return fmt.Errorf("g2: apify api token is required")
	}
	s.actorID = config["actor_id"]
	if s.actorID == "" {
		s.actorID = defaultG2ActorID
	}
	s.client = NewClient(token, config["api_base"], scrape.NewHTTPClient(scrape.HTTPClientConfig{
		Name:           s.Name(),
		RequestTimeout: 5 * time.Minute, // actor runs block server-side
		RateLimitRPS:   2.0,
		UserAgent:      config["user_agent"],
	}))
	return nil
}

// Scrape runs the actor for one product and maps reviews to posts.
// opts.StarRating filters to one rating; opts.Sort passes through to the
// actor ("newest" default).
func (s *G2Scraper) Scrape(ctx context.Context, target string, limit int, opts scrape.Options) ([]models.Post, error) {
	if s.client == nil {
		return nil, scrape.ErrNotConfigured
	}

	sort := opts.Sort
	if sort == "" {
		sort = "newest"
	}
	input := map[string]any{
		"productUrl": fmt.Sprintf("https://www.g2.com/products/%s/reviews", target),
		"maxReviews": limit,
		"sort":       sort,
	}
	if opts.StarRating >= 1 && opts.StarRating <= 5 {
		input["starRating"] = opts.StarRating
	}

	datasetID, err := s.client.RunActor(ctx, s.actorID, input)
	if err != nil {
		return nil, fmt.Errorf("g2: %w", err)
	}
	items, err := s.client.DatasetItems(ctx, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("g2: %w", err)
	}

	posts := make([]models.Post, 0, len(items))
	for _, item := range items {
		reviewID := str(item, "reviewId", "id")

		title := str(item, "title")
		if title == "" {
			title = fmt.Sprintf("G2 Review of %s", target)
		}
		author := str(item, "reviewerName")
		if author == "" {
			author = "anonymous"
		}
		reviewURL := str(item, "reviewUrl")
		if reviewURL == "" {
			reviewURL = fmt.Sprintf("https://www.g2.com/products/%s/reviews", target)
		}

		posts = append(posts, models.Post{
			ID:            fmt.Sprintf("g2_%s_%s", target, reviewID),
			Source:        s.Name(),
			Title:         title,
			Body:          combineReviewText(item),
			Author:        author,
			URL:           reviewURL,
			Upvotes:       int(num(item, "helpfulCount")),
			CommentsCount: 0,
			CreatedAt:     scrape.ParseUpstreamDate(str(item, "reviewDate")),
			Channel:       "g2/" + target,
			Metadata: map[string]any{
				"star_rating":   num(item, "starRating"),
				"pros":          str(item, "pros"),
				"cons":          str(item, "cons"),
				"reviewer_role": str(item, "reviewerRole"),
				"company_size":  str(item, "companySize"),
				"industry":      str(item, "industry"),
				"review_source": "g2",
				"product_slug":  target,
			},
		})
	}
	return posts, nil
}

// HealthCheck verifies the token is accepted by the account endpoint.
func (s *G2Scraper) HealthCheck(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := s.client.http.Get(ctx,
		fmt.Sprintf("%s/users/me?token=%s", s.client.apiBase, s.client.apiToken), nil)
	return err == nil
}

// combineReviewText folds the pros/cons sections and the free-text body into
// one analyzable blob, labeled so the classifier sees the structure.
func combineReviewText(item map[string]any) string {
	var parts []string
	if pros := str(item, "pros"); pros != "" {
		parts = append(parts, "PROS: "+pros)
	}
	if cons := str(item, "cons"); cons != "" {
		parts = append(parts, "CONS: "+cons)
	}
	if body := str(item, "reviewBody"); body != "" {
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n\n")
}
