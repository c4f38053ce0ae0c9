package apify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/scrape"
)

const defaultCapterraActorID = "apify/capterra-reviews-scraper"

// CapterraScraper pulls product reviews through the Capterra reviews actor.
// Targets are full Capterra product URLs.
type CapterraScraper struct {
	client  *Client
	actorID string
}

// NewCapterra returns an unconfigured Capterra review scraper.
func NewCapterra() *CapterraScraper {
	return &CapterraScraper{}
}

func (s *CapterraScraper) Name() string     { return "capterra" }
func (s *CapterraScraper) Platform() string { return "Capterra" }

func (s *CapterraScraper) Capabilities() []scrape.Capability {
	return []scrape.Capability{
		scrape.CapabilityReviews,
		scrape.CapabilitySearch,
		scrape.CapabilitySortNew,
		scrape.CapabilityHistorical,
	}
}

// Configure requires api_token (or apify_api_token); actor_id and api_base
// are optional overrides.
func (s *CapterraScraper) Configure(config map[string]string) error {
	token := config["apify_api_token"]
	if token == "" {
		token = config["api_token"]
	}
	if token == "" {
		return fmt.Errorf("capterra: apify api token is required")
	}
	s.actorID = config["actor_id"]
	if s.actorID == "" {
		s.actorID = defaultCapterraActorID
	}
	s.client = NewClient(token, config["api_base"], scrape.NewHTTPClient(scrape.HTTPClientConfig{
		Name:           s.Name(),
		RequestTimeout: 5 * time.Minute,
		RateLimitRPS:   2.0,
		UserAgent:      config["user_agent"],
	}))
	return nil
}

// Scrape runs the actor for one product URL and maps reviews to posts.
// opts.Sort accepts newest|oldest|highest_rated|lowest_rated.
func (s *CapterraScraper) Scrape(ctx context.Context, target string, limit int, opts scrape.Options) ([]models.Post, error) {
	if s.client == nil {
		return nil, scrape.ErrNotConfigured
	}

	sort := opts.Sort
	if sort == "" {
		sort = "newest"
	}
	input := map[string]any{
		"productUrl": target,
		"maxReviews": limit,
		"sort":       sort,
	}

	datasetID, err := s.client.RunActor(ctx, s.actorID, input)
	if err != nil {
		return nil, fmt.Errorf("capterra: %w", err)
	}
	items, err := s.client.DatasetItems(ctx, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("capterra: %w", err)
	}

	posts := make([]models.Post, 0, len(items))
	for _, item := range items {
		reviewID := str(item, "id", "reviewId")
		productName := str(item, "productName")
		if productName == "" {
			productName = target
		}

		title := str(item, "title")
		if title == "" {
			title = fmt.Sprintf("Capterra Review of %s", productName)
		}
		author := str(item, "reviewerName")
		if author == "" {
			author = "anonymous"
		}
		reviewURL := str(item, "reviewUrl")
		if reviewURL == "" {
			reviewURL = target
		}

		posts = append(posts, models.Post{
			ID:            fmt.Sprintf("capterra_%s_%s", productName, reviewID),
			Source:        s.Name(),
			Title:         title,
			Body:          combineCapterraText(item),
			Author:        author,
			URL:           reviewURL,
			Upvotes:       int(num(item, "helpfulCount", "votes")),
			CommentsCount: 0,
			CreatedAt:     scrape.ParseUpstreamDate(str(item, "date", "reviewDate")),
			Channel:       "capterra/" + productName,
			Metadata: map[string]any{
				"star_rating":      num(item, "overallRating", "rating"),
				"ease_of_use":      num(item, "easeOfUse"),
				"customer_service": num(item, "customerService"),
				"functionality":    num(item, "functionality"),
				"value_for_money":  num(item, "valueForMoney"),
				"pros":             str(item, "pros"),
				"cons":             str(item, "cons"),
				"reviewer_title":   str(item, "reviewerTitle"),
				"company_size":     str(item, "companySize"),
				"industry":         str(item, "industry"),
				"review_source":    "capterra",
				"product_name":     productName,
			},
		})
	}
	return posts, nil
}

// HealthCheck verifies the token is accepted by the account endpoint.
func (s *CapterraScraper) HealthCheck(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := s.client.http.Get(ctx,
		fmt.Sprintf("%s/users/me?token=%s", s.client.apiBase, s.client.apiToken), nil)
	return err == nil
}

// combineCapterraText is combineReviewText plus the vendor-reply comments
// section Capterra exports.
func combineCapterraText(item map[string]any) string {
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
	if comments := str(item, "comments"); comments != "" {
		parts = append(parts, "COMMENTS: "+comments)
	}
	return strings.Join(parts, "\n\n")
}
