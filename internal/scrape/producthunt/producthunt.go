// Package producthunt implements the launch-platform adapter against the
// Product Hunt GraphQL API.
package producthunt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/scrape"
)

const defaultAPIURL = "https://api.producthunt.com/v2/api/graphql"

// Scraper fetches launches over GraphQL with cursor pagination. Targets are
// "latest" (today's ranking), "top" (all-time by votes), "days_ago:N", or a
// YYYY-MM-DD date.
type Scraper struct {
	client   *scrape.HTTPClient
	apiURL   string
	apiToken string
}

// New returns an unconfigured Product Hunt scraper.
func New() *Scraper {
	return &Scraper{}
}

func (s *Scraper) Name() string     { return "producthunt" }
func (s *Scraper) Platform() string { return "Product Hunt" }

func (s *Scraper) Capabilities() []scrape.Capability {
	return []scrape.Capability{
		scrape.CapabilityRealtime,
		scrape.CapabilityComments,
		scrape.CapabilitySortNew,
		scrape.CapabilitySortTop,
	}
}

// Configure requires api_token (or producthunt_api_token). api_url overrides
// the endpoint for tests.
func (s *Scraper) Configure(config map[string]string) error {
	s.apiToken = config["api_token"]
	if s.apiToken == "" {
		s.apiToken = config["producthunt_api_token"]
	}
	if s.apiToken == "" {
		return fmt.Errorf("producthunt: api token is required")
	}
	s.apiURL = config["api_url"]
	if s.apiURL == "" {
		s.apiURL = defaultAPIURL
	}
	s.client = scrape.NewHTTPClient(scrape.HTTPClientConfig{
		Name:         s.Name(),
		RateLimitRPS: 2.0,
		UserAgent:    config["user_agent"],
	})
	return nil
}

const postFields = `
	id
	name
	tagline
	description
	url
	website
	votesCount
	commentsCount
	featuredAt
	createdAt
	productState
	makers { nodes { name username url } }
	topics { nodes { name } }
`

type maker struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	URL      string `json:"url"`
}

type productNode struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Tagline       string `json:"tagline"`
	Description   string `json:"description"`
	URL           string `json:"url"`
	Website       string `json:"website"`
	VotesCount    int    `json:"votesCount"`
	CommentsCount int    `json:"commentsCount"`
	FeaturedAt    string `json:"featuredAt"`
	CreatedAt     string `json:"createdAt"`
	ProductState  string `json:"productState"`
	Makers        struct {
		Nodes []maker `json:"nodes"`
	} `json:"makers"`
	Topics struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"topics"`
}

type postsPage struct {
	Nodes    []productNode `json:"nodes"`
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pageInfo"`
}

// Scrape resolves the target into a ranked, vote-ordered, or date-bounded
// launch query and pages through results. opts.FetchComments attaches the
// top comments to each post's metadata.
func (s *Scraper) Scrape(ctx context.Context, target string, limit int, opts scrape.Options) ([]models.Post, error) {
	if s.client == nil {
		return nil, scrape.ErrNotConfigured
	}

	var (
		posts []models.Post
		err   error
	)
	switch {
	case target == "latest":
		posts, err = s.fetchOrdered(ctx, "RANKING", limit)
	case target == "top":
		posts, err = s.fetchOrdered(ctx, "VOTES", limit)
	case strings.HasPrefix(target, "days_ago:"):
		days, convErr := strconv.Atoi(strings.TrimPrefix(target, "days_ago:"))
		if convErr != nil {
			return nil, fmt.Errorf("producthunt: bad days_ago target %q: %w", target, convErr)
		}
		date := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
		posts, err = s.fetchByDate(ctx, date, limit)
	default:
		posts, err = s.fetchByDate(ctx, target, limit)
	}
	if err != nil {
		return nil, err
	}

	if opts.FetchComments {
		s.enrichWithComments(ctx, posts, 10)
	}
	return posts, nil
}

// HealthCheck issues a one-post probe query.
func (s *Scraper) HealthCheck(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	query := `query healthCheck { posts(first: 1) { nodes { id } } }`
	var reply struct {
		Posts json.RawMessage `json:"posts"`
	}
	err := s.graphql(ctx, query, nil, &reply)
	return err == nil && reply.Posts != nil
}

func (s *Scraper) fetchOrdered(ctx context.Context, order string, limit int) ([]models.Post, error) {
	query := fmt.Sprintf(`
	query getPosts($after: String) {
		posts(first: %d, after: $after, order: %s) { nodes { %s } pageInfo { hasNextPage endCursor } }
	}`, pageSize(limit), order, postFields)

	return s.paginate(ctx, query, map[string]any{}, limit)
}

func (s *Scraper) fetchByDate(ctx context.Context, date string, limit int) ([]models.Post, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("producthunt: bad date target %q, want YYYY-MM-DD: %w", date, err)
	}

	query := fmt.Sprintf(`
	query getPosts($postedAfter: ISO8601DateTime!, $postedBefore: ISO8601DateTime!, $after: String) {
		posts(first: %d, after: $after, postedAfter: $postedAfter, postedBefore: $postedBefore) { nodes { %s } pageInfo { hasNextPage endCursor } }
	}`, pageSize(limit), postFields)

	variables := map[string]any{
		"postedAfter":  day.UTC().Format(time.RFC3339),
		"postedBefore": day.UTC().Add(24*time.Hour - time.Second).Format(time.RFC3339),
	}
	return s.paginate(ctx, query, variables, limit)
}

func (s *Scraper) paginate(ctx context.Context, query string, variables map[string]any, limit int) ([]models.Post, error) {
	posts := make([]models.Post, 0, limit)
	cursor := ""

	for {
		if cursor != "" {
			variables["after"] = cursor
		}
		var reply struct {
			Posts postsPage `json:"posts"`
		}
		if err := s.graphql(ctx, query, variables, &reply); err != nil {
			return nil, err
		}

		for _, node := range reply.Posts.Nodes {
			if node.ID == "" {
				continue
			}
			posts = append(posts, s.nodeToPost(node))
			if len(posts) >= limit {
				return posts, nil
			}
		}

		if !reply.Posts.PageInfo.HasNextPage || reply.Posts.PageInfo.EndCursor == "" {
			return posts, nil
		}
		cursor = reply.Posts.PageInfo.EndCursor
	}
}

func (s *Scraper) nodeToPost(node productNode) models.Post {
	title := node.Name
	if node.Tagline != "" {
		title = node.Name + " - " + node.Tagline
	}

	author := "unknown"
	makerMeta := make([]map[string]any, 0, len(node.Makers.Nodes))
	for i, m := range node.Makers.Nodes {
		if i == 0 && m.Username != "" {
			author = m.Username
		}
		makerMeta = append(makerMeta, map[string]any{"name": m.Name, "username": m.Username})
	}

	topicNames := make([]string, 0, len(node.Topics.Nodes))
	for _, t := range node.Topics.Nodes {
		topicNames = append(topicNames, t.Name)
	}
	channel := "featured"
	if len(topicNames) > 0 {
		head := topicNames
		if len(head) > 3 {
			head = head[:3]
		}
		channel = "topic:" + strings.Join(head, ",")
	}

	createdRaw := node.CreatedAt
	if createdRaw == "" {
		createdRaw = node.FeaturedAt
	}

	return models.Post{
		ID:            scrape.PrefixID(s.Name(), node.ID),
		Source:        s.Name(),
		Title:         title,
		Body:          node.Description,
		Author:        author,
		URL:           node.URL,
		Upvotes:       node.VotesCount,
		CommentsCount: node.CommentsCount,
		CreatedAt:     scrape.ParseUpstreamDate(createdRaw),
		Channel:       channel,
		Metadata: map[string]any{
			"ph_id":         node.ID,
			"website":       node.Website,
			"makers":        makerMeta,
			"topics":        topicNames,
			"product_state": node.ProductState,
			"tagline":       node.Tagline,
		},
	}
}

// enrichWithComments best-effort attaches ranked comments to post metadata.
// Failures are logged and skipped so one bad launch never loses the batch.
func (s *Scraper) enrichWithComments(ctx context.Context, posts []models.Post, commentsLimit int) {
	for i := range posts {
		rawID, ok := posts[i].Metadata["ph_id"].(string)
		if !ok || rawID == "" {
			rawID = strings.TrimPrefix(posts[i].ID, s.Name()+"_")
		}
		comments, err := s.fetchComments(ctx, rawID, commentsLimit)
		if err != nil {
			log.Debug().Str("post_id", posts[i].ID).Err(err).Msg("Skipping comment enrichment")
			continue
		}
		if len(comments) > 0 {
			posts[i].Metadata["top_comments"] = comments
		}
	}
}

func (s *Scraper) fetchComments(ctx context.Context, postID string, limit int) ([]map[string]any, error) {
	query := fmt.Sprintf(`
	query getComments($postId: ID!) {
		post(id: $postId) {
			comments(first: %d, order: RANKING) {
				nodes { id body createdAt votesCount user { name username url } }
			}
		}
	}`, limit)

	var reply struct {
		Post struct {
			Comments struct {
				Nodes []struct {
					ID         string `json:"id"`
					Body       string `json:"body"`
					CreatedAt  string `json:"createdAt"`
					VotesCount int    `json:"votesCount"`
					User       struct {
						Name     string `json:"name"`
						Username string `json:"username"`
					} `json:"user"`
				} `json:"nodes"`
			} `json:"comments"`
		} `json:"post"`
	}
	if err := s.graphql(ctx, query, map[string]any{"postId": postID}, &reply); err != nil {
		return nil, err
	}

	comments := make([]map[string]any, 0, len(reply.Post.Comments.Nodes))
	for _, node := range reply.Post.Comments.Nodes {
		author := node.User.Username
		if author == "" {
			author = "unknown"
		}
		comments = append(comments, map[string]any{
			"id":          node.ID,
			"body":        node.Body,
			"created_at":  node.CreatedAt,
			"votes_count": node.VotesCount,
			"author":      author,
			"author_name": node.User.Name,
		})
	}
	return comments, nil
}

// graphql posts a query and decodes the data envelope into out.
func (s *Scraper) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	payload, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return fmt.Errorf("producthunt: marshal query: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.apiToken)
	header.Set("Content-Type", "application/json")

	body, err := s.client.Post(ctx, s.apiURL, header, payload)
	if err != nil {
		return fmt.Errorf("producthunt: graphql request: %w", err)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("producthunt: decode graphql reply: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("producthunt: graphql error: %s", envelope.Errors[0].Message)
	}
	if envelope.Data == nil {
		return fmt.Errorf("producthunt: graphql reply missing data")
	}
	return json.Unmarshal(envelope.Data, out)
}

func pageSize(limit int) int {
	if limit < 50 {
		return limit
	}
	return 50
}
