// Package scrape defines the contract every source adapter implements and
// the shared HTTP plumbing adapters use to talk to upstream platforms.
package scrape

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/signalhound/signalhound/internal/models"
)

// Capability declares a feature a scraper supports.
type Capability string

const (
	CapabilitySearch     Capability = "search"
	CapabilitySortNew    Capability = "sort_new"
	CapabilitySortHot    Capability = "sort_hot"
	CapabilitySortTop    Capability = "sort_top"
	CapabilityComments   Capability = "comments"
	CapabilityReviews    Capability = "reviews"
	CapabilityRealtime   Capability = "realtime"
	CapabilityHistorical Capability = "historical"
)

// Common errors
var (
	ErrNotConfigured = errors.New("scraper not configured")
	ErrRateLimited   = errors.New("upstream rate limit exceeded")
)

// Options carries per-scrape knobs whose meaning depends on the adapter.
type Options struct {
	// Sort order: "new" | "hot" | "top" for forums, "newest" | "most_helpful"
	// for review platforms. Adapters fall back to their default when empty.
	Sort string
	// TimeFilter bounds "top" listings: hour|day|week|month|year|all.
	TimeFilter string
	// Search switches feed-capable adapters into query mode.
	Search bool
	// StarRating filters review platforms to a single rating (1-5); 0 = all.
	StarRating int
	// FetchComments enriches items with top comments where supported.
	FetchComments bool
}

// Scraper is a source adapter. Implementations own the mapping from their
// platform's response shapes to the canonical Post and must honor the
// normalization contract: Source equals Name, ids are prefixed to be unique
// across adapters, timestamps are UTC, and removed or empty items are
// dropped before they leave the adapter.
type Scraper interface {
	// Name is the unique adapter identifier ("reddit", "hackernews", ...).
	Name() string
	// Platform is the human-readable platform name ("Reddit", "Hacker News").
	Platform() string
	// Capabilities declares what this adapter supports.
	Capabilities() []Capability

	// Configure applies credentials and settings. Must be called before Scrape.
	Configure(config map[string]string) error

	// Scrape fetches up to limit posts for the adapter-specific target: a
	// forum name, a feed tag, a search query, or a product slug. Upstream
	// result order is preserved. Rate-limit failures surface as errors
	// wrapping ErrRateLimited.
	Scrape(ctx context.Context, target string, limit int, opts Options) ([]models.Post, error)

	// HealthCheck probes upstream connectivity.
	HealthCheck(ctx context.Context) bool
}

// HasCapability reports whether cap is in the scraper's declared set.
func HasCapability(s Scraper, cap Capability) bool {
	for _, c := range s.Capabilities() {
		if c == cap {
			return true
		}
	}
	return false
}

// PrefixID builds the cross-adapter-unique post id. Raw ids already carrying
// the prefix are returned unchanged so adapters can pass through ids from
// search endpoints that pre-prefix.
func PrefixID(source, rawID string) string {
	prefix := source + "_"
	if strings.HasPrefix(rawID, prefix) {
		return rawID
	}
	return prefix + rawID
}

// NormalizeTime converts an upstream timestamp to UTC, substituting "now"
// when the platform supplied none.
func NormalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// ParseUpstreamDate parses the loose ISO-8601 variants review platforms emit.
// Unparsable or empty dates fall back to "now" per the normalization contract.
func ParseUpstreamDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
