package store

import (
	"context"
	"errors"

	"github.com/signalhound/signalhound/internal/models"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// Store persists the pipeline's records. Every Save method is an idempotent
// upsert on the record's primary key; list methods accept limit <= 0 to mean
// "no limit". I/O errors surface to the caller, there is no internal retry.
type Store interface {
	// Initialize opens the backing file and applies lazy migrations,
	// adding any column the current model needs that an older database
	// is missing. Safe to call more than once.
	Initialize(ctx context.Context) error

	SavePost(ctx context.Context, post models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// GetPosts returns posts most-recently-created first, optionally
	// filtered by source ("" = all sources).
	GetPosts(ctx context.Context, limit int, source string) ([]models.Post, error)

	SaveSignal(ctx context.Context, postID string, pain models.PainScore) error
	GetSignal(ctx context.Context, postID string) (*models.PainScore, error)

	SaveOpportunityScore(ctx context.Context, score models.OpportunityScore) error
	// GetOpportunityScores returns scores with final_score >= minScore,
	// highest first.
	GetOpportunityScores(ctx context.Context, limit int, minScore float64) ([]models.OpportunityScore, error)

	SaveLead(ctx context.Context, lead models.Lead) (int64, error)
	GetLeads(ctx context.Context, limit int) ([]models.Lead, error)

	SaveReport(ctx context.Context, report models.ValidationReport) error
	GetReports(ctx context.Context, limit int) ([]models.ValidationReport, error)

	Close() error
}
