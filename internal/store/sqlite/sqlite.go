// Package sqlite implements store.Store on a single-file SQLite database.
//
// Map- and list-valued fields are serialized as JSON text columns; typed
// values exist only in memory. Timestamps are stored as RFC3339 UTC strings
// so lexicographic ORDER BY matches chronological order.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/signalhound/signalhound/internal/models"
	"github.com/signalhound/signalhound/internal/store"
)

// Store is the SQLite-backed implementation of store.Store. One connection
// per process; SQLite serializes writers for us.
type Store struct {
	db      *sqlx.DB
	path    string
	timeout time.Duration
}

// New creates a store for the database file at path. The file is not touched
// until Initialize.
func New(path string) *Store {
	return &Store{
		path:    path,
		timeout: 10 * time.Second,
	}
}

var _ store.Store = (*Store)(nil)

// Initialize opens the database and applies lazy migrations: every table is
// created if absent and every column the current model requires is added to
// legacy tables that predate it.
func (s *Store) Initialize(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	db, err := sqlx.Open("sqlite3", s.path)
	if err != nil {
		return fmt.Errorf("open sqlite database %s: %w", s.path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping sqlite database %s: %w", s.path, err)
	}

	s.db = db
	if err := s.migrate(ctx); err != nil {
		s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// ---- posts ----

// SavePost upserts a post by id.
func (s *Store) SavePost(ctx context.Context, post models.Post) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	metadataJSON, err := json.Marshal(orEmptyMap(post.Metadata))
	if err != nil {
		return fmt.Errorf("marshal post metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO raw_posts
		(id, source, title, body, author, url, upvotes, comments_count,
		 created_at, subreddit, metadata, channel, sentiment_label, sentiment_intensity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Source, post.Title, nullStr(post.Body), post.Author, post.URL,
		post.Upvotes, post.CommentsCount, encodeTime(post.CreatedAt),
		nullStr(post.Subreddit), string(metadataJSON), nullStr(post.Channel),
		nullStr(post.SentimentLabel), post.SentimentIntensity)
	if err != nil {
		return fmt.Errorf("save post %s: %w", post.ID, err)
	}
	return nil
}

// GetPost fetches one post by id, or store.ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row postRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM raw_posts WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	post, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPosts lists posts most-recently-created first. source "" means all
// sources; limit <= 0 means no limit.
func (s *Store) GetPosts(ctx context.Context, limit int, source string) ([]models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT * FROM raw_posts`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]models.Post, 0, len(rows))
	for _, row := range rows {
		post, err := row.toModel()
		if err != nil {
			log.Warn().Str("post_id", row.ID).Err(err).Msg("Skipping undecodable post row")
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// ---- signals ----

// SaveSignal upserts the pain analysis for a post.
func (s *Store) SaveSignal(ctx context.Context, postID string, pain models.PainScore) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	problemsJSON, err := json.Marshal(orEmptySlice(pain.DetectedProblems))
	if err != nil {
		return fmt.Errorf("marshal detected problems: %w", err)
	}
	solutionsJSON, err := json.Marshal(orEmptySlice(pain.SuggestedSolutions))
	if err != nil {
		return fmt.Errorf("marshal suggested solutions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO signals
		(post_id, score, reasoning, detected_problems, suggested_solutions,
		 validation_score, engagement_score, recency_score, composite_value,
		 analyzed_at, sentiment_label, sentiment_intensity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		postID, pain.Score, pain.Reasoning, string(problemsJSON), string(solutionsJSON),
		pain.ValidationScore, pain.EngagementScore, pain.RecencyScore, pain.CompositeValue,
		encodeTime(time.Now().UTC()), nullStr(pain.SentimentLabel), pain.SentimentIntensity)
	if err != nil {
		return fmt.Errorf("save signal for %s: %w", postID, err)
	}
	return nil
}

// GetSignal fetches the pain analysis for a post, or store.ErrNotFound.
func (s *Store) GetSignal(ctx context.Context, postID string) (*models.PainScore, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row signalRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM signals WHERE post_id = ?`, postID)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get signal for %s: %w", postID, err)
	}
	pain := row.toModel()
	return &pain, nil
}

// ---- opportunity scores ----

// SaveOpportunityScore upserts the score record for a post.
func (s *Store) SaveOpportunityScore(ctx context.Context, score models.OpportunityScore) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dimensionsJSON, err := json.Marshal(orEmptyFloatMap(score.Dimensions))
	if err != nil {
		return fmt.Errorf("marshal score dimensions: %w", err)
	}
	weightsJSON, err := json.Marshal(orEmptyFloatMap(score.Weights))
	if err != nil {
		return fmt.Errorf("marshal score weights: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO opportunity_scores
		(post_id, source, final_score, pain_intensity, engagement_norm,
		 validation_evidence, sentiment_intensity, recency, trend_momentum,
		 market_signal, cross_source_bonus, dimensions, weights, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		score.PostID, score.Source, score.FinalScore, score.PainIntensity,
		score.EngagementNorm, score.ValidationEvidence, score.SentimentIntensity,
		score.Recency, score.TrendMomentum, score.MarketSignal, score.CrossSourceBonus,
		string(dimensionsJSON), string(weightsJSON), encodeTime(score.ComputedAt))
	if err != nil {
		return fmt.Errorf("save opportunity score for %s: %w", score.PostID, err)
	}
	return nil
}

// GetOpportunityScores lists scores with final_score >= minScore, highest
// first. limit <= 0 means no limit.
func (s *Store) GetOpportunityScores(ctx context.Context, limit int, minScore float64) ([]models.OpportunityScore, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT * FROM opportunity_scores WHERE final_score >= ? ORDER BY final_score DESC`
	args := []any{minScore}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []scoreRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list opportunity scores: %w", err)
	}

	scores := make([]models.OpportunityScore, 0, len(rows))
	for _, row := range rows {
		score, err := row.toModel()
		if err != nil {
			log.Warn().Str("post_id", row.PostID).Err(err).Msg("Skipping undecodable score row")
			continue
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// ---- leads ----

// SaveLead inserts a new lead (id == 0) or updates an existing one, and
// returns the lead's id.
func (s *Store) SaveLead(ctx context.Context, lead models.Lead) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profilesJSON, err := json.Marshal(orEmptyStrMap(lead.VerifiedProfiles))
	if err != nil {
		return 0, fmt.Errorf("marshal verified profiles: %w", err)
	}
	createdAt := lead.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if lead.ID > 0 {
		_, err := s.db.ExecContext(ctx, `
			UPDATE leads SET
				post_id = ?, source = ?, author = ?, content_snippet = ?,
				intent_score = ?, sentiment_label = ?, sentiment_intensity = ?,
				contact_url = ?, verified_profiles = ?, status = ?, created_at = ?
			WHERE id = ?`,
			lead.PostID, lead.Source, lead.Author, lead.ContentSnippet,
			lead.IntentScore, nullStr(lead.SentimentLabel), lead.SentimentIntensity,
			lead.ContactURL, string(profilesJSON), lead.Status, encodeTime(createdAt),
			lead.ID)
		if err != nil {
			return 0, fmt.Errorf("update lead %d: %w", lead.ID, err)
		}
		return lead.ID, nil
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leads
		(post_id, source, author, content_snippet, intent_score, sentiment_label,
		 sentiment_intensity, contact_url, verified_profiles, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.PostID, lead.Source, lead.Author, lead.ContentSnippet,
		lead.IntentScore, nullStr(lead.SentimentLabel), lead.SentimentIntensity,
		lead.ContactURL, string(profilesJSON), lead.Status, encodeTime(createdAt))
	if err != nil {
		return 0, fmt.Errorf("insert lead for %s: %w", lead.PostID, err)
	}
	return res.LastInsertId()
}

// GetLeads lists leads newest first. limit <= 0 means no limit.
func (s *Store) GetLeads(ctx context.Context, limit int) ([]models.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT * FROM leads ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []leadRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	leads := make([]models.Lead, 0, len(rows))
	for _, row := range rows {
		lead, err := row.toModel()
		if err != nil {
			log.Warn().Int64("lead_id", row.ID).Err(err).Msg("Skipping undecodable lead row")
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// ---- validation reports ----

// SaveReport upserts a validation report by post id.
func (s *Store) SaveReport(ctx context.Context, report models.ValidationReport) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	competitorsJSON, err := json.Marshal(report.Competitors)
	if err != nil {
		return fmt.Errorf("marshal competitors: %w", err)
	}
	swotJSON, err := json.Marshal(report.SWOTAnalysis)
	if err != nil {
		return fmt.Errorf("marshal swot analysis: %w", err)
	}
	nextStepsJSON, err := json.Marshal(orEmptySlice(report.NextSteps))
	if err != nil {
		return fmt.Errorf("marshal next steps: %w", err)
	}
	corroboratingJSON, err := json.Marshal(orEmptySlice(report.CorroboratingSources))
	if err != nil {
		return fmt.Errorf("marshal corroborating sources: %w", err)
	}
	corroboratingIDsJSON, err := json.Marshal(orEmptySlice(report.CorroboratingPostIDs))
	if err != nil {
		return fmt.Errorf("marshal corroborating post ids: %w", err)
	}

	generatedAt := report.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO validation_reports
		(post_id, source, idea_summary, market_size_estimate, competitors,
		 swot_analysis, validation_verdict, next_steps, corroborating_sources,
		 corroborating_post_ids, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.PostID, report.Source, report.IdeaSummary, report.MarketSizeEstimate,
		string(competitorsJSON), string(swotJSON), report.ValidationVerdict,
		string(nextStepsJSON), string(corroboratingJSON), string(corroboratingIDsJSON),
		encodeTime(generatedAt))
	if err != nil {
		return fmt.Errorf("save report for %s: %w", report.PostID, err)
	}
	return nil
}

// GetReports lists validation reports newest first. limit <= 0 means no limit.
func (s *Store) GetReports(ctx context.Context, limit int) ([]models.ValidationReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT * FROM validation_reports ORDER BY generated_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]models.ValidationReport, 0, len(rows))
	for _, row := range rows {
		report, err := row.toModel()
		if err != nil {
			log.Warn().Str("post_id", row.PostID).Err(err).Msg("Skipping undecodable report row")
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// ---- serialization helpers ----

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Legacy rows may carry fractional seconds.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptyFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func orEmptyStrMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func decodeJSONList(raw sql.NullString) []string {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return []string{}
	}
	return out
}
