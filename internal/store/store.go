// Package store persists generated artifacts and user profiles.
//
// Persistence is the one boundary where failure is pipeline-fatal: an
// artifact that cannot be stored must fail the request rather than be
// silently lost.
package store

import (
	"context"
	"time"
)

// Artifact kinds. Market insights are cache-only and never persisted, so
// there is no kind for them.
const (
	KindCoverLetter = "cover_letter"
	KindCVAnalysis  = "cv_analysis"
)

// ArtifactRecord is a persisted pipeline output. Immutable after creation.
type ArtifactRecord struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	JobTitle        string    `json:"job_title"`
	CompanyName     string    `json:"company_name"`
	JobDescription  string    `json:"job_description"`
	UserID          string    `json:"user_id"`
	Content         string    `json:"content"`
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	Personalization string    `json:"personalization"` // JSON blob: stage provenance
	CreatedAt       time.Time `json:"created_at"`
}

// ProfileRecord is a stored user profile. The profile body is an opaque
// JSON blob owned by the research types.
type ProfileRecord struct {
	UserID    string    `json:"user_id"`
	Profile   string    `json:"profile"` // JSON blob
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence boundary consumed by the orchestrator.
type Store interface {
	// SaveArtifact inserts a new artifact. IDs are unique per run; there is
	// no upsert because artifacts are immutable.
	SaveArtifact(ctx context.Context, rec *ArtifactRecord) error

	// GetArtifact retrieves an artifact by ID. Returns ErrNotFound when absent.
	GetArtifact(ctx context.Context, id string) (*ArtifactRecord, error)

	// ListArtifacts returns a user's artifacts, newest first.
	ListArtifacts(ctx context.Context, userID string, limit, offset int) ([]*ArtifactRecord, error)

	// GetProfile retrieves a stored profile. Returns ErrNotFound when absent.
	GetProfile(ctx context.Context, userID string) (*ProfileRecord, error)

	// SaveProfile creates or replaces a stored profile.
	SaveProfile(ctx context.Context, rec *ProfileRecord) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying database.
	Close() error
}
