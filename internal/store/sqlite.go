package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO required)
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Schema migrations, applied in order and tracked in schema_versions.
var migrations = []struct {
	version int
	sql     string
}{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_versions (
    version     INTEGER PRIMARY KEY,
    applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS artifacts (
    id              TEXT PRIMARY KEY,
    kind            TEXT NOT NULL DEFAULT 'cover_letter',
    job_title       TEXT NOT NULL DEFAULT '',
    company_name    TEXT NOT NULL DEFAULT '',
    job_description TEXT NOT NULL DEFAULT '',
    user_id         TEXT NOT NULL DEFAULT '',
    content         TEXT NOT NULL,
    provider        TEXT NOT NULL DEFAULT '',
    model           TEXT NOT NULL DEFAULT '',
    personalization TEXT NOT NULL DEFAULT '{}',
    created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_user ON artifacts(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts(kind);

CREATE TABLE IF NOT EXISTS user_profiles (
    user_id     TEXT PRIMARY KEY,
    profile     TEXT NOT NULL DEFAULT '{}',
    updated_at  DATETIME NOT NULL
);
`,
	},
}

// sqliteStore is the SQLite-backed implementation of Store.
type sqliteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite database at the given path and runs
// all pending schema migrations. Pass ":memory:" for an in-memory store.
func NewSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// WAL improves concurrent read performance.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &sqliteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate applies any unapplied migrations in order.
func (s *sqliteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_versions (
        version    INTEGER PRIMARY KEY,
        applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM schema_versions WHERE version = ?`, m.version).Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if count > 0 {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_versions(version) VALUES(?)`, m.version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqliteStore) SaveArtifact(ctx context.Context, rec *ArtifactRecord) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO artifacts(id, kind, job_title, company_name, job_description,
                              user_id, content, provider, model, personalization, created_at)
        VALUES(?,?,?,?,?,?,?,?,?,?,?)
    `,
		rec.ID, rec.Kind, rec.JobTitle, rec.CompanyName, rec.JobDescription,
		rec.UserID, rec.Content, rec.Provider, rec.Model, rec.Personalization, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", rec.ID, err)
	}
	return nil
}

func (s *sqliteStore) GetArtifact(ctx context.Context, id string) (*ArtifactRecord, error) {
	rec := &ArtifactRecord{}
	err := s.db.QueryRowContext(ctx, `
        SELECT id, kind, job_title, company_name, job_description,
               user_id, content, provider, model, personalization, created_at
        FROM artifacts WHERE id = ?
    `, id).Scan(
		&rec.ID, &rec.Kind, &rec.JobTitle, &rec.CompanyName, &rec.JobDescription,
		&rec.UserID, &rec.Content, &rec.Provider, &rec.Model, &rec.Personalization, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s: %w", id, err)
	}
	return rec, nil
}

func (s *sqliteStore) ListArtifacts(ctx context.Context, userID string, limit, offset int) ([]*ArtifactRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, kind, job_title, company_name, job_description,
               user_id, content, provider, model, personalization, created_at
        FROM artifacts WHERE user_id = ?
        ORDER BY created_at DESC LIMIT ? OFFSET ?
    `, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []*ArtifactRecord
	for rows.Next() {
		rec := &ArtifactRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Kind, &rec.JobTitle, &rec.CompanyName, &rec.JobDescription,
			&rec.UserID, &rec.Content, &rec.Provider, &rec.Model, &rec.Personalization, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqliteStore) GetProfile(ctx context.Context, userID string) (*ProfileRecord, error) {
	rec := &ProfileRecord{}
	err := s.db.QueryRowContext(ctx, `
        SELECT user_id, profile, updated_at FROM user_profiles WHERE user_id = ?
    `, userID).Scan(&rec.UserID, &rec.Profile, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return rec, nil
}

func (s *sqliteStore) SaveProfile(ctx context.Context, rec *ProfileRecord) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO user_profiles(user_id, profile, updated_at)
        VALUES(?,?,?)
        ON CONFLICT(user_id) DO UPDATE SET
            profile    = excluded.profile,
            updated_at = excluded.updated_at
    `, rec.UserID, rec.Profile, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", rec.UserID, err)
	}
	return nil
}
