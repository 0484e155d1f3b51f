// Package sqlite provides a SQLite-backed relationship index.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jamesmcarthur-3999/taskerino/internal/index"
	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// Schema creates the relationships table with covering indexes on both
// endpoints, so a lookup by (entity_id, kind) never scans.
const Schema = `
CREATE TABLE IF NOT EXISTS relationships (
	id          TEXT PRIMARY KEY,
	source_kind TEXT NOT NULL,
	source_id   TEXT NOT NULL,
	target_kind TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	kind        TEXT NOT NULL DEFAULT '',
	metadata    TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id, source_kind);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id, target_kind);
`

// Index implements index.RelationshipIndex over a SQLite database.
type Index struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// Open opens (or creates) the database at dsn and prepares the lookup
// statement. Use ":memory:" for an ephemeral index.
func Open(dsn string) (*Index, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite index: failed to open %s: %w", dsn, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite index: failed to create schema: %w", err)
	}

	stmt, err := db.Prepare(`
		SELECT id, source_kind, source_id, target_kind, target_id, kind, metadata
		FROM relationships
		WHERE (source_id = ? AND source_kind = ?)
		   OR (target_id = ? AND target_kind = ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite index: failed to prepare lookup: %w", err)
	}

	return &Index{db: db, stmt: stmt}, nil
}

// Load replaces the stored relationships with rels. Relationships with
// endpoint kinds outside the closed set are rejected.
func (s *Index) Load(ctx context.Context, rels []*types.Relationship) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite index: failed to begin load: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM relationships`); err != nil {
		return fmt.Errorf("sqlite index: failed to clear: %w", err)
	}

	for _, rel := range rels {
		if !rel.Valid() {
			return fmt.Errorf("%w: %s (%s -> %s)", index.ErrInvalidRelationship, rel.ID, rel.SourceKind, rel.TargetKind)
		}
		meta, err := json.Marshal(rel.Metadata)
		if err != nil {
			return fmt.Errorf("sqlite index: failed to encode metadata for %s: %w", rel.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO relationships (id, source_kind, source_id, target_kind, target_id, kind, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rel.ID, string(rel.SourceKind), rel.SourceID, string(rel.TargetKind), rel.TargetID, rel.Kind, string(meta))
		if err != nil {
			return fmt.Errorf("sqlite index: failed to insert %s: %w", rel.ID, err)
		}
	}

	return tx.Commit()
}

// GetRelationships returns every relationship touching (entityID, kind).
func (s *Index) GetRelationships(ctx context.Context, entityID string, kind types.EntityKind) ([]*types.Relationship, error) {
	rows, err := s.stmt.QueryContext(ctx, entityID, string(kind), entityID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}
	defer rows.Close()

	var rels []*types.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}
	return rels, nil
}

func scanRelationship(rows *sql.Rows) (*types.Relationship, error) {
	var rel types.Relationship
	var sourceKind, targetKind, meta string
	if err := rows.Scan(&rel.ID, &sourceKind, &rel.SourceID, &targetKind, &rel.TargetID, &rel.Kind, &meta); err != nil {
		return nil, fmt.Errorf("sqlite index: failed to scan row: %w", err)
	}
	rel.SourceKind = types.EntityKind(sourceKind)
	rel.TargetKind = types.EntityKind(targetKind)
	if meta != "" && meta != "{}" && meta != "null" {
		if err := json.Unmarshal([]byte(meta), &rel.Metadata); err != nil {
			return nil, fmt.Errorf("sqlite index: failed to decode metadata for %s: %w", rel.ID, err)
		}
	}
	return &rel, nil
}

// Ping verifies the database connection.
func (s *Index) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}
	return nil
}

// Close releases the prepared statement and the database handle.
func (s *Index) Close() error {
	s.stmt.Close()
	return s.db.Close()
}

// Compile-time assertion.
var _ index.RelationshipIndex = (*Index)(nil)
