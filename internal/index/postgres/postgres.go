// Package postgres provides a PostgreSQL-backed relationship index.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/jamesmcarthur-3999/taskerino/internal/index"
	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// Schema creates the relationships table with covering indexes on both
// endpoints.
const Schema = `
CREATE TABLE IF NOT EXISTS relationships (
	id          TEXT PRIMARY KEY,
	source_kind TEXT NOT NULL,
	source_id   TEXT NOT NULL,
	target_kind TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	kind        TEXT NOT NULL DEFAULT '',
	metadata    JSONB NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id, source_kind);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id, target_kind);
`

// Index implements index.RelationshipIndex over a PostgreSQL database.
type Index struct {
	db *sql.DB
}

// Open connects to the database at dsn and ensures the schema exists.
func Open(dsn string) (*Index, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres index: failed to open: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres index: failed to create schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Load replaces the stored relationships with rels. Relationships with
// endpoint kinds outside the closed set are rejected.
func (p *Index) Load(ctx context.Context, rels []*types.Relationship) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres index: failed to begin load: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM relationships`); err != nil {
		return fmt.Errorf("postgres index: failed to clear: %w", err)
	}

	for _, rel := range rels {
		if !rel.Valid() {
			return fmt.Errorf("%w: %s (%s -> %s)", index.ErrInvalidRelationship, rel.ID, rel.SourceKind, rel.TargetKind)
		}
		meta, err := json.Marshal(rel.Metadata)
		if err != nil {
			return fmt.Errorf("postgres index: failed to encode metadata for %s: %w", rel.ID, err)
		}
		if rel.Metadata == nil {
			meta = []byte("{}")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO relationships (id, source_kind, source_id, target_kind, target_id, kind, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rel.ID, string(rel.SourceKind), rel.SourceID, string(rel.TargetKind), rel.TargetID, rel.Kind, string(meta))
		if err != nil {
			return fmt.Errorf("postgres index: failed to insert %s: %w", rel.ID, err)
		}
	}

	return tx.Commit()
}

// GetRelationships returns every relationship touching (entityID, kind).
func (p *Index) GetRelationships(ctx context.Context, entityID string, kind types.EntityKind) ([]*types.Relationship, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, source_kind, source_id, target_kind, target_id, kind, metadata
		FROM relationships
		WHERE (source_id = $1 AND source_kind = $2)
		   OR (target_id = $1 AND target_kind = $2)`,
		entityID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}
	defer rows.Close()

	var rels []*types.Relationship
	for rows.Next() {
		var rel types.Relationship
		var sourceKind, targetKind string
		var meta []byte
		if err := rows.Scan(&rel.ID, &sourceKind, &rel.SourceID, &targetKind, &rel.TargetID, &rel.Kind, &meta); err != nil {
			return nil, fmt.Errorf("postgres index: failed to scan row: %w", err)
		}
		rel.SourceKind = types.EntityKind(sourceKind)
		rel.TargetKind = types.EntityKind(targetKind)
		if len(meta) > 0 && string(meta) != "{}" {
			if err := json.Unmarshal(meta, &rel.Metadata); err != nil {
				return nil, fmt.Errorf("postgres index: failed to decode metadata for %s: %w", rel.ID, err)
			}
		}
		rels = append(rels, &rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}
	return rels, nil
}

// Ping verifies the database connection.
func (p *Index) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", index.ErrUnavailable, err)
	}
	return nil
}

// Close releases the database handle.
func (p *Index) Close() error {
	return p.db.Close()
}

// Compile-time assertion.
var _ index.RelationshipIndex = (*Index)(nil)
