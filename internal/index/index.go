// Package index defines the relationship-lookup capability the graph
// search stage consumes, plus in-memory, SQLite, and Postgres backends.
// The index is owned outside the pipeline and is strictly read-only
// from the pipeline's perspective.
package index

import (
	"context"
	"errors"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

var (
	// ErrUnavailable indicates the index backend could not serve a
	// lookup. The orchestrator recovers from this by falling back to a
	// full scan.
	ErrUnavailable = errors.New("relationship index unavailable")

	// ErrInvalidRelationship indicates a relationship with an endpoint
	// kind outside the closed EntityKind set was offered to a loader.
	ErrInvalidRelationship = errors.New("relationship has invalid endpoint kind")
)

// RelationshipIndex is the lookup capability keyed by (entityID, kind).
// Lookups must be indexed (O(1) on the entity key), not scans.
type RelationshipIndex interface {
	// GetRelationships returns every relationship with either endpoint
	// equal to the record identified by (entityID, kind).
	GetRelationships(ctx context.Context, entityID string, kind types.EntityKind) ([]*types.Relationship, error)

	// Ping verifies the index connection is usable.
	Ping(ctx context.Context) error
}
