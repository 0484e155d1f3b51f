package index

import (
	"context"
	"fmt"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// entityKey is the lookup key: a record identity plus its kind.
type entityKey struct {
	id   string
	kind types.EntityKind
}

// MemoryIndex is an in-memory RelationshipIndex backed by a hash map
// from entity key to the relationships touching it. Built once from a
// relationship list and read-only afterwards, so it is safe for
// concurrent lookups.
type MemoryIndex struct {
	byEntity map[entityKey][]*types.Relationship
}

// NewMemoryIndex builds an index over rels. Relationships with endpoint
// kinds outside the closed EntityKind set are rejected rather than
// silently skipped.
func NewMemoryIndex(rels []*types.Relationship) (*MemoryIndex, error) {
	idx := &MemoryIndex{
		byEntity: make(map[entityKey][]*types.Relationship, len(rels)*2),
	}
	for _, rel := range rels {
		if !rel.Valid() {
			return nil, fmt.Errorf("%w: %s (%s -> %s)", ErrInvalidRelationship, rel.ID, rel.SourceKind, rel.TargetKind)
		}
		src := entityKey{rel.SourceID, rel.SourceKind}
		idx.byEntity[src] = append(idx.byEntity[src], rel)

		tgt := entityKey{rel.TargetID, rel.TargetKind}
		if tgt != src {
			idx.byEntity[tgt] = append(idx.byEntity[tgt], rel)
		}
	}
	return idx, nil
}

// GetRelationships returns the relationships touching (entityID, kind).
// The returned slice is shared; callers must not mutate it.
func (m *MemoryIndex) GetRelationships(_ context.Context, entityID string, kind types.EntityKind) ([]*types.Relationship, error) {
	return m.byEntity[entityKey{entityID, kind}], nil
}

// Ping always succeeds for the in-memory backend.
func (m *MemoryIndex) Ping(_ context.Context) error {
	return nil
}

// Compile-time assertion.
var _ RelationshipIndex = (*MemoryIndex)(nil)
