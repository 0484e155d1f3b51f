package types

// Relationship is a directed link between two records in the knowledge
// graph (e.g. a note and an organization). Relationships are owned by an
// external index; the pipeline reads them to bound candidate sets
// without scanning every record.
type Relationship struct {
	// ID is the unique identifier (format: rel:uuid).
	ID string `json:"id"`

	// SourceKind and SourceID identify the source record.
	SourceKind EntityKind `json:"source_kind"`
	SourceID   string     `json:"source_id"`

	// TargetKind and TargetID identify the target record.
	TargetKind EntityKind `json:"target_kind"`
	TargetID   string     `json:"target_id"`

	// Kind labels the relation (e.g. "mentions", "assigned_to").
	Kind string `json:"kind,omitempty"`

	// Metadata carries arbitrary relation context.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// EndpointOfKind returns the ID of the endpoint with the given kind and
// true, if either endpoint has that kind. When both endpoints share the
// kind the source wins. Candidate derivation is bidirectional: a note is
// a candidate whether it is the source or the target of a relationship
// touching a matched entity.
func (r *Relationship) EndpointOfKind(kind EntityKind) (string, bool) {
	if r.SourceKind == kind {
		return r.SourceID, true
	}
	if r.TargetKind == kind {
		return r.TargetID, true
	}
	return "", false
}

// Valid reports whether both endpoint kinds are members of the closed
// EntityKind set. Index loaders reject invalid relationships instead of
// letting unknown kinds fall through comparisons unhandled.
func (r *Relationship) Valid() bool {
	return IsValidEntityKind(string(r.SourceKind)) && IsValidEntityKind(string(r.TargetKind))
}
