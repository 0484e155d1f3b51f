package types

import "time"

// Note is a free-form knowledge base entry. Collections of notes are
// owned by the caller and passed into the pipeline on every search; the
// pipeline only ever returns pointers into those collections.
type Note struct {
	// ID is the unique identifier (format: note:slug).
	ID string `json:"id"`

	// Summary is the short display title.
	Summary string `json:"summary"`

	// Content is the full note body.
	Content string `json:"content"`

	// Tags is the set of user-defined tags (without the # prefix).
	Tags []string `json:"tags,omitempty"`

	// Timestamp is when the note was captured. Date filters compare
	// against this field.
	Timestamp time.Time `json:"timestamp"`

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is an actionable item with lifecycle and priority.
type Task struct {
	// ID is the unique identifier (format: task:slug).
	ID string `json:"id"`

	// Title is the short display title.
	Title string `json:"title"`

	// Description is the optional longer body.
	Description string `json:"description,omitempty"`

	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`

	// Priority is the task priority.
	Priority TaskPriority `json:"priority"`

	// Tags is the set of user-defined tags (without the # prefix).
	Tags []string `json:"tags,omitempty"`

	// CreatedAt is when the task was created. Date filters compare
	// against this field.
	CreatedAt time.Time `json:"created_at"`

	// DueDate is the optional deadline.
	DueDate *time.Time `json:"due_date,omitempty"`
}

// Organization is a company or other organization known to the system.
type Organization struct {
	ID          string `json:"id"`   // format: org:slug
	Name        string `json:"name"` // display name, used for query matching
	Description string `json:"description,omitempty"`
}

// Person is a contact known to the system.
type Person struct {
	ID    string `json:"id"`   // format: person:slug
	Name  string `json:"name"` // display name, used for query matching
	Email string `json:"email,omitempty"`
}

// Topic is a subject-matter label known to the system.
type Topic struct {
	ID          string `json:"id"`   // format: topic:slug
	Name        string `json:"name"` // display name, used for query matching
	Description string `json:"description,omitempty"`
}

// Collections bundles the caller-owned in-memory record lists supplied
// to every pipeline call. The pipeline never loads, copies, or persists
// these; results reference the same pointers held here.
type Collections struct {
	Notes         []*Note
	Tasks         []*Task
	Organizations []*Organization
	People        []*Person
	Topics        []*Topic
}
