package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Parsing is two explicit stages with distinct named failures:
// extraction (find the JSON substring, tolerating fenced and bare
// forms) and shape validation (decode and repair the selection).
// Callers that see either error fall back to keyword search.
var (
	// ErrNoJSONFound is the extraction-stage failure: no complete JSON
	// object in the response text.
	ErrNoJSONFound = errors.New("no JSON object found in response")

	// ErrInvalidShape is the validation-stage failure: the JSON decoded
	// but does not carry a usable selection.
	ErrInvalidShape = errors.New("response JSON has invalid shape")
)

// SearchSelection is the JSON contract the system prompt demands from
// the model: identifiers into the caller's collections plus optional
// summary text.
type SearchSelection struct {
	NoteIDs     []string `json:"note_ids"`
	TaskIDs     []string `json:"task_ids"`
	Summary     string   `json:"summary,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ExtractJSON finds the first complete JSON object in text, accepting
// both a ```json fenced block and bare JSON with surrounding prose.
// Models add explanations before and after JSON despite instructions,
// so brace matching runs on the stripped text rather than trusting the
// fence.
func ExtractJSON(text string) (string, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return "", ErrNoJSONFound
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}

	return "", ErrNoJSONFound
}

// ParseSearchSelection runs both stages and returns the validated
// selection. Missing note_ids/task_ids arrays are repaired to empty;
// a response carrying neither key at all is rejected as shapeless.
func ParseSearchSelection(text string) (*SearchSelection, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	// Decode into a raw map first so "field absent" and "field empty"
	// can be told apart for shape validation.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	_, hasNotes := probe["note_ids"]
	_, hasTasks := probe["task_ids"]
	if !hasNotes && !hasTasks {
		return nil, fmt.Errorf("%w: missing note_ids and task_ids", ErrInvalidShape)
	}

	var sel SearchSelection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if sel.NoteIDs == nil {
		sel.NoteIDs = []string{}
	}
	if sel.TaskIDs == nil {
		sel.TaskIDs = []string{}
	}
	return &sel, nil
}
