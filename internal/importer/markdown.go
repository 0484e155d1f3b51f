package importer

import (
	"bufio"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// ParsedFile is a single Markdown vault file after frontmatter and link
// extraction, before it is turned into a typed record.
type ParsedFile struct {
	// RelativePath is the path relative to the vault root.
	RelativePath string

	// Kind is the record kind from the frontmatter "type" field,
	// defaulting to note.
	Kind types.EntityKind

	// Title is the frontmatter title, the first H1 heading, or the
	// filename, in that order of preference.
	Title string

	// Content is the Markdown body with frontmatter stripped and
	// wiki-links flattened to plain text.
	Content string

	// Tags merges frontmatter tags with inline #tags, deduplicated
	// case-insensitively.
	Tags []string

	// Status and Priority are read for task files; empty otherwise.
	Status   string
	Priority string

	// Timestamp is the frontmatter date field, zero when absent.
	Timestamp time.Time

	// DueDate is the frontmatter "due" field for tasks, nil when absent.
	DueDate *time.Time

	// WikiLinks are the [[link]] targets referenced by this file.
	WikiLinks []WikiLink
}

// ParseMarkdownFile parses one vault file's content. relativePath
// supplies the fallback title and appears in parse errors.
func ParseMarkdownFile(content []byte, relativePath string) (*ParsedFile, error) {
	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, fmt.Errorf("frontmatter parse error in %s: %w", relativePath, err)
	}

	kind, err := kindFromFrontmatter(fm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", relativePath, err)
	}

	title := frontmatterString(fm, "title")
	if title == "" {
		title = frontmatterString(fm, "name")
	}
	if title == "" {
		title = extractH1(body)
	}
	if title == "" {
		title = titleFromPath(relativePath)
	}

	tags := mergeTags(frontmatterTags(fm), extractInlineTags(body))

	return &ParsedFile{
		RelativePath: relativePath,
		Kind:         kind,
		Title:        title,
		Content:      strings.TrimSpace(StripWikiLinks(body)),
		Tags:         tags,
		Status:       frontmatterString(fm, "status"),
		Priority:     frontmatterString(fm, "priority"),
		Timestamp:    frontmatterTime(fm, "date", "created", "created_at"),
		DueDate:      frontmatterTimePtr(fm, "due", "due_date"),
		WikiLinks:    ExtractWikiLinks(body),
	}, nil
}

// Slug converts a title or link target to the identifier segment used
// in record ids: lowercase, non-alphanumerics collapsed to hyphens.
func Slug(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters)
// from the Markdown body. Files without frontmatter parse as all body.
func splitFrontmatter(text string) (map[string]interface{}, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return map[string]interface{}{}, text, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		// Unterminated delimiter, treat the whole file as body.
		return map[string]interface{}{}, text, nil
	}

	fm := make(map[string]interface{})
	fmText := strings.Join(lines[1:closeIdx], "\n")
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return nil, "", fmt.Errorf("invalid YAML: %w", err)
	}

	return fm, strings.Join(lines[closeIdx+1:], "\n"), nil
}

// kindFromFrontmatter maps the "type" field to an EntityKind. Aliases
// from common vault conventions are accepted; unknown types are errors
// rather than silently becoming notes.
func kindFromFrontmatter(fm map[string]interface{}) (types.EntityKind, error) {
	raw := strings.ToLower(frontmatterString(fm, "type"))
	switch raw {
	case "", "note":
		return types.KindNote, nil
	case "task", "todo":
		return types.KindTask, nil
	case "organization", "org", "company":
		return types.KindOrganization, nil
	case "person", "contact":
		return types.KindPerson, nil
	case "topic":
		return types.KindTopic, nil
	}
	return "", fmt.Errorf("unknown record type %q", raw)
}

// titleFromPath derives a readable title from the filename.
func titleFromPath(rel string) string {
	base := filepath.Base(rel)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// extractH1 returns the text of the first ATX heading in the body.
func extractH1(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// frontmatterTags reads tags in either list or comma-separated string
// form.
func frontmatterTags(fm map[string]interface{}) []string {
	switch v := fm["tags"].(type) {
	case []interface{}:
		var tags []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		var tags []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}
	return nil
}

var frontmatterTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
}

// frontmatterTime reads the first present key as a timestamp, trying
// common layouts. Zero when absent or unparseable.
func frontmatterTime(fm map[string]interface{}, keys ...string) time.Time {
	for _, key := range keys {
		raw, ok := fm[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case time.Time:
			return v
		case string:
			for _, layout := range frontmatterTimeLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
					return t
				}
			}
		}
	}
	return time.Time{}
}

func frontmatterTimePtr(fm map[string]interface{}, keys ...string) *time.Time {
	t := frontmatterTime(fm, keys...)
	if t.IsZero() {
		return nil
	}
	return &t
}

func frontmatterString(fm map[string]interface{}, key string) string {
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// inlineTagRe finds #hashtag patterns in body text.
var inlineTagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

func extractInlineTags(body string) []string {
	matches := inlineTagRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool)
	var tags []string
	for _, m := range matches {
		lower := strings.ToLower(m[1])
		if !seen[lower] {
			seen[lower] = true
			tags = append(tags, m[1])
		}
	}
	return tags
}

func mergeTags(a, b []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range append(a, b...) {
		lower := strings.ToLower(tag)
		if !seen[lower] {
			seen[lower] = true
			out = append(out, tag)
		}
	}
	return out
}
