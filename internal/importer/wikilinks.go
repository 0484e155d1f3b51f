// Package importer loads a Markdown knowledge vault from disk: notes,
// tasks, organizations, people, and topics described by YAML
// frontmatter, with [[wiki-links]] between files turned into
// relationships.
package importer

import (
	"regexp"
	"strings"
)

// wikilinkRe matches [[target]] and [[target|alias]] patterns.
var wikilinkRe = regexp.MustCompile(`\[\[([^\[\]|]+?)(?:\|([^\[\]]+?))?\]\]`)

// WikiLink is a parsed [[wiki-link]] reference to another vault file.
type WikiLink struct {
	// Target is the linked note or entity name.
	Target string

	// Alias is the display text for [[target|alias]], empty otherwise.
	Alias string
}

// ExtractWikiLinks finds every [[wiki-link]] in content, deduplicated
// case-insensitively by target and ordered by first appearance.
func ExtractWikiLinks(content string) []WikiLink {
	matches := wikilinkRe.FindAllStringSubmatch(content, -1)

	seen := make(map[string]bool)
	var links []WikiLink
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		key := strings.ToLower(target)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, WikiLink{
			Target: target,
			Alias:  strings.TrimSpace(m[2]),
		})
	}
	return links
}

// StripWikiLinks replaces [[wiki-links]] with their display text so the
// stored content reads as plain prose.
func StripWikiLinks(content string) string {
	return wikilinkRe.ReplaceAllStringFunc(content, func(match string) string {
		parts := wikilinkRe.FindStringSubmatch(match)
		if alias := strings.TrimSpace(parts[2]); alias != "" {
			return alias
		}
		return strings.TrimSpace(parts[1])
	})
}
