package importer

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// VaultData is the result of loading a vault directory: the typed
// record collections plus the relationships derived from wiki-links.
type VaultData struct {
	Collections   types.Collections
	Relationships []*types.Relationship

	// FilesLoaded counts files turned into records. FilesSkipped counts
	// non-Markdown and unparseable files. Errors holds one message per
	// skipped-with-error file.
	FilesLoaded  int
	FilesSkipped int
	Errors       []string
}

var kindIDPrefix = map[types.EntityKind]string{
	types.KindNote:         "note",
	types.KindTask:         "task",
	types.KindOrganization: "org",
	types.KindPerson:       "person",
	types.KindTopic:        "topic",
}

// RecordID builds the canonical identifier for a record of the given
// kind and title.
func RecordID(kind types.EntityKind, title string) string {
	return kindIDPrefix[kind] + ":" + Slug(title)
}

// LoadVault walks a Markdown directory and builds the record
// collections and relationship list. Individual bad files are skipped
// with a logged error; only an unreadable root fails the load.
func LoadVault(root string) (*VaultData, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access vault %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path %q is not a directory", root)
	}

	var parsed []*ParsedFile
	data := &VaultData{}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (e.g. .obsidian) hold tool state, not
			// records.
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			data.FilesSkipped++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			data.recordError(path, err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		pf, err := ParseMarkdownFile(content, filepath.ToSlash(rel))
		if err != nil {
			data.recordError(path, err)
			return nil
		}
		parsed = append(parsed, pf)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault walk failed: %w", err)
	}

	// Stable record order regardless of filesystem iteration order.
	sort.Slice(parsed, func(i, j int) bool {
		return parsed[i].RelativePath < parsed[j].RelativePath
	})

	// First pass registers every record so links can resolve forward.
	kindByID := make(map[string]types.EntityKind, len(parsed))
	idByName := make(map[string]string, len(parsed))
	for _, pf := range parsed {
		id := RecordID(pf.Kind, pf.Title)
		if _, dup := kindByID[id]; dup {
			data.recordError(pf.RelativePath, fmt.Errorf("duplicate record id %s", id))
			continue
		}
		kindByID[id] = pf.Kind
		idByName[strings.ToLower(pf.Title)] = id
		data.addRecord(pf, id)
		data.FilesLoaded++
	}

	// Second pass resolves wiki-links into relationships. Links to
	// names with no vault file are dropped, not errors.
	for _, pf := range parsed {
		srcID := RecordID(pf.Kind, pf.Title)
		if kindByID[srcID] != pf.Kind {
			continue // duplicate loser from the first pass
		}
		for _, link := range pf.WikiLinks {
			tgtID, ok := idByName[strings.ToLower(link.Target)]
			if !ok || tgtID == srcID {
				continue
			}
			data.Relationships = append(data.Relationships, &types.Relationship{
				ID:         "rel:" + uuid.NewString(),
				SourceKind: pf.Kind,
				SourceID:   srcID,
				TargetKind: kindByID[tgtID],
				TargetID:   tgtID,
				Kind:       "mentions",
			})
		}
	}

	return data, nil
}

func (d *VaultData) recordError(path string, err error) {
	d.FilesSkipped++
	d.Errors = append(d.Errors, fmt.Sprintf("%s: %v", path, err))
	log.Printf("importer: skipping %s: %v", path, err)
}

// addRecord converts a parsed file into its typed record.
func (d *VaultData) addRecord(pf *ParsedFile, id string) {
	switch pf.Kind {
	case types.KindNote:
		d.Collections.Notes = append(d.Collections.Notes, &types.Note{
			ID:        id,
			Summary:   pf.Title,
			Content:   pf.Content,
			Tags:      pf.Tags,
			Timestamp: pf.Timestamp,
			UpdatedAt: pf.Timestamp,
		})
	case types.KindTask:
		d.Collections.Tasks = append(d.Collections.Tasks, &types.Task{
			ID:          id,
			Title:       pf.Title,
			Description: pf.Content,
			Status:      taskStatus(pf.Status),
			Priority:    taskPriority(pf.Priority),
			Tags:        pf.Tags,
			CreatedAt:   pf.Timestamp,
			DueDate:     pf.DueDate,
		})
	case types.KindOrganization:
		d.Collections.Organizations = append(d.Collections.Organizations, &types.Organization{
			ID:          id,
			Name:        pf.Title,
			Description: pf.Content,
		})
	case types.KindPerson:
		d.Collections.People = append(d.Collections.People, &types.Person{
			ID:   id,
			Name: pf.Title,
		})
	case types.KindTopic:
		d.Collections.Topics = append(d.Collections.Topics, &types.Topic{
			ID:          id,
			Name:        pf.Title,
			Description: pf.Content,
		})
	}
}

// taskStatus normalizes a frontmatter status value, defaulting to todo.
func taskStatus(s string) types.TaskStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "in progress", "doing":
		return types.StatusInProgress
	case "completed", "complete":
		return types.StatusDone
	}
	if types.IsValidTaskStatus(s) {
		return types.TaskStatus(s)
	}
	return types.StatusTodo
}

// taskPriority normalizes a frontmatter priority value, defaulting to
// medium.
func taskPriority(s string) types.TaskPriority {
	s = strings.ToLower(strings.TrimSpace(s))
	if types.IsValidTaskPriority(s) {
		return types.TaskPriority(s)
	}
	return types.PriorityMedium
}
