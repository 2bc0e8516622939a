// Package library parses bibliography exports (BibTeX or Zotero JSON) into a
// bounded text summary used as evaluation context.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nickng/bibtex"
)

// ErrUnsupportedFormat marks a library file with an extension we cannot
// parse. Unlike a missing file this is a configuration mistake, so callers
// treat it as fatal.
var ErrUnsupportedFormat = errors.New("unsupported library format")

const (
	// NoLibrarySummary is the research context used when no library file is
	// configured or the configured one cannot be read.
	NoLibrarySummary = "No prior research library provided."

	emptyLibrarySummary = "No Zotero library provided."

	defaultMaxEntries = 20
	abstractLimit     = 300
)

// Entry is one prior-library item.
type Entry struct {
	Title    string
	Abstract string
	Authors  string
	Year     string
	Keywords string
}

type Library struct {
	Entries []Entry
}

// Load parses a bibliography export, dispatching on the file extension.
// Supported formats are BibTeX (.bib) and Zotero JSON (.json).
func Load(path string) (*Library, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".bib":
		return loadBibtex(path)
	case ".json":
		return loadJSON(path)
	default:
		return nil, fmt.Errorf("%w: %q (use .bib or .json)", ErrUnsupportedFormat, ext)
	}
}

func loadBibtex(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening library file: %w", err)
	}
	defer f.Close()

	bib, err := bibtex.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing bibtex library: %w", err)
	}

	lib := &Library{}
	for _, entry := range bib.Entries {
		lib.Entries = append(lib.Entries, Entry{
			Title:    bibField(entry, "title"),
			Abstract: bibField(entry, "abstract"),
			Authors:  bibField(entry, "author"),
			Year:     bibField(entry, "year"),
			Keywords: bibField(entry, "keywords"),
		})
	}

	return lib, nil
}

func bibField(entry *bibtex.BibEntry, key string) string {
	if entry == nil {
		return ""
	}
	if value, ok := entry.Fields[key]; ok && value != nil {
		return strings.TrimSpace(value.String())
	}
	return ""
}

// zoteroItem covers the fields we care about in a Zotero JSON export.
type zoteroItem struct {
	Title        string `json:"title"`
	AbstractNote string `json:"abstractNote"`
	Date         string `json:"date"`
	Creators     []struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"creators"`
	Tags []any `json:"tags"`
}

func loadJSON(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading library file: %w", err)
	}

	// Zotero exports come either as a bare item array or wrapped in an
	// object with an "items" key.
	var items []zoteroItem
	var wrapper struct {
		Items []zoteroItem `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil {
		items = wrapper.Items
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing json library: %w", err)
	}

	lib := &Library{}
	for _, item := range items {
		authors := make([]string, 0, len(item.Creators))
		for _, c := range item.Creators {
			if c.LastName == "" {
				continue
			}
			authors = append(authors, strings.TrimSpace(c.FirstName+" "+c.LastName))
		}

		year := item.Date
		if len(year) > 4 {
			year = year[:4]
		}

		tags := make([]string, 0, len(item.Tags))
		for _, tag := range item.Tags {
			if s, ok := tag.(string); ok {
				tags = append(tags, s)
			}
		}

		lib.Entries = append(lib.Entries, Entry{
			Title:    item.Title,
			Abstract: item.AbstractNote,
			Authors:  strings.Join(authors, ", "),
			Year:     year,
			Keywords: strings.Join(tags, ", "),
		})
	}

	return lib, nil
}

// Summary renders a bounded plain-text summary of the library for use as LLM
// context: numbered titles with truncated abstracts, plus a trailing note of
// how many entries were omitted.
func (l *Library) Summary(maxEntries int) string {
	if l == nil || len(l.Entries) == 0 {
		return emptyLibrarySummary
	}

	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	lines := []string{"Research Background (from Zotero library):", ""}

	included := l.Entries
	if len(included) > maxEntries {
		included = included[:maxEntries]
	}

	for i, entry := range included {
		title := entry.Title
		if title == "" {
			title = "No title"
		}

		lines = append(lines, fmt.Sprintf("%d. %s", i+1, title))
		if abstract := truncate(entry.Abstract, abstractLimit); abstract != "" {
			lines = append(lines, fmt.Sprintf("   Abstract: %s", abstract))
		}
		lines = append(lines, "")
	}

	if omitted := len(l.Entries) - maxEntries; omitted > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more papers", omitted))
	}

	return strings.Join(lines, "\n")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
