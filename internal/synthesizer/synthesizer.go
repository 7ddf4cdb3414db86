// Package synthesizer turns validated records into feed documents and an index.
package synthesizer

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"feedmill/internal/config"
	"feedmill/internal/models"
	"feedmill/pkg/slug"
)

// ErrEmptyGroup is returned for groups with no records when the
// configuration rejects empty groups.
var ErrEmptyGroup = errors.New("feed group has no records")

// GroupInfo pre-declares a feed group, typically one scraped source.
// Pre-declared groups keep their position and render even when empty.
type GroupInfo struct {
	Name string
	Link string
}

// Synthesizer builds one FeedDocument per group plus the index.
type Synthesizer struct {
	language    string
	baseURL     string
	outputDir   string
	rejectEmpty bool
}

// New creates a synthesizer from configuration.
func New(cfg *config.Config) *Synthesizer {
	return &Synthesizer{
		language:    cfg.Synthesis.Language,
		baseURL:     cfg.Output.BaseURL,
		outputDir:   cfg.Output.Dir,
		rejectEmpty: cfg.Synthesis.RejectEmptyGroups,
	}
}

// Synthesize groups records and produces the full feed set. Groups are
// ordered by first appearance: pre-declared groups first, then groups
// discovered in the records. Within a group, items are ordered by
// publication time descending; ties keep original row order. The index
// is built last, ordered by group identifier ascending.
func (s *Synthesizer) Synthesize(records []models.Record, known []GroupInfo) (*models.FeedSet, error) {
	order, byGroup, links := s.group(records, known)

	documents := make([]models.FeedDocument, 0, len(order))
	used := make(map[string]bool, len(order))

	for _, name := range order {
		items := byGroup[name]
		if len(items) == 0 && s.rejectEmpty {
			return nil, fmt.Errorf("%w: %q", ErrEmptyGroup, name)
		}

		sortNewestFirst(items)

		documents = append(documents, models.FeedDocument{
			Group:       name,
			Name:        name,
			Link:        groupLink(links[name], items),
			Description: fmt.Sprintf("Automatically generated feed for %s", name),
			Filename:    uniqueFilename(slug.Make(name), used),
			Items:       items,
		})
	}

	index, err := s.buildIndex(documents)
	if err != nil {
		return nil, err
	}

	return &models.FeedSet{Documents: documents, Index: index}, nil
}

// group partitions records by group identifier, preserving first-seen
// insertion order, with pre-declared groups leading.
func (s *Synthesizer) group(records []models.Record, known []GroupInfo) ([]string, map[string][]models.Record, map[string]string) {
	var order []string

	byGroup := make(map[string][]models.Record)
	links := make(map[string]string)

	for _, g := range known {
		if _, seen := byGroup[g.Name]; seen {
			continue
		}

		order = append(order, g.Name)
		byGroup[g.Name] = nil
		links[g.Name] = g.Link
	}

	for _, rec := range records {
		if _, seen := byGroup[rec.Group]; !seen {
			order = append(order, rec.Group)
		}

		byGroup[rec.Group] = append(byGroup[rec.Group], rec)
	}

	return order, byGroup, links
}

// uniqueFilename suffixes a slug another group already claimed, so
// distinct group identifiers never overwrite each other's feed file.
func uniqueFilename(base string, used map[string]bool) string {
	filename := base + ".xml"
	for n := 2; used[filename]; n++ {
		filename = fmt.Sprintf("%s-%d.xml", base, n)
	}

	used[filename] = true

	return filename
}

// sortNewestFirst orders items by publication time descending. The sort
// is stable so records with equal timestamps keep their original row order.
func sortNewestFirst(items []models.Record) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
}

// groupLink picks the channel link: the declared source URL when one
// exists, otherwise the site root of the first item.
func groupLink(declared string, items []models.Record) string {
	if declared != "" {
		return declared
	}

	if len(items) == 0 {
		return ""
	}

	u, err := url.Parse(items[0].Link)
	if err != nil || u.Host == "" {
		return items[0].Link
	}

	return u.Scheme + "://" + u.Host + "/"
}

// buildIndex lists every document sorted by group identifier ascending.
func (s *Synthesizer) buildIndex(documents []models.FeedDocument) (models.FeedIndex, error) {
	entries := make([]models.IndexEntry, 0, len(documents))

	for _, doc := range documents {
		u, err := s.indexURL(doc.Filename)
		if err != nil {
			return models.FeedIndex{}, err
		}

		entries = append(entries, models.IndexEntry{
			Name:     doc.Name,
			Filename: doc.Filename,
			URL:      u,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return models.FeedIndex{Entries: entries}, nil
}

// indexURL resolves where a feed file will be reachable: under the
// configured base URL, or as a file:// path into the output directory.
func (s *Synthesizer) indexURL(filename string) (string, error) {
	if s.baseURL != "" {
		return strings.TrimRight(s.baseURL, "/") + "/" + filename, nil
	}

	abs, err := filepath.Abs(filepath.Join(s.outputDir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path for %s: %w", filename, err)
	}

	return "file://" + abs, nil
}
