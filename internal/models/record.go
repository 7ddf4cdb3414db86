// Package models defines data structures for the extractor, synthesizer and publisher.
package models

import "time"

// Schema identifies the header layout of a spreadsheet.
type Schema string

// Recognized sheet schemas.
const (
	// SchemaItems marks sheets whose rows are ready-made feed items
	// (title, link, optional description/published/feed columns).
	SchemaItems Schema = "items"
	// SchemaSources marks sheets whose rows are listing pages to
	// scrape (name, url columns).
	SchemaSources Schema = "sources"
)

// Record represents one feed item, extracted from the spreadsheet or scraped from a page.
type Record struct {
	Published   time.Time `json:"published"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Group       string    `json:"group"`
	Row         int       `json:"row"`
}

// Source represents one listing page to scrape into a feed group.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Row  int    `json:"row"`
}

// Table is the classified result of reading a spreadsheet.
// Records is populated for SchemaItems sheets, Sources for SchemaSources.
type Table struct {
	Schema  Schema   `json:"schema"`
	Records []Record `json:"records,omitempty"`
	Sources []Source `json:"sources,omitempty"`
}
