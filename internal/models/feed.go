package models

import "time"

// FeedDocument is one synthesized feed: channel metadata plus items ordered newest first.
type FeedDocument struct {
	Group       string   `json:"group"`
	Name        string   `json:"name"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Filename    string   `json:"filename"`
	Items       []Record `json:"items"`
}

// Newest returns the publication time of the most recent item,
// or the zero time if the document has no items.
func (d *FeedDocument) Newest() time.Time {
	if len(d.Items) == 0 {
		return time.Time{}
	}
	// Items are ordered newest first after synthesis.
	return d.Items[0].Published
}

// IndexEntry is one manifest line: a generated feed and where to fetch it.
type IndexEntry struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// FeedIndex is the manifest of all generated feeds, ordered by group
// identifier ascending.
type FeedIndex struct {
	Entries []IndexEntry `json:"entries"`
}

// FeedSet is the complete output of one synthesis pass.
type FeedSet struct {
	Documents []FeedDocument `json:"documents"`
	Index     FeedIndex      `json:"index"`
}
