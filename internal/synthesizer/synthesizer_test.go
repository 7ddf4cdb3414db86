package synthesizer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"feedmill/internal/config"
	"feedmill/internal/models"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Output.Dir = "/tmp/feedmill-test"
	cfg.Output.BaseURL = "https://example.com/feeds"
	cfg.Synthesis.Language = "en"

	return cfg
}

func rec(title, link, group string, ts time.Time, row int) models.Record {
	return models.Record{
		Title:     title,
		Link:      link,
		Group:     group,
		Published: ts,
		Row:       row,
	}
}

func TestSynthesizeGroupsInFirstSeenOrder(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	records := []models.Record{
		rec("A", "http://x/a", "tech", day(2), 2),
		rec("B", "http://x/b", "culture", day(1), 3),
		rec("C", "http://x/c", "tech", day(3), 4),
	}

	set, err := New(testConfig()).Synthesize(records, nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if len(set.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(set.Documents))
	}

	// Documents keep first-seen order: tech before culture.
	if set.Documents[0].Group != "tech" || set.Documents[1].Group != "culture" {
		t.Errorf("document order = [%s, %s], want [tech, culture]",
			set.Documents[0].Group, set.Documents[1].Group)
	}

	// Within tech, newest first.
	tech := set.Documents[0]
	if tech.Items[0].Title != "C" || tech.Items[1].Title != "A" {
		t.Errorf("tech order = [%s, %s], want [C, A]", tech.Items[0].Title, tech.Items[1].Title)
	}
}

func TestSynthesizeTimestampTiesKeepRowOrder(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []models.Record{
		rec("first", "http://x/1", "g", ts, 2),
		rec("second", "http://x/2", "g", ts, 3),
		rec("third", "http://x/3", "g", ts, 4),
	}

	set, err := New(testConfig()).Synthesize(records, nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	items := set.Documents[0].Items
	for i, want := range []string{"first", "second", "third"} {
		if items[i].Title != want {
			t.Errorf("items[%d] = %s, want %s", i, items[i].Title, want)
		}
	}
}

func TestSynthesizeIndexSortedAscending(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []models.Record{
		rec("A", "http://x/a", "zeta", ts, 2),
		rec("B", "http://x/b", "alpha", ts, 3),
		rec("C", "http://x/c", "midway", ts, 4),
	}

	set, err := New(testConfig()).Synthesize(records, nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	got := make([]string, 0, len(set.Index.Entries))
	for _, e := range set.Index.Entries {
		got = append(got, e.Name)
	}

	want := []string{"alpha", "midway", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index order = %v, want %v", got, want)
		}
	}
}

func TestSynthesizeEmptyInput(t *testing.T) {
	set, err := New(testConfig()).Synthesize(nil, nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if len(set.Documents) != 0 {
		t.Errorf("got %d documents, want 0", len(set.Documents))
	}

	if len(set.Index.Entries) != 0 {
		t.Errorf("got %d index entries, want 0", len(set.Index.Entries))
	}
}

func TestSynthesizeEmptyDeclaredGroup(t *testing.T) {
	known := []GroupInfo{{Name: "quiet", Link: "https://quiet.example"}}

	set, err := New(testConfig()).Synthesize(nil, known)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if len(set.Documents) != 1 || len(set.Documents[0].Items) != 0 {
		t.Fatalf("want one empty document, got %+v", set.Documents)
	}

	if set.Documents[0].Link != "https://quiet.example" {
		t.Errorf("Link = %q, want declared source URL", set.Documents[0].Link)
	}
}

func TestSynthesizeRejectEmptyGroups(t *testing.T) {
	cfg := testConfig()
	cfg.Synthesis.RejectEmptyGroups = true

	_, err := New(cfg).Synthesize(nil, []GroupInfo{{Name: "quiet"}})
	if !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("Synthesize() error = %v, want ErrEmptyGroup", err)
	}
}

func TestSynthesizeFilenamesAreSlugs(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	set, err := New(testConfig()).Synthesize([]models.Record{
		rec("A", "http://x/a", "Il Post — Cultura", ts, 2),
	}, nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if set.Documents[0].Filename != "il-post-cultura.xml" {
		t.Errorf("Filename = %q, want il-post-cultura.xml", set.Documents[0].Filename)
	}
}

func TestSynthesizeCollidingSlugsGetDistinctFilenames(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// "Tech" and "tech" are distinct groups but share a slug.
	set, err := New(testConfig()).Synthesize([]models.Record{
		rec("A", "http://x/a", "Tech", ts, 2),
		rec("B", "http://x/b", "tech", ts, 3),
	}, nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if len(set.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(set.Documents))
	}

	first, second := set.Documents[0].Filename, set.Documents[1].Filename
	if first != "tech.xml" || second != "tech-2.xml" {
		t.Errorf("filenames = [%s, %s], want [tech.xml, tech-2.xml]", first, second)
	}

	seen := make(map[string]bool)
	for _, e := range set.Index.Entries {
		if seen[e.Filename] {
			t.Errorf("index lists %s twice", e.Filename)
		}

		seen[e.Filename] = true
	}
}

func TestRenderRSSRoundTrip(t *testing.T) {
	s := New(testConfig())

	doc := &models.FeedDocument{
		Group:       "tech",
		Name:        "tech",
		Link:        "http://x/",
		Description: "Automatically generated feed for tech",
		Filename:    "tech.xml",
		Items: []models.Record{
			rec("A", "http://x/a", "tech", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 2),
			rec("B", "http://x/b", "tech", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 3),
		},
	}

	out, err := s.RenderRSS(doc)
	if err != nil {
		t.Fatalf("RenderRSS() error = %v", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(out))
	if err != nil {
		t.Fatalf("generated RSS does not parse: %v", err)
	}

	if parsed.Title != "tech" {
		t.Errorf("Title = %q, want tech", parsed.Title)
	}

	if len(parsed.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(parsed.Items))
	}

	if parsed.Items[0].Title != "A" || parsed.Items[1].Title != "B" {
		t.Errorf("item order = [%s, %s], want [A, B]", parsed.Items[0].Title, parsed.Items[1].Title)
	}

	if parsed.Items[0].PublishedParsed == nil ||
		!parsed.Items[0].PublishedParsed.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("item pubDate = %v, want 2024-01-02", parsed.Items[0].Published)
	}
}

func TestRenderRSSDeterministic(t *testing.T) {
	s := New(testConfig())

	doc := &models.FeedDocument{
		Group:    "tech",
		Name:     "tech",
		Link:     "http://x/",
		Filename: "tech.xml",
		Items: []models.Record{
			rec("A", "http://x/a", "tech", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 2),
		},
	}

	first, err := s.RenderRSS(doc)
	if err != nil {
		t.Fatalf("RenderRSS() error = %v", err)
	}

	second, err := s.RenderRSS(doc)
	if err != nil {
		t.Fatalf("RenderRSS() error = %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("RenderRSS() output differs between identical calls")
	}
}

func TestRenderOPMLWithBaseURL(t *testing.T) {
	s := New(testConfig())

	index := &models.FeedIndex{Entries: []models.IndexEntry{
		{Name: "alpha", Filename: "alpha.xml", URL: "https://example.com/feeds/alpha.xml"},
	}}

	out, err := s.RenderOPML(index)
	if err != nil {
		t.Fatalf("RenderOPML() error = %v", err)
	}

	text := string(out)

	if !strings.Contains(text, `xmlUrl="https://example.com/feeds/alpha.xml"`) {
		t.Errorf("OPML missing xmlUrl attribute:\n%s", text)
	}

	if !strings.Contains(text, `type="rss"`) || !strings.Contains(text, `text="alpha"`) {
		t.Errorf("OPML outline malformed:\n%s", text)
	}
}

func TestIndexURLFileFallback(t *testing.T) {
	cfg := testConfig()
	cfg.Output.BaseURL = ""

	s := New(cfg)

	u, err := s.indexURL("alpha.xml")
	if err != nil {
		t.Fatalf("indexURL() error = %v", err)
	}

	if !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, "/alpha.xml") {
		t.Errorf("indexURL = %q, want file:// path ending in /alpha.xml", u)
	}
}
