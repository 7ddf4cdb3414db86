// Package pipeline runs the extract → synthesize → gate sequence for one batch.
package pipeline

import (
	"fmt"
	"time"

	"feedmill/internal/config"
	"feedmill/internal/extractor"
	"feedmill/internal/logger"
	"feedmill/internal/models"
	"feedmill/internal/publisher"
	"feedmill/internal/scraper"
	"feedmill/internal/synthesizer"
)

// Scraper turns one source row into records. Satisfied by
// scraper.Client; tests substitute their own.
type Scraper interface {
	Scrape(src models.Source, maxItems int, published time.Time) ([]models.Record, error)
}

// Result is the outcome of one run, publish step excluded.
type Result struct {
	Set      *models.FeedSet
	Statuses map[string]models.FileStatus
	Changed  []string
}

// Pipeline wires the stages of one batch run.
type Pipeline struct {
	cfg     *config.Config
	logger  *logger.Logger
	scraper Scraper
	now     func() time.Time
}

// New creates a pipeline with the real HTTP scraper and wall clock.
func New(cfg *config.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		logger:  log,
		scraper: scraper.NewClient(&cfg.Scrape),
		now:     time.Now,
	}
}

// NewWithDeps creates a pipeline with injected collaborators, for tests.
func NewWithDeps(cfg *config.Config, log *logger.Logger, sc Scraper, now func() time.Time) *Pipeline {
	return &Pipeline{cfg: cfg, logger: log, scraper: sc, now: now}
}

// Run executes one batch pass over sourcePath. dryRun reports verdicts
// without touching the output directory. The run instant is captured
// once so every defaulted timestamp in the pass agrees.
func (p *Pipeline) Run(sourcePath string, dryRun bool) (*Result, error) {
	runStart := p.now()

	ext := extractor.New(p.cfg.Input.Sheet, func() time.Time { return runStart })

	table, err := ext.Extract(sourcePath)
	if err != nil {
		return nil, err
	}

	records, known := p.collect(table, runStart)

	syn := synthesizer.New(p.cfg)

	set, err := syn.Synthesize(records, known)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(set.Documents)+1)

	for i := range set.Documents {
		doc := &set.Documents[i]

		content, err := syn.RenderRSS(doc)
		if err != nil {
			return nil, err
		}

		files[doc.Filename] = content
	}

	opml, err := syn.RenderOPML(&set.Index)
	if err != nil {
		return nil, err
	}

	files[synthesizer.IndexFilename] = opml

	gate := publisher.NewGate(p.logger)

	var statuses map[string]models.FileStatus

	if dryRun {
		statuses, err = gate.Plan(p.cfg.Output.Dir, files)
	} else {
		statuses, err = gate.Write(p.cfg.Output.Dir, files)
	}

	if err != nil {
		return nil, err
	}

	return &Result{
		Set:      set,
		Statuses: statuses,
		Changed:  publisher.Changed(statuses),
	}, nil
}

// collect resolves the table into records plus pre-declared groups.
// For source sheets every row is one feed group; a source that cannot
// be scraped yields an empty group and a warning, matching the
// keep-going behavior of the batch.
func (p *Pipeline) collect(table *models.Table, runStart time.Time) ([]models.Record, []synthesizer.GroupInfo) {
	if table.Schema == models.SchemaItems {
		return table.Records, nil
	}

	var (
		records []models.Record
		known   []synthesizer.GroupInfo
	)

	if !p.cfg.Scrape.Enabled && len(table.Sources) > 0 {
		p.logger.Warn("sheet lists scrape sources but scraping is disabled; feeds will be empty",
			"sources", len(table.Sources))
	}

	for _, src := range table.Sources {
		known = append(known, synthesizer.GroupInfo{Name: src.Name, Link: src.URL})

		if !p.cfg.Scrape.Enabled {
			continue
		}

		p.logger.Info("scraping", "name", src.Name, "url", src.URL)

		scraped, err := p.scraper.Scrape(src, p.cfg.Scrape.MaxItems, runStart)
		if err != nil {
			p.logger.Warn("scrape failed, feed will be empty",
				"name", src.Name, "url", src.URL, "error", err)

			continue
		}

		if len(scraped) == 0 {
			p.logger.Warn("no items found, check that the URL is a listing page",
				"name", src.Name, "url", src.URL)
		}

		records = append(records, scraped...)
	}

	return records, known
}

// Describe summarizes the run for logging.
func (r *Result) Describe() string {
	return fmt.Sprintf("%d feeds, %d files changed", len(r.Set.Documents), len(r.Changed))
}
