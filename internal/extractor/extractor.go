// Package extractor reads the source spreadsheet and yields validated records.
package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"feedmill/internal/models"
)

// Extraction errors.
var (
	// ErrUnreadableSource indicates the spreadsheet cannot be opened or parsed.
	ErrUnreadableSource = errors.New("unreadable source")
	// ErrMalformedInput indicates a required column or field is missing.
	ErrMalformedInput = errors.New("malformed input")
)

// timestampLayouts are tried in order when parsing a published cell.
// Excelize renders date-formatted cells as m-d-yy by default.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"1-2-06 15:04",
	"1-2-06",
}

// Extractor reads tabular input and produces validated records or
// scrape sources, depending on the sheet's header schema.
type Extractor struct {
	sheet string
	now   func() time.Time
}

// New creates an extractor. sheet selects a worksheet by name; empty
// means the first sheet. now supplies the default publication time for
// rows that carry none.
func New(sheet string, now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}

	return &Extractor{sheet: sheet, now: now}
}

// Extract opens the workbook at path and returns the classified table.
// Blank rows are skipped silently; unknown columns are ignored.
func (e *Extractor) Extract(path string) (*models.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, path, err)
	}
	defer f.Close()

	sheet := e.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableSource, sheet, err)
	}

	header, start := findHeader(rows)
	if header == nil {
		return nil, fmt.Errorf("%w: %s: no header row found", ErrMalformedInput, path)
	}

	cols := indexColumns(header)

	switch {
	case cols.has("title") && cols.has("link"):
		records, err := e.extractItems(rows, start, cols, defaultGroup(path))
		if err != nil {
			return nil, err
		}

		return &models.Table{Schema: models.SchemaItems, Records: records}, nil

	case cols.has("name") && cols.has("url"):
		return &models.Table{Schema: models.SchemaSources, Sources: extractSources(rows, start, cols)}, nil

	default:
		return nil, fmt.Errorf(
			"%w: %s: header must contain 'title'+'link' columns (items) or 'name'+'url' columns (sources)",
			ErrMalformedInput, path,
		)
	}
}

// columnIndex maps normalized header names to 0-based column positions.
type columnIndex map[string]int

func (c columnIndex) has(name string) bool {
	_, ok := c[name]
	return ok
}

// cell returns the trimmed value of a named column for the row, or ""
// when the column is absent or the row is short.
func (c columnIndex) cell(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// findHeader locates the first non-blank row and returns it with the
// 0-based index of the row after it.
func findHeader(rows [][]string) ([]string, int) {
	for i, row := range rows {
		if !isBlank(row) {
			return row, i + 1
		}
	}

	return nil, 0
}

func indexColumns(header []string) columnIndex {
	cols := columnIndex{}

	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		// First occurrence wins on duplicate headers.
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}

	return cols
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

// defaultGroup names the fallback feed group after the spreadsheet
// itself, used when item rows carry no feed/group column.
func defaultGroup(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (e *Extractor) extractItems(rows [][]string, start int, cols columnIndex, fallbackGroup string) ([]models.Record, error) {
	var records []models.Record

	for i := start; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}

		rowNum := i + 1 // 1-based, matching what spreadsheet UIs show

		title := cols.cell(row, "title")
		if title == "" {
			return nil, fmt.Errorf("%w: row %d: title is required", ErrMalformedInput, rowNum)
		}

		link := cols.cell(row, "link")
		if link == "" {
			return nil, fmt.Errorf("%w: row %d: link is required", ErrMalformedInput, rowNum)
		}

		group := cols.cell(row, "feed")
		if group == "" {
			group = cols.cell(row, "group")
		}

		if group == "" {
			group = fallbackGroup
		}

		published := cols.cell(row, "published")
		if published == "" {
			published = cols.cell(row, "date")
		}

		records = append(records, models.Record{
			Title:       title,
			Link:        link,
			Description: cols.cell(row, "description"),
			Published:   e.parseTimestamp(published),
			Group:       group,
			Row:         rowNum,
		})
	}

	return records, nil
}

// extractSources reads name/url rows. Rows missing either field are
// skipped, matching the lenient handling of source sheets.
func extractSources(rows [][]string, start int, cols columnIndex) []models.Source {
	var sources []models.Source

	for i := start; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}

		name := cols.cell(row, "name")
		url := cols.cell(row, "url")

		if name == "" || url == "" {
			continue
		}

		sources = append(sources, models.Source{
			Name: name,
			URL:  url,
			Row:  i + 1,
		})
	}

	return sources
}

// parseTimestamp tries the known layouts and falls back to the run
// instant when the cell is empty or unparseable.
func (e *Extractor) parseTimestamp(value string) time.Time {
	if value != "" {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t
			}
		}
	}

	return e.now()
}
