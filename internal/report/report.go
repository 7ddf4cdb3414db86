// Package report renders the end-of-run summary table.
package report

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"feedmill/internal/models"
	"feedmill/internal/synthesizer"
)

// Summary renders one aligned row per output file: feed name, filename
// and the gate's verdict. Column widths use display width so CJK feed
// names line up.
func Summary(set *models.FeedSet, statuses map[string]models.FileStatus) string {
	rows := [][]string{{"Feed", "File", "Status"}}

	for _, doc := range set.Documents {
		rows = append(rows, []string{doc.Name, doc.Filename, string(statuses[doc.Filename])})
	}

	rows = append(rows, []string{"(index)", synthesizer.IndexFilename, string(statuses[synthesizer.IndexFilename])})

	return renderTable(rows)
}

func renderTable(rows [][]string) string {
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	widths := make([]int, colCount)

	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder

	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			sb.WriteString(cell)

			if i < colCount-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
