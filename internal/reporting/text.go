package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/weval-org/dtef/internal/aggregation"
)

// maxCellWidth bounds a text table cell in terminal columns.
const maxCellWidth = 36

// WriteText writes an aligned plain-text report.
func WriteText(w io.Writer, agg *aggregation.DemographicAggregation) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Survey:     %s\n", surveyName(agg))
	fmt.Fprintf(&b, "Results:    %d\n", agg.ResultCount)
	fmt.Fprintf(&b, "Aggregated: %s\n", agg.AggregatedAt.UTC().Format(time.RFC3339))

	if len(agg.ModelResults) == 0 {
		b.WriteString("\nNo model results.\n")
	} else {
		b.WriteString("\nMODEL RESULTS\n")
		writeTable(&b, modelHeaders, modelRows(agg))

		if len(agg.Disparities) > 0 {
			b.WriteString("\nDISPARITIES\n")
			writeTable(&b, disparityHeaders, disparityRows(agg))
		}

		if ca := agg.ContextAnalysis; ca != nil {
			fmt.Fprintf(&b, "\nCONTEXT RESPONSIVENESS (levels: %s)\n", formatLevels(ca.ContextLevelsFound))
			writeTable(&b, responsivenessHeaders, responsivenessRows(ca))
		}
	}

	s := agg.Skipped
	if s.NoContext+s.NoScores+s.UnresolvedContext > 0 {
		fmt.Fprintf(&b, "\nSkipped: %d without context, %d without scores, %d with unresolved context level\n",
			s.NoContext, s.NoScores, s.UnresolvedContext)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(b *strings.Builder, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(row))
		for i, c := range row {
			c = truncateCell(c, maxCellWidth)
			cells[r][i] = c
			if sw := runewidth.StringWidth(c); sw > widths[i] {
				widths[i] = sw
			}
		}
	}

	writeRow(b, headers, widths)
	sep := make([]string, len(widths))
	for i, wd := range widths {
		sep[i] = strings.Repeat("-", wd)
	}
	writeRow(b, sep, widths)
	for _, row := range cells {
		writeRow(b, row, widths)
	}
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, c := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 {
			b.WriteString(c)
			continue
		}
		b.WriteString(padRight(c, widths[i]))
	}
	b.WriteString("\n")
}

// truncateCell shortens s to width terminal columns, ending with "…".
func truncateCell(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
