// Package reporting renders a DemographicAggregation for people: an aligned
// text table for terminals, Markdown for pull requests and wikis, and a
// standalone HTML page built from the Markdown.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/weval-org/dtef/internal/aggregation"
)

// Format selects a renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the accepted output formats.
var Formats = []Format{FormatText, FormatJSON, FormatMarkdown, FormatHTML}

// ParseFormat maps a user-supplied name to a Format. "md" is accepted for
// Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown format %q (want one of text, json, markdown, html)", s)
}

// Write renders agg to w in the given format.
func Write(w io.Writer, agg *aggregation.DemographicAggregation, f Format) error {
	switch f {
	case FormatText, "":
		return WriteText(w, agg)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(agg)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(agg))
		return err
	case FormatHTML:
		page, err := HTML(agg)
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	}
	return fmt.Errorf("unknown format %q", f)
}

func surveyName(agg *aggregation.DemographicAggregation) string {
	if agg.SurveyID == "" {
		return "(none)"
	}
	return agg.SurveyID
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func formatCI(r aggregation.AggregatedModelResult) string {
	if r.ScoreCI == nil {
		return "-"
	}
	return fmt.Sprintf("[%.3f, %.3f]", r.ScoreCI.Lower, r.ScoreCI.Upper)
}

func formatSegment(ref *aggregation.SegmentRef) string {
	if ref == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%.2f)", ref.Label, ref.Score)
}

func formatLevels(levels []int) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprint(l)
	}
	return strings.Join(parts, ", ")
}

// modelRows is shared by the text and Markdown renderers.
func modelRows(agg *aggregation.DemographicAggregation) [][]string {
	rows := make([][]string, 0, len(agg.ModelResults))
	for i, r := range agg.ModelResults {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			r.ModelID,
			formatScore(r.OverallScore),
			fmt.Sprint(r.SegmentCount),
			formatScore(r.SegmentStdDev),
			formatCI(r),
			formatSegment(r.BestSegment),
			formatSegment(r.WorstSegment),
		})
	}
	return rows
}

var modelHeaders = []string{"#", "Model", "Overall", "Segments", "Std Dev", "95% CI", "Best", "Worst"}

func disparityRows(agg *aggregation.DemographicAggregation) [][]string {
	rows := make([][]string, 0, len(agg.Disparities))
	for _, d := range agg.Disparities {
		rows = append(rows, []string{
			d.ModelID,
			d.CategoryLabel,
			formatSegment(&d.BestSegment),
			formatSegment(&d.WorstSegment),
			formatScore(d.AbsoluteGap),
			InterpretGap(d.AbsoluteGap),
		})
	}
	return rows
}

var disparityHeaders = []string{"Model", "Category", "Best", "Worst", "Gap", "Assessment"}

func responsivenessRows(ca *aggregation.ContextAnalysis) [][]string {
	rows := make([][]string, 0, len(ca.Models))
	for _, m := range ca.Models {
		rows = append(rows, []string{
			m.ModelID,
			fmt.Sprintf("%+.4f", m.OverallSlope),
			fmt.Sprint(len(m.SegmentResponsiveness)),
			InterpretSlope(m.OverallSlope),
		})
	}
	return rows
}

var responsivenessHeaders = []string{"Model", "Slope", "Segments", "Assessment"}
