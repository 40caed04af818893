package reporting

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/weval-org/dtef/internal/aggregation"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown renders agg as GitHub-flavored Markdown.
func Markdown(agg *aggregation.DemographicAggregation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Demographic aggregation: %s\n\n", escapeCell(surveyName(agg)))
	fmt.Fprintf(&b, "- **Results:** %d\n", agg.ResultCount)
	fmt.Fprintf(&b, "- **Models:** %d\n", len(agg.ModelResults))
	fmt.Fprintf(&b, "- **Aggregated:** %s\n", agg.AggregatedAt.UTC().Format(time.RFC3339))

	if len(agg.ModelResults) == 0 {
		b.WriteString("\n_No model results._\n")
		return b.String()
	}

	b.WriteString("\n## Model results\n\n")
	writeMarkdownTable(&b, modelHeaders, modelRows(agg))

	b.WriteString("\n## Disparities\n\n")
	if len(agg.Disparities) == 0 {
		b.WriteString("_No category has two or more segments for any model._\n")
	} else {
		writeMarkdownTable(&b, disparityHeaders, disparityRows(agg))
	}

	if ca := agg.ContextAnalysis; ca != nil {
		b.WriteString("\n## Context responsiveness\n\n")
		fmt.Fprintf(&b, "Context levels found: %s\n\n", formatLevels(ca.ContextLevelsFound))
		writeMarkdownTable(&b, responsivenessHeaders, responsivenessRows(ca))
	}
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, headers []string, rows [][]string) {
	writeMarkdownRow(b, headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeMarkdownRow(b, sep)
	for _, row := range rows {
		writeMarkdownRow(b, row)
	}
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
th { background: #f4f4f4; }
</style>
</head>
<body>
`

const htmlTail = "</body>\n</html>\n"

// HTML renders agg as a standalone HTML page by converting its Markdown
// report. Raw HTML inside labels is omitted by goldmark's default renderer.
func HTML(agg *aggregation.DemographicAggregation) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(agg)), &body); err != nil {
		return nil, fmt.Errorf("rendering HTML report: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, htmlHead, html.EscapeString("DTEF aggregation: "+surveyName(agg)))
	page.Write(body.Bytes())
	page.WriteString(htmlTail)
	return page.Bytes(), nil
}
