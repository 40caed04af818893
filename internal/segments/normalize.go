package segments

import (
	"maps"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Aliases maps known spelling variants to one canonical spelling. Keys are
// matched case-insensitively after Unicode NFC normalization.
type Aliases struct {
	SegmentIDs    map[string]string `yaml:"segment_ids,omitempty"`
	SegmentLabels map[string]string `yaml:"segment_labels,omitempty"`
}

// DefaultAliases returns the variants seen across survey data revisions.
func DefaultAliases() Aliases {
	return Aliases{
		SegmentIDs: map[string]string{
			"gender:nonbinary":                 "gender:non-binary",
			"gender:non_binary":                "gender:non-binary",
			"gender:non binary":                "gender:non-binary",
			"country:usa":                      "country:united-states",
			"country:us":                       "country:united-states",
			"country:united-states-of-america": "country:united-states",
			"country:uk":                       "country:united-kingdom",
			"country:great-britain":            "country:united-kingdom",
			"country:turkiye":                  "country:turkey",
			"country:viet-nam":                 "country:vietnam",
		},
		SegmentLabels: map[string]string{
			"Nonbinary":                "Non-binary",
			"Non binary":               "Non-binary",
			"USA":                      "United States",
			"United States of America": "United States",
			"UK":                       "United Kingdom",
			"Great Britain":            "United Kingdom",
			"Türkiye":                  "Turkey",
			"Viet Nam":                 "Vietnam",
			"Prefer not to answer":     "Prefer not to say",
		},
	}
}

// Merge returns a copy of a with every entry of b overlaid on it.
func (a Aliases) Merge(b Aliases) Aliases {
	out := Aliases{
		SegmentIDs:    maps.Clone(a.SegmentIDs),
		SegmentLabels: maps.Clone(a.SegmentLabels),
	}
	if out.SegmentIDs == nil {
		out.SegmentIDs = map[string]string{}
	}
	if out.SegmentLabels == nil {
		out.SegmentLabels = map[string]string{}
	}
	maps.Copy(out.SegmentIDs, b.SegmentIDs)
	maps.Copy(out.SegmentLabels, b.SegmentLabels)
	return out
}

// Normalizer resolves segment ids, labels and attributes to their canonical
// spelling. It is read-only after construction and safe for concurrent use.
type Normalizer struct {
	ids    map[string]string
	labels map[string]string
}

// NewNormalizer builds a Normalizer from the given alias table. Pass
// DefaultAliases() (optionally merged with overrides) for the standard set.
func NewNormalizer(aliases Aliases) *Normalizer {
	n := &Normalizer{
		ids:    make(map[string]string, len(aliases.SegmentIDs)),
		labels: make(map[string]string, len(aliases.SegmentLabels)),
	}
	for k, v := range aliases.SegmentIDs {
		n.ids[aliasKey(k)] = clean(v)
	}
	for k, v := range aliases.SegmentLabels {
		n.labels[aliasKey(k)] = clean(v)
	}
	return n
}

// SegmentID returns the canonical spelling of id.
func (n *Normalizer) SegmentID(id string) string {
	id = clean(id)
	if v, ok := n.ids[aliasKey(id)]; ok {
		return v
	}
	return id
}

// SegmentLabel returns the canonical spelling of label.
func (n *Normalizer) SegmentLabel(label string) string {
	label = clean(label)
	if v, ok := n.labels[aliasKey(label)]; ok {
		return v
	}
	return label
}

// Attributes returns a copy of attrs with trimmed keys and canonical values.
func (n *Normalizer) Attributes(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		k = clean(k)
		if k == "" {
			continue
		}
		out[k] = n.SegmentLabel(v)
	}
	return out
}

// clean applies NFC and collapses runs of whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func aliasKey(s string) string {
	return strings.ToLower(clean(s))
}
