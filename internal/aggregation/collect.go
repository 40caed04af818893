package aggregation

import (
	"sort"

	"github.com/weval-org/dtef/internal/segments"
)

// observation is one (model, segment) score produced by one run.
type observation struct {
	modelID      string
	segmentID    string
	segmentLabel string
	category     segments.Category
	attributes   map[string]string
	run          RunScore
}

type pairKey struct {
	model   string
	segment string
}

// pairGroup holds every run of one (model, segment) pair in arrival order.
type pairGroup struct {
	key      pairKey
	label    string
	category segments.Category
	attrs    map[string]string
	runs     []RunScore
	primary  int
}

// collector groups observations by (model, segment) and tracks the
// representative run of each pair.
type collector struct {
	groups map[pairKey]*pairGroup
	order  []*pairGroup
}

func newCollector() *collector {
	return &collector{groups: make(map[pairKey]*pairGroup)}
}

// add records o. The representative run of a pair is the one with the
// highest resolved context count; an unresolved count ranks as 0 and the
// earliest run wins ties.
func (c *collector) add(o observation) {
	key := pairKey{model: o.modelID, segment: o.segmentID}
	g, ok := c.groups[key]
	if !ok {
		g = &pairGroup{key: key, category: o.category}
		c.groups[key] = g
		c.order = append(c.order, g)
	}
	if g.label == "" {
		g.label = o.segmentLabel
	}
	if g.attrs == nil {
		g.attrs = o.attributes
	}
	g.runs = append(g.runs, o.run)
	if len(g.runs) > 1 && selectionLevel(o.run) > selectionLevel(g.runs[g.primary]) {
		g.primary = len(g.runs) - 1
	}
}

func selectionLevel(r RunScore) int {
	if r.ContextCount == nil {
		return 0
	}
	return *r.ContextCount
}

// segmentScores returns one SegmentModelScore per pair, in first-seen order.
func (c *collector) segmentScores() []SegmentModelScore {
	out := make([]SegmentModelScore, 0, len(c.order))
	for _, g := range c.order {
		all := make([]RunScore, len(g.runs))
		copy(all, g.runs)
		sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })

		label := g.label
		if label == "" {
			label = g.key.segment
		}
		out = append(out, SegmentModelScore{
			ModelID:           g.key.model,
			SegmentID:         g.key.segment,
			SegmentLabel:      label,
			Category:          g.category,
			SegmentAttributes: g.attrs,
			RunScore:          g.runs[g.primary],
			AllRuns:           all,
		})
	}
	return out
}

// contextLevels returns the sorted distinct resolved context counts seen.
func (c *collector) contextLevels() []int {
	seen := make(map[int]bool)
	levels := []int{}
	for _, g := range c.order {
		for _, r := range g.runs {
			if r.ContextCount == nil || seen[*r.ContextCount] {
				continue
			}
			seen[*r.ContextCount] = true
			levels = append(levels, *r.ContextCount)
		}
	}
	sort.Ints(levels)
	return levels
}
