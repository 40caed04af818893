package aggregation

import (
	"sort"

	"github.com/weval-org/dtef/internal/segments"
)

// analyzeDisparities compares segments within each known category of each
// model and returns the gaps, largest first. Categories with fewer than two
// segments for a model produce no entry, and segments are never compared
// across categories.
func analyzeDisparities(results []AggregatedModelResult) []StrataDisparityEntry {
	entries := []StrataDisparityEntry{}
	for _, mr := range results {
		var cats []segments.Category
		byCat := make(map[segments.Category][]SegmentModelScore)
		// SegmentScores is sorted by score descending, so each bucket is too.
		for _, s := range mr.SegmentScores {
			if !s.Category.Known() {
				continue
			}
			if _, ok := byCat[s.Category]; !ok {
				cats = append(cats, s.Category)
			}
			byCat[s.Category] = append(byCat[s.Category], s)
		}

		for _, cat := range cats {
			segs := byCat[cat]
			if len(segs) < 2 {
				continue
			}
			best, worst := extremes(segs)
			entries = append(entries, StrataDisparityEntry{
				ModelID:       mr.ModelID,
				Category:      cat,
				CategoryLabel: cat.Label(),
				SegmentCount:  len(segs),
				AbsoluteGap:   best.Score - worst.Score,
				BestSegment:   best,
				WorstSegment:  worst,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AbsoluteGap > entries[j].AbsoluteGap
	})
	return entries
}
