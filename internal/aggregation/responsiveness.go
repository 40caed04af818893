package aggregation

import (
	"sort"

	"github.com/weval-org/dtef/internal/metrics"
	"github.com/weval-org/dtef/internal/segments"
	"github.com/weval-org/dtef/internal/statistics"
)

// analyzeResponsiveness fits score against context count for every (model,
// segment) pair with at least two resolved observations. It returns nil when
// the batch holds fewer than two distinct resolved context levels.
func analyzeResponsiveness(c *collector) *ContextAnalysis {
	levels := c.contextLevels()
	if len(levels) < 2 {
		return nil
	}

	var order []string
	bySegment := make(map[string][]SegmentResponsiveness)
	for _, g := range c.order {
		points := dataPoints(g.runs)
		if len(points) < 2 {
			continue
		}
		if _, ok := bySegment[g.key.model]; !ok {
			order = append(order, g.key.model)
		}
		bySegment[g.key.model] = append(bySegment[g.key.model], segmentResponsiveness(g, points))
	}

	out := make([]ModelResponsiveness, 0, len(order))
	for _, modelID := range order {
		segs := bySegment[modelID]
		slopes := make([]float64, len(segs))
		for i, s := range segs {
			slopes[i] = s.Slope
		}
		out = append(out, ModelResponsiveness{
			ModelID:               modelID,
			OverallSlope:          metrics.Mean(slopes),
			CategorySlopes:        categorySlopes(segs),
			SegmentResponsiveness: segs,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OverallSlope > out[j].OverallSlope
	})

	return &ContextAnalysis{
		Models:             out,
		ContextLevelsFound: levels,
	}
}

// dataPoints returns the runs with a resolved context count, ordered by
// context count ascending.
func dataPoints(runs []RunScore) []ContextDataPoint {
	var points []ContextDataPoint
	for _, r := range runs {
		if r.ContextCount == nil {
			continue
		}
		points = append(points, ContextDataPoint{
			ContextCount: *r.ContextCount,
			Score:        r.Score,
			ConfigID:     r.ConfigID,
			RunLabel:     r.RunLabel,
			Timestamp:    r.Timestamp,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].ContextCount < points[j].ContextCount
	})
	return points
}

func segmentResponsiveness(g *pairGroup, points []ContextDataPoint) SegmentResponsiveness {
	xy := make([]metrics.Point, len(points))
	for i, p := range points {
		xy[i] = metrics.Point{X: float64(p.ContextCount), Y: p.Score}
	}

	lo, hi := points[0].ContextCount, points[len(points)-1].ContextCount
	var loScores, hiScores []float64
	for _, p := range points {
		if p.ContextCount == lo {
			loScores = append(loScores, p.Score)
		}
		if p.ContextCount == hi {
			hiScores = append(hiScores, p.Score)
		}
	}
	gain := 0.0
	if hi > lo {
		gain = statistics.NormalizedGain(metrics.Mean(loScores), metrics.Mean(hiScores))
	}

	return SegmentResponsiveness{
		SegmentID:      g.key.segment,
		Category:       g.category,
		DataPoints:     points,
		Slope:          metrics.LinearSlope(xy),
		NormalizedGain: gain,
	}
}

// categorySlopes averages segment slopes per known category.
func categorySlopes(segs []SegmentResponsiveness) map[segments.Category]float64 {
	byCat := make(map[segments.Category][]float64)
	for _, s := range segs {
		if !s.Category.Known() {
			continue
		}
		byCat[s.Category] = append(byCat[s.Category], s.Slope)
	}
	if len(byCat) == 0 {
		return nil
	}
	out := make(map[segments.Category]float64, len(byCat))
	for cat, slopes := range byCat {
		out[cat] = metrics.Mean(slopes)
	}
	return out
}
