package aggregation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/weval-org/dtef/internal/models"
)

var (
	contextSuffix     = regexp.MustCompile(`-c(\d+)$`)
	fullContextSuffix = regexp.MustCompile(`-c?full$`)
)

// ContextResolver determines how many context questions a run showed the
// model. It holds no mutable state.
type ContextResolver struct {
	marker *regexp.Regexp
}

// NewContextResolver returns a resolver that counts marker matches in the
// first prompt for full-context runs without an explicit question list.
func NewContextResolver(marker *regexp.Regexp) *ContextResolver {
	if marker == nil {
		marker = regexp.MustCompile(DefaultContextMarker)
	}
	return &ContextResolver{marker: marker}
}

// Resolve returns the context-question count of rec, and false when it
// cannot be determined. First match wins:
//
//  1. an explicit non-negative integer count in the segment context;
//  2. a "-c{N}" suffix on the config id;
//  3. a "-full"/"-cfull" suffix: the length of the explicit question id
//     list, else the number of marker matches in the first prompt (none
//     found means unknown);
//  4. otherwise 0.
func (r *ContextResolver) Resolve(rec *models.EvaluationRunRecord, dc *models.DTEFContext) (int, bool) {
	if n, ok := dc.ExplicitContextCount(); ok {
		return n, true
	}

	id := strings.TrimSpace(rec.ConfigID)
	if m := contextSuffix.FindStringSubmatch(id); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= models.MaxContextQuestions {
			return n, true
		}
	}

	if fullContextSuffix.MatchString(id) {
		if dc != nil && dc.ContextQuestionIDs != nil {
			return len(dc.ContextQuestionIDs), true
		}
		text, ok := rec.FirstPromptText()
		if !ok {
			return 0, false
		}
		n := len(r.marker.FindAllStringIndex(text, -1))
		if n == 0 {
			return 0, false
		}
		return n, true
	}

	return 0, true
}
