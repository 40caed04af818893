package models

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// EvaluationRunRecord is one completed, graded evaluation of a blueprint as
// written by the evaluation runner.
type EvaluationRunRecord struct {
	ConfigID          string                   `json:"configId"`
	RunLabel          string                   `json:"runLabel"`
	Timestamp         string                   `json:"timestamp"`
	Tags              []string                 `json:"tags,omitempty"`
	DTEFContext       *DTEFContext             `json:"dtefContext,omitempty"`
	Config            *RunConfig               `json:"config,omitempty"`
	Metadata          map[string]any           `json:"metadata,omitempty"`
	PromptIDs         []string                 `json:"promptIds,omitempty"`
	PromptContexts    map[string]PromptContext `json:"promptContexts,omitempty"`
	EvaluationResults *EvaluationResults       `json:"evaluationResults,omitempty"`
}

// RunConfig is the subset of the blueprint config echoed into a run record.
type RunConfig struct {
	Tags    []string       `json:"tags,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// EvaluationResults holds the graded output of a run.
type EvaluationResults struct {
	// LLMCoverageScores is keyed by prompt id, then model id.
	LLMCoverageScores map[string]map[string]*CoverageScore `json:"llmCoverageScores,omitempty"`
}

// CoverageScore is the grader output for one model on one prompt.
type CoverageScore struct {
	AvgCoverageExtent *float64 `json:"avgCoverageExtent,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// HasTag reports whether the record or its config carries tag
// (case-insensitive).
func (r *EvaluationRunRecord) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	match := func(tags []string) bool {
		for _, t := range tags {
			if strings.EqualFold(strings.TrimSpace(t), tag) {
				return true
			}
		}
		return false
	}
	if match(r.Tags) {
		return true
	}
	return r.Config != nil && match(r.Config.Tags)
}

// FirstPromptText returns the rendered text of the run's first prompt.
// The first prompt is the first entry of PromptIDs that has a rendered
// context, falling back to the lexically smallest PromptContexts key.
func (r *EvaluationRunRecord) FirstPromptText() (string, bool) {
	if len(r.PromptContexts) == 0 {
		return "", false
	}
	for _, id := range r.PromptIDs {
		if pc, ok := r.PromptContexts[id]; ok {
			return pc.Rendered(), true
		}
	}
	keys := make([]string, 0, len(r.PromptContexts))
	for k := range r.PromptContexts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return r.PromptContexts[keys[0]].Rendered(), true
}

// safeTimestamp matches the filesystem-safe encoding the runner writes, with
// colons and the fraction dot replaced by dashes.
var safeTimestamp = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})T(\d{2})-(\d{2})-(\d{2})(?:-(\d{1,9}))?Z$`)

// ParseTimestamp parses a run timestamp in RFC 3339, the filesystem-safe
// runner encoding, or a bare date.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := safeTimestamp.FindStringSubmatch(s); m != nil {
		s = m[1] + "T" + m[2] + ":" + m[3] + ":" + m[4]
		if m[5] != "" {
			s += "." + m[5]
		}
		s += "Z"
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
