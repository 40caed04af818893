package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// DTEFContext identifies the survey segment a run was evaluated against.
type DTEFContext struct {
	SurveyID          string            `json:"surveyId" mapstructure:"surveyId"`
	SegmentID         string            `json:"segmentId" mapstructure:"segmentId"`
	SegmentLabel      string            `json:"segmentLabel" mapstructure:"segmentLabel"`
	SegmentAttributes map[string]string `json:"segmentAttributes,omitempty" mapstructure:"segmentAttributes"`

	// ContextQuestionCount is kept untyped because runners have written it as
	// an integer, a float, and a numeric string.
	ContextQuestionCount any      `json:"contextQuestionCount,omitempty" mapstructure:"contextQuestionCount"`
	ContextQuestionIDs   []string `json:"contextQuestionIds,omitempty" mapstructure:"contextQuestionIds"`
}

// ContextSource records which encoding a DTEFContext was read from.
type ContextSource string

const (
	ContextSourceNone     ContextSource = ""
	ContextSourceEmbedded ContextSource = "embedded"
	ContextSourceConfig   ContextSource = "config"
	ContextSourceMetadata ContextSource = "metadata"
	ContextSourceTagged   ContextSource = "tagged"
)

// MaxContextQuestions bounds a declared context count. Larger values are
// treated as unresolved.
const MaxContextQuestions = math.MaxInt32

// ExplicitContextCount returns the declared number of context questions when
// it is an integer in [0, MaxContextQuestions].
func (c *DTEFContext) ExplicitContextCount() (int, bool) {
	if c == nil || c.ContextQuestionCount == nil {
		return 0, false
	}
	var f float64
	switch v := c.ContextQuestionCount.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > MaxContextQuestions || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func (c *DTEFContext) usable() bool {
	return c != nil && strings.TrimSpace(c.SurveyID) != "" && strings.TrimSpace(c.SegmentID) != ""
}

// ResolveContext returns the record's segment context regardless of which
// encoding the runner used. Lookup order: the embedded dtefContext field,
// config.context.dtef, metadata.dtef, and finally the flat metadata map when
// the record carries tag. Legacy shapes may list several segment ids; the
// first one is used.
func (r *EvaluationRunRecord) ResolveContext(tag string) (*DTEFContext, ContextSource) {
	if r.DTEFContext.usable() {
		return r.DTEFContext, ContextSourceEmbedded
	}
	if r.Config != nil {
		if ctx, ok := legacyContext(r.Config.Context["dtef"]); ok {
			return ctx, ContextSourceConfig
		}
	}
	if ctx, ok := legacyContext(r.Metadata["dtef"]); ok {
		return ctx, ContextSourceMetadata
	}
	if r.HasTag(tag) {
		if ctx, ok := legacyContext(r.Metadata); ok {
			return ctx, ContextSourceTagged
		}
	}
	return nil, ContextSourceNone
}

type legacyMetadata struct {
	SurveyID             string            `mapstructure:"surveyId"`
	SegmentID            string            `mapstructure:"segmentId"`
	SegmentIDs           []string          `mapstructure:"segmentIds"`
	SegmentLabel         string            `mapstructure:"segmentLabel"`
	SegmentLabels        []string          `mapstructure:"segmentLabels"`
	SegmentAttributes    map[string]string `mapstructure:"segmentAttributes"`
	ContextQuestionCount any               `mapstructure:"contextQuestionCount"`
	ContextQuestionIDs   []string          `mapstructure:"contextQuestionIds"`
}

func legacyContext(raw any) (*DTEFContext, bool) {
	m, ok := raw.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}

	var lm legacyMetadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &lm,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, false
	}
	if err := dec.Decode(m); err != nil {
		return nil, false
	}

	ctx := &DTEFContext{
		SurveyID:             lm.SurveyID,
		SegmentID:            lm.SegmentID,
		SegmentLabel:         lm.SegmentLabel,
		SegmentAttributes:    lm.SegmentAttributes,
		ContextQuestionCount: lm.ContextQuestionCount,
		ContextQuestionIDs:   lm.ContextQuestionIDs,
	}
	if ctx.SegmentID == "" && len(lm.SegmentIDs) > 0 {
		ctx.SegmentID = lm.SegmentIDs[0]
	}
	if ctx.SegmentLabel == "" && len(lm.SegmentLabels) > 0 {
		ctx.SegmentLabel = lm.SegmentLabels[0]
	}
	if !ctx.usable() {
		return nil, false
	}
	return ctx, true
}
