package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{
  "configId": "gd4-age-c5",
  "runLabel": "abc123",
  "timestamp": "2025-03-04T05-06-07-123Z",
  "tags": ["DTEF", "survey"],
  "dtefContext": {
    "surveyId": "gd4",
    "segmentId": "age:18-29",
    "segmentLabel": "18-29",
    "segmentAttributes": {"age": "18-29"},
    "contextQuestionCount": 5
  },
  "promptIds": ["q2", "q1"],
  "promptContexts": {
    "q1": "plain text prompt",
    "q2": [{"role": "system", "content": "sys"}, {"role": "user", "content": "Context question 1: x"}]
  },
  "evaluationResults": {
    "llmCoverageScores": {
      "q1": {"openai:gpt-4o": {"avgCoverageExtent": 0.75}},
      "q2": {"openai:gpt-4o": {"error": "timeout"}}
    }
  }
}`

func TestEvaluationRunRecord_Decode(t *testing.T) {
	var rec EvaluationRunRecord
	require.NoError(t, json.Unmarshal([]byte(sampleRecord), &rec))

	assert.Equal(t, "gd4-age-c5", rec.ConfigID)
	require.NotNil(t, rec.DTEFContext)
	assert.Equal(t, "age:18-29", rec.DTEFContext.SegmentID)
	n, ok := rec.DTEFContext.ExplicitContextCount()
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	q1 := rec.EvaluationResults.LLMCoverageScores["q1"]["openai:gpt-4o"]
	require.NotNil(t, q1.AvgCoverageExtent)
	assert.InDelta(t, 0.75, *q1.AvgCoverageExtent, 1e-9)
	q2 := rec.EvaluationResults.LLMCoverageScores["q2"]["openai:gpt-4o"]
	assert.Nil(t, q2.AvgCoverageExtent)
	assert.Equal(t, "timeout", q2.Error)

	text, ok := rec.FirstPromptText()
	assert.True(t, ok)
	assert.Equal(t, "sys\n\nContext question 1: x", text)
}

func TestEvaluationRunRecord_HasTag(t *testing.T) {
	rec := &EvaluationRunRecord{Tags: []string{" DTEF "}}
	assert.True(t, rec.HasTag("dtef"))
	assert.False(t, rec.HasTag(""))
	assert.False(t, rec.HasTag("other"))

	rec = &EvaluationRunRecord{Config: &RunConfig{Tags: []string{"Dtef"}}}
	assert.True(t, rec.HasTag("dtef"))

	assert.False(t, (&EvaluationRunRecord{}).HasTag("dtef"))
}

func TestEvaluationRunRecord_FirstPromptText(t *testing.T) {
	_, ok := (&EvaluationRunRecord{}).FirstPromptText()
	assert.False(t, ok)

	rec := &EvaluationRunRecord{
		PromptIDs: []string{"missing"},
		PromptContexts: map[string]PromptContext{
			"b": {Text: "second"},
			"a": {Text: "first"},
		},
	}
	text, ok := rec.FirstPromptText()
	assert.True(t, ok)
	assert.Equal(t, "first", text)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2025-03-04T05:06:07Z", time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), true},
		{"2025-03-04T05:06:07.5+02:00", time.Date(2025, 3, 4, 3, 6, 7, 500_000_000, time.UTC), true},
		{"2025-03-04T05-06-07-123Z", time.Date(2025, 3, 4, 5, 6, 7, 123_000_000, time.UTC), true},
		{"2025-03-04T05-06-07Z", time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), true},
		{"2025-03-04", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestPromptContext_JSON(t *testing.T) {
	var pc PromptContext
	require.NoError(t, json.Unmarshal([]byte(`"hello"`), &pc))
	assert.Equal(t, "hello", pc.Rendered())

	require.NoError(t, json.Unmarshal([]byte(`[{"role":"user","content":"a"},{"role":"assistant","content":"b"}]`), &pc))
	assert.Equal(t, "a\n\nb", pc.Rendered())
	out, err := json.Marshal(pc)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":"a"},{"role":"assistant","content":"b"}]`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`null`), &pc))
	assert.Equal(t, "", pc.Rendered())

	assert.Error(t, json.Unmarshal([]byte(`42`), &pc))
}

func TestDTEFContext_ExplicitContextCount(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   int
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"int", 3, 3, true},
		{"int64", int64(8), 8, true},
		{"float", float64(10), 10, true},
		{"fraction", 2.5, 0, false},
		{"negative", -2, 0, false},
		{"json number", json.Number("4"), 4, true},
		{"numeric string", " 6 ", 6, true},
		{"garbage string", "six", 0, false},
		{"bool", true, 0, false},
		{"too large float", 1e19, 0, false},
		{"too large string", "1e19", 0, false},
		{"too large int64", int64(math.MaxInt32) + 1, 0, false},
		{"at cap", int64(math.MaxInt32), math.MaxInt32, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := (&DTEFContext{ContextQuestionCount: tt.value}).ExplicitContextCount()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	var nilCtx *DTEFContext
	_, ok := nilCtx.ExplicitContextCount()
	assert.False(t, ok)
}

func TestResolveContext(t *testing.T) {
	embedded := &DTEFContext{SurveyID: "s", SegmentID: "age:18-29"}

	tests := []struct {
		name       string
		rec        EvaluationRunRecord
		wantSource ContextSource
		wantSeg    string
	}{
		{
			name:       "embedded",
			rec:        EvaluationRunRecord{DTEFContext: embedded},
			wantSource: ContextSourceEmbedded,
			wantSeg:    "age:18-29",
		},
		{
			name: "embedded without segment falls back to config",
			rec: EvaluationRunRecord{
				DTEFContext: &DTEFContext{SurveyID: "s"},
				Config: &RunConfig{Context: map[string]any{
					"dtef": map[string]any{"surveyId": "s", "segmentId": "gender:female"},
				}},
			},
			wantSource: ContextSourceConfig,
			wantSeg:    "gender:female",
		},
		{
			name: "metadata dtef with segment list",
			rec: EvaluationRunRecord{Metadata: map[string]any{
				"dtef": map[string]any{
					"surveyId":      "s",
					"segmentIds":    []any{"O7:Kenya", "O2:18-25"},
					"segmentLabels": []any{"Kenya"},
				},
			}},
			wantSource: ContextSourceMetadata,
			wantSeg:    "O7:Kenya",
		},
		{
			name: "flat metadata requires tag",
			rec: EvaluationRunRecord{
				Metadata: map[string]any{"surveyId": "s", "segmentId": "country:peru"},
			},
			wantSource: ContextSourceNone,
		},
		{
			name: "flat metadata with tag",
			rec: EvaluationRunRecord{
				Tags:     []string{"dtef"},
				Metadata: map[string]any{"surveyId": "s", "segmentId": "country:peru", "contextQuestionCount": "3"},
			},
			wantSource: ContextSourceTagged,
			wantSeg:    "country:peru",
		},
		{
			name:       "nothing",
			rec:        EvaluationRunRecord{},
			wantSource: ContextSourceNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, src := tt.rec.ResolveContext("dtef")
			assert.Equal(t, tt.wantSource, src)
			if tt.wantSource == ContextSourceNone {
				assert.Nil(t, ctx)
				return
			}
			require.NotNil(t, ctx)
			assert.Equal(t, tt.wantSeg, ctx.SegmentID)
		})
	}
}

func TestResolveContext_LegacyFields(t *testing.T) {
	rec := EvaluationRunRecord{Metadata: map[string]any{
		"dtef": map[string]any{
			"surveyId":             "s",
			"segmentIds":           []any{"O7:Kenya"},
			"segmentLabels":        []any{"Kenya"},
			"contextQuestionIds":   []any{"q1", "q2"},
			"contextQuestionCount": 2.0,
		},
	}}
	ctx, _ := rec.ResolveContext("dtef")
	require.NotNil(t, ctx)
	assert.Equal(t, "Kenya", ctx.SegmentLabel)
	assert.Equal(t, []string{"q1", "q2"}, ctx.ContextQuestionIDs)
	n, ok := ctx.ExplicitContextCount()
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}
