package segments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		id   string
		want Category
	}{
		{"age:18-29", CategoryAge},
		{"AGE:65+", CategoryAge},
		{"gender:female", CategoryGender},
		{"sex:male", CategoryGender},
		{"country:brazil", CategoryCountry},
		{"environment:urban", CategoryEnvironment},
		{"env_rural", CategoryEnvironment},
		{"religion:none", CategoryReligion},
		{"ai_concern:high", CategoryAIConcern},
		{"ai-concern:low", CategoryAIConcern},
		{"ai_concern_high", CategoryAIConcern},
		{"AI_CONCERN_low", CategoryAIConcern},
		{"ai_other", CategoryUnknown},
		{"language:en", CategoryLanguage},
		{"O1:English", CategoryLanguage},
		{"O2:18-25", CategoryAge},
		{"o3:Female", CategoryGender},
		{"O4:Urban", CategoryEnvironment},
		{"O5:Very concerned", CategoryAIConcern},
		{"O6:Christianity", CategoryReligion},
		{"O7:Kenya", CategoryCountry},
		{"O9:Other", CategoryUnknown},
		{"income:high", CategoryUnknown},
		{"", CategoryUnknown},
		{":age", CategoryUnknown},
		{"age", CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.id))
		})
	}
}

func TestCategory_LabelAndKnown(t *testing.T) {
	assert.Equal(t, "AI Concern", CategoryAIConcern.Label())
	assert.Equal(t, "Age", CategoryAge.Label())
	assert.Equal(t, "Unknown", Category("made-up").Label())

	assert.True(t, CategoryCountry.Known())
	assert.False(t, CategoryUnknown.Known())
	assert.False(t, Category("made-up").Known())
}

func TestNormalizer_SegmentID(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	assert.Equal(t, "gender:non-binary", n.SegmentID("gender:nonbinary"))
	assert.Equal(t, "gender:non-binary", n.SegmentID("  Gender:NonBinary "))
	assert.Equal(t, "country:united-states", n.SegmentID("country:USA"))
	assert.Equal(t, "country:turkey", n.SegmentID("country:turkiye"))
	assert.Equal(t, "age:18-29", n.SegmentID("age:18-29"))
	assert.Equal(t, "age:18-29", n.SegmentID("age:18-29\t"))
}

func TestNormalizer_SegmentLabel(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	assert.Equal(t, "Non-binary", n.SegmentLabel("nonbinary"))
	assert.Equal(t, "United Kingdom", n.SegmentLabel("UK"))
	assert.Equal(t, "Prefer not to say", n.SegmentLabel("Prefer  not to\tanswer"))
	assert.Equal(t, "18-29", n.SegmentLabel("18-29"))
}

func TestNormalizer_UnicodeForms(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	// "Türkiye" spelled with a combining diaeresis.
	assert.Equal(t, "Turkey", n.SegmentLabel("Tu\u0308rkiye"))

	// Unaliased values still come back in composed form.
	assert.Equal(t, "Z\u00fcrich", n.SegmentLabel("Zu\u0308rich"))
}

func TestNormalizer_Attributes(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	assert.Nil(t, n.Attributes(nil))

	got := n.Attributes(map[string]string{
		" country ": "USA",
		"age":       "18-29",
		"  ":        "dropped",
	})
	require.Len(t, got, 2)
	assert.Equal(t, "United States", got["country"])
	assert.Equal(t, "18-29", got["age"])
}

func TestAliases_Merge(t *testing.T) {
	base := DefaultAliases()
	merged := base.Merge(Aliases{
		SegmentIDs:    map[string]string{"country:usa": "country:us", "age:young": "age:18-29"},
		SegmentLabels: map[string]string{"Young": "18-29"},
	})

	assert.Equal(t, "country:us", merged.SegmentIDs["country:usa"])
	assert.Equal(t, "age:18-29", merged.SegmentIDs["age:young"])
	assert.Equal(t, "18-29", merged.SegmentLabels["Young"])
	assert.Equal(t, "country:united-states", base.SegmentIDs["country:usa"], "merge must not modify the receiver")

	empty := Aliases{}.Merge(Aliases{})
	assert.NotNil(t, empty.SegmentIDs)
	assert.NotNil(t, empty.SegmentLabels)
}
