package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Append(t *testing.T) {
	report := NewReport("source1", []*MatchResult{
		NewMatchResult("category", "content", nil),
	})
	other := NewReport("source2", []*MatchResult{
		NewMatchResult("second_category", "second_content", nil),
	})

	report.Append(other)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "source1", report.Results[0].Source)
	assert.Equal(t, "source2", report.Results[1].Source)
	assert.Equal(t, "category", report.Results[0].Results[0].Category)
	assert.Equal(t, "second_category", report.Results[1].Results[0].Category)
	assert.Equal(t, "content", report.Results[0].Results[0].Content)
	assert.Equal(t, "second_content", report.Results[1].Results[0].Content)
}

func TestReport_Violations(t *testing.T) {
	report := NewReport("table", []*MatchResult{
		NewMatchResult("INCLUSION", "master/slave", []*Rule{{Name: "master"}, {Name: "slave"}}),
		NewMatchResult("INCLUSION", "whitelist", []*Rule{{Name: "whitelist"}}),
	})

	assert.Equal(t, 3, report.Violations())
	assert.False(t, report.Empty())
}

func TestReport_Empty(t *testing.T) {
	report := NewReport("table", nil)

	assert.True(t, report.Empty())
	assert.Equal(t, 0, report.Violations())
	assert.NotNil(t, report.Results[0].Results, "nil results should be normalized to an empty slice")
}
