package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchResult_Equal(t *testing.T) {
	master := &Rule{Name: "master", Pattern: "master", Documentation: "doc"}
	slave := &Rule{Name: "slave", Pattern: "slave", Documentation: "doc"}

	a := NewMatchResult("INCLUSION", "master/slave", []*Rule{master, slave})
	b := NewMatchResult("INCLUSION", "master/slave", []*Rule{
		{Name: "master", Pattern: "master", Documentation: "doc"},
		{Name: "slave", Pattern: "slave", Documentation: "doc"},
	})

	assert.True(t, a.Equal(b), "results with equal values should compare equal")
	assert.False(t, a.Equal(NewMatchResult("PII", "master/slave", []*Rule{master, slave})))
	assert.False(t, a.Equal(NewMatchResult("INCLUSION", "master", []*Rule{master, slave})))
	assert.False(t, a.Equal(NewMatchResult("INCLUSION", "master/slave", []*Rule{slave, master})))
	assert.False(t, a.Equal(NewMatchResult("INCLUSION", "master/slave", []*Rule{master})))
	assert.False(t, a.Equal(nil))
}

func TestMatchResult_RuleNames(t *testing.T) {
	result := NewMatchResult("INCLUSION", "master/slave", []*Rule{
		{Name: "master"},
		{Name: "slave"},
	})

	assert.Equal(t, []string{"master", "slave"}, result.RuleNames())
}

func TestMatchResult_Clone(t *testing.T) {
	rule := &Rule{Name: "master"}
	original := NewMatchResult("INCLUSION", "master", []*Rule{rule})

	clone := original.Clone()
	clone.Rules[0] = &Rule{Name: "changed"}

	assert.Equal(t, "master", original.Rules[0].Name)
	assert.Same(t, rule, original.Rules[0])
}

func TestMatchResult_JSON(t *testing.T) {
	result := NewMatchResult("PII", "email", []*Rule{{Name: "email", Pattern: "email", Documentation: "doc"}})

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "PII", decoded["category"])
	assert.Equal(t, "email", decoded["content"])
	assert.Len(t, decoded["data_rules"], 1)
}
