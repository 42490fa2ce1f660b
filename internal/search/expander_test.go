package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandQueryOriginalFirst(t *testing.T) {
	expanded := ExpandQuery("補助金額")
	require.NotEmpty(t, expanded)
	assert.Equal(t, "補助金額", expanded[0])
}

func TestExpandQueryUnknownTermUnchanged(t *testing.T) {
	expanded := ExpandQuery("量子電腦")
	assert.Equal(t, []string{"量子電腦"}, expanded)
}

func TestExpandQuerySymmetric(t *testing.T) {
	// 經費 sits in both the 補助 and 預算 groups, so expansion bridges
	// them in both directions.
	containsVariant := func(expanded []string, substr string) bool {
		for _, q := range expanded {
			if strings.Contains(q, substr) {
				return true
			}
		}
		return false
	}

	assert.True(t, containsVariant(ExpandQuery("預算"), "補助"))
	assert.True(t, containsVariant(ExpandQuery("補助金額"), "預算"))
}

func TestExpandQueryCaseInsensitiveMatch(t *testing.T) {
	expanded := ExpandQuery("phase 1 申請")
	assert.Contains(t, expanded, "第一階段 申請")
	assert.Contains(t, expanded, "phase 1 送件")
}

func TestExpandQueryPreservesOriginalCasing(t *testing.T) {
	expanded := ExpandQuery("Phase 1 資格")
	assert.Contains(t, expanded, "第一階段 資格")
}

func TestExpandQueryReplacesSingleOccurrence(t *testing.T) {
	expanded := ExpandQuery("申請與申請表")
	assert.Contains(t, expanded, "送件與申請表")
}

func TestExpandQueryDeterministic(t *testing.T) {
	first := ExpandQuery("創新技術方法")
	second := ExpandQuery("創新技術方法")
	assert.Equal(t, first, second)
}

func TestExpandQueryNoDuplicates(t *testing.T) {
	expanded := ExpandQuery("經費編列")
	seen := make(map[string]bool)
	for _, q := range expanded {
		assert.False(t, seen[q], "duplicate expansion %q", q)
		seen[q] = true
	}
}

func TestExpandKeywords(t *testing.T) {
	keywords := ExpandKeywords("Phase 1 申請")

	assert.Contains(t, keywords, "phase")
	assert.Contains(t, keywords, "1")
	assert.Contains(t, keywords, "申請")
	assert.Contains(t, keywords, "第一階段")
	assert.Contains(t, keywords, "送件")

	for _, kw := range keywords {
		assert.Equal(t, strings.ToLower(kw), kw)
	}

	seen := make(map[string]bool)
	for _, kw := range keywords {
		assert.False(t, seen[kw], "duplicate keyword %q", kw)
		seen[kw] = true
	}
}

func TestMergeGroupsUnionsSharedTerms(t *testing.T) {
	merged := mergeGroups([][]string{
		{"a", "b"},
		{"c", "d"},
		{"b", "e"},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, []string{"a", "b", "e"}, merged[0])
	assert.Equal(t, []string{"c", "d"}, merged[1])
}
