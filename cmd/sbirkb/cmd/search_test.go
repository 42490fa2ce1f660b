package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backtrue/sbirkb/internal/search"
)

func TestSearchCmdLexicalOnly(t *testing.T) {
	t.Setenv("SBIRKB_EMBEDDER", "static")
	kbRoot := writeKB(t)

	out, err := runCLI(t, "search", "補助金額", "--kb", kbRoot, "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "budget.md")
	assert.Contains(t, out, "faq/budget.md")
	assert.Contains(t, out, "語意搜尋暫時無法使用")
}

func TestSearchCmdWithIndex(t *testing.T) {
	t.Setenv("SBIRKB_EMBEDDER", "static")
	kbRoot := writeKB(t)

	_, err := runCLI(t, "index", "--kb", kbRoot, "--offline")
	require.NoError(t, err)

	out, err := runCLI(t, "search", "補助金額", "--kb", kbRoot, "--format", "json")
	require.NoError(t, err)

	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.SemanticUsed)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "faq/budget.md", resp.Results[0].ID)
}

func TestSearchCmdSynonymExpansion(t *testing.T) {
	t.Setenv("SBIRKB_EMBEDDER", "static")
	kbRoot := writeKB(t)

	// 預算 matches budget.md through the 補助 synonym group.
	out, err := runCLI(t, "search", "預算", "--kb", kbRoot, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "faq/budget.md")
	assert.Contains(t, out, "checklists/phase1.md")
}

func TestSearchCmdCategoryFilter(t *testing.T) {
	t.Setenv("SBIRKB_EMBEDDER", "static")
	kbRoot := writeKB(t)

	out, err := runCLI(t, "search", "第一階段", "--kb", kbRoot, "--category", "checklist", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "checklists/phase1.md")
	assert.NotContains(t, out, "faq/budget.md")
}

func TestSearchCmdNoResults(t *testing.T) {
	t.Setenv("SBIRKB_EMBEDDER", "static")
	kbRoot := writeKB(t)

	out, err := runCLI(t, "search", "量子電腦", "--kb", kbRoot, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "找不到")
}

func TestSearchCmdUnknownCategory(t *testing.T) {
	t.Setenv("SBIRKB_EMBEDDER", "static")
	kbRoot := writeKB(t)

	_, err := runCLI(t, "search", "補助", "--kb", kbRoot, "--category", "nonsense")
	require.Error(t, err)
}
