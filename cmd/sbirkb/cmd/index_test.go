package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeKB lays out a small knowledge base in a temp directory.
func writeKB(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	docs := map[string]string{
		"faq/budget.md":        "# 補助金額\n\n第一階段補助金額上限為新台幣 500 萬元。\n",
		"faq/eligibility.md":   "# 申請資格\n\n公司需為依法設立之本國企業。\n",
		"checklists/phase1.md": "# 第一階段檢核\n\n- [ ] 公司登記文件\n- [ ] 預算規劃表\n",
	}
	for rel, body := range docs {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
	return root
}

// runCLI executes the root command with the given args and returns its
// combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestIndexCmdBuildsIndex(t *testing.T) {
	kbRoot := writeKB(t)

	out, err := runCLI(t, "index", "--kb", kbRoot, "--offline", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "建立索引")
	assert.Contains(t, out, "索引完成")
	assert.Contains(t, out, "3 份文件")
	assert.FileExists(t, filepath.Join(kbRoot, ".sbirkb", "index", "metadata.db"))
	assert.FileExists(t, filepath.Join(kbRoot, ".sbirkb", "index", "vectors.hnsw"))
}

func TestStatusCmdBeforeIndex(t *testing.T) {
	kbRoot := writeKB(t)

	out, err := runCLI(t, "status", "--kb", kbRoot, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "尚未建立索引")
}

func TestStatusCmdAfterIndex(t *testing.T) {
	kbRoot := writeKB(t)

	_, err := runCLI(t, "index", "--kb", kbRoot, "--offline")
	require.NoError(t, err)

	out, err := runCLI(t, "status", "--kb", kbRoot, "--json")
	require.NoError(t, err)

	var info statusInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.True(t, info.Built)
	assert.Equal(t, 3, info.Documents)
	assert.Positive(t, info.Chunks)
	assert.True(t, info.SemanticEnabled)
	assert.False(t, info.Stale)
	assert.Positive(t, info.MetadataBytes)
}

func TestStatusCmdDetectsChangedDocuments(t *testing.T) {
	kbRoot := writeKB(t)

	_, err := runCLI(t, "index", "--kb", kbRoot, "--offline")
	require.NoError(t, err)

	extra := filepath.Join(kbRoot, "faq", "extra.md")
	require.NoError(t, os.WriteFile(extra, []byte("# 額外文件\n\n新增內容。\n"), 0o644))

	out, err := runCLI(t, "status", "--kb", kbRoot, "--json")
	require.NoError(t, err)

	var info statusInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.True(t, info.Stale)
}
