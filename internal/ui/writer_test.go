package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Success("索引建立完成")
	w.Warning("語意索引無法使用")
	w.Error("找不到檔案")

	out := buf.String()
	assert.Contains(t, out, "✓ 索引建立完成")
	assert.Contains(t, out, "! 語意索引無法使用")
	assert.Contains(t, out, "✗ 找不到檔案")
}

func TestWriterItemAndDetail(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Item(1, "budget.md", 0.7425)
	w.Detail("路徑", "faq/budget.md")

	out := buf.String()
	assert.Contains(t, out, " 1. budget.md (0.743)")
	assert.Contains(t, out, "    路徑: faq/budget.md")
}

func TestWriterFormatted(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Successf("索引了 %d 份文件", 12)
	assert.Contains(t, buf.String(), "索引了 12 份文件")
}

func TestShouldColorRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ShouldColor(&bytes.Buffer{}))
}

func TestShouldColorNonFile(t *testing.T) {
	assert.False(t, ShouldColor(&bytes.Buffer{}))
}
