package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backtrue/sbirkb/internal/search"
)

func TestFormatSearchResults(t *testing.T) {
	resp := &search.Response{
		Query:        "補助 預算",
		Category:     "all",
		TotalFound:   2,
		SemanticUsed: true,
		Results: []search.Result{
			{ID: "faq/budget.md", Name: "budget.md", Category: "常見問題", Score: 0.82, Preview: "補助金額上限說明"},
			{ID: "checklists/phase1.md", Name: "phase1.md", Category: "檢核清單", Score: 0.61},
		},
	}

	md := FormatSearchResults(resp)

	assert.Contains(t, md, "## 搜尋結果：找到 2 個相關文件")
	assert.Contains(t, md, "**搜尋關鍵字**：補助 預算")
	assert.Contains(t, md, "1. **budget.md**")
	assert.Contains(t, md, "   - 類別：常見問題")
	assert.Contains(t, md, "   - 路徑：`faq/budget.md`")
	assert.Contains(t, md, "   - 摘要：補助金額上限說明")
	assert.Contains(t, md, "2. **phase1.md**")
	assert.Contains(t, md, "使用 `read_document` 工具讀取此文件")
	assert.NotContains(t, md, "未顯示")
	assert.NotContains(t, md, "語意搜尋暫時無法使用")
}

func TestFormatSearchResultsOmitsPreviewWhenEmpty(t *testing.T) {
	resp := &search.Response{
		Query:      "查核",
		TotalFound: 1,
		Results:    []search.Result{{ID: "faq/a.md", Name: "a.md", Category: "常見問題"}},
	}

	md := FormatSearchResults(resp)
	assert.NotContains(t, md, "摘要")
}

func TestFormatSearchResultsOmittedFooter(t *testing.T) {
	resp := &search.Response{
		Query:        "補助",
		TotalFound:   13,
		Omitted:      3,
		SemanticUsed: true,
		Results:      []search.Result{{ID: "faq/a.md", Name: "a.md", Category: "常見問題"}},
	}

	md := FormatSearchResults(resp)
	assert.Contains(t, md, "（還有 3 個相關文件未顯示）")
}

func TestFormatSearchResultsLexicalFallbackNotice(t *testing.T) {
	resp := &search.Response{
		Query:        "補助",
		TotalFound:   1,
		SemanticUsed: false,
		Results:      []search.Result{{ID: "faq/a.md", Name: "a.md", Category: "常見問題"}},
	}

	md := FormatSearchResults(resp)
	assert.Contains(t, md, "> 語意搜尋暫時無法使用，本次結果僅以關鍵字比對排序。")
}

func TestFormatSearchResultsEmpty(t *testing.T) {
	resp := &search.Response{Query: "量子電腦", SemanticUsed: true}

	md := FormatSearchResults(resp)
	assert.Contains(t, md, "找不到與「量子電腦」相關的文件")
	assert.Contains(t, md, "試試其他關鍵字")
	assert.Contains(t, md, "README.md")
}

func TestFormatDocument(t *testing.T) {
	md := FormatDocument("budget.md", "faq/budget.md", "# 補助金額\n\n最高 500 萬。")

	assert.Contains(t, md, "## 📄 budget.md")
	assert.Contains(t, md, "**路徑**：`faq/budget.md`")
	assert.Contains(t, md, "---")
	assert.Contains(t, md, "最高 500 萬。")
}

func TestFormatErrorTexts(t *testing.T) {
	assert.Equal(t, "❌ 錯誤：無法讀取專案目錄外的檔案", FormatPathOutsideRoot())

	md := FormatFileNotFound("faq/missing.md")
	assert.Contains(t, md, "❌ 錯誤：找不到檔案 `faq/missing.md`")
	assert.Contains(t, md, "search_knowledge_base")
}
