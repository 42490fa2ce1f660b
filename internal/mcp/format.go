package mcp

import (
	"fmt"
	"strings"

	"github.com/backtrue/sbirkb/internal/search"
)

// FormatSearchResults renders a search response as the markdown listing
// shown to the AI client.
func FormatSearchResults(resp *search.Response) string {
	if len(resp.Results) == 0 {
		return FormatNoResults(resp.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## 搜尋結果：找到 %d 個相關文件\n\n", resp.TotalFound)
	fmt.Fprintf(&b, "**搜尋關鍵字**：%s\n\n", resp.Query)

	for i, r := range resp.Results {
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, r.Name)
		fmt.Fprintf(&b, "   - 類別：%s\n", r.Category)
		fmt.Fprintf(&b, "   - 路徑：`%s`\n", r.ID)
		if r.Preview != "" {
			fmt.Fprintf(&b, "   - 摘要：%s\n", r.Preview)
		}
		b.WriteString("   - 使用 `read_document` 工具讀取此文件\n\n")
	}

	if resp.Omitted > 0 {
		fmt.Fprintf(&b, "\n（還有 %d 個相關文件未顯示）\n", resp.Omitted)
	}
	if !resp.SemanticUsed {
		b.WriteString("\n> 語意搜尋暫時無法使用，本次結果僅以關鍵字比對排序。\n")
	}

	return b.String()
}

// FormatNoResults renders the empty-result help text.
func FormatNoResults(query string) string {
	return fmt.Sprintf(`## 搜尋結果

找不到與「%s」相關的文件。

**建議**：
- 試試其他關鍵字
- 查看完整文件列表：README.md
`, query)
}

// FormatDocument renders a full document for read_document.
func FormatDocument(name, path, content string) string {
	return fmt.Sprintf("## 📄 %s\n\n**路徑**：`%s`\n\n---\n\n%s\n", name, path, content)
}

// FormatPathOutsideRoot is the refusal text for escaping paths.
func FormatPathOutsideRoot() string {
	return "❌ 錯誤：無法讀取專案目錄外的檔案"
}

// FormatFileNotFound is the missing-file text for read_document.
func FormatFileNotFound(path string) string {
	return fmt.Sprintf("❌ 錯誤：找不到檔案 `%s`\n\n請使用 `search_knowledge_base` 工具搜尋正確的檔案路徑。", path)
}
