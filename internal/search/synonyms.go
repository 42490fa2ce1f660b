package search

import "strings"

// synonymGroups holds the domain synonym table. Every term in a group
// expands to all other terms of the same group, in both directions.
// Group order and member order are fixed so expansion output is
// deterministic.
var synonymGroups = [][]string{
	// 補助相關
	{"補助", "補助金額", "經費", "資金", "款項", "補貼", "補助費"},
	{"申請", "送件", "提案", "投標", "報名", "申報"},

	// 階段相關
	{"Phase 1", "第一階段", "先期研究", "創新技術", "Phase1", "phase 1", "一階"},
	{"Phase 2", "第二階段", "研究開發", "Phase2", "phase 2", "二階"},
	{"Phase 2+", "第三階段", "加值應用", "Phase2+", "phase 2+", "2+"},

	// 創新相關
	{"創新", "創新性", "創意", "突破", "新穎", "創新點"},
	{"技術", "技術創新", "科技", "研發技術", "技術研發"},
	{"可行性", "技術可行性", "執行可行性", "feasibility"},

	// 市場相關
	{"市場", "市場分析", "市場規模", "目標市場", "市場潛力"},
	{"商業化", "產業化", "市場化", "商品化"},

	// 團隊相關
	{"團隊", "研發團隊", "執行團隊", "人力", "人員"},
	{"主持人", "計畫主持人", "負責人", "PI"},

	// 文件類型
	{"範例", "案例", "樣本", "示範", "參考", "example"},
	{"方法", "方法論", "做法", "步驟", "流程", "methodology"},
	{"檢核", "檢核清單", "清單", "查核", "檢查", "checklist"},
	{"指南", "指引", "說明", "guide", "教學"},

	// 經費相關
	{"經費", "預算", "費用", "成本", "支出"},
	{"編列", "編制", "規劃", "安排"},

	// 審查相關
	{"審查", "評審", "評分", "review"},
	{"評分", "評分標準", "評分項目", "分數"},

	// 產業相關
	{"機械", "機械產業", "機械業", "機械製造"},
	{"生技", "生物技術", "生技產業", "biotechnology"},
	{"ICT", "資通訊", "資訊", "通訊"},
}

// synonymEntry pairs a term with its co-members, preserving table order
// for deterministic iteration.
type synonymEntry struct {
	term     string
	lower    string
	siblings []string
}

// synonymTable is the inverted lookup built once at startup. Groups
// sharing a term are merged so expansion is symmetric: 經費 appears in
// both the 補助 and 預算 groups, which makes 預算 expandable to 補助
// and back.
var synonymTable = buildSynonymTable(synonymGroups)

// mergeGroups unions groups that share a term (case-insensitive).
// Merged member order follows first appearance in the table.
func mergeGroups(groups [][]string) [][]string {
	var merged [][]string
	groupOf := make(map[string]int)

	for _, group := range groups {
		target := -1
		for _, term := range group {
			if idx, ok := groupOf[strings.ToLower(term)]; ok {
				target = idx
				break
			}
		}
		if target < 0 {
			target = len(merged)
			merged = append(merged, nil)
		}
		for _, term := range group {
			lower := strings.ToLower(term)
			if _, ok := groupOf[lower]; ok {
				continue
			}
			groupOf[lower] = target
			merged[target] = append(merged[target], term)
		}
	}

	return merged
}

func buildSynonymTable(groups [][]string) []synonymEntry {
	var entries []synonymEntry

	for _, group := range mergeGroups(groups) {
		for _, term := range group {
			siblings := make([]string, 0, len(group)-1)
			for _, other := range group {
				if other != term {
					siblings = append(siblings, other)
				}
			}
			entries = append(entries, synonymEntry{
				term:     term,
				lower:    strings.ToLower(term),
				siblings: siblings,
			})
		}
	}

	return entries
}
