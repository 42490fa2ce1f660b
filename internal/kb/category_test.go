package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"methodology", CategoryMethodology, false},
		{"faq", CategoryFAQ, false},
		{"checklist", CategoryChecklist, false},
		{"case_study", CategoryCaseStudy, false},
		{"template", CategoryTemplate, false},
		{"all", CategoryAll, false},
		{"", CategoryAll, false},
		{"FAQ", CategoryFAQ, false},
		{"budget", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.input)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrUnknownCategory, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestCategoryGlob(t *testing.T) {
	assert.Equal(t, "references/methodology_*.md", CategoryMethodology.Glob())
	assert.Equal(t, "faq/*.md", CategoryFAQ.Glob())
	assert.Equal(t, "**/*.md", CategoryAll.Glob())
}

func TestDisplayFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"references/methodology_budget.md", "方法論"},
		{"faq/applications.md", "常見問題"},
		{"checklists/phase1.md", "檢核清單"},
		{"examples/case_studies/alpha.md", "案例研究"},
		{"templates/proposal.md", "範本"},
		{"quick_start.md", "快速啟動"},
		{"README.md", "其他"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayFromPath(tt.path), "path %s", tt.path)
	}
}
