package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inovacc/reposync/internal/logging"
	"github.com/inovacc/reposync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "project_assignment_rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoader_Load(t *testing.T) {
	path := writeRules(t, `
rules:
  - project_name: API
    keywords: [api, service]
  - project_name: Frontend
    keywords:
      - web
      - app
`)

	got, err := NewLoader(path, logging.Discard()).Load()
	require.NoError(t, err)

	want := []model.Rule{
		{ProjectName: "API", Keywords: []string{"api", "service"}},
		{ProjectName: "Frontend", Keywords: []string{"web", "app"}},
	}
	assert.Equal(t, want, got)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"), logging.Discard()).Load()
	require.ErrorIs(t, err, ErrRulesNotFound)
}

func TestParse_EmptyList(t *testing.T) {
	got, err := Parse([]byte("rules: []\n"), logging.Discard())
	require.NoError(t, err)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParse_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"missing rules key", "projects: []\n"},
		{"rules is a mapping", "rules:\n  api: [api]\n"},
		{"rules is null", "rules:\n"},
		{"top level list", "- project_name: API\n"},
		{"broken yaml", "rules: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), logging.Discard())
			require.ErrorIs(t, err, ErrInvalidRules)
		})
	}
}

func TestParse_SkipsMalformedRules(t *testing.T) {
	content := `
rules:
  - project_name: API
    keywords: [api]
  - keywords: [orphan]
  - project_name: Broken
    keywords: not-a-list
  - just a string
  - project_name: Nested
    keywords:
      - {a: b}
  - project_name: NoKeywords
  - project_name: Docs
    keywords: [docs]
`

	got, err := Parse([]byte(content), logging.Discard())
	require.NoError(t, err)

	want := []model.Rule{
		{ProjectName: "API", Keywords: []string{"api"}},
		{ProjectName: "NoKeywords", Keywords: []string{}},
		{ProjectName: "Docs", Keywords: []string{"docs"}},
	}
	assert.Equal(t, want, got)
}

func TestParse_PreservesOrderAndCase(t *testing.T) {
	content := `
rules:
  - project_name: Zeta
    keywords: [Z, "Service"]
  - project_name: Alpha
    keywords: [a]
`

	got, err := Parse([]byte(content), logging.Discard())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Zeta", got[0].ProjectName)
	assert.Equal(t, []string{"Z", "Service"}, got[0].Keywords)
	assert.Equal(t, "Alpha", got[1].ProjectName)
}
