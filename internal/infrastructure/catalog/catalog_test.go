package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "programs.json", `[
		{"title": "Искусственный интеллект", "url": "https://abit.itmo.ru/program/master/ai",
		 "tuition": "599 000 ₽", "curriculum": [{"name": "Машинное обучение", "semester": "1"}]},
		{"title": "AI Product", "url": "https://abit.itmo.ru/program/master/ai_product"}
	]`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.List(), 2)

	p, err := c.Get("  искусственный   интеллект ")
	require.NoError(t, err)
	assert.Equal(t, "599 000 ₽", p.Tuition)
	assert.Equal(t, []domain.CourseEntry{{Name: "Машинное обучение", Semester: "1"}}, p.Curriculum)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "programs.yaml", `
- title: AI Product
  url: https://abit.itmo.ru/program/master/ai_product
  language: русский
  contacts:
    email: aip@itmo.ru
  curriculum:
    - name: Продуктовая аналитика
      type: выборная
`)

	c, err := Load(path)
	require.NoError(t, err)
	p, err := c.Get("AI Product")
	require.NoError(t, err)
	assert.Equal(t, "русский", p.Language)
	assert.Equal(t, "aip@itmo.ru", p.Contacts["email"])
	assert.Equal(t, "выборная", p.Curriculum[0].Type)
}

func TestGetUnknownProgram(t *testing.T) {
	c, err := New([]domain.Program{{Title: "A"}})
	require.NoError(t, err)

	_, err = c.Get("B")
	assert.True(t, domain.IsKind(err, domain.ErrProgramNotFound))
}

func TestLoadRejectsBrokenCatalogs(t *testing.T) {
	cases := map[string]string{
		"programs.json": `{"title": "not a list"}`,
		"empty.json":    `[]`,
		"dup.json":      `[{"title": "A"}, {"title": " a "}]`,
		"blank.json":    `[{"title": "  "}]`,
		"programs.toml": `title = "A"`,
	}
	for name, body := range cases {
		_, err := Load(writeFile(t, name, body))
		assert.True(t, domain.IsKind(err, domain.ErrArtifact), "%s: %v", name, err)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, domain.IsKind(err, domain.ErrArtifact))
}

func TestListReturnsCopy(t *testing.T) {
	c, err := New([]domain.Program{{Title: "A"}})
	require.NoError(t, err)

	list := c.List()
	list[0].Title = "changed"
	p, err := c.Get("A")
	require.NoError(t, err)
	assert.Equal(t, "A", p.Title)
}
