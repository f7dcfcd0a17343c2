package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1       string
		s2       string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Dummy", "Dumy", 1},
		{"price", "prices", 1},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevenshteinDistance(tt.s1, tt.s2))
		})
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Dummy", "RelatedDummy", "ThirdLevel", "FourthLevel"}

	assert.Equal(t, []string{"Dummy"}, FindSimilar("Dumy", candidates, nil))
	assert.Equal(t, []string{"Dummy"}, FindSimilar("dummy", candidates, nil))
	assert.Empty(t, FindSimilar("DUMMY", candidates, &FuzzyMatchOptions{CaseSensitive: true}))
	assert.Empty(t, FindSimilar("Order", candidates, nil))
	assert.Equal(t, []string{"Dummy", "RelatedDummy"}, FindSimilar("Dumm", candidates, &FuzzyMatchOptions{MaxDistance: 8}))
	assert.Len(t, FindSimilar("Level", []string{"Levels", "Level1", "Level2", "Level3"}, &FuzzyMatchOptions{MaxSuggestions: 2}), 2)
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"Parameter", "Type"}, &TableOptions{NoColor: true})
	table.AddRow("price[gt]", "string")
	table.AddRow("quantity", "int")
	table.Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{
		"Parameter  Type  ",
		"─────────  ──────",
		"price[gt]  string",
		"quantity   int",
	}, lines)
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewKeyValueTable(&buf, true)
	table.AddRow("Resource", "Dummy")
	table.AddRow("SQL", "SELECT o.* FROM dummies o")
	table.Render()

	assert.Equal(t, "Resource: Dummy\nSQL:      SELECT o.* FROM dummies o\n", buf.String())
}

func TestSection(t *testing.T) {
	var buf bytes.Buffer
	section := NewSection(&buf, "Parameters", true)
	section.AddLine("quantity_p1 = 10")
	section.Render()

	assert.Equal(t, "Parameters\n  quantity_p1 = 10\n\n", buf.String())
}

func TestFormatError(t *testing.T) {
	out := ResourceNotFoundError("Dumy", []string{"Dummy", "RelatedDummy"}, true)

	assert.Contains(t, out, "❌ RESOURCE NOT FOUND: Cannot find resource 'Dumy'.")
	assert.Contains(t, out, "Did you mean: Dummy?")
	assert.Contains(t, out, "→ See all resources: filterkit resources")

	out = ConnectionError("sql", "dial tcp: refused", true)
	assert.Contains(t, out, "No sql query was run.")

	out = Warning("no filters configured", true)
	assert.True(t, strings.HasPrefix(out, "⚠️ no filters configured"))

	assert.Equal(t, "✓ done", FormatSuccess("done", true))
}
