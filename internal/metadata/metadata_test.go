package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	raw := []byte(`
source: public website
languages: [EN, JP, NL]
make: Epson
model: EcoTank L3560
description: |
  Print: 15 ppm
  Free support included
`)
	doc, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "public website", doc.Source)
	assert.Equal(t, "Epson", doc.Brand)
	assert.Equal(t, "EcoTank L3560", doc.Model)
	assert.Equal(t, []string{"EN", "JP", "NL"}, doc.Languages)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("not: valid: yaml: ["))
	assert.Error(t, err)
}

func TestDistillExcludesPromotionalLines(t *testing.T) {
	facts := Distill("Print: 15 ppm\nFree support included\nColor: Black")
	assert.Equal(t, "15 ppm", facts["print"])
	assert.Equal(t, "Black", facts["color"])
	assert.Len(t, facts, 2, "expected promotional line dropped")
}

func TestDistillDropsLongValues(t *testing.T) {
	facts := Distill("Notes: " + strings.Repeat("x", 150))
	_, ok := facts["notes"]
	assert.False(t, ok, "expected long value to be dropped")
}
