package cards

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportDocument(t *testing.T) {
	c := card("a", "Paris", []string{"villes"}, "2024-01-01")
	c.Tags = nil
	data, err := Export([]Card{c}, fixedNow, false)
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "{\n  \"exportedAt\": \"2025-03-15T10:00:00.000Z\""), out)
	assert.Contains(t, out, `"updatedAt": "2024-01-01T00:00:00.000Z"`)
	assert.Contains(t, out, `"tags": []`)

	var doc struct {
		Cards []Card `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Paris", doc.Cards[0].Title)
}

func TestExportBare(t *testing.T) {
	data, err := Export(nil, fixedNow, true)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = Export([]Card{card("a", "A", nil, "2024-01-01")}, fixedNow, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"id\": \"a\""))
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "cartes-memoires-2025-03-15.json", ExportFilename("", fixedNow))
	assert.Equal(t, "backup-2025-03-15.json", ExportFilename("backup", fixedNow))
}
