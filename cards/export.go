package cards

import (
	"encoding/json"
	"time"
)

// DefaultExportPrefix names export files: cartes-memoires-YYYY-MM-DD.json.
const DefaultExportPrefix = "cartes-memoires"

// Document is the export envelope.
type Document struct {
	ExportedAt time.Time
	Cards      []Card
}

func (d Document) MarshalJSON() ([]byte, error) {
	cards := d.Cards
	if cards == nil {
		cards = []Card{}
	}
	return json.Marshal(struct {
		ExportedAt string `json:"exportedAt"`
		Cards      []Card `json:"cards"`
	}{FormatTime(d.ExportedAt), cards})
}

// Export renders cards with two-space indentation, either as a bare array or
// wrapped in a Document stamped with now.
func Export(cards []Card, now time.Time, bare bool) ([]byte, error) {
	if cards == nil {
		cards = []Card{}
	}
	if bare {
		return json.MarshalIndent(cards, "", "  ")
	}
	return json.MarshalIndent(Document{ExportedAt: Stamp(now), Cards: cards}, "", "  ")
}

func ExportFilename(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultExportPrefix
	}
	return prefix + "-" + now.UTC().Format("2006-01-02") + ".json"
}
