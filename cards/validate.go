package cards

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Strategy decides what happens to the existing collection on import.
type Strategy string

const (
	StrategyMerge   Strategy = "merge"
	StrategyReplace Strategy = "replace"
)

// DefaultMaxImportCards bounds the size of a single import batch.
const DefaultMaxImportCards = 500

// ParseStrategy maps a user supplied value to a Strategy; empty means merge.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.TrimSpace(s)) {
	case "", StrategyMerge:
		return StrategyMerge, nil
	case StrategyReplace:
		return StrategyReplace, nil
	}
	return "", invalid("strategy", fmt.Sprintf("unknown strategy %q", s))
}

// Batch is a validated import payload.
type Batch struct {
	Cards    []Card
	Strategy Strategy
	// StrategySet is true when the payload named a strategy itself.
	StrategySet bool
}

// ParseImport decodes an import file: either a bare array of cards or an
// object {"cards": [...], "strategy": "merge"|"replace"}. Every record must
// pass DecodeRecord; the first failure rejects the whole batch. A batch larger
// than maxCards is rejected before any record is examined.
func ParseImport(data []byte, maxCards int) (Batch, error) {
	if maxCards <= 0 {
		maxCards = DefaultMaxImportCards
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return Batch{}, ErrMalformedJSON
	}

	batch := Batch{Strategy: StrategyMerge}
	var records []json.RawMessage
	switch {
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return Batch{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
	case len(data) > 0 && data[0] == '{':
		var envelope struct {
			Cards    *[]json.RawMessage `json:"cards"`
			Strategy *string            `json:"strategy"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return Batch{}, invalid("cards", "must be an array of cards")
		}
		if envelope.Cards == nil {
			return Batch{}, invalid("cards", "is required")
		}
		records = *envelope.Cards
		if envelope.Strategy != nil {
			strategy, err := ParseStrategy(*envelope.Strategy)
			if err != nil {
				return Batch{}, err
			}
			batch.Strategy = strategy
			batch.StrategySet = true
		}
	default:
		return Batch{}, invalid("", "import must be an array of cards or an object with a cards array")
	}

	if len(records) > maxCards {
		return Batch{}, fmt.Errorf("%w: %d cards, at most %d allowed", ErrTooManyCards, len(records), maxCards)
	}

	batch.Cards = make([]Card, 0, len(records))
	for i, raw := range records {
		card, err := DecodeRecord(raw)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Index = i
			}
			return Batch{}, err
		}
		batch.Cards = append(batch.Cards, card)
	}
	return batch, nil
}

// DecodeRecord checks one card-shaped JSON record field by field and returns
// the typed card. Tags and images come back exactly as sent; normalization is
// the reconciler's job.
func DecodeRecord(raw []byte) (Card, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Card{}, invalid("", "card must be an object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Card{}, invalid("", "card must be an object")
	}

	var card Card
	var err error
	if card.ID, err = requiredString(fields, "id"); err != nil {
		return Card{}, err
	}
	if strings.TrimSpace(card.ID) == "" {
		return Card{}, invalid("id", "must not be empty")
	}
	if card.Title, err = requiredString(fields, "title"); err != nil {
		return Card{}, err
	}
	if strings.TrimSpace(card.Title) == "" {
		return Card{}, invalid("title", "must not be empty")
	}
	if utf8.RuneCountInString(card.Title) > MaxTitleLength {
		return Card{}, invalid("title", "must be at most 160 characters")
	}
	if card.Content, err = requiredString(fields, "content"); err != nil {
		return Card{}, err
	}
	if strings.TrimSpace(card.Content) == "" {
		return Card{}, invalid("content", "must not be empty")
	}
	if card.CreatedAt, err = requiredTime(fields, "createdAt"); err != nil {
		return Card{}, err
	}
	if card.UpdatedAt, err = requiredTime(fields, "updatedAt"); err != nil {
		return Card{}, err
	}
	if card.UpdatedAt.Before(card.CreatedAt) {
		card.UpdatedAt = card.CreatedAt
	}
	if card.Tags, err = stringList(fields, "tags", true); err != nil {
		return Card{}, err
	}
	if card.Images, err = stringList(fields, "images", false); err != nil {
		return Card{}, err
	}
	if card.Version, err = optionalVersion(fields); err != nil {
		return Card{}, err
	}
	return card, nil
}

func requiredString(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", invalid(name, "is required")
	}
	var s string
	if !isJSONString(raw) || json.Unmarshal(raw, &s) != nil {
		return "", invalid(name, "must be a string")
	}
	return s, nil
}

func requiredTime(fields map[string]json.RawMessage, name string) (time.Time, error) {
	s, err := requiredString(fields, name)
	if err != nil {
		return time.Time{}, err
	}
	parsed, ok := ParseTime(s)
	if !ok {
		return time.Time{}, invalid(name, "must be a valid date")
	}
	return parsed, nil
}

func stringList(fields map[string]json.RawMessage, name string, required bool) ([]string, error) {
	raw, ok := fields[name]
	if !ok || (!required && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))) {
		if required {
			return nil, invalid(name, "is required")
		}
		return []string{}, nil
	}
	var items []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' || json.Unmarshal(trimmed, &items) != nil {
		return nil, invalid(name, "must be an array of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if !isJSONString(item) || json.Unmarshal(item, &s) != nil {
			return nil, invalid(name, "must be an array of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

// optionalVersion returns 0 when the record carries no version.
func optionalVersion(fields map[string]json.RawMessage) (int, error) {
	raw, ok := fields["version"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, nil
	}
	var n json.Number
	if isJSONString(raw) || json.Unmarshal(raw, &n) != nil {
		return 0, invalid("version", "must be a positive integer")
	}
	v, err := n.Int64()
	if err != nil || v <= 0 || v > int64(^uint32(0)>>1) {
		return 0, invalid("version", "must be a positive integer")
	}
	return int(v), nil
}

func isJSONString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}
