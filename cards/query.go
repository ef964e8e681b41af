package cards

import (
	"fmt"
	"slices"
	"strings"
)

// SortCriteria is the ordering applied to the visible list.
type SortCriteria string

const (
	SortDateDesc  SortCriteria = "date-desc"
	SortDateAsc   SortCriteria = "date-asc"
	SortAlphaAsc  SortCriteria = "alpha-asc"
	SortAlphaDesc SortCriteria = "alpha-desc"
)

// ParseSort maps a query-string value to a SortCriteria; empty means date-desc.
func ParseSort(s string) (SortCriteria, error) {
	switch SortCriteria(strings.TrimSpace(s)) {
	case "", SortDateDesc:
		return SortDateDesc, nil
	case SortDateAsc:
		return SortDateAsc, nil
	case SortAlphaAsc:
		return SortAlphaAsc, nil
	case SortAlphaDesc:
		return SortAlphaDesc, nil
	}
	return "", &ValidationError{Index: -1, Field: "sort", Reason: fmt.Sprintf("unknown sort %q", s)}
}

// Query is the UI state that turns the full collection into the visible list.
type Query struct {
	Search string
	Tags   []string
	Sort   SortCriteria
}

// Matches reports whether card satisfies both the search term and the tag filter.
func (q Query) Matches(card Card) bool {
	return matchesSearch(card, Fold(q.Search), strings.TrimSpace(q.Search) == "") &&
		matchesTags(card, q.Tags)
}

// Apply filters cards with q and returns a newly allocated, sorted slice.
// The input is left untouched.
func Apply(cards []Card, q Query) []Card {
	out := make([]Card, 0, len(cards))
	for _, card := range cards {
		if q.Matches(card) {
			out = append(out, card)
		}
	}
	SortCards(out, q.Sort)
	return out
}

func matchesSearch(card Card, term string, all bool) bool {
	if all {
		return true
	}
	if strings.Contains(Fold(card.Title), term) || strings.Contains(Fold(card.Content), term) {
		return true
	}
	for _, tag := range card.Tags {
		if strings.Contains(Fold(tag), term) {
			return true
		}
	}
	return false
}

// matchesTags applies AND semantics with exact, case-sensitive labels.
func matchesTags(card Card, selected []string) bool {
	for _, tag := range selected {
		if !slices.Contains(card.Tags, tag) {
			return false
		}
	}
	return true
}

// SortCards sorts in place. The sort is stable, so equal keys keep their
// relative input order.
func SortCards(cards []Card, by SortCriteria) {
	switch by {
	case SortDateAsc:
		slices.SortStableFunc(cards, func(a, b Card) int {
			return a.UpdatedAt.Compare(b.UpdatedAt)
		})
	case SortAlphaAsc:
		c := newCollator()
		slices.SortStableFunc(cards, func(a, b Card) int {
			return c.CompareString(a.Title, b.Title)
		})
	case SortAlphaDesc:
		c := newCollator()
		slices.SortStableFunc(cards, func(a, b Card) int {
			return c.CompareString(b.Title, a.Title)
		})
	default:
		slices.SortStableFunc(cards, func(a, b Card) int {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		})
	}
}

// AvailableTags returns every distinct tag across cards, French-collated.
func AvailableTags(cards []Card) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, card := range cards {
		for _, tag := range card.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	SortTags(tags)
	return tags
}

// SplitTags parses a comma separated tag list as sent in query strings.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
