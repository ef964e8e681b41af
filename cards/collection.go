package cards

import (
	"slices"
	"strings"
)

// Collection is the set of cards owned by one scope, keyed by id. Every
// mutation bumps Revision. A Collection is not safe for concurrent use; its
// owner serializes writers.
type Collection struct {
	byID     map[string]Card
	revision uint64

	tags    []string
	tagsRev uint64
}

func NewCollection(cards ...Card) *Collection {
	c := &Collection{byID: make(map[string]Card, len(cards))}
	for _, card := range cards {
		c.byID[card.ID] = card.Clone()
	}
	c.revision = 1
	return c
}

func (c *Collection) Len() int {
	return len(c.byID)
}

func (c *Collection) Revision() uint64 {
	return c.revision
}

func (c *Collection) Get(id string) (Card, bool) {
	card, ok := c.byID[id]
	if !ok {
		return Card{}, false
	}
	return card.Clone(), true
}

// Put inserts or replaces the card with the same id.
func (c *Collection) Put(card Card) {
	c.byID[card.ID] = card.Clone()
	c.revision++
}

func (c *Collection) Delete(id string) bool {
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	c.revision++
	return true
}

// Clear removes every card.
func (c *Collection) Clear() {
	clear(c.byID)
	c.revision++
}

// Clone returns an independent copy carrying the same revision.
func (c *Collection) Clone() *Collection {
	out := &Collection{byID: make(map[string]Card, len(c.byID)), revision: c.revision}
	for id, card := range c.byID {
		out.byID[id] = card.Clone()
	}
	return out
}

// Cards returns a snapshot ordered by updatedAt descending, ties broken by id
// so the base order never depends on map iteration.
func (c *Collection) Cards() []Card {
	out := make([]Card, 0, len(c.byID))
	for _, card := range c.byID {
		out = append(out, card.Clone())
	}
	slices.SortFunc(out, func(a, b Card) int {
		if n := b.UpdatedAt.Compare(a.UpdatedAt); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// AvailableTags is the tag universe of the whole collection. It is recomputed
// only when the revision changed since the last call.
func (c *Collection) AvailableTags() []string {
	if c.tags == nil || c.tagsRev != c.revision {
		c.tags = AvailableTags(c.Cards())
		c.tagsRev = c.revision
	}
	return slices.Clone(c.tags)
}

// Query runs the search/filter/sort pipeline over the collection.
func (c *Collection) Query(q Query) []Card {
	return Apply(c.Cards(), q)
}
