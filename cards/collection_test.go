package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionBasics(t *testing.T) {
	c := NewCollection(card("a", "A", []string{"x"}, "2024-01-01"))
	rev := c.Revision()

	got, ok := c.Get("a")
	require.True(t, ok)
	got.Tags[0] = "mutated"
	again, _ := c.Get("a")
	assert.Equal(t, "x", again.Tags[0], "Get must return a copy")

	c.Put(card("b", "B", nil, "2024-02-01"))
	assert.Equal(t, 2, c.Len())
	assert.Greater(t, c.Revision(), rev)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, []string{"b"}, ids(c.Cards()))
}

func TestCollectionCardsOrder(t *testing.T) {
	c := NewCollection(
		card("b", "B", nil, "2024-01-01"),
		card("a", "A", nil, "2024-01-01"),
		card("c", "C", nil, "2024-05-01"),
	)
	assert.Equal(t, []string{"c", "a", "b"}, ids(c.Cards()))
}

func TestCollectionCloneIsIndependent(t *testing.T) {
	c := NewCollection(card("a", "A", nil, "2024-01-01"))
	clone := c.Clone()
	clone.Put(card("b", "B", nil, "2024-01-01"))
	clone.Delete("a")

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("a")
	assert.True(t, ok)
}

func TestCollectionAvailableTagsFollowsRevision(t *testing.T) {
	c := NewCollection(card("a", "A", []string{"villes"}, "2024-01-01"))
	assert.Equal(t, []string{"villes"}, c.AvailableTags())

	// query state changes do not touch the collection
	_ = c.Query(Query{Search: "zzz", Tags: []string{"villes"}})
	assert.Equal(t, []string{"villes"}, c.AvailableTags())

	c.Put(card("b", "B", []string{"cuisine"}, "2024-01-02"))
	assert.Equal(t, []string{"cuisine", "villes"}, c.AvailableTags())

	c.Clear()
	assert.Empty(t, c.AvailableTags())
}
