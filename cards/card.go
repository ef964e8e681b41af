// Package cards holds the card model and the pure pipeline around it: tag and
// image normalization, the search/filter/sort query, import reconciliation and
// JSON import/export. Nothing in here touches storage or the network.
package cards

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// TimeLayout is the wire form of card timestamps (ISO-8601, UTC, milliseconds).
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Card is both the persisted and the wire shape of a note.
type Card struct {
	ID        string
	Title     string
	Content   string
	Tags      []string
	Images    []string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

type cardJSON struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Images    []string `json:"images"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	Version   int      `json:"version"`
}

func (c Card) MarshalJSON() ([]byte, error) {
	tags, images := c.Tags, c.Images
	if tags == nil {
		tags = []string{}
	}
	if images == nil {
		images = []string{}
	}
	return json.Marshal(cardJSON{
		ID:        c.ID,
		Title:     c.Title,
		Content:   c.Content,
		Tags:      tags,
		Images:    images,
		CreatedAt: FormatTime(c.CreatedAt),
		UpdatedAt: FormatTime(c.UpdatedAt),
		Version:   c.Version,
	})
}

// UnmarshalJSON runs the structural record validator, so anything decoded into
// a Card is known to be well formed.
func (c *Card) UnmarshalJSON(data []byte) error {
	card, err := DecodeRecord(data)
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// Clone returns a copy that shares no slices with c.
func (c Card) Clone() Card {
	c.Tags = slices.Clone(c.Tags)
	c.Images = slices.Clone(c.Images)
	return c
}

// SameContent reports whether both cards carry the same title, content, tag set
// and image list. Identity, timestamps and version are ignored.
func (c Card) SameContent(other Card) bool {
	if c.Title != other.Title || c.Content != other.Content {
		return false
	}
	if !slices.Equal(c.Images, other.Images) {
		return false
	}
	if len(c.Tags) != len(other.Tags) {
		return false
	}
	a, b := slices.Clone(c.Tags), slices.Clone(other.Tags)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// Draft is the user-editable part of a card, as sent by create and edit forms.
type Draft struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Images  []string `json:"images"`
}

func (d Draft) Validate() error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return invalid("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return invalid("title", "must be at most 160 characters")
	}
	if strings.TrimSpace(d.Content) == "" {
		return invalid("content", "must not be empty")
	}
	return nil
}

// NewCard builds a version 1 card from a validated draft.
func NewCard(id string, d Draft, now time.Time, mode ImageMode) (Card, error) {
	if err := d.Validate(); err != nil {
		return Card{}, err
	}
	now = Stamp(now)
	return Card{
		ID:        id,
		Title:     strings.TrimSpace(d.Title),
		Content:   d.Content,
		Tags:      NormalizeTags(d.Tags),
		Images:    NormalizeImages(d.Images, mode),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}, nil
}

// ApplyEdit returns card with the draft applied, its version bumped by one and
// updatedAt moved to now.
func ApplyEdit(card Card, d Draft, now time.Time, mode ImageMode) (Card, error) {
	if err := d.Validate(); err != nil {
		return Card{}, err
	}
	next := card.Clone()
	next.Title = strings.TrimSpace(d.Title)
	next.Content = d.Content
	next.Tags = NormalizeTags(d.Tags)
	next.Images = NormalizeImages(d.Images, mode)
	next.Version = card.Version + 1
	next.UpdatedAt = laterOf(Stamp(now), card.CreatedAt)
	return next, nil
}

// Stamp normalizes a timestamp to UTC with millisecond precision, the
// resolution of the wire format.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps with or without fractional seconds,
// zone-less date-times (read as UTC) and plain dates.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Stamp(t), true
		}
	}
	return time.Time{}, false
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
