package models

import (
	"time"

	"github.com/andrewpaige1/memocards-api/cards"
)

// Card is the stored form of a cards.Card. PublicID is the card id clients see;
// it is unique per owner only.
type Card struct {
	ID        uint      `gorm:"primarykey"`
	PublicID  string    `gorm:"not null;size:64;uniqueIndex:idx_cards_user_public"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cards_user_public"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Title     string    `gorm:"not null;size:200"`
	Content   string    `gorm:"not null;type:text"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;index;autoUpdateTime:false"`

	Tags   []Tag       `gorm:"many2many:card_tags"`
	Images []CardImage `gorm:"constraint:OnDelete:CASCADE"`
}

// ToCard converts a row (with Tags and Images preloaded) to the core type.
func (c Card) ToCard() cards.Card {
	tags := make([]string, 0, len(c.Tags))
	for _, tag := range c.Tags {
		tags = append(tags, tag.Label)
	}
	cards.SortTags(tags)

	images := make([]string, len(c.Images))
	for _, img := range c.Images {
		if img.Position >= 0 && img.Position < len(images) {
			images[img.Position] = img.URL
		}
	}

	return cards.Card{
		ID:        c.PublicID,
		Title:     c.Title,
		Content:   c.Content,
		Tags:      tags,
		Images:    images,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
		Version:   c.Version,
	}
}
