package models

// CardImage is one entry of a card's ordered image list.
type CardImage struct {
	ID       uint   `gorm:"primarykey"`
	CardID   uint   `gorm:"not null;index"`
	URL      string `gorm:"not null;type:text"`
	Position int    `gorm:"not null"`
}
