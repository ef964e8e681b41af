package models

// Tag is a label shared by every card carrying it.
type Tag struct {
	ID    uint   `gorm:"primarykey"`
	Label string `gorm:"uniqueIndex;not null;size:191"`
}
