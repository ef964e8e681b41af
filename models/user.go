package models

import "gorm.io/gorm"

// User represents an account owning cards
type User struct {
	gorm.Model
	// Subject is the token subject: "local|<id>" for session accounts, the
	// Auth0 user id otherwise.
	Subject      string  `gorm:"uniqueIndex;not null;size:191" json:"subject"`
	Email        *string `gorm:"uniqueIndex;size:191" json:"email,omitempty"`
	Name         string  `gorm:"size:100" json:"name"`
	PasswordHash string  `gorm:"size:100" json:"-"`
	Cards        []Card  `json:"-"`
}
