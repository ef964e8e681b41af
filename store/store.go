// Package store persists card collections. DBStore keeps every user's cards in
// a relational database through GORM; LocalStore keeps a single collection in a
// JSON file for offline use.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andrewpaige1/memocards-api/cards"
)

// CardStore is implemented by every backend. All operations are scoped to the
// owner identified by userID.
type CardStore interface {
	// List returns the owner's whole collection.
	List(ctx context.Context, userID uint) (*cards.Collection, error)
	Get(ctx context.Context, userID uint, id string) (cards.Card, error)
	Create(ctx context.Context, userID uint, draft cards.Draft) (cards.Card, error)
	Update(ctx context.Context, userID uint, id string, draft cards.Draft) (cards.Card, error)
	Delete(ctx context.Context, userID uint, id string) error
	Import(ctx context.Context, userID uint, batch cards.Batch) (cards.ImportResult, error)
}

var (
	_ CardStore = (*DBStore)(nil)
	_ CardStore = (*LocalStore)(nil)
)

func newCardID() string {
	return uuid.NewString()
}

func stamp() time.Time {
	return cards.Stamp(time.Now())
}
