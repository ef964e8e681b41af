package cards

import (
	"fmt"
	"time"
)

// ConflictPolicy decides what happens when an imported card collides with an
// existing card of the same id under the merge strategy.
type ConflictPolicy string

const (
	// PolicyOverwrite always takes the imported copy (single device).
	PolicyOverwrite ConflictPolicy = "overwrite"
	// PolicyLastWriteWins keeps the existing card when it was updated strictly
	// later than the imported copy (multi device).
	PolicyLastWriteWins ConflictPolicy = "last-write-wins"
)

func ParsePolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case PolicyOverwrite:
		return PolicyOverwrite, nil
	case PolicyLastWriteWins, "lww":
		return PolicyLastWriteWins, nil
	}
	return "", invalid("policy", fmt.Sprintf("unknown conflict policy %q", s))
}

// Reconciler merges an incoming batch into an existing collection.
type Reconciler struct {
	Policy ConflictPolicy
	Images ImageMode
	// KeepIncomingTimestamps copies createdAt/updatedAt from the imported
	// record on overwrite. Otherwise updatedAt becomes Now and createdAt is kept.
	KeepIncomingTimestamps bool
	MaxCards               int
	Now                    func() time.Time
}

// LocalReconciler is the offline variant: imported copies are authoritative.
func LocalReconciler() Reconciler {
	return Reconciler{
		Policy:                 PolicyOverwrite,
		Images:                 ImagesEmbedded,
		KeepIncomingTimestamps: true,
		MaxCards:               DefaultMaxImportCards,
		Now:                    time.Now,
	}
}

// ServerReconciler is the synced variant with stale-write protection.
func ServerReconciler() Reconciler {
	return Reconciler{
		Policy:   PolicyLastWriteWins,
		Images:   ImagesURL,
		MaxCards: DefaultMaxImportCards,
		Now:      time.Now,
	}
}

// ImportResult reports what an import did.
type ImportResult struct {
	Strategy  Strategy
	Created   int
	Updated   int
	Skipped   int
	Unchanged int
	// Cards is the full merged collection, most recently updated first.
	Cards []Card
	// Upserts lists the cards a store has to write, in first-seen order.
	Upserts []Card
	// Replaced is set when the existing collection was discarded first.
	Replaced bool
}

// Reconcile returns the merged collection. existing is never modified, so a
// failed import leaves it exactly as it was.
func (r Reconciler) Reconcile(existing *Collection, batch Batch) (*Collection, ImportResult, error) {
	maxCards := r.MaxCards
	if maxCards <= 0 {
		maxCards = DefaultMaxImportCards
	}
	if len(batch.Cards) > maxCards {
		return nil, ImportResult{}, fmt.Errorf("%w: %d cards, at most %d allowed", ErrTooManyCards, len(batch.Cards), maxCards)
	}
	strategy := batch.Strategy
	if strategy == "" {
		strategy = StrategyMerge
	}
	if strategy != StrategyMerge && strategy != StrategyReplace {
		return nil, ImportResult{}, invalid("strategy", fmt.Sprintf("unknown strategy %q", strategy))
	}
	policy := r.Policy
	if policy == "" {
		policy = PolicyLastWriteWins
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	working := NewCollection()
	if existing != nil {
		working = existing.Clone()
	}
	result := ImportResult{Strategy: strategy}
	if strategy == StrategyReplace {
		working.Clear()
		result.Replaced = true
	}

	upserts := make(map[string]int)
	record := func(card Card) {
		if i, ok := upserts[card.ID]; ok {
			result.Upserts[i] = card
			return
		}
		upserts[card.ID] = len(result.Upserts)
		result.Upserts = append(result.Upserts, card)
	}

	for _, in := range batch.Cards {
		in.Tags = NormalizeTags(in.Tags)
		in.Images = NormalizeImages(in.Images, r.Images)
		in.CreatedAt = Stamp(in.CreatedAt)
		in.UpdatedAt = laterOf(Stamp(in.UpdatedAt), in.CreatedAt)

		current, ok := working.Get(in.ID)
		if !ok {
			if in.Version <= 0 {
				in.Version = 1
			}
			working.Put(in)
			record(in)
			result.Created++
			continue
		}

		// Timestamps only guard merges; inside a replace batch a later
		// duplicate id simply wins.
		if strategy == StrategyMerge && policy == PolicyLastWriteWins && current.UpdatedAt.After(in.UpdatedAt) {
			result.Skipped++
			continue
		}
		if current.SameContent(in) && (!r.KeepIncomingTimestamps || sameTimestamps(current, in)) {
			result.Unchanged++
			continue
		}

		next := current.Clone()
		next.Title = in.Title
		next.Content = in.Content
		next.Tags = in.Tags
		next.Images = in.Images
		next.Version = max(current.Version+1, in.Version)
		if r.KeepIncomingTimestamps {
			next.CreatedAt = in.CreatedAt
			next.UpdatedAt = in.UpdatedAt
		} else {
			next.UpdatedAt = laterOf(Stamp(now()), next.CreatedAt)
		}
		working.Put(next)
		record(next)
		result.Updated++
	}

	result.Cards = working.Cards()
	return working, result, nil
}

func sameTimestamps(a, b Card) bool {
	return a.CreatedAt.Equal(b.CreatedAt) && a.UpdatedAt.Equal(b.UpdatedAt)
}
