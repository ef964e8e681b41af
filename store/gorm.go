package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrewpaige1/memocards-api/cards"
	"github.com/andrewpaige1/memocards-api/models"
)

// DBStore is the multi-user store. Imports use the server reconciler, so a
// stale imported copy never overwrites a newer card.
type DBStore struct {
	db         *gorm.DB
	reconciler cards.Reconciler

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

func NewDBStore(db *gorm.DB, maxImportCards int) *DBStore {
	r := cards.ServerReconciler()
	if maxImportCards > 0 {
		r.MaxCards = maxImportCards
	}
	return &DBStore{db: db, reconciler: r, Now: stamp, NewID: newCardID}
}

func (s *DBStore) List(ctx context.Context, userID uint) (*cards.Collection, error) {
	return loadCollection(s.db.WithContext(ctx), userID)
}

func (s *DBStore) Get(ctx context.Context, userID uint, id string) (cards.Card, error) {
	var row models.Card
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Images").
		Where("user_id = ? AND public_id = ?", userID, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cards.Card{}, cards.ErrNotFound
	}
	if err != nil {
		return cards.Card{}, fmt.Errorf("failed to load card %s: %w", id, err)
	}
	return row.ToCard(), nil
}

func (s *DBStore) Create(ctx context.Context, userID uint, draft cards.Draft) (cards.Card, error) {
	card, err := cards.NewCard(s.NewID(), draft, s.Now(), cards.ImagesURL)
	if err != nil {
		return cards.Card{}, err
	}
	cards.SortTags(card.Tags)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveCard(tx, userID, card)
	})
	if err != nil {
		return cards.Card{}, err
	}
	return card, nil
}

func (s *DBStore) Update(ctx context.Context, userID uint, id string, draft cards.Draft) (cards.Card, error) {
	var updated cards.Card
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Card
		err := tx.Preload("Tags").Preload("Images").
			Where("user_id = ? AND public_id = ?", userID, id).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cards.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load card %s: %w", id, err)
		}

		updated, err = cards.ApplyEdit(row.ToCard(), draft, s.Now(), cards.ImagesURL)
		if err != nil {
			return err
		}
		cards.SortTags(updated.Tags)
		return saveCard(tx, userID, updated)
	})
	if err != nil {
		return cards.Card{}, err
	}
	return updated, nil
}

func (s *DBStore) Delete(ctx context.Context, userID uint, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Card
		err := tx.Where("user_id = ? AND public_id = ?", userID, id).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cards.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load card %s: %w", id, err)
		}
		return deleteRows(tx, []uint{row.ID})
	})
}

// Import reconciles batch against the owner's collection and writes the result
// in one transaction.
func (s *DBStore) Import(ctx context.Context, userID uint, batch cards.Batch) (cards.ImportResult, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return cards.ImportResult{}, fmt.Errorf("could not begin transaction: %w", tx.Error)
	}

	existing, err := loadCollection(tx, userID)
	if err != nil {
		tx.Rollback()
		return cards.ImportResult{}, err
	}

	reconciler := s.reconciler
	reconciler.Now = s.Now
	_, result, err := reconciler.Reconcile(existing, batch)
	if err != nil {
		tx.Rollback()
		return cards.ImportResult{}, err
	}

	if result.Replaced {
		var ids []uint
		if err := tx.Model(&models.Card{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			tx.Rollback()
			return cards.ImportResult{}, fmt.Errorf("failed to list cards: %w", err)
		}
		if err := deleteRows(tx, ids); err != nil {
			tx.Rollback()
			return cards.ImportResult{}, err
		}
	}

	for _, card := range result.Upserts {
		if err := saveCard(tx, userID, card); err != nil {
			tx.Rollback()
			return cards.ImportResult{}, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return cards.ImportResult{}, fmt.Errorf("could not commit transaction: %w", err)
	}
	for i := range result.Cards {
		cards.SortTags(result.Cards[i].Tags)
	}
	return result, nil
}

func loadCollection(db *gorm.DB, userID uint) (*cards.Collection, error) {
	var rows []models.Card
	err := db.Preload("Tags").Preload("Images").Where("user_id = ?", userID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	list := make([]cards.Card, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.ToCard())
	}
	return cards.NewCollection(list...), nil
}

// saveCard inserts or overwrites the row for card and rewrites its tags and
// images.
func saveCard(tx *gorm.DB, userID uint, card cards.Card) error {
	var row models.Card
	err := tx.Where("user_id = ? AND public_id = ?", userID, card.ID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.Card{PublicID: card.ID, UserID: userID}
	case err != nil:
		return fmt.Errorf("failed to load card %s: %w", card.ID, err)
	}

	row.Title = card.Title
	row.Content = card.Content
	row.Version = card.Version
	row.CreatedAt = card.CreatedAt
	row.UpdatedAt = card.UpdatedAt
	if err := tx.Omit(clause.Associations).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save card %s: %w", card.ID, err)
	}

	tags, err := resolveTags(tx, card.Tags)
	if err != nil {
		return err
	}
	association := tx.Model(&row).Association("Tags")
	if len(tags) == 0 {
		err = association.Clear()
	} else {
		err = association.Replace(tags)
	}
	if err != nil {
		return fmt.Errorf("failed to save tags of card %s: %w", card.ID, err)
	}

	if err := tx.Where("card_id = ?", row.ID).Delete(&models.CardImage{}).Error; err != nil {
		return fmt.Errorf("failed to clear images of card %s: %w", card.ID, err)
	}
	if len(card.Images) > 0 {
		images := make([]models.CardImage, len(card.Images))
		for i, url := range card.Images {
			images[i] = models.CardImage{CardID: row.ID, URL: url, Position: i}
		}
		if err := tx.Create(&images).Error; err != nil {
			return fmt.Errorf("failed to save images of card %s: %w", card.ID, err)
		}
	}
	return nil
}

// resolveTags returns the tag rows for labels, creating missing ones.
func resolveTags(tx *gorm.DB, labels []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(labels))
	for _, label := range labels {
		tag := models.Tag{Label: label}
		if err := tx.Where(models.Tag{Label: label}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("failed to save tag %q: %w", label, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func deleteRows(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Exec("DELETE FROM card_tags WHERE card_id IN ?", ids).Error; err != nil {
		return fmt.Errorf("failed to delete card tags: %w", err)
	}
	if err := tx.Where("card_id IN ?", ids).Delete(&models.CardImage{}).Error; err != nil {
		return fmt.Errorf("failed to delete card images: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Card{}).Error; err != nil {
		return fmt.Errorf("failed to delete cards: %w", err)
	}
	return nil
}
