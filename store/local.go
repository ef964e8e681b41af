package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrewpaige1/memocards-api/cards"
)

// DefaultLocalFile is the file name used when no path is configured.
const DefaultLocalFile = "flashcards-storage-v1.json"

// LocalStore keeps one collection in a JSON file. The file is read once when
// the store is opened and rewritten in full after every mutation. Images are
// kept as given, data URIs included. The owner id is ignored.
type LocalStore struct {
	mu         sync.Mutex
	path       string
	collection *cards.Collection
	reconciler cards.Reconciler
	log        *zap.Logger

	Now   func() time.Time
	NewID func() string
}

// OpenLocal loads the collection at path. A missing file is an empty
// collection; an unreadable or invalid one is an error.
func OpenLocal(path string, policy cards.ConflictPolicy, log *zap.Logger) (*LocalStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := cards.LocalReconciler()
	if policy != "" {
		r.Policy = policy
	}

	s := &LocalStore{
		path:       path,
		collection: cards.NewCollection(),
		reconciler: r,
		log:        log,
		Now:        stamp,
		NewID:      newCardID,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug("local store: no file yet", zap.String("path", path))
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var list []cards.Card
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i := range list {
		list[i] = normalizeLoaded(list[i])
	}
	s.collection = cards.NewCollection(list...)
	log.Debug("local store: loaded", zap.String("path", path), zap.Int("cards", len(list)))
	return s, nil
}

// normalizeLoaded brings a card read from disk back to the stored form.
// Files written by older clients carry no version and raw tag lists.
func normalizeLoaded(card cards.Card) cards.Card {
	card.Tags = cards.NormalizeTags(card.Tags)
	card.Images = cards.NormalizeImages(card.Images, cards.ImagesEmbedded)
	if card.Version <= 0 {
		card.Version = 1
	}
	return card
}

func (s *LocalStore) Path() string {
	return s.path
}

func (s *LocalStore) Policy() cards.ConflictPolicy {
	return s.reconciler.Policy
}

func (s *LocalStore) List(ctx context.Context, _ uint) (*cards.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.Clone(), nil
}

func (s *LocalStore) Get(ctx context.Context, _ uint, id string) (cards.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.collection.Get(id)
	if !ok {
		return cards.Card{}, cards.ErrNotFound
	}
	return card, nil
}

func (s *LocalStore) Create(ctx context.Context, _ uint, draft cards.Draft) (cards.Card, error) {
	card, err := cards.NewCard(s.NewID(), draft, s.Now(), cards.ImagesEmbedded)
	if err != nil {
		return cards.Card{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection.Put(card)
	return card, s.flush()
}

func (s *LocalStore) Update(ctx context.Context, _ uint, id string, draft cards.Draft) (cards.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.collection.Get(id)
	if !ok {
		return cards.Card{}, cards.ErrNotFound
	}
	updated, err := cards.ApplyEdit(current, draft, s.Now(), cards.ImagesEmbedded)
	if err != nil {
		return cards.Card{}, err
	}
	s.collection.Put(updated)
	return updated, s.flush()
}

func (s *LocalStore) Delete(ctx context.Context, _ uint, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.collection.Delete(id) {
		return cards.ErrNotFound
	}
	return s.flush()
}

func (s *LocalStore) Import(ctx context.Context, _ uint, batch cards.Batch) (cards.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reconciler := s.reconciler
	reconciler.Now = s.Now
	merged, result, err := reconciler.Reconcile(s.collection, batch)
	if err != nil {
		return cards.ImportResult{}, err
	}
	s.collection = merged
	return result, s.flush()
}

// flush rewrites the file atomically. On failure the in-memory collection is
// kept and the error returned. Callers hold mu.
func (s *LocalStore) flush() error {
	data, err := cards.Export(s.collection.Cards(), time.Time{}, true)
	if err != nil {
		return fmt.Errorf("failed to encode cards: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		s.log.Error("local store: write failed", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
