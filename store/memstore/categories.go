// Package memstore is an in-memory implementation of the catalog stores,
// used by tests and by STORE_DRIVER=memory for local runs.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
)

type CategoryStore struct {
	mu         sync.RWMutex
	categories map[string]models.Category
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{categories: make(map[string]models.Category)}
}

func (s *CategoryStore) Create(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Slug == category.Slug {
			return store.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	category.ID = uuid.NewString()
	category.CreatedAt = now
	category.UpdatedAt = now
	s.categories[category.ID] = *category
	return nil
}

func (s *CategoryStore) Update(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[category.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, c := range s.categories {
		if id != category.ID && c.Slug == category.Slug {
			return store.ErrDuplicate
		}
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = time.Now().UTC()
	s.categories[category.ID] = *category
	return nil
}

func (s *CategoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *CategoryStore) GetByID(_ context.Context, id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *CategoryStore) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	return s.findOne(func(c models.Category) bool { return c.Slug == slug })
}

func (s *CategoryStore) GetByName(_ context.Context, name string) (*models.Category, error) {
	return s.findOne(func(c models.Category) bool { return c.Name == name })
}

func (s *CategoryStore) FindByIDs(_ context.Context, ids []string) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CategoryStore) List(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Category) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *CategoryStore) findOne(match func(models.Category) bool) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if match(c) {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}
