package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
)

type productEntry struct {
	product models.Product
	seq     int
}

// ProductStore keeps products in memory. It is safe for concurrent use.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]productEntry
	nextSeq  int
	now      func() time.Time
}

func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make(map[string]productEntry),
		now:      time.Now,
	}
}

// SetClock replaces the timestamp source; tests use it to control createdAt.
func (s *ProductStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *ProductStore) Find(_ context.Context, q store.ProductQuery) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make(map[string]bool, len(q.CategoryIDs))
	for _, id := range q.CategoryIDs {
		categories[id] = true
	}
	keyword := strings.ToLower(q.Keyword)

	matched := make([]productEntry, 0)
	for _, e := range s.products {
		p := e.product
		if len(categories) > 0 && !categories[p.CategoryID] {
			continue
		}
		if q.Price != nil && (p.Price < q.Price.Min || p.Price > q.Price.Max) {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.Description), keyword) {
			continue
		}
		if q.ExcludeID != "" && p.ID == q.ExcludeID {
			continue
		}
		matched = append(matched, e)
	}

	slices.SortFunc(matched, func(a, b productEntry) int {
		if q.Sort == store.SortNewest {
			if c := b.product.CreatedAt.Compare(a.product.CreatedAt); c != 0 {
				return c
			}
			return b.seq - a.seq
		}
		return a.seq - b.seq
	})

	start := min(int(max(q.Skip, 0)), len(matched))
	matched = matched[start:]
	if q.Limit > 0 && int(q.Limit) < len(matched) {
		matched = matched[:q.Limit]
	}

	out := make([]models.Product, 0, len(matched))
	for _, e := range matched {
		out = append(out, copyProduct(e.product, q.WithImage))
	}
	return out, nil
}

func (s *ProductStore) GetByID(_ context.Context, id string, withImage bool) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p := copyProduct(e.product, withImage)
	return &p, nil
}

func (s *ProductStore) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *productEntry
	for _, e := range s.products {
		if e.product.Slug == slug && (found == nil || e.seq < found.seq) {
			found = &e
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	p := copyProduct(found.product, false)
	return &p, nil
}

func (s *ProductStore) GetImage(_ context.Context, id string) (*models.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if e.product.Image.IsEmpty() {
		return nil, nil
	}
	img := copyImage(e.product.Image)
	return img, nil
}

func (s *ProductStore) EstimatedCount(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}

func (s *ProductStore) CountByCategory(_ context.Context, categoryID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.products {
		if e.product.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *ProductStore) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now

	s.nextSeq++
	s.products[product.ID] = productEntry{product: copyProduct(*product, true), seq: s.nextSeq}
	return nil
}

func (s *ProductStore) Update(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.products[product.ID]
	if !ok {
		return store.ErrNotFound
	}
	updated := copyProduct(*product, true)
	updated.CreatedAt = e.product.CreatedAt
	updated.UpdatedAt = s.now().UTC()
	updated.Category = nil
	if product.Image == nil {
		updated.Image = e.product.Image
	}
	e.product = updated
	s.products[product.ID] = e

	product.CreatedAt = updated.CreatedAt
	product.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *ProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *ProductStore) DeleteByCategory(_ context.Context, categoryID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, e := range s.products {
		if e.product.CategoryID == categoryID {
			delete(s.products, id)
			n++
		}
	}
	return n, nil
}

func copyProduct(p models.Product, withImage bool) models.Product {
	out := p
	out.Category = nil
	if p.Shipping != nil {
		v := *p.Shipping
		out.Shipping = &v
	}
	if withImage {
		out.Image = copyImage(p.Image)
	} else {
		out.Image = nil
	}
	return out
}

func copyImage(img *models.Image) *models.Image {
	if img == nil {
		return nil
	}
	return &models.Image{
		Data:        slices.Clone(img.Data),
		ContentType: img.ContentType,
		ObjectKey:   img.ObjectKey,
	}
}
