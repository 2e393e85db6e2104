package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/princinho/catalogbackend/dto"
	"github.com/princinho/catalogbackend/images"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store/memstore"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	products   *memstore.ProductStore
	categories *memstore.CategoryStore
	accessor   *images.Accessor
	catalog    *CatalogQueryService
	productSvc *ProductService
	catSvc     *CategoryService
}

func newFixture(t *testing.T, blobs images.Blobs, policy DeletePolicy) *fixture {
	t.Helper()

	products := memstore.NewProductStore()
	categories := memstore.NewCategoryStore()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	products.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	accessor := images.NewAccessor(products, blobs)
	return &fixture{
		products:   products,
		categories: categories,
		accessor:   accessor,
		catalog:    NewCatalogQueryService(products, categories, accessor, 0),
		productSvc: NewProductService(products, categories, accessor),
		catSvc:     NewCategoryService(categories, products, accessor, policy),
	}
}

func (f *fixture) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, created, err := f.catSvc.Create(context.Background(), name)
	require.NoError(t, err)
	require.True(t, created)
	return c
}

func (f *fixture) product(t *testing.T, name string, price float64, categoryID string) *models.Product {
	t.Helper()
	return f.productWith(t, dto.ProductInput{
		Name:        name,
		Description: "description of " + name,
		Price:       price,
		Quantity:    1,
		CategoryID:  categoryID,
	}, nil)
}

func (f *fixture) productWith(t *testing.T, in dto.ProductInput, img *models.Image) *models.Product {
	t.Helper()
	p, err := f.productSvc.Create(context.Background(), in, img)
	require.NoError(t, err)
	return p
}

// seed creates n products named "Product 01".."Product n" in one category.
func (f *fixture) seed(t *testing.T, n int, categoryID string) []*models.Product {
	t.Helper()
	out := make([]*models.Product, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, f.product(t, fmt.Sprintf("Product %02d", i), float64(i), categoryID))
	}
	return out
}

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

// fakeBlobs records object storage calls in memory.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = append([]byte(nil), data...)
	return nil
}

func (b *fakeBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s does not exist", key)
	}
	return data, nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}
