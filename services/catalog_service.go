// Package services implements the catalog operations on top of injected
// stores. Errors returned from this package are classified apperrors.
package services

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"

	"github.com/princinho/catalogbackend/apperrors"
	"github.com/princinho/catalogbackend/images"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
)

const (
	DefaultRecentLimit  = 12
	DefaultPerPage      = 10
	DefaultRelatedLimit = 3
	DefaultMaxLimit     = 100
)

// FilterParams are ANDed. Empty CategoryIDs and nil Price mean no constraint.
type FilterParams struct {
	CategoryIDs []string
	Price       *store.PriceRange
}

type CatalogQueryService struct {
	products   store.ProductStore
	categories store.CategoryStore
	images     *images.Accessor
	maxLimit   int64
}

func NewCatalogQueryService(products store.ProductStore, categories store.CategoryStore, accessor *images.Accessor, maxLimit int) *CatalogQueryService {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	return &CatalogQueryService{
		products:   products,
		categories: categories,
		images:     accessor,
		maxLimit:   int64(maxLimit),
	}
}

// ListRecent returns the newest products first.
func (s *CatalogQueryService) ListRecent(ctx context.Context, limit int) ([]models.Product, error) {
	products, err := s.products.Find(ctx, store.ProductQuery{
		Sort:  store.SortNewest,
		Limit: s.clamp(limit, DefaultRecentLimit),
	})
	if err != nil {
		return nil, storeFailure("failed to list products", err)
	}
	return s.resolve(ctx, products)
}

func (s *CatalogQueryService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperrors.Validation("slug is required")
	}

	p, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, storeFailure("failed to get product", err)
	}
	return s.resolveOne(ctx, p)
}

func (s *CatalogQueryService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return nil, apperrors.NotFound("product")
		}
		return nil, storeFailure("failed to get product", err)
	}
	return s.resolveOne(ctx, p)
}

func (s *CatalogQueryService) GetImage(ctx context.Context, productID string) (*models.Image, error) {
	return s.images.Fetch(ctx, productID)
}

// Filter applies category membership and an inclusive price range. With
// neither constraint it returns the whole collection in store order.
func (s *CatalogQueryService) Filter(ctx context.Context, params FilterParams) ([]models.Product, error) {
	if params.Price != nil && params.Price.Min > params.Price.Max {
		return nil, apperrors.Validation("price minimum %v is greater than maximum %v", params.Price.Min, params.Price.Max)
	}

	products, err := s.products.Find(ctx, store.ProductQuery{
		CategoryIDs: params.CategoryIDs,
		Price:       params.Price,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidID) {
			return nil, apperrors.Validation("invalid category id")
		}
		return nil, storeFailure("failed to filter products", err)
	}
	return s.resolve(ctx, products)
}

// Count is an estimate on backends that support one.
func (s *CatalogQueryService) Count(ctx context.Context) (int64, error) {
	n, err := s.products.EstimatedCount(ctx)
	if err != nil {
		return 0, storeFailure("failed to count products", err)
	}
	return n, nil
}

// Paginate returns page (1-based) of the newest-first listing.
func (s *CatalogQueryService) Paginate(ctx context.Context, page, perPage int) ([]models.Product, error) {
	if page < 1 {
		page = 1
	}
	limit := s.clamp(perPage, DefaultPerPage)
	if int64(page-1) > math.MaxInt64/limit {
		return []models.Product{}, nil
	}

	products, err := s.products.Find(ctx, store.ProductQuery{
		Sort:  store.SortNewest,
		Skip:  int64(page-1) * limit,
		Limit: limit,
	})
	if err != nil {
		return nil, storeFailure("failed to paginate products", err)
	}
	return products, nil
}

// Search matches keyword literally and case-insensitively against name or
// description. Whitespace is part of the keyword; only "" matches everything.
func (s *CatalogQueryService) Search(ctx context.Context, keyword string) ([]models.Product, error) {
	products, err := s.products.Find(ctx, store.ProductQuery{Keyword: keyword})
	if err != nil {
		return nil, storeFailure("failed to search products", err)
	}
	return products, nil
}

// Related returns products of categoryID other than productID.
func (s *CatalogQueryService) Related(ctx context.Context, productID, categoryID string, limit int) ([]models.Product, error) {
	productID = strings.TrimSpace(productID)
	categoryID = strings.TrimSpace(categoryID)
	if productID == "" || categoryID == "" {
		return nil, apperrors.Validation("product id and category id are required")
	}

	products, err := s.products.Find(ctx, store.ProductQuery{
		CategoryIDs: []string{categoryID},
		ExcludeID:   productID,
		Limit:       s.clamp(limit, DefaultRelatedLimit),
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidID) {
			return nil, apperrors.Validation("invalid category id")
		}
		return nil, storeFailure("failed to list related products", err)
	}
	return s.resolve(ctx, products)
}

// ByCategorySlug returns the category and every product referencing it.
func (s *CatalogQueryService) ByCategorySlug(ctx context.Context, slug string) (*models.Category, []models.Product, error) {
	category, err := s.categories.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperrors.NotFound("category")
		}
		return nil, nil, storeFailure("failed to get category", err)
	}

	products, err := s.products.Find(ctx, store.ProductQuery{CategoryIDs: []string{category.ID}})
	if err != nil {
		return nil, nil, storeFailure("failed to list category products", err)
	}
	for i := range products {
		c := *category
		products[i].Category = &c
	}
	return category, products, nil
}

func (s *CatalogQueryService) clamp(limit, def int) int64 {
	if limit <= 0 {
		limit = def
	}
	return min(int64(limit), s.maxLimit)
}

// resolve attaches the referenced categories with a single batched lookup.
// Products whose category no longer exists keep a nil Category.
func (s *CatalogQueryService) resolve(ctx context.Context, products []models.Product) ([]models.Product, error) {
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]string, 0, len(products))
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if p.CategoryID != "" && !seen[p.CategoryID] {
			seen[p.CategoryID] = true
			ids = append(ids, p.CategoryID)
		}
	}
	if len(ids) == 0 {
		return products, nil
	}

	categories, err := s.categories.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeFailure("failed to resolve categories", err)
	}
	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	for i := range products {
		if c, ok := byID[products[i].CategoryID]; ok {
			products[i].Category = &c
		}
	}
	return products, nil
}

func (s *CatalogQueryService) resolveOne(ctx context.Context, p *models.Product) (*models.Product, error) {
	resolved, err := s.resolve(ctx, []models.Product{*p})
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}

// storeFailure logs a backend failure once and classifies it.
func storeFailure(op string, err error) error {
	log.Printf("%s: %v", op, err)
	return apperrors.Store(op, err)
}
