package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/princinho/catalogbackend/apperrors"
	"github.com/princinho/catalogbackend/images"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
	"github.com/princinho/catalogbackend/utils"
)

// DeletePolicy decides what happens to products of a deleted category.
type DeletePolicy string

const (
	// DeleteOrphan leaves the products pointing at the removed category.
	DeleteOrphan DeletePolicy = "orphan"
	// DeleteReject refuses to delete a category that still has products.
	DeleteReject DeletePolicy = "reject"
	// DeleteCascade removes the products first. It is not atomic.
	DeleteCascade DeletePolicy = "cascade"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DeleteOrphan, nil
	case DeleteOrphan, DeleteReject, DeleteCascade:
		return p, nil
	default:
		return "", fmt.Errorf("unknown category delete policy %q", s)
	}
}

type CategoryService struct {
	categories store.CategoryStore
	products   store.ProductStore
	images     *images.Accessor
	policy     DeletePolicy
}

func NewCategoryService(categories store.CategoryStore, products store.ProductStore, accessor *images.Accessor, policy DeletePolicy) *CategoryService {
	if policy == "" {
		policy = DeleteOrphan
	}
	return &CategoryService{categories: categories, products: products, images: accessor, policy: policy}
}

// Create inserts a category. When one with the same name already exists it
// is returned with created set to false.
func (s *CategoryService) Create(ctx context.Context, name string) (category *models.Category, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperrors.Validation("name is required")
	}

	existing, err := s.categories.GetByName(ctx, name)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, storeFailure("failed to get category", err)
	}

	slug := utils.GenerateSlug(name)
	if slug == "" {
		return nil, false, apperrors.Validation("name must contain letters or digits")
	}

	c := &models.Category{Name: name, Slug: slug}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, false, apperrors.Validation("a category with name %q or slug %q already exists", name, slug)
		}
		return nil, false, storeFailure("failed to create category", err)
	}
	return c, true, nil
}

func (s *CategoryService) Update(ctx context.Context, id, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}
	slug := utils.GenerateSlug(name)
	if slug == "" {
		return nil, apperrors.Validation("name must contain letters or digits")
	}

	c := &models.Category{ID: id, Name: name, Slug: slug}
	if err := s.categories.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
			return nil, apperrors.NotFound("category")
		case errors.Is(err, store.ErrDuplicate):
			return nil, apperrors.Validation("a category with name %q or slug %q already exists", name, slug)
		}
		return nil, storeFailure("failed to update category", err)
	}
	return c, nil
}

// Delete removes a category according to the configured policy and reports
// how many products were removed with it.
func (s *CategoryService) Delete(ctx context.Context, id string) (int64, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return 0, apperrors.NotFound("category")
		}
		return 0, storeFailure("failed to get category", err)
	}

	var removed int64
	switch s.policy {
	case DeleteReject:
		n, err := s.products.CountByCategory(ctx, category.ID)
		if err != nil {
			return 0, storeFailure("failed to count category products", err)
		}
		if n > 0 {
			return 0, apperrors.Validation("category %q still has %d products", category.Name, n)
		}
	case DeleteCascade:
		offloaded, err := s.offloadedImages(ctx, category.ID)
		if err != nil {
			return 0, err
		}
		if removed, err = s.products.DeleteByCategory(ctx, category.ID); err != nil {
			return 0, storeFailure("failed to delete category products", err)
		}
		for _, img := range offloaded {
			s.images.Discard(ctx, img)
		}
	}

	if err := s.categories.Delete(ctx, category.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return removed, apperrors.NotFound("category")
		}
		return removed, storeFailure("failed to delete category", err)
	}
	return removed, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, storeFailure("failed to list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.categories.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("category")
		}
		return nil, storeFailure("failed to get category", err)
	}
	return c, nil
}

// offloadedImages collects the object-storage pictures of a category's
// products so they can be removed after a cascade.
func (s *CategoryService) offloadedImages(ctx context.Context, categoryID string) ([]*models.Image, error) {
	if !s.images.Offloading() {
		return nil, nil
	}
	products, err := s.products.Find(ctx, store.ProductQuery{CategoryIDs: []string{categoryID}})
	if err != nil {
		return nil, storeFailure("failed to list category products", err)
	}

	var out []*models.Image
	for _, p := range products {
		img, err := s.products.GetImage(ctx, p.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, storeFailure("failed to get product image", err)
		}
		if img != nil && img.ObjectKey != "" {
			out = append(out, img)
		}
	}
	return out, nil
}
