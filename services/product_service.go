package services

import (
	"context"
	"errors"
	"math"

	"github.com/princinho/catalogbackend/apperrors"
	"github.com/princinho/catalogbackend/dto"
	"github.com/princinho/catalogbackend/images"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
	"github.com/princinho/catalogbackend/utils"
)

type ProductService struct {
	products   store.ProductStore
	categories store.CategoryStore
	images     *images.Accessor
}

func NewProductService(products store.ProductStore, categories store.CategoryStore, accessor *images.Accessor) *ProductService {
	return &ProductService{products: products, categories: categories, images: accessor}
}

// Create validates the input, stores the picture and inserts the product.
// img may be nil.
func (s *ProductService) Create(ctx context.Context, in dto.ProductInput, img *models.Image) (*models.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	category, err := s.category(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	slug := utils.GenerateSlug(in.Name)
	if slug == "" {
		return nil, apperrors.Validation("name must contain letters or digits")
	}

	if err := s.images.Persist(ctx, slug, img); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		CategoryID:  category.ID,
		Shipping:    in.Shipping,
		Image:       img,
	}
	if err := s.products.Create(ctx, p); err != nil {
		s.images.Discard(ctx, img)
		if errors.Is(err, store.ErrInvalidID) {
			return nil, apperrors.Validation("invalid category id")
		}
		return nil, storeFailure("failed to create product", err)
	}

	p.Image = nil
	p.Category = category
	return p, nil
}

// Update replaces every field of the product. The slug follows the name. A
// nil img keeps the stored picture, a non-nil one replaces it.
func (s *ProductService) Update(ctx context.Context, id string, in dto.ProductInput, img *models.Image) (*models.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	existing, err := s.products.GetByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return nil, apperrors.NotFound("product")
		}
		return nil, storeFailure("failed to get product", err)
	}
	category, err := s.category(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	slug := utils.GenerateSlug(in.Name)
	if slug == "" {
		return nil, apperrors.Validation("name must contain letters or digits")
	}

	var previous *models.Image
	if img != nil && s.images.Offloading() {
		if previous, err = s.products.GetImage(ctx, existing.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperrors.NotFound("product")
			}
			return nil, storeFailure("failed to get product image", err)
		}
	}
	if err := s.images.Persist(ctx, slug, img); err != nil {
		return nil, err
	}

	p := &models.Product{
		ID:          existing.ID,
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		CategoryID:  category.ID,
		Shipping:    in.Shipping,
		Image:       img,
	}
	if err := s.products.Update(ctx, p); err != nil {
		s.images.Discard(ctx, img)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, apperrors.NotFound("product")
		case errors.Is(err, store.ErrInvalidID):
			return nil, apperrors.Validation("invalid category id")
		}
		return nil, storeFailure("failed to update product", err)
	}
	s.images.Discard(ctx, previous)

	p.Image = nil
	p.Category = category
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	var img *models.Image
	if s.images.Offloading() {
		var err error
		img, err = s.products.GetImage(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
			return storeFailure("failed to get product image", err)
		}
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return apperrors.NotFound("product")
		}
		return storeFailure("failed to delete product", err)
	}
	s.images.Discard(ctx, img)
	return nil
}

// category checks that a product references an existing category.
func (s *ProductService) category(ctx context.Context, id string) (*models.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return nil, apperrors.Validation("category %q does not exist", id)
		}
		return nil, storeFailure("failed to get category", err)
	}
	return c, nil
}

func validateProduct(in dto.ProductInput) error {
	switch {
	case in.Name == "":
		return apperrors.Validation("name is required")
	case in.Description == "":
		return apperrors.Validation("description is required")
	case in.CategoryID == "":
		return apperrors.Validation("category is required")
	case in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0):
		return apperrors.Validation("price must be a non-negative number")
	case in.Quantity < 0:
		return apperrors.Validation("quantity must not be negative")
	}
	return nil
}
