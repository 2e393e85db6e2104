// Package store declares the persistence contracts of the catalog. Backends
// live in the mongostore, pgstore and memstore subpackages.
package store

import (
	"context"
	"errors"

	"github.com/princinho/catalogbackend/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrInvalidID = errors.New("invalid id format")
)

type SortOrder int

const (
	SortNone SortOrder = iota
	SortNewest
)

// PriceRange bounds are inclusive.
type PriceRange struct {
	Min float64
	Max float64
}

// ProductQuery describes one product read. Zero values mean "no constraint".
type ProductQuery struct {
	CategoryIDs []string
	Price       *PriceRange
	// Keyword is a literal, case-insensitive substring of name or description.
	Keyword   string
	ExcludeID string
	Sort      SortOrder
	Skip      int64
	Limit     int64
	WithImage bool
}

type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
}

type ProductStore interface {
	Find(ctx context.Context, q ProductQuery) ([]models.Product, error)
	GetByID(ctx context.Context, id string, withImage bool) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	// GetImage returns ErrNotFound when the product is missing and a nil image
	// when the product has none.
	GetImage(ctx context.Context, id string) (*models.Image, error)
	EstimatedCount(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	// Update replaces the product fields. A nil Image keeps the stored one.
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	DeleteByCategory(ctx context.Context, categoryID string) (int64, error)
}
