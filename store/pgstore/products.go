package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRow struct {
	ID               string    `gorm:"primaryKey;type:uuid"`
	Name             string    `gorm:"not null"`
	Slug             string    `gorm:"index;not null"`
	Description      string    `gorm:"type:text;not null"`
	Price            float64   `gorm:"index;not null"`
	Quantity         int       `gorm:"not null"`
	CategoryID       string    `gorm:"type:uuid;index;not null"`
	Shipping         *bool
	ImageData        []byte    `gorm:"type:bytea"`
	ImageContentType string
	ImageObjectKey   string
	CreatedAt        time.Time `gorm:"index;not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (productRow) TableName() string {
	return "products"
}

// listColumns is every column except the picture bytes.
var listColumns = []string{
	"id", "name", "slug", "description", "price", "quantity",
	"category_id", "shipping", "created_at", "updated_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r productRow) model() models.Product {
	p := models.Product{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		CategoryID:  r.CategoryID,
		Shipping:    r.Shipping,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if img := r.image(); !img.IsEmpty() {
		p.Image = img
	}
	return p
}

func (r productRow) image() *models.Image {
	return &models.Image{Data: r.ImageData, ContentType: r.ImageContentType, ObjectKey: r.ImageObjectKey}
}

type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) Find(ctx context.Context, q store.ProductQuery) ([]models.Product, error) {
	tx, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}

	var rows []productRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.model())
	}
	return products, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id string, withImage bool) (*models.Product, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	tx := s.db.WithContext(ctx)
	if !withImage {
		tx = tx.Select(listColumns)
	}
	return s.first(tx.Where("id = ?", id))
}

func (s *ProductStore) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.first(s.db.WithContext(ctx).Select(listColumns).Where("slug = ?", slug).Order("created_at"))
}

func (s *ProductStore) GetImage(ctx context.Context, id string) (*models.Image, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}

	var row productRow
	err := s.db.WithContext(ctx).
		Select("id", "image_data", "image_content_type", "image_object_key").
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product image: %w", err)
	}
	if img := row.image(); !img.IsEmpty() {
		return img, nil
	}
	return nil, nil
}

func (s *ProductStore) EstimatedCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&productRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (s *ProductStore) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	if !validID(categoryID) {
		return 0, nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&productRow{}).Where("category_id = ?", categoryID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	if !validID(product.CategoryID) {
		return fmt.Errorf("category %q: %w", product.CategoryID, store.ErrInvalidID)
	}

	now := time.Now().UTC()
	row := productRow{
		ID:          uuid.NewString(),
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    product.Quantity,
		CategoryID:  product.CategoryID,
		Shipping:    product.Shipping,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if img := product.Image; !img.IsEmpty() {
		row.ImageData = img.Data
		row.ImageContentType = img.ContentType
		row.ImageObjectKey = img.ObjectKey
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product slug %q: %w", product.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	product.ID = row.ID
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func (s *ProductStore) Update(ctx context.Context, product *models.Product) error {
	if !validID(product.ID) {
		return store.ErrNotFound
	}
	if !validID(product.CategoryID) {
		return fmt.Errorf("category %q: %w", product.CategoryID, store.ErrInvalidID)
	}

	fields := map[string]any{
		"name":        product.Name,
		"slug":        product.Slug,
		"description": product.Description,
		"price":       product.Price,
		"quantity":    product.Quantity,
		"category_id": product.CategoryID,
		"shipping":    product.Shipping,
		"updated_at":  time.Now().UTC(),
	}
	if img := product.Image; img != nil {
		fields["image_data"] = img.Data
		fields["image_content_type"] = img.ContentType
		fields["image_object_key"] = img.ObjectKey
	}

	var row productRow
	res := s.db.WithContext(ctx).Model(&row).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "created_at"}, {Name: "updated_at"}}}).
		Where("id = ?", product.ID).
		Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product slug %q: %w", product.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	product.CreatedAt = row.CreatedAt
	product.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return store.ErrNotFound
	}
	res := s.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *ProductStore) DeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	if !validID(categoryID) {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Delete(&productRow{}, "category_id = ?", categoryID)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *ProductStore) first(tx *gorm.DB) (*models.Product, error) {
	var row productRow
	if err := tx.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	p := row.model()
	return &p, nil
}

func (s *ProductStore) query(ctx context.Context, q store.ProductQuery) (*gorm.DB, error) {
	tx := s.db.WithContext(ctx).Model(&productRow{})
	if !q.WithImage {
		tx = tx.Select(listColumns)
	}

	if len(q.CategoryIDs) > 0 {
		for _, id := range q.CategoryIDs {
			if !validID(id) {
				return nil, fmt.Errorf("category %q: %w", id, store.ErrInvalidID)
			}
		}
		tx = tx.Where("category_id IN ?", q.CategoryIDs)
	}
	if q.Price != nil {
		tx = tx.Where("price >= ? AND price <= ?", q.Price.Min, q.Price.Max)
	}
	if q.Keyword != "" {
		pattern := "%" + likeEscaper.Replace(q.Keyword) + "%"
		tx = tx.Where("(name ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}
	if q.ExcludeID != "" && validID(q.ExcludeID) {
		tx = tx.Where("id <> ?", q.ExcludeID)
	}
	if q.Sort == store.SortNewest {
		tx = tx.Order("created_at DESC").Order("id DESC")
	}
	if q.Skip > 0 {
		tx = tx.Offset(int(q.Skip))
	}
	if q.Limit > 0 {
		tx = tx.Limit(int(q.Limit))
	}
	return tx, nil
}
