// Package pgstore implements the catalog stores on PostgreSQL through gorm.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
	"gorm.io/gorm"
)

type categoryRow struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Slug      string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (categoryRow) TableName() string {
	return "categories"
}

func (r categoryRow) model() models.Category {
	return models.Category{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// AutoMigrate creates the catalog tables when they do not exist yet.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&categoryRow{}, &productRow{})
}

type CategoryStore struct {
	db *gorm.DB
}

func NewCategoryStore(db *gorm.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	row := categoryRow{
		ID:        uuid.NewString(),
		Name:      category.Name,
		Slug:      category.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("category name %q or slug %q: %w", category.Name, category.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}
	*category = row.model()
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, category *models.Category) error {
	if !validID(category.ID) {
		return store.ErrNotFound
	}

	res := s.db.WithContext(ctx).Model(&categoryRow{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":       category.Name,
			"slug":       category.Slug,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("category name %q or slug %q: %w", category.Name, category.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	updated, err := s.GetByID(ctx, category.ID)
	if err != nil {
		return err
	}
	*category = *updated
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return store.ErrNotFound
	}
	res := s.db.WithContext(ctx).Delete(&categoryRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *CategoryStore) GetByID(ctx context.Context, id string) (*models.Category, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	return s.first(ctx, "id = ?", id)
}

func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.first(ctx, "slug = ?", slug)
}

func (s *CategoryStore) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return s.first(ctx, "name = ?", name)
}

func (s *CategoryStore) FindByIDs(ctx context.Context, ids []string) ([]models.Category, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []models.Category{}, nil
	}

	var rows []categoryRow
	if err := s.db.WithContext(ctx).Where("id IN ?", valid).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categoryModels(rows), nil
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	var rows []categoryRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categoryModels(rows), nil
}

func (s *CategoryStore) first(ctx context.Context, query string, arg any) (*models.Category, error) {
	var row categoryRow
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	c := row.model()
	return &c, nil
}

func categoryModels(rows []categoryRow) []models.Category {
	out := make([]models.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out
}

// validID guards uuid columns against malformed input, which postgres would
// otherwise reject with a syntax error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
