// Package mongostore implements the catalog stores on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const categoryCollectionName = "categories"

type categoryDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Name      string        `bson:"name"`
	Slug      string        `bson:"slug"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d categoryDoc) model() models.Category {
	return models.Category{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Slug:      d.Slug,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type CategoryStore struct {
	collection *mongo.Collection
}

func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{collection: db.Collection(categoryCollectionName)}
}

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	doc := categoryDoc{
		ID:        bson.NewObjectID(),
		Name:      category.Name,
		Slug:      category.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("category name %q or slug %q: %w", category.Name, category.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}
	*category = doc.model()
	log.Printf("Inserted category with ID: %s", category.ID)
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, category *models.Category) error {
	objID, err := bson.ObjectIDFromHex(category.ID)
	if err != nil {
		return store.ErrNotFound
	}

	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc categoryDoc
	err = s.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{
			"name":      category.Name,
			"slug":      category.Slug,
			"updatedAt": now,
		},
	}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("category name %q or slug %q: %w", category.Name, category.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	*category = doc.model()
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	objID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	log.Printf("Deleted category ID: %s", id)
	return nil
}

func (s *CategoryStore) GetByID(ctx context.Context, id string) (*models.Category, error) {
	objID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": objID})
}

func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *CategoryStore) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return s.findOne(ctx, bson.M{"name": name})
}

func (s *CategoryStore) FindByIDs(ctx context.Context, ids []string) ([]models.Category, error) {
	objIDs := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := bson.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return []models.Category{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, options.Find())
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (s *CategoryStore) findOne(ctx context.Context, filter bson.M) (*models.Category, error) {
	var doc categoryDoc
	if err := s.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	c := doc.model()
	return &c, nil
}

func (s *CategoryStore) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.Category, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	items := make([]models.Category, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.model())
	}
	return items, nil
}
