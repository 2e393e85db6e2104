package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const productCollectionName = "products"

// withoutImage keeps picture bytes out of every list and detail read.
var withoutImage = bson.M{"image": 0}

type imageDoc struct {
	Data        []byte `bson:"data,omitempty"`
	ContentType string `bson:"contentType"`
	ObjectKey   string `bson:"objectKey,omitempty"`
}

type productDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Name        string        `bson:"name"`
	Slug        string        `bson:"slug"`
	Description string        `bson:"description"`
	Price       float64       `bson:"price"`
	Quantity    int           `bson:"quantity"`
	Category    bson.ObjectID `bson:"category"`
	Shipping    *bool         `bson:"shipping,omitempty"`
	Image       *imageDoc     `bson:"image,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d productDoc) model() models.Product {
	p := models.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Price:       d.Price,
		Quantity:    d.Quantity,
		CategoryID:  d.Category.Hex(),
		Shipping:    d.Shipping,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Image != nil {
		p.Image = d.Image.model()
	}
	return p
}

func (d *imageDoc) model() *models.Image {
	return &models.Image{Data: d.Data, ContentType: d.ContentType, ObjectKey: d.ObjectKey}
}

func toImageDoc(img *models.Image) *imageDoc {
	if img.IsEmpty() {
		return nil
	}
	return &imageDoc{Data: img.Data, ContentType: img.ContentType, ObjectKey: img.ObjectKey}
}

type ProductStore struct {
	collection *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{collection: db.Collection(productCollectionName)}
}

func (s *ProductStore) Find(ctx context.Context, q store.ProductQuery) ([]models.Product, error) {
	filter, err := productFilter(q)
	if err != nil {
		return nil, err
	}

	cursor, err := s.collection.Find(ctx, filter, findOptions(q))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.model())
	}
	return products, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id string, withImage bool) (*models.Product, error) {
	objID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	opts := options.FindOne()
	if !withImage {
		opts.SetProjection(withoutImage)
	}
	return s.findOne(ctx, bson.M{"_id": objID}, opts)
}

func (s *ProductStore) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.findOne(ctx, bson.M{"slug": slug}, options.FindOne().SetProjection(withoutImage))
}

func (s *ProductStore) GetImage(ctx context.Context, id string) (*models.Image, error) {
	objID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var doc struct {
		Image *imageDoc `bson:"image"`
	}
	opts := options.FindOne().SetProjection(bson.M{"image": 1})
	if err := s.collection.FindOne(ctx, bson.M{"_id": objID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product image: %w", err)
	}
	if doc.Image == nil {
		return nil, nil
	}
	return doc.Image.model(), nil
}

func (s *ProductStore) EstimatedCount(ctx context.Context) (int64, error) {
	n, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (s *ProductStore) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	objID, err := bson.ObjectIDFromHex(categoryID)
	if err != nil {
		return 0, nil
	}
	n, err := s.collection.CountDocuments(ctx, bson.M{"category": objID})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	categoryID, err := bson.ObjectIDFromHex(product.CategoryID)
	if err != nil {
		return fmt.Errorf("category %q: %w", product.CategoryID, store.ErrInvalidID)
	}

	now := time.Now().UTC()
	doc := productDoc{
		ID:          bson.NewObjectID(),
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    product.Quantity,
		Category:    categoryID,
		Shipping:    product.Shipping,
		Image:       toImageDoc(product.Image),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("product slug %q: %w", product.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	product.ID = doc.ID.Hex()
	product.CreatedAt = now
	product.UpdatedAt = now
	log.Printf("Inserted product with ID: %s", product.ID)
	return nil
}

func (s *ProductStore) Update(ctx context.Context, product *models.Product) error {
	objID, err := bson.ObjectIDFromHex(product.ID)
	if err != nil {
		return store.ErrNotFound
	}
	categoryID, err := bson.ObjectIDFromHex(product.CategoryID)
	if err != nil {
		return fmt.Errorf("category %q: %w", product.CategoryID, store.ErrInvalidID)
	}

	set := bson.M{
		"name":        product.Name,
		"slug":        product.Slug,
		"description": product.Description,
		"price":       product.Price,
		"quantity":    product.Quantity,
		"category":    categoryID,
		"updatedAt":   time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if product.Shipping != nil {
		set["shipping"] = *product.Shipping
	} else {
		update["$unset"] = bson.M{"shipping": ""}
	}
	if product.Image != nil {
		set["image"] = toImageDoc(product.Image)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutImage)
	var doc productDoc
	if err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("product slug %q: %w", product.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	product.CreatedAt = doc.CreatedAt
	product.UpdatedAt = doc.UpdatedAt
	log.Printf("Updated product ID: %s", product.ID)
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	objID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	log.Printf("Deleted product ID: %s", id)
	return nil
}

func (s *ProductStore) DeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	objID, err := bson.ObjectIDFromHex(categoryID)
	if err != nil {
		return 0, nil
	}
	res, err := s.collection.DeleteMany(ctx, bson.M{"category": objID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *ProductStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptionsBuilder) (*models.Product, error) {
	var doc productDoc
	if err := s.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	p := doc.model()
	return &p, nil
}

// productFilter translates a query into a Mongo filter. The keyword is
// escaped so user input never becomes regex syntax.
func productFilter(q store.ProductQuery) (bson.M, error) {
	filter := bson.M{}

	if len(q.CategoryIDs) > 0 {
		ids := make([]bson.ObjectID, 0, len(q.CategoryIDs))
		for _, id := range q.CategoryIDs {
			objID, err := bson.ObjectIDFromHex(id)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", id, store.ErrInvalidID)
			}
			ids = append(ids, objID)
		}
		filter["category"] = bson.M{"$in": ids}
	}
	if q.Price != nil {
		filter["price"] = bson.M{"$gte": q.Price.Min, "$lte": q.Price.Max}
	}
	if q.Keyword != "" {
		escaped := regexp.QuoteMeta(q.Keyword)
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": escaped, "$options": "i"}},
			{"description": bson.M{"$regex": escaped, "$options": "i"}},
		}
	}
	if q.ExcludeID != "" {
		if objID, err := bson.ObjectIDFromHex(q.ExcludeID); err == nil {
			filter["_id"] = bson.M{"$ne": objID}
		}
	}
	return filter, nil
}

func findOptions(q store.ProductQuery) *options.FindOptionsBuilder {
	opts := options.Find()
	if !q.WithImage {
		opts.SetProjection(withoutImage)
	}
	if q.Sort == store.SortNewest {
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}
