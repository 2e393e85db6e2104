package services

import (
	"context"
	"strings"
	"testing"

	"github.com/princinho/catalogbackend/apperrors"
	"github.com/princinho/catalogbackend/dto"
	"github.com/princinho/catalogbackend/images"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
	"github.com/princinho/catalogbackend/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t, nil, DeleteOrphan)
	c := f.category(t, "Kitchen")
	valid := dto.ProductInput{Name: "Mug", Description: "ceramic", Price: 4, Quantity: 3, CategoryID: c.ID}

	testCases := []struct {
		name   string
		mutate func(in *dto.ProductInput)
		errMsg string
	}{
		{"missing name", func(in *dto.ProductInput) { in.Name = "" }, "name is required"},
		{"missing description", func(in *dto.ProductInput) { in.Description = "" }, "description is required"},
		{"missing category", func(in *dto.ProductInput) { in.CategoryID = "" }, "category is required"},
		{"negative price", func(in *dto.ProductInput) { in.Price = -1 }, "price must be a non-negative number"},
		{"negative quantity", func(in *dto.ProductInput) { in.Quantity = -2 }, "quantity must not be negative"},
		{"unknown category", func(in *dto.ProductInput) { in.CategoryID = "nope" }, `category "nope" does not exist`},
		{"name without letters", func(in *dto.ProductInput) { in.Name = "!!!" }, "name must contain letters or digits"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)

			_, err := f.productSvc.Create(context.Background(), in, nil)
			require.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tc.errMsg, apperrors.Message(err))
		})
	}

	n, err := f.catalog.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSlugFollowsName(t *testing.T) {
	f := newFixture(t, nil, DeleteOrphan)
	c := f.category(t, "Kitchen")
	ctx := context.Background()

	p := f.product(t, "Red Mug", 9, c.ID)
	assert.Equal(t, "red-mug", p.Slug)

	updated, err := f.productSvc.Update(ctx, p.ID, dto.ProductInput{
		Name: "Blue Mug", Description: "ceramic", Price: 9, Quantity: 1, CategoryID: c.ID,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "blue-mug", updated.Slug)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)

	got, err := f.catalog.GetBySlug(ctx, "blue-mug")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.catalog.GetBySlug(ctx, "red-mug")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateImageHandling(t *testing.T) {
	f := newFixture(t, nil, DeleteOrphan)
	c := f.category(t, "Kitchen")
	ctx := context.Background()
	in := dto.ProductInput{Name: "Mug", Description: "ceramic", Price: 4, Quantity: 3, CategoryID: c.ID}
	p := f.productWith(t, in, &models.Image{Data: []byte("first"), ContentType: "image/png"})

	_, err := f.productSvc.Update(ctx, p.ID, in, nil)
	require.NoError(t, err)
	img, err := f.catalog.GetImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), img.Data)

	_, err = f.productSvc.Update(ctx, p.ID, in, &models.Image{Data: []byte("second"), ContentType: "image/jpeg"})
	require.NoError(t, err)
	img, err = f.catalog.GetImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), img.Data)
	assert.Equal(t, "image/jpeg", img.ContentType)
}

func TestUpdateReplacesOptionalFields(t *testing.T) {
	f := newFixture(t, nil, DeleteOrphan)
	c := f.category(t, "Kitchen")
	ctx := context.Background()
	shipping := true
	p := f.productWith(t, dto.ProductInput{
		Name: "Mug", Description: "ceramic", Price: 4, Quantity: 3, CategoryID: c.ID, Shipping: &shipping,
	}, nil)

	_, err := f.productSvc.Update(ctx, p.ID, dto.ProductInput{
		Name: "Mug", Description: "stoneware", Price: 6, Quantity: 0, CategoryID: c.ID,
	}, nil)
	require.NoError(t, err)

	got, err := f.catalog.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "stoneware", got.Description)
	assert.Equal(t, 6.0, got.Price)
	assert.Zero(t, got.Quantity)
	assert.Nil(t, got.Shipping)
}

func TestUpdateAndDeleteMissingProduct(t *testing.T) {
	f := newFixture(t, nil, DeleteOrphan)
	c := f.category(t, "Kitchen")
	ctx := context.Background()
	in := dto.ProductInput{Name: "Mug", Description: "ceramic", Price: 4, Quantity: 3, CategoryID: c.ID}

	_, err := f.productSvc.Update(ctx, "missing", in, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = f.productSvc.Delete(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t, nil, DeleteOrphan)
	c := f.category(t, "Kitchen")
	p := f.product(t, "Mug", 4, c.ID)
	ctx := context.Background()

	require.NoError(t, f.productSvc.Delete(ctx, p.ID))

	_, err := f.catalog.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOffloadedImageLifecycle(t *testing.T) {
	blobs := newFakeBlobs()
	f := newFixture(t, blobs, DeleteOrphan)
	c := f.category(t, "Kitchen")
	ctx := context.Background()
	in := dto.ProductInput{Name: "Red Mug", Description: "ceramic", Price: 4, Quantity: 3, CategoryID: c.ID}

	p := f.productWith(t, in, &models.Image{Data: []byte("first"), ContentType: "image/png"})
	require.Len(t, blobs.objects, 1)

	stored, err := f.products.GetImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Data)
	assert.True(t, strings.HasPrefix(stored.ObjectKey, "products/red-mug/"))

	img, err := f.catalog.GetImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), img.Data)
	assert.Equal(t, "image/png", img.ContentType)

	_, err = f.productSvc.Update(ctx, p.ID, in, &models.Image{Data: []byte("second"), ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, []string{stored.ObjectKey}, blobs.deleted)
	require.Len(t, blobs.objects, 1)

	img, err = f.catalog.GetImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), img.Data)

	require.NoError(t, f.productSvc.Delete(ctx, p.ID))
	assert.Empty(t, blobs.objects)
	assert.Len(t, blobs.deleted, 2)
}

// vanishingImageProducts loses the product between the existence check and
// the image lookup, as a concurrent delete would.
type vanishingImageProducts struct {
	*memstore.ProductStore
}

func (vanishingImageProducts) GetImage(context.Context, string) (*models.Image, error) {
	return nil, store.ErrNotFound
}

func TestUpdateOffloadedImageOfVanishedProduct(t *testing.T) {
	blobs := newFakeBlobs()
	f := newFixture(t, blobs, DeleteOrphan)
	c := f.category(t, "Kitchen")
	ctx := context.Background()
	in := dto.ProductInput{Name: "Red Mug", Description: "ceramic", Price: 4, Quantity: 3, CategoryID: c.ID}
	p := f.productWith(t, in, &models.Image{Data: []byte("first"), ContentType: "image/png"})

	products := vanishingImageProducts{f.products}
	svc := NewProductService(products, f.categories, images.NewAccessor(products, blobs))

	_, err := svc.Update(ctx, p.ID, in, &models.Image{Data: []byte("second"), ContentType: "image/png"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrStore)
	assert.Len(t, blobs.objects, 1)
	assert.Empty(t, blobs.deleted)
}
