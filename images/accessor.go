// Package images validates, stores and serves product pictures.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/catalogbackend/apperrors"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
)

// Blobs is an object storage bucket. A nil Blobs keeps picture bytes inside
// the product record.
type Blobs interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type ImageReader interface {
	GetImage(ctx context.Context, id string) (*models.Image, error)
}

type Accessor struct {
	products ImageReader
	blobs    Blobs
}

func NewAccessor(products ImageReader, blobs Blobs) *Accessor {
	return &Accessor{products: products, blobs: blobs}
}

// Offloading reports whether pictures live in object storage.
func (a *Accessor) Offloading() bool {
	return a.blobs != nil
}

// Ingest reads a picture and enforces the size cap. A nil reader or an empty
// payload means "no picture" and yields a nil image. Missing or generic
// content types are sniffed from the bytes.
func (a *Accessor) Ingest(r io.Reader, contentType string) (*models.Image, error) {
	if r == nil {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, models.MaxImageBytes+1))
	if err != nil {
		return nil, apperrors.Validation("failed to read image: %v", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) > models.MaxImageBytes {
		return nil, apperrors.Validation("image must be at most %d bytes", models.MaxImageBytes)
	}

	ct := strings.TrimSpace(contentType)
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return &models.Image{Data: data, ContentType: ct}, nil
}

// Persist moves the picture bytes to object storage when a bucket is
// configured, leaving only the object key on the image.
func (a *Accessor) Persist(ctx context.Context, slug string, img *models.Image) error {
	if a.blobs == nil || img == nil || len(img.Data) == 0 {
		return nil
	}

	key := fmt.Sprintf("products/%s/%d-%s", slug, time.Now().UTC().Unix(), uuid.NewString())
	if err := a.blobs.Put(ctx, key, img.Data, img.ContentType); err != nil {
		log.Printf("image upload %s failed: %v", key, err)
		return apperrors.Store("failed to upload image", err)
	}
	img.ObjectKey = key
	img.Data = nil
	return nil
}

// Discard removes an offloaded picture. Failures are logged only: the
// product write it belongs to has already succeeded.
func (a *Accessor) Discard(ctx context.Context, img *models.Image) {
	if a.blobs == nil || img == nil || img.ObjectKey == "" {
		return
	}
	if err := a.blobs.Delete(ctx, img.ObjectKey); err != nil {
		log.Printf("image delete %s failed: %v", img.ObjectKey, err)
	}
}

// Fetch returns the picture of a product. A missing product and a product
// without a picture are both NotFound, with distinct messages.
func (a *Accessor) Fetch(ctx context.Context, productID string) (*models.Image, error) {
	img, err := a.products.GetImage(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("product")
		}
		log.Printf("fetch image %s: %v", productID, err)
		return nil, apperrors.Store("failed to fetch product image", err)
	}
	if img.IsEmpty() {
		return nil, apperrors.NotFound("image")
	}

	if len(img.Data) == 0 {
		if a.blobs == nil {
			return nil, apperrors.Store("failed to fetch product image", errors.New("no object storage configured"))
		}
		data, err := a.blobs.Get(ctx, img.ObjectKey)
		if err != nil {
			log.Printf("download image %s: %v", img.ObjectKey, err)
			return nil, apperrors.Store("failed to fetch product image", err)
		}
		img.Data = data
	}
	return img, nil
}
