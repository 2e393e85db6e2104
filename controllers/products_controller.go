package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/catalogbackend/apperrors"
	"github.com/princinho/catalogbackend/dto"
	"github.com/princinho/catalogbackend/images"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/services"
	"github.com/princinho/catalogbackend/utils"
)

// Product forms carry one picture plus a handful of short fields.
const maxProductFormBytes = models.MaxImageBytes + 1<<20

// GET /products
func ListRecentProducts(catalog *services.CatalogQueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := utils.ParseIntDefault(c.Query("limit"), services.DefaultRecentLimit)

		products, err := catalog.ListRecent(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"countTotal": len(products), "products": products})
	}
}

// GET /products/:product
func GetProduct(catalog *services.CatalogQueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := catalog.GetBySlug(c.Request.Context(), c.Param("product"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

// GET /products/:product/image
func GetProductImage(catalog *services.CatalogQueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		img, err := catalog.GetImage(c.Request.Context(), c.Param("product"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, img.ContentType, img.Data)
	}
}

// POST /products/filter
func FilterProducts(catalog *services.CatalogQueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := dto.DecodeFilterRequest(c.Request.Body)
		if err != nil {
			respondError(c, err)
			return
		}
		ids, err := req.CategoryIDs()
		if err != nil {
			respondError(c, err)
			return
		}
		price, err := req.PriceRange()
		if err != nil {
			respondError(c, err)
			return
		}

		products, err := catalog.Filter(c.Request.Context(), services.FilterParams{CategoryIDs: ids, Price: price})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// GET /products/count
func CountProducts(catalog *services.CatalogQueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		total, err := catalog.Count(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"total": total})
	}
}

// GET /products/page/:page?perPage=
func PaginateProducts(catalog *services.CatalogQueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := utils.ParseIntDefault(c.Param("page"), 1)
		perPage := utils.ParseIntDefault(c.Query("perPage"), services.DefaultPerPage)

		products, err := catalog.Paginate(c.Request.Context(), page, perPage)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": max(page, 1), "products": products})
	}
}

// GET /products/search/:keyword
func SearchProducts(catalog *services.CatalogQueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := catalog.Search(c.Request.Context(), c.Param("keyword"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// GET /products/:product/related/:category
func RelatedProducts(catalog *services.CatalogQueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := utils.ParseIntDefault(c.Query("limit"), services.DefaultRelatedLimit)

		products, err := catalog.Related(c.Request.Context(), c.Param("product"), c.Param("category"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// GET /categories/:slug/products
func CategoryProducts(catalog *services.CatalogQueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, products, err := catalog.ByCategorySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category, "products": products})
	}
}

// POST /products
func CreateProduct(products *services.ProductService, accessor *images.Accessor) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, img, err := readProductForm(c, accessor)
		if err != nil {
			respondError(c, err)
			return
		}

		product, err := products.Create(c.Request.Context(), in, img)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": product})
	}
}

// PUT /products/:id
func UpdateProduct(products *services.ProductService, accessor *images.Accessor) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, img, err := readProductForm(c, accessor)
		if err != nil {
			respondError(c, err)
			return
		}

		product, err := products.Update(c.Request.Context(), c.Param("id"), in, img)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
	}
}

// DELETE /products/:id
func DeleteProduct(products *services.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := products.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// readProductForm binds the multipart product form and ingests the optional
// picture. Unknown fields are rejected.
func readProductForm(c *gin.Context, accessor *images.Accessor) (dto.ProductInput, *models.Image, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxProductFormBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dto.ProductInput{}, nil, apperrors.Validation("image must be at most %d bytes", models.MaxImageBytes)
		}
		return dto.ProductInput{}, nil, apperrors.Validation("invalid multipart form")
	}
	if err := dto.CheckProductFields(form); err != nil {
		return dto.ProductInput{}, nil, err
	}

	var pf dto.ProductForm
	if err := c.ShouldBind(&pf); err != nil {
		return dto.ProductInput{}, nil, bindingError(err)
	}
	in, err := pf.Input()
	if err != nil {
		return dto.ProductInput{}, nil, err
	}

	fh, err := c.FormFile(dto.ImageField)
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return dto.ProductInput{}, nil, apperrors.Validation("invalid image upload")
	}
	if fh.Size > models.MaxImageBytes {
		return dto.ProductInput{}, nil, apperrors.Validation("image must be at most %d bytes", models.MaxImageBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return dto.ProductInput{}, nil, apperrors.Validation("invalid image upload")
	}
	defer f.Close()

	img, err := accessor.Ingest(f, fh.Header.Get("Content-Type"))
	if err != nil {
		return dto.ProductInput{}, nil, err
	}
	return in, img, nil
}
