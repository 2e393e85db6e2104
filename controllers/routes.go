package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/catalogbackend/auth"
	"github.com/princinho/catalogbackend/images"
	"github.com/princinho/catalogbackend/middleware"
	"github.com/princinho/catalogbackend/services"
)

// Handlers groups the services the routes dispatch to.
type Handlers struct {
	Catalog    *services.CatalogQueryService
	Products   *services.ProductService
	Categories *services.CategoryService
	Images     *images.Accessor
	Auth       *auth.Authenticator
}

// RegisterRoutes mounts the catalog API on r. Sibling path segments share one
// wildcard name because gin keeps a single tree per method.
func RegisterRoutes(r gin.IRouter, h Handlers) {
	signedIn := middleware.RequireSignIn(h.Auth.Issuer())
	admin := []gin.HandlerFunc{signedIn, middleware.RequireAdmin()}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/auth/login", Login(h.Auth))
	r.GET("/auth/user-auth", signedIn, AuthProbe())
	r.GET("/auth/admin-auth", append(admin, AuthProbe())...)

	r.GET("/products", ListRecentProducts(h.Catalog))
	r.GET("/products/count", CountProducts(h.Catalog))
	r.GET("/products/page/:page", PaginateProducts(h.Catalog))
	r.GET("/products/search/:keyword", SearchProducts(h.Catalog))
	r.GET("/products/:product", GetProduct(h.Catalog))
	r.GET("/products/:product/image", GetProductImage(h.Catalog))
	r.GET("/products/:product/related/:category", RelatedProducts(h.Catalog))
	r.POST("/products/filter", FilterProducts(h.Catalog))

	r.POST("/products", append(admin, CreateProduct(h.Products, h.Images))...)
	r.PUT("/products/:id", append(admin, UpdateProduct(h.Products, h.Images))...)
	r.DELETE("/products/:id", append(admin, DeleteProduct(h.Products))...)

	r.GET("/categories", GetCategories(h.Categories))
	r.GET("/categories/:slug", GetCategory(h.Categories))
	r.GET("/categories/:slug/products", CategoryProducts(h.Catalog))

	r.POST("/categories", append(admin, AddCategory(h.Categories))...)
	r.PUT("/categories/:id", append(admin, UpdateCategory(h.Categories))...)
	r.DELETE("/categories/:id", append(admin, DeleteCategory(h.Categories))...)
}
