package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/catalogbackend/dto"
	"github.com/princinho/catalogbackend/services"
)

// GET /categories
func GetCategories(categories *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := categories.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": items})
	}
}

// GET /categories/:slug
func GetCategory(categories *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, err := categories.GetBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category})
	}
}

// POST /categories
func AddCategory(categories *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := dto.DecodeCategoryRequest(c.Request.Body)
		if err != nil {
			respondError(c, err)
			return
		}

		category, created, err := categories.Create(c.Request.Context(), body.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		if !created {
			c.JSON(http.StatusOK, gin.H{"message": "Category already exists", "category": category})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "New category created", "category": category})
	}
}

// PUT /categories/:id
func UpdateCategory(categories *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := dto.DecodeCategoryRequest(c.Request.Body)
		if err != nil {
			respondError(c, err)
			return
		}

		category, err := categories.Update(c.Request.Context(), c.Param("id"), body.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": category})
	}
}

// DELETE /categories/:id
func DeleteCategory(categories *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		removed, err := categories.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "removedProducts": removed})
	}
}
