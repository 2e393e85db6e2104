package dto

import (
	"math"
	"mime/multipart"
	"slices"
	"strconv"
	"strings"

	"github.com/princinho/catalogbackend/apperrors"
	"github.com/shopspring/decimal"
)

// ImageField is the multipart file field carrying the product picture.
const ImageField = "image"

var productFormFields = []string{"name", "description", "price", "quantity", "category", "shipping"}

// ProductForm is bound from the multipart body of product create and update.
type ProductForm struct {
	Name        string `form:"name" binding:"required"`
	Description string `form:"description" binding:"required"`
	Price       string `form:"price" binding:"required"`
	Quantity    string `form:"quantity" binding:"required"`
	Category    string `form:"category" binding:"required"`
	Shipping    string `form:"shipping"`
}

// ProductInput is a parsed, typed ProductForm.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Quantity    int
	CategoryID  string
	Shipping    *bool
}

// CheckProductFields rejects multipart fields and files the product form does
// not know about.
func CheckProductFields(form *multipart.Form) error {
	if form == nil {
		return nil
	}
	for key := range form.Value {
		if !slices.Contains(productFormFields, key) {
			return apperrors.Validation("unknown field %q", key)
		}
	}
	for key := range form.File {
		if key != ImageField {
			return apperrors.Validation("unknown file field %q", key)
		}
	}
	return nil
}

func (f ProductForm) Input() (ProductInput, error) {
	in := ProductInput{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		CategoryID:  strings.TrimSpace(f.Category),
	}

	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		return ProductInput{}, apperrors.Validation("price must be a number")
	}
	if price.IsNegative() {
		return ProductInput{}, apperrors.Validation("price must not be negative")
	}
	in.Price = price.InexactFloat64()
	if math.IsInf(in.Price, 0) {
		return ProductInput{}, apperrors.Validation("price is out of range")
	}

	qty, err := strconv.Atoi(strings.TrimSpace(f.Quantity))
	if err != nil {
		return ProductInput{}, apperrors.Validation("quantity must be an integer")
	}
	in.Quantity = qty

	if s := strings.TrimSpace(f.Shipping); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return ProductInput{}, apperrors.Validation("shipping must be a boolean")
		}
		in.Shipping = &v
	}
	return in, nil
}
