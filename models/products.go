package models

import "time"

// MaxImageBytes caps the size of a product picture.
const MaxImageBytes = 1_000_000

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	CategoryID  string    `json:"categoryId"`
	Category    *Category `json:"category,omitempty"`
	Shipping    *bool     `json:"shipping,omitempty"`
	Image       *Image    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Image is the binary picture of a product. Data is empty when the bytes
// live in object storage under ObjectKey.
type Image struct {
	Data        []byte
	ContentType string
	ObjectKey   string
}

func (i *Image) IsEmpty() bool {
	return i == nil || (len(i.Data) == 0 && i.ObjectKey == "")
}
