package dto

import (
	"io"
	"strings"

	"github.com/princinho/catalogbackend/apperrors"
)

// CategoryRequest is the JSON body of category create and update.
type CategoryRequest struct {
	Name string `json:"name"`
}

func DecodeCategoryRequest(r io.Reader) (CategoryRequest, error) {
	var req CategoryRequest
	if err := decodeStrict(r, &req); err != nil {
		return CategoryRequest{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return CategoryRequest{}, apperrors.Validation("name is required")
	}
	return req, nil
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
