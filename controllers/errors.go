package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/princinho/catalogbackend/apperrors"
)

// respondError writes {"error": msg} with the status of the error kind.
// Store failures keep their operation name but never the driver cause.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.Message(err)})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": apperrors.Message(err)})
	case errors.Is(err, apperrors.ErrStore):
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.Message(err)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindingError turns a gin binding failure into a validation error naming
// the first offending field.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return apperrors.Validation("%s is required", field)
		case "email":
			return apperrors.Validation("%s must be a valid email", field)
		default:
			return apperrors.Validation("%s is invalid", field)
		}
	}
	return apperrors.Validation("%v", err)
}
