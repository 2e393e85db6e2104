package dto

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/princinho/catalogbackend/apperrors"
	"github.com/princinho/catalogbackend/store"
)

// FilterRequest is the body of POST /products/filter. Checked holds category
// ids, Radio is either empty or a [min, max] price pair.
type FilterRequest struct {
	Checked []string  `json:"checked"`
	Radio   []float64 `json:"radio"`
}

// DecodeFilterRequest parses a filter body strictly. An empty body is an
// empty filter.
func DecodeFilterRequest(r io.Reader) (FilterRequest, error) {
	var req FilterRequest
	if err := decodeStrict(r, &req); err != nil {
		return FilterRequest{}, err
	}
	return req, nil
}

func (f FilterRequest) CategoryIDs() ([]string, error) {
	ids := make([]string, 0, len(f.Checked))
	for _, id := range f.Checked {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, apperrors.Validation("category id must not be empty")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f FilterRequest) PriceRange() (*store.PriceRange, error) {
	switch len(f.Radio) {
	case 0:
		return nil, nil
	case 2:
		return &store.PriceRange{Min: f.Radio[0], Max: f.Radio[1]}, nil
	default:
		return nil, apperrors.Validation("radio must be empty or a [min, max] pair")
	}
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Validation("invalid request body: %v", err)
	}
	if dec.More() {
		return apperrors.Validation("invalid request body: trailing data")
	}
	return nil
}
