package repository

import (
	"fmt"

	"devaccountbook-backend/pkg/errors"
)

// Page size bounds for entry listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Pagination is an offset window over an ordered listing.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Validate rejects negative windows. Any non-negative pair is accepted,
// including offsets past the end.
func (p Pagination) Validate() error {
	if p.Limit < 0 {
		return errors.NewValidationError(fmt.Sprintf("limit cannot be negative: %d", p.Limit))
	}
	if p.Offset < 0 {
		return errors.NewValidationError(fmt.Sprintf("offset cannot be negative: %d", p.Offset))
	}
	return nil
}

// GetEffectiveLimit returns the limit to use, with a default if not specified
func (p Pagination) GetEffectiveLimit() int {
	if p.Limit <= 0 {
		return DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		return MaxPageSize
	}
	return p.Limit
}
