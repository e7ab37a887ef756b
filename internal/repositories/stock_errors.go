package repositories

import (
	"fmt"
)

// InsufficientStockError signals a stock decrement would drop below zero.
// It is surfaced as a conflict so services can translate it uniformly.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

// NewInsufficientStockError builds the typed conflict for a failed decrement.
func NewInsufficientStockError(productID string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

// Error implements the error interface.
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// IsNotFound implements RepositoryError.
func (e *InsufficientStockError) IsNotFound() bool { return false }

// IsConflict implements RepositoryError.
func (e *InsufficientStockError) IsConflict() bool { return true }

// IsUnavailable implements RepositoryError.
func (e *InsufficientStockError) IsUnavailable() bool { return false }

var _ RepositoryError = (*InsufficientStockError)(nil)
