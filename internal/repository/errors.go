// Package repository holds the errors and query types shared by every store
// implementation.
package repository

import (
	"errors"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("record already exists")
	// ErrConflict is returned when a conditional update lost against a concurrent change.
	ErrConflict = errors.New("record changed concurrently")
)

// LotFilter narrows lot listings; empty fields match everything.
type LotFilter struct {
	WarehouseID string
	FarmerID    string
	Status      models.LotStatus
}
