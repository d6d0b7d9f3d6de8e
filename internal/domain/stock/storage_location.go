package stock

import (
	"strings"
	"time"

	"github.com/chemstock/backend/internal/domain/shared"
)

// StorageLocation represents a physical place where lots are kept
// (warehouse area, cabinet, cold room)
type StorageLocation struct {
	shared.BaseAggregateRoot
	Code   string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name   string `gorm:"type:varchar(255);not null"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (StorageLocation) TableName() string {
	return "storage_locations"
}

// NewStorageLocation creates a new storage location
func NewStorageLocation(code, name string) (*StorageLocation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Location code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		name = code
	}

	return &StorageLocation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Active:            true,
	}, nil
}

// Deactivate marks the location as no longer usable for new lots
func (l *StorageLocation) Deactivate() {
	l.Active = false
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}
