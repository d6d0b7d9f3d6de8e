package procurement

import (
	"strings"
	"time"

	"github.com/chemstock/backend/internal/domain/shared"
)

// Supplier represents a vendor materials are purchased from
type Supplier struct {
	shared.BaseAggregateRoot
	Code         string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name         string `gorm:"type:varchar(255);not null"`
	ContactEmail string `gorm:"type:varchar(255)"` // Used when issuing an order notifies the supplier
	Phone        string `gorm:"type:varchar(64)"`
	Active       bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier
func NewSupplier(code, name string) (*Supplier, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Supplier code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}

	return &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Active:            true,
	}, nil
}

// UpdateContact updates the supplier's contact details
func (s *Supplier) UpdateContact(email, phone string) {
	s.ContactEmail = email
	s.Phone = phone
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Deactivate marks the supplier as no longer usable for new orders
func (s *Supplier) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}
