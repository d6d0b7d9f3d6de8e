package material

import (
	"time"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateMaterialRequest represents a request to register a material
type CreateMaterialRequest struct {
	SKU                 string            `json:"sku" binding:"required"`
	Name                string            `json:"name" binding:"required"`
	Description         string            `json:"description"`
	StockUnit           string            `json:"stock_unit" binding:"required"`
	DefaultPurchaseUnit string            `json:"default_purchase_unit"`
	MinStock            *decimal.Decimal  `json:"min_stock"`
	MaxStock            *decimal.Decimal  `json:"max_stock"`
	SyncToMonox         bool              `json:"sync_to_monox"`
	Conversions         []ConversionInput `json:"conversions" binding:"omitempty,dive"`
}

// ConversionInput is one unit conversion row
type ConversionInput struct {
	FromUnit string          `json:"from_unit" binding:"required"`
	ToUnit   string          `json:"to_unit" binding:"required"`
	Factor   decimal.Decimal `json:"factor" binding:"required"`
}

// UpdateMaterialRequest represents a request to update material details
type UpdateMaterialRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	MaxStock    *decimal.Decimal `json:"max_stock"`
}

// MaterialListFilter represents filter options for listing materials
type MaterialListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ConversionResponse represents a unit conversion in API responses
type ConversionResponse struct {
	ID       uuid.UUID       `json:"id"`
	FromUnit string          `json:"from_unit"`
	ToUnit   string          `json:"to_unit"`
	Factor   decimal.Decimal `json:"factor"`
}

// MaterialResponse represents a material in API responses
type MaterialResponse struct {
	ID                  uuid.UUID            `json:"id"`
	SKU                 string               `json:"sku"`
	Name                string               `json:"name"`
	Description         string               `json:"description,omitempty"`
	StockUnit           string               `json:"stock_unit"`
	DefaultPurchaseUnit string               `json:"default_purchase_unit"`
	MinStock            *decimal.Decimal     `json:"min_stock,omitempty"`
	MaxStock            *decimal.Decimal     `json:"max_stock,omitempty"`
	CurrentStock        decimal.Decimal      `json:"current_stock"`
	BelowMinimum        bool                 `json:"below_minimum"`
	SyncToMonox         bool                 `json:"sync_to_monox"`
	IsLotManaged        bool                 `json:"is_lot_managed"`
	Conversions         []ConversionResponse `json:"conversions,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// ToMaterialResponse maps a material to its response representation
func ToMaterialResponse(m *material.Material) MaterialResponse {
	conversions := make([]ConversionResponse, len(m.Conversions))
	for i, c := range m.Conversions {
		conversions[i] = ConversionResponse{
			ID:       c.ID,
			FromUnit: c.FromUnit,
			ToUnit:   c.ToUnit,
			Factor:   c.Factor,
		}
	}
	return MaterialResponse{
		ID:                  m.ID,
		SKU:                 m.SKU,
		Name:                m.Name,
		Description:         m.Description,
		StockUnit:           m.StockUnit,
		DefaultPurchaseUnit: m.DefaultPurchaseUnit,
		MinStock:            m.MinStock,
		MaxStock:            m.MaxStock,
		CurrentStock:        m.CurrentStock,
		BelowMinimum:        m.IsBelowMinimum(m.CurrentStock),
		SyncToMonox:         m.SyncToMonox,
		IsLotManaged:        m.IsLotManaged,
		Conversions:         conversions,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// ToMaterialResponses maps a slice of materials
func ToMaterialResponses(materials []material.Material) []MaterialResponse {
	responses := make([]MaterialResponse, len(materials))
	for i := range materials {
		responses[i] = ToMaterialResponse(&materials[i])
	}
	return responses
}
