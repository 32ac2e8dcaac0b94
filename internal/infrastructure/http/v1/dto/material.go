package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/domain/catalogs/material"
	"dapur/internal/domain/measure"
)

// --- Request DTOs ---

// CreateMaterialRequest is the request body for creating a raw material.
type CreateMaterialRequest struct {
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit" binding:"required"`
	Stock        decimal.Decimal `json:"stock"`
	MinimumStock decimal.Decimal `json:"minimumStock"`
	Price        decimal.Decimal `json:"price"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateMaterialRequest) ToEntity() (*material.RawMaterial, error) {
	unit, err := measure.ParseUnit(r.Unit)
	if err != nil {
		return nil, err
	}
	m := material.NewRawMaterial(id.Nil(), r.Name, unit, r.Stock)
	m.Category = r.Category
	m.MinimumStock = r.MinimumStock
	m.Price = r.Price
	return m, nil
}

// UpdateMaterialRequest is the request body for updating descriptive
// fields. Stock is excluded: it changes only through restock and sales.
type UpdateMaterialRequest struct {
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit" binding:"required"`
	MinimumStock decimal.Decimal `json:"minimumStock"`
	Price        decimal.Decimal `json:"price"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateMaterialRequest) ApplyTo(m *material.RawMaterial) error {
	unit, err := measure.ParseUnit(r.Unit)
	if err != nil {
		return err
	}
	m.Name = r.Name
	m.Category = r.Category
	m.Unit = unit
	m.MinimumStock = r.MinimumStock
	m.Price = r.Price
	return nil
}

// RestockRequest is the request body for adding purchased stock.
type RestockRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// Validate checks the restock quantity.
func (r *RestockRequest) Validate() error {
	if !r.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	return nil
}

// --- Response DTOs ---

// MaterialResponse is the response body for a raw material.
type MaterialResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Unit         string          `json:"unit"`
	Stock        decimal.Decimal `json:"stock"`
	MinimumStock decimal.Decimal `json:"minimumStock"`
	Price        decimal.Decimal `json:"price"`
	LowStock     bool            `json:"lowStock"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// FromMaterial creates response DTO from domain entity.
func FromMaterial(m *material.RawMaterial) *MaterialResponse {
	return &MaterialResponse{
		ID:           m.ID.String(),
		Name:         m.Name,
		Category:     m.Category,
		Unit:         string(m.Unit),
		Stock:        m.Stock,
		MinimumStock: m.MinimumStock,
		Price:        m.Price,
		LowStock:     m.BelowMinimum(),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// MaterialListResponse is the response body for a material listing.
type MaterialListResponse struct {
	Items []*MaterialResponse `json:"items"`
	Meta  ListMeta            `json:"meta"`
}

// FromMaterialList creates response DTO from a list result.
func FromMaterialList(res material.ListResult, limit, offset int) *MaterialListResponse {
	items := make([]*MaterialResponse, len(res.Items))
	for i, m := range res.Items {
		items[i] = FromMaterial(m)
	}
	return &MaterialListResponse{
		Items: items,
		Meta:  ListMeta{TotalCount: res.TotalCount, Limit: limit, Offset: offset},
	}
}
