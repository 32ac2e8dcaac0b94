package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/domain/catalogs/menu"
	"dapur/internal/domain/measure"
)

// --- Request DTOs ---

// RecipeLineRequest is one recipe line in a menu payload.
type RecipeLineRequest struct {
	MaterialID string          `json:"materialId" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Unit       string          `json:"unit" binding:"required"`
}

// CreateMenuRequest is the request body for creating a menu.
type CreateMenuRequest struct {
	Name     string              `json:"name" binding:"required"`
	Category string              `json:"category"`
	Price    decimal.Decimal     `json:"price"`
	Lines    []RecipeLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateMenuRequest) ToEntity() (*menu.Menu, error) {
	m := menu.NewMenu(id.Nil(), r.Name, r.Price)
	m.Category = r.Category
	if err := applyRecipeLines(m, r.Lines); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMenuRequest is the request body for updating a menu.
type UpdateMenuRequest struct {
	Name     string              `json:"name" binding:"required"`
	Category string              `json:"category"`
	Price    decimal.Decimal     `json:"price"`
	Lines    []RecipeLineRequest `json:"lines" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateMenuRequest) ApplyTo(m *menu.Menu) error {
	m.Name = r.Name
	m.Category = r.Category
	m.Price = r.Price
	m.Lines = m.Lines[:0]
	return applyRecipeLines(m, r.Lines)
}

func applyRecipeLines(m *menu.Menu, lines []RecipeLineRequest) error {
	for i, line := range lines {
		materialID, err := id.Parse(line.MaterialID)
		if err != nil {
			return apperror.NewValidation("invalid material id").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		unit, err := measure.ParseUnit(line.Unit)
		if err != nil {
			return err
		}
		m.AddLine(materialID, line.Quantity, unit)
	}
	return nil
}

// --- Response DTOs ---

// RecipeLineResponse is one recipe line in a menu response.
type RecipeLineResponse struct {
	LineNo     int             `json:"lineNo"`
	MaterialID string          `json:"materialId"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
}

// MenuResponse is the response body for a menu.
type MenuResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Category  string               `json:"category,omitempty"`
	Price     decimal.Decimal      `json:"price"`
	Lines     []RecipeLineResponse `json:"lines"`
	Retired   bool                 `json:"retired"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// FromMenu creates response DTO from domain entity.
func FromMenu(m *menu.Menu) *MenuResponse {
	lines := make([]RecipeLineResponse, len(m.Lines))
	for i, line := range m.Lines {
		lines[i] = RecipeLineResponse{
			LineNo:     line.LineNo,
			MaterialID: line.MaterialID.String(),
			Quantity:   line.Quantity,
			Unit:       string(line.Unit),
		}
	}
	return &MenuResponse{
		ID:        m.ID.String(),
		Name:      m.Name,
		Category:  m.Category,
		Price:     m.Price,
		Lines:     lines,
		Retired:   m.IsRetired(),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MenuListResponse is the response body for a menu listing.
type MenuListResponse struct {
	Items []*MenuResponse `json:"items"`
	Meta  ListMeta        `json:"meta"`
}

// FromMenuList creates response DTO from a list result.
func FromMenuList(res menu.ListResult, limit, offset int) *MenuListResponse {
	items := make([]*MenuResponse, len(res.Items))
	for i, m := range res.Items {
		items[i] = FromMenu(m)
	}
	return &MenuListResponse{
		Items: items,
		Meta:  ListMeta{TotalCount: res.TotalCount, Limit: limit, Offset: offset},
	}
}
