package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/domain/sales"
)

// --- Request DTOs ---

// SaleLineRequest is one line item in a sale payload. UnitPrice may be
// omitted to take the menu's current price.
type SaleLineRequest struct {
	MenuID    string           `json:"menuId" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

// CreateSaleRequest is the request body for recording a sale.
type CreateSaleRequest struct {
	CustomerName string            `json:"customerName"`
	Date         *time.Time        `json:"date"`
	Lines        []SaleLineRequest `json:"lines" binding:"required"`
}

// UpdateSaleRequest is the request body for updating a sale.
type UpdateSaleRequest struct {
	CustomerName string            `json:"customerName"`
	Date         *time.Time        `json:"date"`
	Lines        []SaleLineRequest `json:"lines" binding:"required"`
}

// ParseLines converts request lines into domain line items. Lines without
// an explicit unit price get the price reported by lookupPrice.
func ParseLines(lines []SaleLineRequest, lookupPrice func(menuID id.ID) (decimal.Decimal, error)) ([]sales.SaleLine, error) {
	out := make([]sales.SaleLine, 0, len(lines))
	for i, line := range lines {
		menuID, err := id.Parse(line.MenuID)
		if err != nil {
			return nil, apperror.NewValidation("invalid menu id").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		price := decimal.Zero
		if line.UnitPrice != nil {
			price = *line.UnitPrice
		} else if lookupPrice != nil {
			if price, err = lookupPrice(menuID); err != nil {
				return nil, err
			}
		}
		out = append(out, sales.SaleLine{
			LineNo:    i + 1,
			MenuID:    menuID,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
	}
	return out, nil
}

// --- Response DTOs ---

// SaleLineResponse is one line item in a sale response.
type SaleLineResponse struct {
	LineNo    int             `json:"lineNo"`
	MenuID    string          `json:"menuId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// ConsumptionResponse is one snapshotted consumption entry.
type ConsumptionResponse struct {
	MaterialID   string          `json:"materialId"`
	MaterialName string          `json:"materialName"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
}

// SaleResponse is the response body for a sale.
type SaleResponse struct {
	ID           string                `json:"id"`
	CustomerName string                `json:"customerName"`
	Date         time.Time             `json:"date"`
	Amount       decimal.Decimal       `json:"amount"`
	Lines        []SaleLineResponse    `json:"lines"`
	Consumption  []ConsumptionResponse `json:"consumption,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// FromSale creates response DTO from domain entity.
func FromSale(s *sales.Sale) *SaleResponse {
	lines := make([]SaleLineResponse, len(s.Lines))
	for i, line := range s.Lines {
		lines[i] = SaleLineResponse{
			LineNo:    line.LineNo,
			MenuID:    line.MenuID.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}
	var consumption []ConsumptionResponse
	for _, e := range s.Consumption {
		consumption = append(consumption, ConsumptionResponse{
			MaterialID:   e.MaterialID.String(),
			MaterialName: e.MaterialName,
			Quantity:     e.Quantity,
			Unit:         string(e.Unit),
		})
	}
	return &SaleResponse{
		ID:           s.ID.String(),
		CustomerName: s.CustomerName,
		Date:         s.Date,
		Amount:       s.Amount,
		Lines:        lines,
		Consumption:  consumption,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// SaleListResponse is the response body for a sale listing.
type SaleListResponse struct {
	Items       []*SaleResponse `json:"items"`
	TotalIncome decimal.Decimal `json:"totalIncome"`
	Meta        ListMeta        `json:"meta"`
}

// FromSaleList creates response DTO from a list result.
func FromSaleList(res sales.ListResult, limit, offset int) *SaleListResponse {
	items := make([]*SaleResponse, len(res.Items))
	for i, s := range res.Items {
		items[i] = FromSale(s)
	}
	return &SaleListResponse{
		Items:       items,
		TotalIncome: res.TotalIncome,
		Meta:        ListMeta{TotalCount: res.TotalCount, Limit: limit, Offset: offset},
	}
}
