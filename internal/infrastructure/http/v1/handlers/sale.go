package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"dapur/internal/core/id"
	"dapur/internal/domain/catalogs/menu"
	"dapur/internal/domain/sales"
	"dapur/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sale lifecycle endpoints.
type SaleHandler struct {
	*BaseHandler
	service *sales.Service
	menus   *menu.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sales.Service, menus *menu.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
		menus:       menus,
	}
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}
	sale := sales.NewSale(id.Nil(), req.CustomerName, date)

	lines, err := dto.ParseLines(req.Lines, h.menuPrice(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	sale.Lines = lines

	if err := h.service.Create(ctx, sale); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, sale.ID.String())
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	sale, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(sale))
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	filter := sales.ListFilter{
		Month:  h.ParseIntQuery(c, "month", 0),
		Year:   h.ParseIntQuery(c, "year", 0),
		Limit:  h.ParseIntQuery(c, "limit", 20),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSaleList(res, filter.Limit, filter.Offset))
}

// Update handles PUT /sales/:id
func (h *SaleHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := dto.ParseLines(req.Lines, h.menuPrice(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	updated, err := h.service.Update(ctx, saleID, req.CustomerName, date, lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(updated))
}

// Delete handles DELETE /sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// menuPrice resolves a menu's current price for lines that omit one.
func (h *SaleHandler) menuPrice(c *gin.Context) func(menuID id.ID) (decimal.Decimal, error) {
	return func(menuID id.ID) (decimal.Decimal, error) {
		m, err := h.menus.GetByID(c.Request.Context(), menuID)
		if err != nil {
			return decimal.Zero, err
		}
		return m.Price, nil
	}
}

// RegisterRoutes registers sale routes.
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
