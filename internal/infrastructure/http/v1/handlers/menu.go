package handlers

import (
	"github.com/gin-gonic/gin"

	"dapur/internal/domain/catalogs/menu"
	"dapur/internal/infrastructure/http/v1/dto"
)

// MenuHandler handles sellable item catalog endpoints.
type MenuHandler struct {
	*BaseHandler
	service *menu.Service
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(base *BaseHandler, service *menu.Service) *MenuHandler {
	return &MenuHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /menus
func (h *MenuHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMenuRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, m.ID.String())
}

// Get handles GET /menus/:id
func (h *MenuHandler) Get(c *gin.Context) {
	menuID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), menuID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMenu(m))
}

// List handles GET /menus
func (h *MenuHandler) List(c *gin.Context) {
	filter := menu.ListFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    h.ParseIntQuery(c, "limit", 20),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMenuList(res, filter.Limit, filter.Offset))
}

// Update handles PUT /menus/:id
func (h *MenuHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	menuID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMenuRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.GetByID(ctx, menuID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.ApplyTo(m); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Update(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMenu(m))
}

// Delete handles DELETE /menus/:id
func (h *MenuHandler) Delete(c *gin.Context) {
	menuID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), menuID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers menu catalog routes.
func (h *MenuHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
