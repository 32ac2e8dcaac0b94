package handlers

import (
	"github.com/gin-gonic/gin"

	"dapur/internal/domain/catalogs/material"
	"dapur/internal/infrastructure/http/v1/dto"
)

// MaterialHandler handles raw material catalog endpoints.
type MaterialHandler struct {
	*BaseHandler
	service *material.Service
}

// NewMaterialHandler creates a new material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHandler {
	return &MaterialHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /materials
func (h *MaterialHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMaterialRequest
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

// Get handles GET /materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterial(m))
}

// List handles GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	filter := material.ListFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 20),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterialList(res, filter.Limit, filter.Offset))
}

// Update handles PUT /materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	materialID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.GetByID(ctx, materialID)
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

	h.OK(c, dto.FromMaterial(m))
}

// Restock handles POST /materials/:id/restock
func (h *MaterialHandler) Restock(c *gin.Context) {
	ctx := c.Request.Context()

	materialID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.RestockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.Error(c, err)
		return
	}

	m, err := h.service.Restock(ctx, materialID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterial(m))
}

// Delete handles DELETE /materials/:id
func (h *MaterialHandler) Delete(c *gin.Context) {
	materialID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), materialID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers material catalog routes.
func (h *MaterialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/restock", h.Restock)
	rg.DELETE("/:id", h.Delete)
}
