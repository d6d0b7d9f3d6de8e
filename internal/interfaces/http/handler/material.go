package handler

import (
	materialapp "github.com/chemstock/backend/internal/application/material"
	"github.com/gin-gonic/gin"
)

// MaterialHandler handles material catalog API endpoints
type MaterialHandler struct {
	BaseHandler
	materialService *materialapp.Service
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(materialService *materialapp.Service) *MaterialHandler {
	return &MaterialHandler{materialService: materialService}
}

// RegisterRoutes registers material routes
func (h *MaterialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	materials := rg.Group("/materials")
	{
		materials.POST("", h.Create)
		materials.GET("", h.List)
		materials.GET("/:id", h.GetByID)
		materials.PUT("/:id", h.Update)
		materials.DELETE("/:id", h.Delete)
		materials.GET("/sku/:sku", h.GetBySKU)
		materials.GET("/synced", h.ListSynced)
		materials.GET("/:id/units", h.Units)
		materials.POST("/:id/conversions", h.AddConversion)
		materials.DELETE("/:id/conversions/:conversionId", h.RemoveConversion)
	}
}

// Create registers a new material with its conversion table
func (h *MaterialHandler) Create(c *gin.Context) {
	var req materialapp.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.materialService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// List returns materials matching the filter
func (h *MaterialHandler) List(c *gin.Context) {
	var filter materialapp.MaterialListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	materials, total, err := h.materialService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page := filter.Page
	if page == 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, materials, total, page, pageSize)
}

// GetByID returns one material with its conversions
func (h *MaterialHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	resp, err := h.materialService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetBySKU returns one material looked up by SKU
func (h *MaterialHandler) GetBySKU(c *gin.Context) {
	resp, err := h.materialService.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update updates material details
func (h *MaterialHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	var req materialapp.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.materialService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListSynced lists materials flagged for external sync
func (h *MaterialHandler) ListSynced(c *gin.Context) {
	materials, err := h.materialService.ListSyncedToMonox(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, materials)
}

// Delete removes a material that has no stock
func (h *MaterialHandler) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	if err := h.materialService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Units lists the units a material can be transacted in
func (h *MaterialHandler) Units(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	units, err := h.materialService.AvailableUnits(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"units": units})
}

// AddConversion adds a unit conversion row to a material
func (h *MaterialHandler) AddConversion(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	var req materialapp.ConversionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.materialService.AddConversion(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveConversion removes a unit conversion row from a material
func (h *MaterialHandler) RemoveConversion(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid material ID format")
		return
	}
	conversionID, ok := parseUUIDParam(c, "conversionId")
	if !ok {
		h.BadRequest(c, "Invalid conversion ID format")
		return
	}

	resp, err := h.materialService.RemoveConversion(c.Request.Context(), id, conversionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
