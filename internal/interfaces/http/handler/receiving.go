package handler

import (
	procurementapp "github.com/chemstock/backend/internal/application/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceivingHandler handles goods receipt API endpoints
type ReceivingHandler struct {
	BaseHandler
	receivingService *procurementapp.ReceivingService
}

// NewReceivingHandler creates a new ReceivingHandler
func NewReceivingHandler(receivingService *procurementapp.ReceivingService) *ReceivingHandler {
	return &ReceivingHandler{receivingService: receivingService}
}

// RegisterRoutes registers receiving routes
func (h *ReceivingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	receivings := rg.Group("/receivings")
	{
		receivings.GET("/scan/:token", h.ScanInfo)
		receivings.POST("/scan/:token", h.ReceiveByScan)
		receivings.POST("/orders/:orderId/items", h.ReceiveByItems)
	}
}

// ScanInfo returns the order line snapshot behind a scan token
func (h *ReceivingHandler) ScanInfo(c *gin.Context) {
	token, err := uuid.Parse(c.Param("token"))
	if err != nil {
		h.BadRequest(c, "Invalid scan token format")
		return
	}

	info, err := h.receivingService.InfoByToken(c.Request.Context(), token)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, info)
}

// ReceiveByScan records a receipt against the line behind a scan token
func (h *ReceivingHandler) ReceiveByScan(c *gin.Context) {
	token, err := uuid.Parse(c.Param("token"))
	if err != nil {
		h.BadRequest(c, "Invalid scan token format")
		return
	}

	var req procurementapp.ReceiveByScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receiving, err := h.receivingService.ReceiveByScan(c.Request.Context(), token, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, receiving)
}

// ReceiveByItems records a batch receipt against an order
func (h *ReceivingHandler) ReceiveByItems(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "orderId")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req procurementapp.ReceiveByItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receiving, err := h.receivingService.ReceiveByItems(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, receiving)
}
