package handler

import (
	"strconv"

	stockapp "github.com/chemstock/backend/internal/application/stock"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockHandler handles lot ledger API endpoints
type StockHandler struct {
	BaseHandler
	stockService *stockapp.Service
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *stockapp.Service) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/issue", h.Issue)
		stock.POST("/receive", h.Receive)
		stock.POST("/transfer", h.Transfer)
		stock.POST("/adjust", h.Adjust)
		stock.GET("/lots", h.ListLots)
		stock.GET("/lots/expiring", h.ListExpiringLots)
		stock.GET("/lots/:id", h.GetLot)
		stock.POST("/lots/:id/reconcile", h.ReconcileLot)
		stock.GET("/movements", h.ListMovements)
		stock.GET("/summary", h.Summary)
		stock.POST("/locations", h.CreateLocation)
		stock.GET("/locations", h.ListLocations)
	}
}

// Issue issues stock out of one or more lots
func (h *StockHandler) Issue(c *gin.Context) {
	var req stockapp.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	results, err := h.stockService.Issue(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, gin.H{"lines": results})
}

// Receive receives stock into a lot, creating it on first receipt
func (h *StockHandler) Receive(c *gin.Context) {
	var req stockapp.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lot, err := h.stockService.Receive(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, lot)
}

// Transfer moves quantity from one lot to a lot at another location
func (h *StockHandler) Transfer(c *gin.Context) {
	var req stockapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.stockService.Transfer(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Adjust corrects a lot's on-hand quantity to a counted value
func (h *StockHandler) Adjust(c *gin.Context) {
	var req stockapp.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lot, err := h.stockService.Adjust(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lot)
}

// GetLot returns one lot
func (h *StockHandler) GetLot(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	lot, err := h.stockService.GetLot(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lot)
}

// ListLots lists lots of a material
func (h *StockHandler) ListLots(c *gin.Context) {
	materialID, err := uuid.Parse(c.Query("material_id"))
	if err != nil {
		h.BadRequest(c, "material_id query parameter is required")
		return
	}

	filter := shared.DefaultFilter()
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size")); err == nil && pageSize > 0 {
		filter.PageSize = pageSize
	}
	if hasStock := c.Query("has_stock"); hasStock != "" {
		filter.Filters["has_stock"] = hasStock == "true"
	}

	lots, err := h.stockService.ListLots(c.Request.Context(), materialID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lots)
}

// ListExpiringLots lists lots expiring within the given number of days
func (h *StockHandler) ListExpiringLots(c *gin.Context) {
	withinDays := 30
	if v, err := strconv.Atoi(c.Query("within_days")); err == nil && v > 0 {
		withinDays = v
	}

	lots, err := h.stockService.ListExpiringLots(c.Request.Context(), withinDays)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lots)
}

// ReconcileLot checks a lot's on-hand quantity against its movement log
func (h *StockHandler) ReconcileLot(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	consistent, ledgerSum, err := h.stockService.ReconcileLot(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{
		"consistent": consistent,
		"ledger_sum": ledgerSum,
	})
}

// ListMovements lists the movement log
func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter stockapp.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	movements, err := h.stockService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, movements)
}

// Summary returns dashboard aggregates, served through a short-TTL cache
func (h *StockHandler) Summary(c *gin.Context) {
	summary, err := h.stockService.Summary(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// CreateLocationRequest represents a request to create a storage location
type CreateLocationRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// CreateLocation creates a storage location
func (h *StockHandler) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	location, err := h.stockService.CreateLocation(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, location)
}

// ListLocations lists storage locations
func (h *StockHandler) ListLocations(c *gin.Context) {
	filter := shared.DefaultFilter()
	if search := c.Query("search"); search != "" {
		filter.Search = search
	}

	locations, err := h.stockService.ListLocations(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, locations)
}
