package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/server/middleware"
)

// SettlementService is the sales and settlement surface used by SettlementHandler.
type SettlementService interface {
	RecordSale(ctx context.Context, sale models.Sale) (models.Sale, error)
	RecordInputInvoice(ctx context.Context, inv models.InputInvoice) (models.InputInvoice, error)
	Calculate(grossRevenue, inputCosts float64) (models.SettlementBreakdown, error)
	CheckProfitability(grossRevenue, inputCosts float64, threshold *float64) (models.ProfitabilityCheck, error)
	GetSale(ctx context.Context, saleID string) (models.Sale, error)
	PreviewStatement(ctx context.Context, saleID string) (models.SettlementStatement, error)
	SettleSale(ctx context.Context, saleID string) (models.Settlement, error)
	GetSettlement(ctx context.Context, saleID string) (models.Settlement, error)
}

// SettlementHandler exposes sales, input invoices and settlements.
type SettlementHandler struct {
	svc    SettlementService
	logger *zap.Logger
}

// NewSettlementHandler constructs the HTTP handler adapter.
func NewSettlementHandler(svc SettlementService, logger *zap.Logger) *SettlementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementHandler{svc: svc, logger: logger}
}

type saleRequest struct {
	FarmerID   string     `json:"farmer_id" binding:"required"`
	CropType   string     `json:"crop_type" binding:"required"`
	QuantityKg float64    `json:"quantity_kg" binding:"gt=0"`
	PricePerKg float64    `json:"price_per_kg" binding:"gte=0"`
	SoldAt     *time.Time `json:"sold_at"`
}

type inputInvoiceRequest struct {
	FarmerID        string  `json:"farmer_id" binding:"required"`
	TotalAmount     float64 `json:"total_amount" binding:"gte=0"`
	InvoiceType     string  `json:"invoice_type" binding:"required"`
	ItemDescription string  `json:"item_description"`
}

type calculateRequest struct {
	GrossRevenue float64 `json:"gross_revenue" binding:"gte=0"`
	InputCosts   float64 `json:"input_costs" binding:"gte=0"`
}

type profitabilityRequest struct {
	GrossRevenue     float64  `json:"gross_revenue" binding:"gte=0"`
	InputCosts       float64  `json:"input_costs" binding:"gte=0"`
	MinimumThreshold *float64 `json:"minimum_threshold"`
}

// RecordSale stores a sale.
func (h *SettlementHandler) RecordSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	sale := models.Sale{
		FarmerID:   req.FarmerID,
		CropType:   req.CropType,
		QuantityKg: req.QuantityKg,
		PricePerKg: req.PricePerKg,
	}
	if req.SoldAt != nil {
		sale.SoldAt = req.SoldAt.UTC()
	}

	created, err := h.svc.RecordSale(c.Request.Context(), sale)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// RecordInputInvoice stores an input advanced to a farmer.
func (h *SettlementHandler) RecordInputInvoice(c *gin.Context) {
	var req inputInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	inv, err := h.svc.RecordInputInvoice(c.Request.Context(), models.InputInvoice{
		FarmerID:        req.FarmerID,
		TotalAmount:     req.TotalAmount,
		InvoiceType:     req.InvoiceType,
		ItemDescription: req.ItemDescription,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// Calculate splits ad hoc amounts without touching stored data.
func (h *SettlementHandler) Calculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	breakdown, err := h.svc.Calculate(req.GrossRevenue, req.InputCosts)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// Profitability checks whether a sale clears the farmer's minimum share.
func (h *SettlementHandler) Profitability(c *gin.Context) {
	var req profitabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	check, err := h.svc.CheckProfitability(req.GrossRevenue, req.InputCosts, req.MinimumThreshold)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

// Preview shows the statement a sale would settle to.
func (h *SettlementHandler) Preview(c *gin.Context) {
	saleID := c.Param("id")
	if !h.ownsSale(c, saleID) {
		return
	}

	stmt, err := h.svc.PreviewStatement(c.Request.Context(), saleID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stmt)
}

// Settle settles a sale.
func (h *SettlementHandler) Settle(c *gin.Context) {
	settlement, err := h.svc.SettleSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, settlement)
}

// Get returns the settlement of a sale.
func (h *SettlementHandler) Get(c *gin.Context) {
	settlement, err := h.svc.GetSettlement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if p, _ := middleware.CurrentPrincipal(c); !p.CanAccessFarmer(settlement.FarmerID) {
		respondForbidden(c)
		return
	}
	c.JSON(http.StatusOK, settlement)
}

func (h *SettlementHandler) ownsSale(c *gin.Context, saleID string) bool {
	p, _ := middleware.CurrentPrincipal(c)
	if p.Role != models.RoleFarmer {
		return true
	}

	sale, err := h.svc.GetSale(c.Request.Context(), saleID)
	if err != nil {
		respondError(c, h.logger, err)
		return false
	}
	if !p.CanAccessFarmer(sale.FarmerID) {
		respondForbidden(c)
		return false
	}
	return true
}
