package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/server/middleware"
	"github.com/mamadbah2/farmhub/pkg/pdf"
)

// StorageService is the warehouse surface used by StorageHandler.
type StorageService interface {
	RegisterWarehouse(ctx context.Context, w models.Warehouse) (models.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]models.Warehouse, error)
	StoreLot(ctx context.Context, lot models.StoredLot) (models.StoredLot, error)
	GetLot(ctx context.Context, id string) (models.StoredLot, error)
	RetrieveLot(ctx context.Context, lotID string, retrievedAt time.Time) (models.StoredLot, error)
	LotFee(ctx context.Context, lotID string) (models.FeeResult, error)
	OngoingEstimate(ctx context.Context, lotID string) (models.OngoingEstimate, error)
	WarehouseFees(ctx context.Context, warehouseID, farmerID string) (models.BulkFeeSummary, error)
	IssueInvoice(ctx context.Context, lotID string) (models.StorageInvoice, bool, error)
	InvoicePDF(ctx context.Context, number string) ([]byte, models.StorageInvoice, error)
}

// StorageHandler exposes warehouses, stored lots and storage invoices.
type StorageHandler struct {
	svc    StorageService
	logger *zap.Logger
}

// NewStorageHandler constructs the HTTP handler adapter.
func NewStorageHandler(svc StorageService, logger *zap.Logger) *StorageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageHandler{svc: svc, logger: logger}
}

type warehouseRequest struct {
	Name            string  `json:"name" binding:"required"`
	Location        string  `json:"location"`
	FeePerKgPerWeek float64 `json:"user_fee_per_kg_per_week" binding:"gte=0"`
	ManagerPhone    string  `json:"manager_phone"`
}

type lotRequest struct {
	FarmerID    string     `json:"farmer_id" binding:"required"`
	WarehouseID string     `json:"warehouse_id" binding:"required"`
	CropType    string     `json:"crop_type" binding:"required"`
	QuantityKg  float64    `json:"quantity_kg" binding:"gt=0"`
	StoredAt    *time.Time `json:"stored_at"`
}

type retrieveRequest struct {
	RetrievedAt *time.Time `json:"retrieved_at"`
}

// CreateWarehouse registers a facility.
func (h *StorageHandler) CreateWarehouse(c *gin.Context) {
	var req warehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	w, err := h.svc.RegisterWarehouse(c.Request.Context(), models.Warehouse{
		Name:            req.Name,
		Location:        req.Location,
		FeePerKgPerWeek: req.FeePerKgPerWeek,
		ManagerPhone:    req.ManagerPhone,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// ListWarehouses returns every facility.
func (h *StorageHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.svc.ListWarehouses(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"warehouses": warehouses})
}

// StoreLot records produce entering storage.
func (h *StorageHandler) StoreLot(c *gin.Context) {
	var req lotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	lot := models.StoredLot{
		FarmerID:    req.FarmerID,
		WarehouseID: req.WarehouseID,
		CropType:    req.CropType,
		QuantityKg:  req.QuantityKg,
	}
	if req.StoredAt != nil {
		lot.StoredAt = req.StoredAt.UTC()
	}

	created, err := h.svc.StoreLot(c.Request.Context(), lot)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// RetrieveLot takes a lot out of storage. The body is optional; without a
// retrieved_at the lot is retrieved now.
func (h *StorageHandler) RetrieveLot(c *gin.Context) {
	var req retrieveRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondBindError(c, h.logger, err)
			return
		}
	}

	var at time.Time
	if req.RetrievedAt != nil {
		at = *req.RetrievedAt
	}

	lot, err := h.svc.RetrieveLot(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// LotFee returns the fee of a lot.
func (h *StorageHandler) LotFee(c *gin.Context) {
	id := c.Param("id")
	if !h.ownsLot(c, id) {
		return
	}

	fee, err := h.svc.LotFee(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, fee)
}

// Estimate returns the running cost of a lot still in storage.
func (h *StorageHandler) Estimate(c *gin.Context) {
	id := c.Param("id")
	if !h.ownsLot(c, id) {
		return
	}

	est, err := h.svc.OngoingEstimate(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

// WarehouseFees summarises the fees of a warehouse, optionally for one farmer.
func (h *StorageHandler) WarehouseFees(c *gin.Context) {
	summary, err := h.svc.WarehouseFees(c.Request.Context(), c.Param("id"), c.Query("farmer_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// IssueInvoice bills a retrieved lot. Replays return the existing invoice with 200.
func (h *StorageHandler) IssueInvoice(c *gin.Context) {
	inv, created, err := h.svc.IssueInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, inv)
}

// InvoicePDF downloads an invoice document.
func (h *StorageHandler) InvoicePDF(c *gin.Context) {
	doc, inv, err := h.svc.InvoicePDF(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdf.FileName(inv)))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *StorageHandler) ownsLot(c *gin.Context, lotID string) bool {
	p, _ := middleware.CurrentPrincipal(c)
	if p.Role != models.RoleFarmer {
		return true
	}

	lot, err := h.svc.GetLot(c.Request.Context(), lotID)
	if err != nil {
		respondError(c, h.logger, err)
		return false
	}
	if !p.CanAccessFarmer(lot.FarmerID) {
		respondForbidden(c)
		return false
	}
	return true
}
