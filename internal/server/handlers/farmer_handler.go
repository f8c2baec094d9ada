package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/server/middleware"
)

// FarmerService is the registry surface used by FarmerHandler.
type FarmerService interface {
	Register(ctx context.Context, farmer models.Farmer) (models.Farmer, error)
	Get(ctx context.Context, id string) (models.Farmer, error)
	List(ctx context.Context) ([]models.Farmer, error)
}

// FarmerHandler exposes the farmer registry.
type FarmerHandler struct {
	svc    FarmerService
	logger *zap.Logger
}

// NewFarmerHandler constructs the HTTP handler adapter.
func NewFarmerHandler(svc FarmerService, logger *zap.Logger) *FarmerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmerHandler{svc: svc, logger: logger}
}

type farmerRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Village string `json:"village"`
}

// Create registers a farmer.
func (h *FarmerHandler) Create(c *gin.Context) {
	var req farmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	farmer, err := h.svc.Register(c.Request.Context(), models.Farmer{Name: req.Name, Phone: req.Phone, Village: req.Village})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, farmer)
}

// List returns every farmer.
func (h *FarmerHandler) List(c *gin.Context) {
	farmers, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"farmers": farmers})
}

// Get returns one farmer. Farmers may only read their own profile.
func (h *FarmerHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if p, _ := middleware.CurrentPrincipal(c); !p.CanAccessFarmer(id) {
		respondForbidden(c)
		return
	}

	farmer, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, farmer)
}
