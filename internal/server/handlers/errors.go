package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/repository"
	"github.com/mamadbah2/farmhub/internal/service/auth"
	"github.com/mamadbah2/farmhub/internal/service/farmers"
	"github.com/mamadbah2/farmhub/internal/service/notify"
	"github.com/mamadbah2/farmhub/internal/service/settlement"
	"github.com/mamadbah2/farmhub/internal/service/storage"
)

var statusByError = []struct {
	err    error
	status int
}{
	{repository.ErrNotFound, http.StatusNotFound},

	{settlement.ErrInvalidAmount, http.StatusBadRequest},
	{settlement.ErrUnknownFarmer, http.StatusBadRequest},
	{farmers.ErrNameRequired, http.StatusBadRequest},
	{storage.ErrInvalidQuantity, http.StatusBadRequest},
	{storage.ErrInvalidRate, http.StatusBadRequest},
	{storage.ErrNameRequired, http.StatusBadRequest},
	{storage.ErrUnknownWarehouse, http.StatusBadRequest},
	{storage.ErrUnknownFarmer, http.StatusBadRequest},
	{storage.ErrRetrievedBeforeStored, http.StatusBadRequest},
	{storage.ErrFutureTimestamp, http.StatusBadRequest},
	{auth.ErrInvalidEmail, http.StatusBadRequest},
	{auth.ErrWeakPassword, http.StatusBadRequest},
	{auth.ErrInvalidRole, http.StatusBadRequest},
	{auth.ErrFarmerRequired, http.StatusBadRequest},
	{auth.ErrUnknownFarmer, http.StatusBadRequest},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized},

	{settlement.ErrAlreadySettled, http.StatusConflict},
	{storage.ErrLotAlreadyRetrieved, http.StatusConflict},
	{storage.ErrFeeNotFinal, http.StatusConflict},
	{auth.ErrAdminExists, http.StatusConflict},
	{auth.ErrEmailTaken, http.StatusConflict},
	{repository.ErrDuplicate, http.StatusConflict},
	{repository.ErrConflict, http.StatusConflict},

	{notify.ErrDisabled, http.StatusServiceUnavailable},
}

// classify maps a service error to its HTTP status and public message.
func classify(err error) (int, string) {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status, e.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondError writes {"error": msg}. Unexpected errors are logged and hidden.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}

func respondBindError(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request payload", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func respondForbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
}
