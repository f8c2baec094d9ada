package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	client "github.com/mamadbah2/farmhub/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmhub/pkg/money"
)

const sendTimeout = 10 * time.Second

// ErrDisabled is returned by Send when no messaging client is configured.
var ErrDisabled = errors.New("notifications are disabled")

// Notifier describes the outbound messages the rest of the service sends.
type Notifier interface {
	Send(ctx context.Context, req models.OutboundMessageRequest) error
	SettlementReady(ctx context.Context, farmer models.Farmer, settlement models.Settlement) error
}

// Service delivers notifications over WhatsApp. A nil client turns every
// automatic notification into a logged no-op.
type Service struct {
	client client.Client
	logger *zap.Logger
}

// NewService wires a new notification service.
func NewService(c client.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, logger: logger}
}

// Send lets operators push a message to any number.
func (s *Service) Send(ctx context.Context, req models.OutboundMessageRequest) error {
	if s.client == nil {
		return ErrDisabled
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	id, err := s.client.SendText(ctxWithTimeout, req.To, req.Message)
	if err != nil {
		return fmt.Errorf("send outbound message: %w", err)
	}

	s.logger.Info("outbound message sent", zap.String("message_id", id))
	return nil
}

// SettlementReady tells a farmer what they will be paid for a sale.
func (s *Service) SettlementReady(ctx context.Context, farmer models.Farmer, settlement models.Settlement) error {
	if s.client == nil {
		s.logger.Debug("notifications disabled, skipping settlement message", zap.String("settlement_id", settlement.ID))
		return nil
	}
	if farmer.Phone == "" {
		s.logger.Debug("farmer has no phone number", zap.String("farmer_id", farmer.ID))
		return nil
	}

	return s.Send(ctx, models.OutboundMessageRequest{
		To:      farmer.Phone,
		Message: SettlementMessage(farmer, settlement.Statement),
	})
}

// SettlementMessage renders the settlement text sent to a farmer.
func SettlementMessage(farmer models.Farmer, stmt models.SettlementStatement) string {
	msg := fmt.Sprintf("Hello %s, your %s sale of %s kg is settled.\nGross: %s\nInput costs: %s\nYour share: %s",
		farmer.Name,
		stmt.SaleDetails.CropType,
		money.Format(stmt.SaleDetails.QuantityKg),
		money.Format(stmt.GrossRevenue),
		money.Format(stmt.InputCostsDeducted),
		money.Format(stmt.FarmerShare),
	)
	if len(stmt.InputInvoices) > 0 {
		msg += fmt.Sprintf("\n%d input invoice(s) cleared.", len(stmt.InputInvoices))
	}
	return msg
}
