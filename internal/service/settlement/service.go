package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/repository"
)

var (
	// ErrInvalidAmount rejects negative or non-finite money and quantity values.
	ErrInvalidAmount = errors.New("amounts must be finite and not negative")
	// ErrAlreadySettled is returned when a sale already has a settlement.
	ErrAlreadySettled = errors.New("sale is already settled")
	// ErrUnknownFarmer is returned when a record references a missing farmer.
	ErrUnknownFarmer = errors.New("farmer does not exist")
)

// Store persists sales, input invoices and settlements.
type Store interface {
	InsertSale(ctx context.Context, sale models.Sale) error
	GetSale(ctx context.Context, id string) (models.Sale, error)
	InsertInputInvoice(ctx context.Context, inv models.InputInvoice) error
	OutstandingInvoices(ctx context.Context, farmerID string) ([]models.InputInvoice, error)
	ClaimInvoices(ctx context.Context, ids []string, settlementID string) ([]models.InputInvoice, error)
	ReleaseInvoices(ctx context.Context, settlementID string) error
	InsertSettlement(ctx context.Context, s models.Settlement) error
	GetSettlementBySale(ctx context.Context, saleID string) (models.Settlement, error)
}

// FarmerLookup resolves farmer profiles.
type FarmerLookup interface {
	GetFarmer(ctx context.Context, id string) (models.Farmer, error)
}

// LedgerRecorder exports settlements to an external ledger.
type LedgerRecorder interface {
	RecordSettlement(ctx context.Context, s models.Settlement) error
}

// SettlementNotifier tells farmers about their settlements.
type SettlementNotifier interface {
	SettlementReady(ctx context.Context, farmer models.Farmer, s models.Settlement) error
}

// Service records sales and settles them against outstanding input invoices.
type Service struct {
	store    Store
	farmers  FarmerLookup
	calc     *Calculator
	ledger   LedgerRecorder
	notifier SettlementNotifier
	now      func() time.Time
	logger   *zap.Logger
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithLedger exports every new settlement through l.
func WithLedger(l LedgerRecorder) ServiceOption {
	return func(s *Service) { s.ledger = l }
}

// WithNotifier sends farmers a message once a sale is settled.
func WithNotifier(n SettlementNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithServiceClock overrides the clock used for timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a settlement service.
func NewService(store Store, farmers FarmerLookup, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:   store,
		farmers: farmers,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.calc = NewCalculator(s.now)
	return s
}

// RecordSale stores a sale made on behalf of a farmer.
func (s *Service) RecordSale(ctx context.Context, sale models.Sale) (models.Sale, error) {
	if !validAmount(sale.QuantityKg) || !validAmount(sale.PricePerKg) {
		return models.Sale{}, ErrInvalidAmount
	}
	if err := s.ensureFarmer(ctx, sale.FarmerID); err != nil {
		return models.Sale{}, err
	}

	now := s.now().UTC()
	sale.ID = uuid.NewString()
	sale.CropType = strings.TrimSpace(sale.CropType)
	sale.CreatedAt = now
	if sale.SoldAt.IsZero() {
		sale.SoldAt = now
	}

	if err := s.store.InsertSale(ctx, sale); err != nil {
		return models.Sale{}, fmt.Errorf("record sale: %w", err)
	}
	s.logger.Info("sale recorded", zap.String("sale_id", sale.ID), zap.String("farmer_id", sale.FarmerID))
	return sale, nil
}

// RecordInputInvoice stores an input advanced to a farmer as outstanding.
func (s *Service) RecordInputInvoice(ctx context.Context, inv models.InputInvoice) (models.InputInvoice, error) {
	if !validAmount(inv.TotalAmount) {
		return models.InputInvoice{}, ErrInvalidAmount
	}
	if err := s.ensureFarmer(ctx, inv.FarmerID); err != nil {
		return models.InputInvoice{}, err
	}

	inv.ID = uuid.NewString()
	inv.Status = models.InvoiceOutstanding
	inv.SettlementID = ""
	inv.CreatedAt = s.now().UTC()

	if err := s.store.InsertInputInvoice(ctx, inv); err != nil {
		return models.InputInvoice{}, fmt.Errorf("record input invoice: %w", err)
	}
	return inv, nil
}

// Calculate validates the amounts and splits them.
func (s *Service) Calculate(grossRevenue, inputCosts float64) (models.SettlementBreakdown, error) {
	if !validAmount(grossRevenue) || !validAmount(inputCosts) {
		return models.SettlementBreakdown{}, ErrInvalidAmount
	}
	return CalculateShare(grossRevenue, inputCosts), nil
}

// CheckProfitability validates the amounts and checks them against threshold.
// A nil threshold uses DefaultProfitabilityThreshold.
func (s *Service) CheckProfitability(grossRevenue, inputCosts float64, threshold *float64) (models.ProfitabilityCheck, error) {
	minimum := DefaultProfitabilityThreshold
	if threshold != nil {
		minimum = *threshold
	}
	if !validAmount(grossRevenue) || !validAmount(inputCosts) || !validAmount(minimum) {
		return models.ProfitabilityCheck{}, ErrInvalidAmount
	}
	return ValidateProfitability(grossRevenue, inputCosts, minimum), nil
}

// PreviewStatement computes the statement the sale would settle to now,
// without persisting anything.
func (s *Service) PreviewStatement(ctx context.Context, saleID string) (models.SettlementStatement, error) {
	sale, invoices, err := s.load(ctx, saleID)
	if err != nil {
		return models.SettlementStatement{}, err
	}
	return s.calc.GenerateStatement(sale, invoices), nil
}

// SettleSale settles a sale once, deducting every outstanding invoice of its
// farmer. Invoices are claimed before the settlement is stored, so an invoice
// is deducted by at most one settlement. Ledger export and the farmer
// notification are best effort.
func (s *Service) SettleSale(ctx context.Context, saleID string) (models.Settlement, error) {
	if _, err := s.store.GetSettlementBySale(ctx, saleID); err == nil {
		return models.Settlement{}, ErrAlreadySettled
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.Settlement{}, fmt.Errorf("check settlement: %w", err)
	}

	sale, outstanding, err := s.load(ctx, saleID)
	if err != nil {
		return models.Settlement{}, err
	}

	ids := make([]string, 0, len(outstanding))
	for _, inv := range outstanding {
		ids = append(ids, inv.ID)
	}

	settlementID := uuid.NewString()
	claimed, err := s.store.ClaimInvoices(ctx, ids, settlementID)
	if err != nil {
		return models.Settlement{}, fmt.Errorf("claim invoices: %w", err)
	}
	if len(claimed) < len(ids) {
		s.logger.Info("invoices claimed by a concurrent settlement",
			zap.String("sale_id", sale.ID),
			zap.Int("outstanding", len(ids)),
			zap.Int("claimed", len(claimed)))
	}

	settlement := models.Settlement{
		ID:        settlementID,
		SaleID:    sale.ID,
		FarmerID:  sale.FarmerID,
		Statement: s.calc.GenerateStatement(sale, claimed),
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.InsertSettlement(ctx, settlement); err != nil {
		s.release(ctx, settlementID, len(claimed))
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Settlement{}, ErrAlreadySettled
		}
		return models.Settlement{}, fmt.Errorf("store settlement: %w", err)
	}

	s.logger.Info("sale settled",
		zap.String("sale_id", sale.ID),
		zap.String("settlement_id", settlement.ID),
		zap.Int("invoices", len(claimed)),
		zap.Float64("farmer_share", settlement.Statement.FarmerShare))

	s.publish(ctx, settlement)
	return settlement, nil
}

// release hands invoices claimed for a settlement that was never stored back
// to the next sale of the farmer.
func (s *Service) release(ctx context.Context, settlementID string, claimed int) {
	if claimed == 0 {
		return
	}
	if err := s.store.ReleaseInvoices(context.WithoutCancel(ctx), settlementID); err != nil {
		s.logger.Error("failed to release claimed invoices",
			zap.String("settlement_id", settlementID),
			zap.Error(err))
	}
}

// GetSettlement returns the settlement of a sale.
func (s *Service) GetSettlement(ctx context.Context, saleID string) (models.Settlement, error) {
	settlement, err := s.store.GetSettlementBySale(ctx, saleID)
	if err != nil {
		return models.Settlement{}, fmt.Errorf("get settlement: %w", err)
	}
	return settlement, nil
}

// GetSale returns a sale by id.
func (s *Service) GetSale(ctx context.Context, saleID string) (models.Sale, error) {
	sale, err := s.store.GetSale(ctx, saleID)
	if err != nil {
		return models.Sale{}, fmt.Errorf("get sale: %w", err)
	}
	return sale, nil
}

func (s *Service) load(ctx context.Context, saleID string) (models.Sale, []models.InputInvoice, error) {
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return models.Sale{}, nil, err
	}
	invoices, err := s.store.OutstandingInvoices(ctx, sale.FarmerID)
	if err != nil {
		return models.Sale{}, nil, fmt.Errorf("load outstanding invoices: %w", err)
	}
	return sale, invoices, nil
}

func (s *Service) publish(ctx context.Context, settlement models.Settlement) {
	if s.ledger != nil {
		if err := s.ledger.RecordSettlement(ctx, settlement); err != nil {
			s.logger.Warn("failed to export settlement to ledger", zap.String("settlement_id", settlement.ID), zap.Error(err))
		}
	}

	if s.notifier == nil {
		return
	}
	farmer, err := s.farmers.GetFarmer(ctx, settlement.FarmerID)
	if err != nil {
		s.logger.Warn("failed to load farmer for notification", zap.String("farmer_id", settlement.FarmerID), zap.Error(err))
		return
	}
	if err := s.notifier.SettlementReady(ctx, farmer, settlement); err != nil {
		s.logger.Warn("failed to notify farmer", zap.String("farmer_id", farmer.ID), zap.Error(err))
	}
}

func (s *Service) ensureFarmer(ctx context.Context, farmerID string) error {
	if _, err := s.farmers.GetFarmer(ctx, farmerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownFarmer
		}
		return fmt.Errorf("lookup farmer: %w", err)
	}
	return nil
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
