package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/repository"
	"github.com/mamadbah2/farmhub/internal/service/storagefee"
	"github.com/mamadbah2/farmhub/pkg/money"
)

const dateLayout = "2006-01-02"

// Store lists what the digest summarises.
type Store interface {
	ListWarehouses(ctx context.Context) ([]models.Warehouse, error)
	ListLots(ctx context.Context, filter repository.LotFilter) ([]models.StoredLot, error)
}

// Service builds text summaries for operators.
type Service struct {
	store  Store
	calc   *storagefee.Calculator
	now    func() time.Time
	logger *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock that dates the digest. Pass the same clock to
// the calculator so dates and estimates agree.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a new reporting service instance.
func NewService(store Store, calc *storagefee.Calculator, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: store, calc: calc, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.calc == nil {
		s.calc = storagefee.NewCalculator(storagefee.WithClock(s.now))
	}
	return s
}

// WarehouseDigest is the accrued cost of one warehouse's stored produce.
type WarehouseDigest struct {
	Name         string
	Lots         int
	QuantityKg   float64
	EstimatedFee float64
}

// StorageDigest summarises produce still in storage and the fees accrued so far.
func (s *Service) StorageDigest(ctx context.Context) (string, error) {
	warehouses, err := s.store.ListWarehouses(ctx)
	if err != nil {
		return "", fmt.Errorf("load warehouses: %w", err)
	}

	lots, err := s.store.ListLots(ctx, repository.LotFilter{Status: models.LotInStorage})
	if err != nil {
		return "", fmt.Errorf("load stored lots: %w", err)
	}

	byID := make(map[string]*WarehouseDigest, len(warehouses))
	rates := make(map[string]float64, len(warehouses))
	order := make([]string, 0, len(warehouses))
	for _, w := range warehouses {
		byID[w.ID] = &WarehouseDigest{Name: w.Name}
		rates[w.ID] = w.FeePerKgPerWeek
		order = append(order, w.ID)
	}

	var total WarehouseDigest
	for _, lot := range lots {
		digest, ok := byID[lot.WarehouseID]
		if !ok {
			s.logger.Debug("skip lot with unknown warehouse", zap.String("lot_id", lot.ID), zap.String("warehouse_id", lot.WarehouseID))
			continue
		}

		est := s.calc.CalculateOngoingCost(lot.QuantityKg, lot.StoredAt, rates[lot.WarehouseID])
		digest.Lots++
		digest.QuantityKg += lot.QuantityKg
		digest.EstimatedFee += est.EstimatedFee

		total.Lots++
		total.QuantityKg += lot.QuantityKg
		total.EstimatedFee += est.EstimatedFee
	}

	day := s.now().Format(dateLayout)
	if total.Lots == 0 {
		return fmt.Sprintf("Storage digest (%s): no produce in storage.", day), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Storage digest (%s): %d lot(s), %s kg in storage, est. %s accrued.",
		day, total.Lots, money.Format(total.QuantityKg), money.Format(total.EstimatedFee))

	for _, id := range order {
		d := byID[id]
		if d.Lots == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %d lot(s), %s kg, est. %s", d.Name, d.Lots, money.Format(d.QuantityKg), money.Format(d.EstimatedFee))
	}
	b.WriteString("\nEstimates bill partial weeks pro rata; final fees round up to whole weeks.")

	return b.String(), nil
}
