package storage

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
	"github.com/mamadbah2/farmhub/internal/service/storagefee"
	"github.com/mamadbah2/farmhub/pkg/clients/whatsapp"
)

var (
	ErrInvalidQuantity       = errors.New("quantity must be a positive number of kg")
	ErrInvalidRate           = errors.New("fee per kg per week must be finite and not negative")
	ErrNameRequired          = errors.New("warehouse name is required")
	ErrUnknownWarehouse      = errors.New("warehouse does not exist")
	ErrUnknownFarmer         = errors.New("farmer does not exist")
	ErrLotAlreadyRetrieved   = errors.New("lot has already been retrieved")
	ErrRetrievedBeforeStored = errors.New("retrieval time is before storage time")
	ErrFeeNotFinal           = errors.New("lot is still in storage, its fee is not final")
	ErrFutureTimestamp       = errors.New("storage and retrieval times cannot be in the future")
)

// Store persists warehouses, lots and storage invoices.
type Store interface {
	InsertWarehouse(ctx context.Context, w models.Warehouse) error
	GetWarehouse(ctx context.Context, id string) (models.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]models.Warehouse, error)
	InsertLot(ctx context.Context, lot models.StoredLot) error
	GetLot(ctx context.Context, id string) (models.StoredLot, error)
	ListLots(ctx context.Context, filter repository.LotFilter) ([]models.StoredLot, error)
	FinalizeLot(ctx context.Context, id string, retrievedAt time.Time, fee models.FeeResult) error
	ClaimLotInvoice(ctx context.Context, lotID, number string) error
	InsertStorageInvoice(ctx context.Context, inv models.StorageInvoice) error
	GetStorageInvoice(ctx context.Context, number string) (models.StorageInvoice, error)
}

// FarmerLookup resolves farmer profiles.
type FarmerLookup interface {
	GetFarmer(ctx context.Context, id string) (models.Farmer, error)
}

// InvoiceRenderer renders an invoice document.
type InvoiceRenderer interface {
	StorageInvoice(inv models.StorageInvoice) ([]byte, error)
}

// Service runs the warehouse lifecycle of stored produce.
type Service struct {
	store    Store
	farmers  FarmerLookup
	calc     *storagefee.Calculator
	renderer InvoiceRenderer
	now      func() time.Time
	logger   *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a storage service. calc may be nil to use the default calculator.
func NewService(store Store, farmers FarmerLookup, calc *storagefee.Calculator, renderer InvoiceRenderer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = storagefee.NewCalculator()
	}
	s := &Service{
		store:    store,
		farmers:  farmers,
		calc:     calc,
		renderer: renderer,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterWarehouse stores a new facility.
func (s *Service) RegisterWarehouse(ctx context.Context, w models.Warehouse) (models.Warehouse, error) {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return models.Warehouse{}, ErrNameRequired
	}
	if math.IsNaN(w.FeePerKgPerWeek) || math.IsInf(w.FeePerKgPerWeek, 0) || w.FeePerKgPerWeek < 0 {
		return models.Warehouse{}, ErrInvalidRate
	}

	w.ID = uuid.NewString()
	w.Location = strings.TrimSpace(w.Location)
	w.ManagerPhone = whatsapp.NormalizeNumber(w.ManagerPhone)
	w.CreatedAt = s.now().UTC()

	if err := s.store.InsertWarehouse(ctx, w); err != nil {
		return models.Warehouse{}, fmt.Errorf("register warehouse: %w", err)
	}
	s.logger.Info("warehouse registered", zap.String("warehouse_id", w.ID), zap.Float64("rate", w.FeePerKgPerWeek))
	return w, nil
}

// ListWarehouses returns every facility.
func (s *Service) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	warehouses, err := s.store.ListWarehouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return warehouses, nil
}

// GetWarehouse returns a facility by id.
func (s *Service) GetWarehouse(ctx context.Context, id string) (models.Warehouse, error) {
	w, err := s.store.GetWarehouse(ctx, id)
	if err != nil {
		return models.Warehouse{}, fmt.Errorf("get warehouse: %w", err)
	}
	return w, nil
}

// StoreLot records produce entering a warehouse. A zero StoredAt means now.
func (s *Service) StoreLot(ctx context.Context, lot models.StoredLot) (models.StoredLot, error) {
	if math.IsNaN(lot.QuantityKg) || math.IsInf(lot.QuantityKg, 0) || lot.QuantityKg <= 0 {
		return models.StoredLot{}, ErrInvalidQuantity
	}
	if _, err := s.store.GetWarehouse(ctx, lot.WarehouseID); err != nil {
		return models.StoredLot{}, lookupErr(err, ErrUnknownWarehouse)
	}
	if _, err := s.farmers.GetFarmer(ctx, lot.FarmerID); err != nil {
		return models.StoredLot{}, lookupErr(err, ErrUnknownFarmer)
	}

	now := s.now().UTC()
	lot.ID = uuid.NewString()
	lot.CropType = strings.TrimSpace(lot.CropType)
	lot.Status = models.LotInStorage
	lot.RetrievedAt = nil
	lot.Fee = nil
	lot.InvoiceNumber = ""
	lot.CreatedAt = now
	if lot.StoredAt.IsZero() {
		lot.StoredAt = now
	}
	lot.StoredAt = lot.StoredAt.UTC()
	if lot.StoredAt.After(now) {
		return models.StoredLot{}, ErrFutureTimestamp
	}

	if err := s.store.InsertLot(ctx, lot); err != nil {
		return models.StoredLot{}, fmt.Errorf("store lot: %w", err)
	}
	s.logger.Info("lot stored",
		zap.String("lot_id", lot.ID),
		zap.String("warehouse_id", lot.WarehouseID),
		zap.Float64("quantity_kg", lot.QuantityKg))
	return lot, nil
}

// GetLot returns a lot by id.
func (s *Service) GetLot(ctx context.Context, id string) (models.StoredLot, error) {
	lot, err := s.store.GetLot(ctx, id)
	if err != nil {
		return models.StoredLot{}, fmt.Errorf("get lot: %w", err)
	}
	return lot, nil
}

// RetrieveLot takes a lot out of storage and finalizes its fee. A zero
// retrievedAt means now. The fee is computed once here and never again.
func (s *Service) RetrieveLot(ctx context.Context, lotID string, retrievedAt time.Time) (models.StoredLot, error) {
	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return models.StoredLot{}, err
	}
	if lot.Status == models.LotRetrieved {
		return models.StoredLot{}, ErrLotAlreadyRetrieved
	}

	now := s.now().UTC()
	if retrievedAt.IsZero() {
		retrievedAt = now
	}
	retrievedAt = retrievedAt.UTC()
	if retrievedAt.After(now) {
		return models.StoredLot{}, ErrFutureTimestamp
	}
	if retrievedAt.Before(lot.StoredAt) {
		return models.StoredLot{}, ErrRetrievedBeforeStored
	}

	warehouse, err := s.GetWarehouse(ctx, lot.WarehouseID)
	if err != nil {
		return models.StoredLot{}, err
	}

	lot.RetrievedAt = &retrievedAt
	fee := s.calc.CalculateFee(lot, warehouse)

	if err := s.store.FinalizeLot(ctx, lot.ID, retrievedAt, fee); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return models.StoredLot{}, ErrLotAlreadyRetrieved
		}
		return models.StoredLot{}, fmt.Errorf("finalize lot: %w", err)
	}

	lot.Status = models.LotRetrieved
	lot.Fee = &fee
	s.logger.Info("lot retrieved",
		zap.String("lot_id", lot.ID),
		zap.Int("weeks", fee.DurationWeeks),
		zap.Float64("total_fee", fee.TotalFee))
	return lot, nil
}

// LotFee returns the final fee of a retrieved lot, or the in-storage result.
func (s *Service) LotFee(ctx context.Context, lotID string) (models.FeeResult, error) {
	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return models.FeeResult{}, err
	}
	if lot.Fee != nil {
		return *lot.Fee, nil
	}

	warehouse, err := s.GetWarehouse(ctx, lot.WarehouseID)
	if err != nil {
		return models.FeeResult{}, err
	}
	return s.calc.CalculateFee(lot, warehouse), nil
}

// OngoingEstimate projects the fee accrued so far by a lot still in storage.
func (s *Service) OngoingEstimate(ctx context.Context, lotID string) (models.OngoingEstimate, error) {
	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return models.OngoingEstimate{}, err
	}
	if lot.Status == models.LotRetrieved {
		return models.OngoingEstimate{}, ErrLotAlreadyRetrieved
	}

	warehouse, err := s.GetWarehouse(ctx, lot.WarehouseID)
	if err != nil {
		return models.OngoingEstimate{}, err
	}
	return s.calc.CalculateOngoingCost(lot.QuantityKg, lot.StoredAt, warehouse.FeePerKgPerWeek), nil
}

// WarehouseFees summarises the fees of every lot held at a warehouse,
// optionally restricted to one farmer. Retrieved lots report their stored fee.
func (s *Service) WarehouseFees(ctx context.Context, warehouseID, farmerID string) (models.BulkFeeSummary, error) {
	warehouse, err := s.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return models.BulkFeeSummary{}, err
	}

	lots, err := s.store.ListLots(ctx, repository.LotFilter{WarehouseID: warehouseID, FarmerID: farmerID})
	if err != nil {
		return models.BulkFeeSummary{}, fmt.Errorf("list lots: %w", err)
	}

	fees := make([]models.FeeResult, 0, len(lots))
	for _, lot := range lots {
		if lot.Fee != nil {
			fees = append(fees, *lot.Fee)
			continue
		}
		fees = append(fees, s.calc.CalculateFee(lot, warehouse))
	}
	return storagefee.SummarizeFees(fees), nil
}

// IssueInvoice bills a retrieved lot. A lot keeps its first invoice: later
// calls return it with created false.
func (s *Service) IssueInvoice(ctx context.Context, lotID string) (inv models.StorageInvoice, created bool, err error) {
	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return models.StorageInvoice{}, false, err
	}
	if lot.Status != models.LotRetrieved || lot.Fee == nil {
		return models.StorageInvoice{}, false, ErrFeeNotFinal
	}

	if lot.InvoiceNumber != "" {
		existing, err := s.store.GetStorageInvoice(ctx, lot.InvoiceNumber)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return models.StorageInvoice{}, false, fmt.Errorf("load invoice: %w", err)
		}
	}

	farmer, err := s.farmers.GetFarmer(ctx, lot.FarmerID)
	if err != nil {
		return models.StorageInvoice{}, false, lookupErr(err, ErrUnknownFarmer)
	}
	warehouse, err := s.GetWarehouse(ctx, lot.WarehouseID)
	if err != nil {
		return models.StorageInvoice{}, false, err
	}

	inv = s.calc.GenerateInvoice(*lot.Fee,
		models.InvoiceParty{ID: farmer.ID, Name: farmer.Name, Phone: farmer.Phone},
		models.InvoiceParty{ID: warehouse.ID, Name: warehouse.Name, Phone: warehouse.ManagerPhone, Location: warehouse.Location},
	)
	inv.LotID = lot.ID

	if lot.InvoiceNumber != "" {
		// claimed earlier but never stored
		inv.InvoiceNumber = lot.InvoiceNumber
	} else if err := s.store.ClaimLotInvoice(ctx, lot.ID, inv.InvoiceNumber); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return s.claimedInvoice(ctx, lot.ID)
		}
		return models.StorageInvoice{}, false, fmt.Errorf("claim invoice number: %w", err)
	}

	if err := s.store.InsertStorageInvoice(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.claimedInvoice(ctx, lot.ID)
		}
		return models.StorageInvoice{}, false, fmt.Errorf("store invoice: %w", err)
	}

	s.logger.Info("storage invoice issued",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("lot_id", lot.ID),
		zap.Float64("total", inv.TotalAmount))
	return inv, true, nil
}

// GetInvoice returns an issued invoice by number.
func (s *Service) GetInvoice(ctx context.Context, number string) (models.StorageInvoice, error) {
	inv, err := s.store.GetStorageInvoice(ctx, number)
	if err != nil {
		return models.StorageInvoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// InvoicePDF renders an issued invoice.
func (s *Service) InvoicePDF(ctx context.Context, number string) ([]byte, models.StorageInvoice, error) {
	inv, err := s.GetInvoice(ctx, number)
	if err != nil {
		return nil, models.StorageInvoice{}, err
	}
	doc, err := s.renderer.StorageInvoice(inv)
	if err != nil {
		return nil, models.StorageInvoice{}, err
	}
	return doc, inv, nil
}

// claimedInvoice loads the invoice a concurrent call claimed for lotID. The
// winner may not have stored it yet, which is reported as a conflict so the
// caller can retry.
func (s *Service) claimedInvoice(ctx context.Context, lotID string) (models.StorageInvoice, bool, error) {
	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return models.StorageInvoice{}, false, err
	}
	inv, err := s.store.GetStorageInvoice(ctx, lot.InvoiceNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return models.StorageInvoice{}, false, fmt.Errorf("invoice %s is still being issued: %w", lot.InvoiceNumber, repository.ErrConflict)
	}
	if err != nil {
		return models.StorageInvoice{}, false, fmt.Errorf("load concurrently issued invoice: %w", err)
	}
	return inv, false, nil
}

func lookupErr(err, missing error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return missing
	}
	return fmt.Errorf("lookup: %w", err)
}
