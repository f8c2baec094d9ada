package farmers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/pkg/clients/whatsapp"
)

// ErrNameRequired is returned when a farmer is registered without a name.
var ErrNameRequired = errors.New("farmer name is required")

// Store persists farmer profiles.
type Store interface {
	InsertFarmer(ctx context.Context, farmer models.Farmer) error
	GetFarmer(ctx context.Context, id string) (models.Farmer, error)
	ListFarmers(ctx context.Context) ([]models.Farmer, error)
}

// Service manages the farmer registry.
type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService wires a farmer service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, now: time.Now, logger: logger}
}

// Register stores a new farmer. Phone numbers are kept digits only so they
// can be messaged directly.
func (s *Service) Register(ctx context.Context, farmer models.Farmer) (models.Farmer, error) {
	farmer.Name = strings.TrimSpace(farmer.Name)
	if farmer.Name == "" {
		return models.Farmer{}, ErrNameRequired
	}

	farmer.ID = uuid.NewString()
	farmer.Phone = whatsapp.NormalizeNumber(farmer.Phone)
	farmer.Village = strings.TrimSpace(farmer.Village)
	farmer.CreatedAt = s.now().UTC()

	if err := s.store.InsertFarmer(ctx, farmer); err != nil {
		return models.Farmer{}, fmt.Errorf("register farmer: %w", err)
	}

	s.logger.Info("farmer registered", zap.String("farmer_id", farmer.ID))
	return farmer, nil
}

// Get returns a farmer by id.
func (s *Service) Get(ctx context.Context, id string) (models.Farmer, error) {
	farmer, err := s.store.GetFarmer(ctx, id)
	if err != nil {
		return models.Farmer{}, fmt.Errorf("get farmer: %w", err)
	}
	return farmer, nil
}

// GetFarmer lets the service stand in wherever a farmer lookup is needed.
func (s *Service) GetFarmer(ctx context.Context, id string) (models.Farmer, error) {
	return s.Get(ctx, id)
}

// List returns every farmer.
func (s *Service) List(ctx context.Context) ([]models.Farmer, error) {
	farmers, err := s.store.ListFarmers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list farmers: %w", err)
	}
	return farmers, nil
}
