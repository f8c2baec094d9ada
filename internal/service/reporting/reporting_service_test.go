package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/repository"
	"github.com/mamadbah2/farmhub/internal/service/storagefee"
)

type fakeStore struct {
	warehouses []models.Warehouse
	lots       []models.StoredLot
	err        error
	filter     repository.LotFilter
}

func (f *fakeStore) ListWarehouses(context.Context) ([]models.Warehouse, error) {
	return f.warehouses, f.err
}

func (f *fakeStore) ListLots(_ context.Context, filter repository.LotFilter) ([]models.StoredLot, error) {
	f.filter = filter
	return f.lots, nil
}

var now = time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	clock := func() time.Time { return now }
	return NewService(store, storagefee.NewCalculator(storagefee.WithClock(clock)), nil, WithClock(clock))
}

func TestStorageDigest(t *testing.T) {
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)
	store := &fakeStore{
		warehouses: []models.Warehouse{
			{ID: "w1", Name: "Gulu North", FeePerKgPerWeek: 100},
			{ID: "w2", Name: "Lira Central", FeePerKgPerWeek: 50},
			{ID: "w3", Name: "Empty Shed", FeePerKgPerWeek: 10},
		},
		lots: []models.StoredLot{
			{ID: "l1", WarehouseID: "w1", QuantityKg: 50, StoredAt: twoWeeksAgo},
			{ID: "l2", WarehouseID: "w2", QuantityKg: 20, StoredAt: twoWeeksAgo},
			{ID: "l3", WarehouseID: "gone", QuantityKg: 999, StoredAt: twoWeeksAgo},
		},
	}

	digest, err := newTestService(store).StorageDigest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.LotInStorage, store.filter.Status)
	assert.Contains(t, digest, "Storage digest (2024-01-15): 2 lot(s), 70.00 kg in storage, est. 12000.00 accrued.")
	assert.Contains(t, digest, "- Gulu North: 1 lot(s), 50.00 kg, est. 10000.00")
	assert.Contains(t, digest, "- Lira Central: 1 lot(s), 20.00 kg, est. 2000.00")
	assert.NotContains(t, digest, "Empty Shed")
}

func TestStorageDigest_Empty(t *testing.T) {
	digest, err := newTestService(&fakeStore{}).StorageDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Storage digest (2024-01-15): no produce in storage.", digest)
}

func TestStorageDigest_StoreError(t *testing.T) {
	_, err := newTestService(&fakeStore{err: errors.New("down")}).StorageDigest(context.Background())
	assert.ErrorContains(t, err, "load warehouses")
}

func TestStorageDigest_ClockDatesDigestAndEstimates(t *testing.T) {
	later := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	store := &fakeStore{
		warehouses: []models.Warehouse{{ID: "w1", Name: "Gulu North", FeePerKgPerWeek: 100}},
		lots:       []models.StoredLot{{ID: "l1", WarehouseID: "w1", QuantityKg: 10, StoredAt: later.Add(-7 * 24 * time.Hour)}},
	}

	svc := NewService(store, nil, nil, WithClock(func() time.Time { return later }))
	digest, err := svc.StorageDigest(context.Background())
	require.NoError(t, err)

	assert.Contains(t, digest, "Storage digest (2024-02-01): 1 lot(s), 10.00 kg in storage, est. 1000.00 accrued.")
}
