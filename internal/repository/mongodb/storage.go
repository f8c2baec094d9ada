package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/repository"
)

func lotFilter(f repository.LotFilter) bson.M {
	filter := bson.M{}
	if f.WarehouseID != "" {
		filter["warehouse_id"] = f.WarehouseID
	}
	if f.FarmerID != "" {
		filter["farmer_id"] = f.FarmerID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

// InsertWarehouse stores a warehouse.
func (r *MongoDBRepository) InsertWarehouse(ctx context.Context, w models.Warehouse) error {
	return r.insert(ctx, warehousesCollection, w)
}

// GetWarehouse loads a warehouse by id.
func (r *MongoDBRepository) GetWarehouse(ctx context.Context, id string) (models.Warehouse, error) {
	var w models.Warehouse
	err := r.findOne(ctx, warehousesCollection, bson.M{"_id": id}, &w)
	return w, err
}

// ListWarehouses returns warehouses ordered by name.
func (r *MongoDBRepository) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	warehouses := make([]models.Warehouse, 0)
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	err := r.findAll(ctx, warehousesCollection, bson.M{}, &warehouses, opts)
	return warehouses, err
}

// InsertLot stores a lot entering storage.
func (r *MongoDBRepository) InsertLot(ctx context.Context, lot models.StoredLot) error {
	return r.insert(ctx, lotsCollection, lot)
}

// GetLot loads a lot by id.
func (r *MongoDBRepository) GetLot(ctx context.Context, id string) (models.StoredLot, error) {
	var lot models.StoredLot
	err := r.findOne(ctx, lotsCollection, bson.M{"_id": id}, &lot)
	return lot, err
}

// ListLots returns lots matching filter, oldest stored first.
func (r *MongoDBRepository) ListLots(ctx context.Context, filter repository.LotFilter) ([]models.StoredLot, error) {
	lots := make([]models.StoredLot, 0)
	opts := options.Find().SetSort(bson.D{{Key: "stored_at", Value: 1}})
	err := r.findAll(ctx, lotsCollection, lotFilter(filter), &lots, opts)
	return lots, err
}

// FinalizeLot moves a lot from in_storage to retrieved together with its fee.
// A lot that is no longer in storage yields repository.ErrConflict.
func (r *MongoDBRepository) FinalizeLot(ctx context.Context, id string, retrievedAt time.Time, fee models.FeeResult) error {
	filter := bson.M{"_id": id, "status": models.LotInStorage}
	update := bson.M{"$set": bson.M{
		"status":       models.LotRetrieved,
		"retrieved_at": retrievedAt,
		"fee":          fee,
	}}

	res, err := r.db.Collection(lotsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("finalize lot %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrConflict
	}
	return nil
}

// ClaimLotInvoice records number as the lot's invoice unless one is already set.
func (r *MongoDBRepository) ClaimLotInvoice(ctx context.Context, lotID, number string) error {
	filter := bson.M{"_id": lotID, "invoice_number": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"invoice_number": number}}

	res, err := r.db.Collection(lotsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("claim invoice for lot %s: %w", lotID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrConflict
	}
	return nil
}

// InsertStorageInvoice stores an issued storage invoice.
func (r *MongoDBRepository) InsertStorageInvoice(ctx context.Context, inv models.StorageInvoice) error {
	return r.insert(ctx, storageInvoicesCollection, inv)
}

// GetStorageInvoice loads an invoice by number.
func (r *MongoDBRepository) GetStorageInvoice(ctx context.Context, number string) (models.StorageInvoice, error) {
	var inv models.StorageInvoice
	err := r.findOne(ctx, storageInvoicesCollection, bson.M{"_id": number}, &inv)
	return inv, err
}
