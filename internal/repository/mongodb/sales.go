package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

// InsertSale stores a sale record.
func (r *MongoDBRepository) InsertSale(ctx context.Context, sale models.Sale) error {
	return r.insert(ctx, salesCollection, sale)
}

// GetSale loads a sale by id.
func (r *MongoDBRepository) GetSale(ctx context.Context, id string) (models.Sale, error) {
	var sale models.Sale
	err := r.findOne(ctx, salesCollection, bson.M{"_id": id}, &sale)
	return sale, err
}

// InsertInputInvoice stores an input invoice.
func (r *MongoDBRepository) InsertInputInvoice(ctx context.Context, inv models.InputInvoice) error {
	return r.insert(ctx, inputInvoicesCollection, inv)
}

// OutstandingInvoices lists a farmer's invoices not yet deducted, oldest first.
func (r *MongoDBRepository) OutstandingInvoices(ctx context.Context, farmerID string) ([]models.InputInvoice, error) {
	invoices := make([]models.InputInvoice, 0)
	filter := bson.M{"farmer_id": farmerID, "status": models.InvoiceOutstanding}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	err := r.findAll(ctx, inputInvoicesCollection, filter, &invoices, opts)
	return invoices, err
}

// ClaimInvoices flags the still outstanding invoices among ids as deducted by
// settlementID and returns the ones this call claimed, oldest first. Invoices
// already deducted by another settlement are skipped.
func (r *MongoDBRepository) ClaimInvoices(ctx context.Context, ids []string, settlementID string) ([]models.InputInvoice, error) {
	claimed := make([]models.InputInvoice, 0, len(ids))
	if len(ids) == 0 {
		return claimed, nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}, "status": models.InvoiceOutstanding}
	update := bson.M{"$set": bson.M{"status": models.InvoiceDeducted, "settlement_id": settlementID}}

	res, err := r.db.Collection(inputInvoicesCollection).UpdateMany(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("claim invoices: %w", err)
	}
	if res.ModifiedCount == 0 {
		return claimed, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	err = r.findAll(ctx, inputInvoicesCollection, bson.M{"settlement_id": settlementID}, &claimed, opts)
	return claimed, err
}

// ReleaseInvoices returns the invoices claimed by settlementID to outstanding.
func (r *MongoDBRepository) ReleaseInvoices(ctx context.Context, settlementID string) error {
	filter := bson.M{"settlement_id": settlementID, "status": models.InvoiceDeducted}
	update := bson.M{
		"$set":   bson.M{"status": models.InvoiceOutstanding},
		"$unset": bson.M{"settlement_id": ""},
	}
	if _, err := r.db.Collection(inputInvoicesCollection).UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("release invoices: %w", err)
	}
	return nil
}

// InsertSettlement stores a settlement. A second settlement of the same sale
// yields repository.ErrDuplicate.
func (r *MongoDBRepository) InsertSettlement(ctx context.Context, s models.Settlement) error {
	return r.insert(ctx, settlementsCollection, s)
}

// GetSettlementBySale loads the settlement of a sale.
func (r *MongoDBRepository) GetSettlementBySale(ctx context.Context, saleID string) (models.Settlement, error) {
	var s models.Settlement
	err := r.findOne(ctx, settlementsCollection, bson.M{"sale_id": saleID}, &s)
	return s, err
}
