package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmhub/internal/repository"
)

const (
	usersCollection           = "users"
	farmersCollection         = "farmers"
	salesCollection           = "sales"
	inputInvoicesCollection   = "input_invoices"
	settlementsCollection     = "settlements"
	warehousesCollection      = "warehouses"
	lotsCollection            = "stored_lots"
	storageInvoicesCollection = "storage_invoices"
)

// MongoDBRepository implements every store of the service on one MongoDB database.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository connects to uri and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// EnsureIndexes creates the unique and lookup indexes the stores rely on.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		inputInvoicesCollection: {
			{Keys: bson.D{{Key: "farmer_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "settlement_id", Value: 1}}},
		},
		settlementsCollection: {
			{Keys: bson.D{{Key: "sale_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		lotsCollection: {
			{Keys: bson.D{{Key: "warehouse_id", Value: 1}, {Key: "farmer_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) insert(ctx context.Context, coll string, doc interface{}) error {
	if _, err := r.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert into %s: %w", coll, err)
	}
	return nil
}

func (r *MongoDBRepository) findOne(ctx context.Context, coll string, filter interface{}, out interface{}) error {
	err := r.db.Collection(coll).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find in %s: %w", coll, err)
	}
	return nil
}

func (r *MongoDBRepository) findAll(ctx context.Context, coll string, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := r.db.Collection(coll).Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("query %s: %w", coll, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}
