package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

// InsertFarmer stores a farmer profile.
func (r *MongoDBRepository) InsertFarmer(ctx context.Context, farmer models.Farmer) error {
	return r.insert(ctx, farmersCollection, farmer)
}

// GetFarmer loads a farmer by id.
func (r *MongoDBRepository) GetFarmer(ctx context.Context, id string) (models.Farmer, error) {
	var farmer models.Farmer
	err := r.findOne(ctx, farmersCollection, bson.M{"_id": id}, &farmer)
	return farmer, err
}

// ListFarmers returns farmers ordered by name.
func (r *MongoDBRepository) ListFarmers(ctx context.Context) ([]models.Farmer, error) {
	farmers := make([]models.Farmer, 0)
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	err := r.findAll(ctx, farmersCollection, bson.M{}, &farmers, opts)
	return farmers, err
}
