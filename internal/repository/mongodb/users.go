package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

// InsertUser stores a new account. A taken email yields repository.ErrDuplicate.
func (r *MongoDBRepository) InsertUser(ctx context.Context, user models.User) error {
	return r.insert(ctx, usersCollection, user)
}

// GetUser loads a user by id.
func (r *MongoDBRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.findOne(ctx, usersCollection, bson.M{"_id": id}, &user)
	return user, err
}

// GetUserByEmail loads a user by normalized email.
func (r *MongoDBRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.findOne(ctx, usersCollection, bson.M{"email": email}, &user)
	return user, err
}

// CountUsersByRole counts accounts holding role.
func (r *MongoDBRepository) CountUsersByRole(ctx context.Context, role models.Role) (int64, error) {
	n, err := r.db.Collection(usersCollection).CountDocuments(ctx, bson.M{"role": role}, options.Count().SetLimit(1))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
