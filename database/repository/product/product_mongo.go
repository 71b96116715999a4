package productRepo

import (
	"context"
	"fmt"
	"time"

	"freshtrack/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoProductRepo implements ProductRepository using MongoDB.
type MongoProductRepo struct {
	coll *mongo.Collection
}

func NewMongoProductRepo(db *mongo.Database) ProductRepository {
	repo := &MongoProductRepo{coll: db.Collection("products")}

	if err := repo.ensureIndexes(); err != nil {
		zap.L().Warn("failed to create indexes", zap.String("collection", "products"), zap.Error(err))
	}
	return repo
}

func (r *MongoProductRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// ListByUser returns the user's products in insertion order.
func (r *MongoProductRepo) ListByUser(ctx context.Context, userID string) ([]models.Product, error) {
	opts := options.Find().SetProjection(bson.M{
		"id":         1,
		"userId":     1,
		"name":       1,
		"expiryDate": 1,
	})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products of user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products of user %s: %w", userID, err)
	}
	return products, nil
}
