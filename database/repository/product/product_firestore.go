package productRepo

import (
	"context"
	"errors"
	"fmt"

	"freshtrack/models"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

// FirestoreProductRepo reads the top-level "products" collection, queried
// by the userId field.
type FirestoreProductRepo struct {
	coll *firestore.CollectionRef
}

func NewFirestoreProductRepo(client *firestore.Client) ProductRepository {
	return &FirestoreProductRepo{coll: client.Collection("products")}
}

func (r *FirestoreProductRepo) ListByUser(ctx context.Context, userID string) ([]models.Product, error) {
	iter := r.coll.Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	var products []models.Product
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list products of user %s: %w", userID, err)
		}

		var p models.Product
		if err := doc.DataTo(&p); err != nil {
			zap.L().Warn("skipping undecodable product", zap.String("productId", doc.Ref.ID), zap.Error(err))
			continue
		}
		p.ID = doc.Ref.ID
		products = append(products, p)
	}
	return products, nil
}
