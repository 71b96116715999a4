package productRepo

import (
	"context"

	"freshtrack/models"
)

// ProductRepository is read-only access to the products the scheduler
// evaluates.
type ProductRepository interface {
	// ListByUser returns every product owned by userID.
	ListByUser(ctx context.Context, userID string) ([]models.Product, error)
}
