package repository

import (
	productRepo "freshtrack/database/repository/product"
	userRepo "freshtrack/database/repository/user"

	"cloud.google.com/go/firestore"
	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the UserRepository interface and constructors.
type UserRepository = userRepo.UserRepository

var (
	NewMongoUserRepo     = userRepo.NewMongoUserRepo
	NewFirestoreUserRepo = userRepo.NewFirestoreUserRepo
	ErrUserNotFound      = userRepo.ErrUserNotFound
)

// Re-export the ProductRepository interface and constructors.
type ProductRepository = productRepo.ProductRepository

var (
	NewMongoProductRepo     = productRepo.NewMongoProductRepo
	NewFirestoreProductRepo = productRepo.NewFirestoreProductRepo
)

// Store groups the repositories backed by one document store.
type Store struct {
	Users    UserRepository
	Products ProductRepository
}

func NewMongoStore(db *mongo.Database) Store {
	return Store{
		Users:    NewMongoUserRepo(db),
		Products: NewMongoProductRepo(db),
	}
}

func NewFirestoreStore(client *firestore.Client) Store {
	return Store{
		Users:    NewFirestoreUserRepo(client),
		Products: NewFirestoreProductRepo(client),
	}
}

// Configured reports whether both repositories are present.
func (s Store) Configured() bool {
	return s.Users != nil && s.Products != nil
}
