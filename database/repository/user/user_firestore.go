package userRepo

import (
	"context"
	"errors"
	"fmt"

	"freshtrack/models"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreUserRepo implements UserRepository on a Firestore "users"
// collection keyed by user id.
type FirestoreUserRepo struct {
	coll *firestore.CollectionRef
}

func NewFirestoreUserRepo(client *firestore.Client) UserRepository {
	return &FirestoreUserRepo{coll: client.Collection("users")}
}

// ListUsers pages through the users collection.
func (r *FirestoreUserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	iter := r.coll.Documents(ctx)
	defer iter.Stop()

	var users []models.User
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		var u models.User
		if err := doc.DataTo(&u); err != nil {
			zap.L().Warn("skipping undecodable user", zap.String("userId", doc.Ref.ID), zap.Error(err))
			continue
		}
		u.ID = doc.Ref.ID
		users = append(users, u)
	}
	return users, nil
}

// GetByID retrieves a user document.
func (r *FirestoreUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := r.coll.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}

	var u models.User
	if err := doc.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	u.ID = doc.Ref.ID
	return &u, nil
}

// CommitHistory writes one field path per key, so keys this pass did not
// touch are left as they are.
func (r *FirestoreUserRepo) CommitHistory(ctx context.Context, update models.HistoryUpdate) error {
	if update.Empty() {
		return nil
	}
	_, err := r.coll.Doc(update.UserID).Update(ctx, historyUpdates(update))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with id %s: %w", update.UserID, ErrUserNotFound)
		}
		return fmt.Errorf("failed to update history of user %s: %w", update.UserID, err)
	}
	return nil
}

func historyUpdates(update models.HistoryUpdate) []firestore.Update {
	updates := make([]firestore.Update, 0, len(update.Sent)+1)
	for key, at := range update.Sent {
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{"notificationHistory", key},
			Value:     at,
		})
	}
	if update.DigestSentAt != nil {
		updates = append(updates, firestore.Update{Path: "lastWeeklyDigestAt", Value: *update.DigestSentAt})
	}
	return updates
}
