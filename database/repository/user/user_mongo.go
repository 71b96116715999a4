package userRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"freshtrack/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) UserRepository {
	repo := &MongoUserRepo{coll: db.Collection("users")}

	if err := repo.ensureIndexes(); err != nil {
		zap.L().Warn("failed to create indexes", zap.String("collection", "users"), zap.Error(err))
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

var notificationProjection = bson.M{
	"id":                  1,
	"deviceToken":         1,
	"lastWeeklyDigestAt":  1,
	"notificationHistory": 1,
}

// ListUsers scans the users collection.
func (r *MongoUserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetProjection(notificationProjection))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	for i := range users {
		decodeHistory(&users[i])
	}
	return users, nil
}

// GetByID retrieves a user by its unique ID.
func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	opts := options.FindOne().SetProjection(notificationProjection)

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	decodeHistory(&user)
	return &user, nil
}

// CommitHistory applies the update with $max so each key only moves
// forward and concurrent writers never erase each other's markers.
func (r *MongoUserRepo) CommitHistory(ctx context.Context, update models.HistoryUpdate) error {
	if update.Empty() {
		return nil
	}
	doc := historyUpdateDoc(update)
	if doc == nil {
		return nil
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": update.UserID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update history of user %s: %w", update.UserID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user with id %s: %w", update.UserID, ErrUserNotFound)
	}
	return nil
}

// Mongo field paths cannot hold "." and must not start with "$", so
// history keys are stored escaped and unescaped on read.
var (
	keyEscaper   = strings.NewReplacer("%", "%25", ".", "%2E", "$", "%24")
	keyUnescaper = strings.NewReplacer("%2E", ".", "%24", "$", "%25", "%")
)

func encodeKey(key string) string { return keyEscaper.Replace(key) }

func decodeKey(key string) string { return keyUnescaper.Replace(key) }

func decodeHistory(u *models.User) {
	if len(u.NotificationHistory) == 0 {
		return
	}
	decoded := make(map[string]time.Time, len(u.NotificationHistory))
	for k, v := range u.NotificationHistory {
		decoded[decodeKey(k)] = v
	}
	u.NotificationHistory = decoded
}

// historyUpdateDoc returns nil when there is nothing to write.
func historyUpdateDoc(update models.HistoryUpdate) bson.M {
	fields := bson.M{}
	for key, at := range update.Sent {
		if key == "" {
			zap.L().Warn("dropping empty reminder key", zap.String("userId", update.UserID))
			continue
		}
		fields["notificationHistory."+encodeKey(key)] = at
	}
	if update.DigestSentAt != nil {
		fields["lastWeeklyDigestAt"] = *update.DigestSentAt
	}
	if len(fields) == 0 {
		return nil
	}
	return bson.M{"$max": fields}
}
