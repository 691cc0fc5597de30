package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkarim07/notification-hub/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a document is absent or not owned by the
// caller. Services translate it into their own sentinel errors.
var ErrNotFound = errors.New("document not found")

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// Create inserts a single notification and returns it with its assigned ID.
func (r *NotificationRepository) Create(ctx context.Context, notif *models.Notification) (*models.Notification, error) {
	notif.CreatedAt = time.Now()
	notif.Read = false
	notif.ReadAt = nil

	result, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert notification")
		return nil, fmt.Errorf("failed to create notification: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	notif.ID = insertedID

	return notif, nil
}

// CreateMany bulk-inserts notifications and returns the number created.
func (r *NotificationRepository) CreateMany(ctx context.Context, notifs []models.Notification) (int64, error) {
	docs := make([]interface{}, 0, len(notifs))
	now := time.Now()
	for i := range notifs {
		notifs[i].CreatedAt = now
		notifs[i].Read = false
		notifs[i].ReadAt = nil
		docs = append(docs, notifs[i])
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		logrus.WithError(err).Error("Failed to bulk insert notifications")
		return 0, fmt.Errorf("failed to create notifications: %v", err)
	}
	return int64(len(result.InsertedIDs)), nil
}

// ListByUser returns one page of a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, skip, limit int64) ([]models.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %v", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %v", err)
	}
	return notifications, nil
}

// Count returns the number of notifications for a user, optionally only the
// unread ones. Counts cover the whole set, not a page.
func (r *NotificationRepository) Count(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) (int64, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %v", err)
	}
	return count, nil
}

// MarkRead sets the read flag on a notification owned by userID. Marking an
// already-read notification is a no-op reported as success; read_at is only
// ever written on the false->true transition.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	now := time.Now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %v", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Nothing transitioned: either already read (success) or absent/not owned.
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to check notification: %v", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of a user as read and returns
// the number actually transitioned.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %v", err)
	}
	return result.ModifiedCount, nil
}

// Delete removes a notification if it is owned by userID.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReadOlderThan removes read notifications created before the cutoff.
// Used by the retention cron.
func (r *NotificationRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"read":       true,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %v", err)
	}
	logrus.Infof("Deleted %d old notifications", result.DeletedCount)
	return result.DeletedCount, nil
}
