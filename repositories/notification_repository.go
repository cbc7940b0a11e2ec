package repositories

import (
	"context"
	"time"

	"relieflink/models"
	"relieflink/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

func (nr *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	notification.CreatedAt = time.Now()
	notification.UpdatedAt = time.Now()

	result, err := nr.collection.InsertOne(ctx, notification)
	if err != nil {
		logrus.Errorf("Failed to create notification: %v", err)
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		notification.ID = oid
	}
	return nil
}

func (nr *NotificationRepository) GetForUser(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, utils.NewBadRequestError("Invalid user ID")
	}

	filter := bson.M{"userId": oid}
	if unreadOnly {
		filter["isRead"] = false
	}

	total, err := nr.collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.Errorf("Failed to count notifications: %v", err)
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := nr.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.Errorf("Failed to get notifications for %s: %v", userID, err)
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (nr *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return utils.NewBadRequestError("Invalid user ID")
	}
	notifOID, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return utils.NewBadRequestError("Invalid notification ID")
	}

	result, err := nr.collection.UpdateOne(ctx,
		bson.M{"_id": notifOID, "userId": userOID},
		bson.M{"$set": bson.M{
			"isRead":    true,
			"readAt":    time.Now(),
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		logrus.Errorf("Failed to mark notification read: %v", err)
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("Notification")
	}
	return nil
}

func (nr *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return utils.NewBadRequestError("Invalid user ID")
	}

	_, err = nr.collection.UpdateMany(ctx,
		bson.M{"userId": oid, "isRead": false},
		bson.M{"$set": bson.M{
			"isRead":    true,
			"readAt":    time.Now(),
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		logrus.Errorf("Failed to mark all notifications read: %v", err)
	}
	return err
}
