package repositories

import (
	"context"

	"relieflink/models"
	"relieflink/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

func (ur *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, utils.NewBadRequestError("Invalid user ID")
	}

	var user models.User
	err = ur.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewUserNotFoundError()
		}
		logrus.Errorf("Failed to get user %s: %v", userID, err)
		return nil, err
	}
	return &user, nil
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := ur.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewUserNotFoundError()
		}
		logrus.Errorf("Failed to get user by email: %v", err)
		return nil, err
	}
	return &user, nil
}

// GetVolunteerRoster returns all active volunteers. This is the broadcast
// audience; email opt-out is honored per recipient by the dispatcher.
func (ur *UserRepository) GetVolunteerRoster(ctx context.Context) ([]models.User, error) {
	filter := bson.M{
		"role":     models.RoleVolunteer,
		"isActive": true,
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := ur.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.Errorf("Failed to load volunteer roster: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *UserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	count, err := ur.collection.CountDocuments(ctx, bson.M{"role": role, "isActive": true})
	if err != nil {
		logrus.Errorf("Failed to count users by role %s: %v", role, err)
		return 0, err
	}
	return count, nil
}
