package repositories

import (
	"context"
	"time"

	"relieflink/interfaces"
	"relieflink/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AlertRepository persists alerts in the "alerts" collection. All state
// machine guards are expressed as filters on conditional updates so that
// concurrent writers cannot both succeed.
type AlertRepository struct {
	collection *mongo.Collection
}

func NewAlertRepository(db *mongo.Database) *AlertRepository {
	return &AlertRepository{
		collection: db.Collection("alerts"),
	}
}

func (ar *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	alert.CreatedAt = time.Now()
	alert.UpdatedAt = time.Now()

	result, err := ar.collection.InsertOne(ctx, alert)
	if err != nil {
		logrus.Errorf("Failed to create alert: %v", err)
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		alert.ID = oid
	}
	return nil
}

func (ar *AlertRepository) GetByAlertID(ctx context.Context, alertID string) (*models.Alert, error) {
	var alert models.Alert
	err := ar.collection.FindOne(ctx, bson.M{"alertId": alertID}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrAlertNotFound
		}
		logrus.Errorf("Failed to get alert %s: %v", alertID, err)
		return nil, err
	}
	return &alert, nil
}

func (ar *AlertRepository) Query(ctx context.Context, q models.AlertQuery) ([]models.Alert, int64, error) {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Type != "" {
		filter["emergencyType"] = q.Type
	}
	if q.Urgency != "" {
		filter["urgencyLevel"] = q.Urgency
	}
	if q.Verified != nil {
		filter["verifiedByAdmin"] = *q.Verified
	}

	total, err := ar.collection.CountDocuments(ctx, filter)
	if err != nil {
		logrus.Errorf("Failed to count alerts: %v", err)
		return nil, 0, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := ar.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.Errorf("Failed to query alerts: %v", err)
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (ar *AlertRepository) GetActive(ctx context.Context) ([]models.Alert, error) {
	return ar.find(ctx, bson.M{"status": models.AlertStatusActive})
}

func (ar *AlertRepository) GetByOrganization(ctx context.Context, orgID string) ([]models.Alert, error) {
	oid, err := primitive.ObjectIDFromHex(orgID)
	if err != nil {
		return nil, interfaces.ErrAlertNotFound
	}
	return ar.find(ctx, bson.M{"organizationId": oid})
}

func (ar *AlertRepository) GetInRange(ctx context.Context, start, end time.Time) ([]models.Alert, error) {
	return ar.find(ctx, bson.M{
		"createdAt": bson.M{"$gte": start, "$lt": end},
	})
}

func (ar *AlertRepository) GetByVolunteer(ctx context.Context, volunteerID string) ([]models.Alert, error) {
	oid, err := primitive.ObjectIDFromHex(volunteerID)
	if err != nil {
		return nil, interfaces.ErrAlertNotFound
	}
	return ar.find(ctx, bson.M{"responses.volunteerId": oid})
}

func (ar *AlertRepository) find(ctx context.Context, filter bson.M) ([]models.Alert, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := ar.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.Errorf("Failed to find alerts: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (ar *AlertRepository) Delete(ctx context.Context, alertID string) error {
	result, err := ar.collection.DeleteOne(ctx, bson.M{"alertId": alertID})
	if err != nil {
		logrus.Errorf("Failed to delete alert %s: %v", alertID, err)
		return err
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrAlertNotFound
	}
	return nil
}

func (ar *AlertRepository) IncrementViews(ctx context.Context, alertID string) error {
	result, err := ar.collection.UpdateOne(ctx,
		bson.M{"alertId": alertID},
		bson.M{"$inc": bson.M{"analytics.totalViews": 1}},
	)
	if err != nil {
		logrus.Errorf("Failed to increment views for %s: %v", alertID, err)
		return err
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrAlertNotFound
	}
	return nil
}

// MarkVerified flips verifiedByAdmin exactly once. The verifiedByAdmin:false
// filter makes concurrent verifications single-fire: only one caller matches.
func (ar *AlertRepository) MarkVerified(ctx context.Context, alertID string, info models.VerificationInfo) error {
	result, err := ar.collection.UpdateOne(ctx,
		bson.M{"alertId": alertID, "verifiedByAdmin": false},
		bson.M{"$set": bson.M{
			"verifiedByAdmin": true,
			"verifiedBy":      info,
			"updatedAt":       time.Now(),
		}},
	)
	if err != nil {
		logrus.Errorf("Failed to mark alert %s verified: %v", alertID, err)
		return err
	}
	if result.MatchedCount == 0 {
		return ar.classifyVerifyMiss(ctx, alertID)
	}
	return nil
}

func (ar *AlertRepository) classifyVerifyMiss(ctx context.Context, alertID string) error {
	alert, err := ar.GetByAlertID(ctx, alertID)
	if err != nil {
		return err
	}
	if alert.VerifiedByAdmin {
		return interfaces.ErrAlreadyVerified
	}
	return interfaces.ErrAlertNotFound
}

func (ar *AlertRepository) SetNotificationsSent(ctx context.Context, alertID string, count int) error {
	result, err := ar.collection.UpdateOne(ctx,
		bson.M{"alertId": alertID},
		bson.M{"$set": bson.M{
			"notificationsSent": count,
			"updatedAt":         time.Now(),
		}},
	)
	if err != nil {
		logrus.Errorf("Failed to set notificationsSent for %s: %v", alertID, err)
		return err
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrAlertNotFound
	}
	return nil
}

// UpdateStatus moves an alert from one status to another. The from status is
// part of the filter, so a stale caller loses the race and gets
// ErrInvalidTransition instead of clobbering a concurrent change.
func (ar *AlertRepository) UpdateStatus(ctx context.Context, alertID, from, to string, resolvedAt *time.Time) error {
	update := bson.M{
		"status":    to,
		"updatedAt": time.Now(),
	}
	if resolvedAt != nil {
		update["resolvedAt"] = *resolvedAt
	}

	result, err := ar.collection.UpdateOne(ctx,
		bson.M{"alertId": alertID, "status": from},
		bson.M{"$set": update},
	)
	if err != nil {
		logrus.Errorf("Failed to update status for %s: %v", alertID, err)
		return err
	}
	if result.MatchedCount == 0 {
		if _, getErr := ar.GetByAlertID(ctx, alertID); getErr != nil {
			return getErr
		}
		return interfaces.ErrInvalidTransition
	}
	return nil
}

// AddResponse appends a volunteer response. The filter rejects the write when
// the alert is not active or the volunteer already has a response, so two
// concurrent joins by the same volunteer can never both land.
func (ar *AlertRepository) AddResponse(ctx context.Context, alertID string, response models.AlertResponse) error {
	result, err := ar.collection.UpdateOne(ctx,
		bson.M{
			"alertId":               alertID,
			"status":                models.AlertStatusActive,
			"responses.volunteerId": bson.M{"$ne": response.VolunteerID},
		},
		bson.M{
			"$push": bson.M{"responses": response},
			"$inc":  bson.M{"analytics.totalClicks": 1},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		logrus.Errorf("Failed to add response to %s: %v", alertID, err)
		return err
	}
	if result.MatchedCount == 0 {
		return ar.classifyResponseMiss(ctx, alertID, response.VolunteerID.Hex())
	}
	return nil
}

func (ar *AlertRepository) classifyResponseMiss(ctx context.Context, alertID, volunteerID string) error {
	alert, err := ar.GetByAlertID(ctx, alertID)
	if err != nil {
		return err
	}
	for _, r := range alert.Responses {
		if r.VolunteerID.Hex() == volunteerID {
			return interfaces.ErrDuplicateResponse
		}
	}
	if alert.Status != models.AlertStatusActive {
		return interfaces.ErrAlertNotActive
	}
	return interfaces.ErrDuplicateResponse
}

// SetResponseCheckIn transitions one response from joined to checked-in.
// The $elemMatch pins both the volunteer and the current status, so a second
// check-in finds nothing to match.
func (ar *AlertRepository) SetResponseCheckIn(ctx context.Context, alertID, volunteerID string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(volunteerID)
	if err != nil {
		return interfaces.ErrResponseNotFound
	}

	result, err := ar.collection.UpdateOne(ctx,
		bson.M{
			"alertId": alertID,
			"status":  models.AlertStatusActive,
			"responses": bson.M{"$elemMatch": bson.M{
				"volunteerId": oid,
				"status":      models.ResponseStatusJoined,
			}},
		},
		bson.M{"$set": bson.M{
			"responses.$.status":      models.ResponseStatusCheckedIn,
			"responses.$.checkInTime": at,
			"updatedAt":               time.Now(),
		}},
	)
	if err != nil {
		logrus.Errorf("Failed to check in volunteer on %s: %v", alertID, err)
		return err
	}
	if result.MatchedCount == 0 {
		return ar.classifyTransitionMiss(ctx, alertID, volunteerID, models.ResponseStatusJoined)
	}
	return nil
}

// SetResponseCheckOut transitions one response from checked-in to completed,
// bumping the completed counter in the same write.
func (ar *AlertRepository) SetResponseCheckOut(ctx context.Context, alertID, volunteerID string, at time.Time, feedback *models.ResponseFeedback) error {
	oid, err := primitive.ObjectIDFromHex(volunteerID)
	if err != nil {
		return interfaces.ErrResponseNotFound
	}

	set := bson.M{
		"responses.$.status":       models.ResponseStatusCompleted,
		"responses.$.checkOutTime": at,
		"updatedAt":                time.Now(),
	}
	if feedback != nil {
		set["responses.$.feedback"] = feedback
	}

	result, err := ar.collection.UpdateOne(ctx,
		bson.M{
			"alertId": alertID,
			"responses": bson.M{"$elemMatch": bson.M{
				"volunteerId": oid,
				"status":      models.ResponseStatusCheckedIn,
			}},
		},
		bson.M{
			"$set": set,
			"$inc": bson.M{"analytics.completedResponses": 1},
		},
	)
	if err != nil {
		logrus.Errorf("Failed to check out volunteer on %s: %v", alertID, err)
		return err
	}
	if result.MatchedCount == 0 {
		return ar.classifyTransitionMiss(ctx, alertID, volunteerID, models.ResponseStatusCheckedIn)
	}
	return nil
}

func (ar *AlertRepository) classifyTransitionMiss(ctx context.Context, alertID, volunteerID, wantStatus string) error {
	alert, err := ar.GetByAlertID(ctx, alertID)
	if err != nil {
		return err
	}
	if wantStatus == models.ResponseStatusJoined && alert.Status != models.AlertStatusActive {
		return interfaces.ErrAlertNotActive
	}
	for _, r := range alert.Responses {
		if r.VolunteerID.Hex() == volunteerID {
			return interfaces.ErrInvalidTransition
		}
	}
	return interfaces.ErrResponseNotFound
}

// RefreshAnalytics recomputes the derived per-alert analytics from the
// embedded responses.
func (ar *AlertRepository) RefreshAnalytics(ctx context.Context, alertID string) error {
	alert, err := ar.GetByAlertID(ctx, alertID)
	if err != nil {
		return err
	}

	var completed int64
	var ratingSum, ratingCount float64
	for _, r := range alert.Responses {
		if r.Status == models.ResponseStatusCompleted {
			completed++
		}
		if r.Feedback != nil && r.Feedback.Rating > 0 {
			ratingSum += float64(r.Feedback.Rating)
			ratingCount++
		}
	}

	avgRating := 0.0
	if ratingCount > 0 {
		avgRating = ratingSum / ratingCount
	}

	_, err = ar.collection.UpdateOne(ctx,
		bson.M{"alertId": alertID},
		bson.M{"$set": bson.M{
			"analytics.completedResponses": completed,
			"analytics.averageRating":      avgRating,
			"updatedAt":                    time.Now(),
		}},
	)
	if err != nil {
		logrus.Errorf("Failed to refresh analytics for %s: %v", alertID, err)
	}
	return err
}
