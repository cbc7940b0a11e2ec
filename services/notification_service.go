package services

import (
	"context"
	"fmt"

	"relieflink/interfaces"
	"relieflink/models"
	"relieflink/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService records in-app notifications and exposes typed
// constructors for the events the platform emits.
type NotificationService struct {
	notifications interfaces.NotificationSink
}

func NewNotificationService(notifications interfaces.NotificationSink) *NotificationService {
	return &NotificationService{
		notifications: notifications,
	}
}

func (ns *NotificationService) GetUserNotifications(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	return ns.notifications.GetForUser(ctx, userID, unreadOnly, page, limit)
}

func (ns *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return ns.notifications.MarkRead(ctx, userID, notificationID)
}

func (ns *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return ns.notifications.MarkAllRead(ctx, userID)
}

// NotifyEmergencyAlert records the in-app notification for one broadcast
// recipient.
func (ns *NotificationService) NotifyEmergencyAlert(ctx context.Context, userID primitive.ObjectID, alert *models.Alert) error {
	return ns.create(ctx, &models.Notification{
		UserID:   userID,
		Type:     models.NotificationEmergencyAlert,
		Title:    fmt.Sprintf("Emergency: %s", alert.Title),
		Body:     utils.TruncateString(alert.Description, 200),
		Priority: models.UrgencyToPriority(alert.UrgencyLevel),
		Data: map[string]interface{}{
			"emergencyType": alert.EmergencyType,
			"urgencyLevel":  alert.UrgencyLevel,
		},
		RelatedID:   alert.AlertID,
		RelatedType: "alert",
	})
}

// NotifyAlertJoined tells the organization a volunteer responded.
func (ns *NotificationService) NotifyAlertJoined(ctx context.Context, orgID primitive.ObjectID, volunteerName string, alert *models.Alert) error {
	return ns.create(ctx, &models.Notification{
		UserID:      orgID,
		Type:        models.NotificationAlertJoined,
		Title:       "New volunteer response",
		Body:        fmt.Sprintf("%s joined %s", volunteerName, alert.Title),
		Priority:    models.NotificationPriorityNormal,
		RelatedID:   alert.AlertID,
		RelatedType: "alert",
	})
}

// NotifyAlertVerified tells the organization their alert went live.
func (ns *NotificationService) NotifyAlertVerified(ctx context.Context, orgID primitive.ObjectID, alert *models.Alert) error {
	return ns.create(ctx, &models.Notification{
		UserID:      orgID,
		Type:        models.NotificationAlertVerified,
		Title:       "Alert verified",
		Body:        fmt.Sprintf("%s has been verified and broadcast to volunteers", alert.Title),
		Priority:    models.NotificationPriorityHigh,
		RelatedID:   alert.AlertID,
		RelatedType: "alert",
	})
}

// NotifyAlertClosed tells every responder the alert was resolved or
// cancelled.
func (ns *NotificationService) NotifyAlertClosed(ctx context.Context, alert *models.Alert) {
	notifType := models.NotificationAlertResolved
	body := fmt.Sprintf("%s has been marked resolved. Thank you for responding.", alert.Title)
	if alert.Status == models.AlertStatusCancelled {
		notifType = models.NotificationAlertCancelled
		body = fmt.Sprintf("%s has been cancelled by the organizer.", alert.Title)
	}

	for _, response := range alert.Responses {
		err := ns.create(ctx, &models.Notification{
			UserID:      response.VolunteerID,
			Type:        notifType,
			Title:       "Alert update",
			Body:        body,
			Priority:    models.NotificationPriorityNormal,
			RelatedID:   alert.AlertID,
			RelatedType: "alert",
		})
		if err != nil {
			logrus.Errorf("Failed to notify responder %s: %v", response.VolunteerID.Hex(), err)
		}
	}
}

// NotifyCertificateAwarded records a completion certificate notification
// after a volunteer checks out.
func (ns *NotificationService) NotifyCertificateAwarded(ctx context.Context, volunteerID primitive.ObjectID, alert *models.Alert) error {
	return ns.create(ctx, &models.Notification{
		UserID:      volunteerID,
		Type:        models.NotificationCertificateAwarded,
		Title:       "Certificate earned",
		Body:        fmt.Sprintf("Your participation in %s is complete. A certificate has been added to your profile.", alert.Title),
		Priority:    models.NotificationPriorityNormal,
		RelatedID:   alert.AlertID,
		RelatedType: "alert",
	})
}

func (ns *NotificationService) create(ctx context.Context, notification *models.Notification) error {
	if err := ns.notifications.Create(ctx, notification); err != nil {
		logrus.Errorf("Failed to create %s notification: %v", notification.Type, err)
		return err
	}
	return nil
}
