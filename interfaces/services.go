package interfaces

import (
	"context"
	"errors"
	"time"

	"relieflink/models"
)

// Sentinel errors shared between the storage layer and the services that
// interpret its outcomes.
var (
	ErrAlertNotFound     = errors.New("alert not found")
	ErrAlertNotActive    = errors.New("alert is not active")
	ErrDuplicateResponse = errors.New("volunteer already responded to this alert")
	ErrResponseNotFound  = errors.New("response not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyVerified   = errors.New("alert already verified")
)

// AlertStore is the persistence surface for alerts and their embedded
// responses. Conditional writes carry the concurrency guarantees: duplicate
// joins, double check-ins and double verification are rejected at the
// storage layer, not by read-then-write in the services.
type AlertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByAlertID(ctx context.Context, alertID string) (*models.Alert, error)
	Query(ctx context.Context, q models.AlertQuery) ([]models.Alert, int64, error)
	GetActive(ctx context.Context) ([]models.Alert, error)
	GetByOrganization(ctx context.Context, orgID string) ([]models.Alert, error)
	GetInRange(ctx context.Context, start, end time.Time) ([]models.Alert, error)
	GetByVolunteer(ctx context.Context, volunteerID string) ([]models.Alert, error)
	Delete(ctx context.Context, alertID string) error

	IncrementViews(ctx context.Context, alertID string) error
	MarkVerified(ctx context.Context, alertID string, info models.VerificationInfo) error
	SetNotificationsSent(ctx context.Context, alertID string, count int) error
	UpdateStatus(ctx context.Context, alertID, from, to string, resolvedAt *time.Time) error

	AddResponse(ctx context.Context, alertID string, response models.AlertResponse) error
	SetResponseCheckIn(ctx context.Context, alertID, volunteerID string, at time.Time) error
	SetResponseCheckOut(ctx context.Context, alertID, volunteerID string, at time.Time, feedback *models.ResponseFeedback) error
	RefreshAnalytics(ctx context.Context, alertID string) error
}

// UserDirectory resolves users and the broadcast roster.
type UserDirectory interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetVolunteerRoster(ctx context.Context) ([]models.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// NotificationSink records in-app notifications.
type NotificationSink interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetForUser(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// EmailSink sends a single message. Implementations decide transport.
type EmailSink interface {
	SendAlertBroadcast(ctx context.Context, to, name string, alert *models.Alert) error
	SendJoinConfirmation(ctx context.Context, to, name string, alert *models.Alert) error
}

// Dispatcher fans an alert out to the volunteer roster.
type Dispatcher interface {
	Broadcast(ctx context.Context, alert *models.Alert, roster []models.User) *models.BroadcastResult
}
