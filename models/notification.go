package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an in-app notification row. Email delivery is tracked
// separately on the alert itself.
type Notification struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID primitive.ObjectID `json:"userId" bson:"userId"`

	Type  string                 `json:"type" bson:"type"`
	Title string                 `json:"title" bson:"title"`
	Body  string                 `json:"body" bson:"body"`
	Data  map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`

	Priority string `json:"priority" bson:"priority"`

	// References
	RelatedID   string `json:"relatedId,omitempty" bson:"relatedId,omitempty"`
	RelatedType string `json:"relatedType,omitempty" bson:"relatedType,omitempty"`

	IsRead bool      `json:"isRead" bson:"isRead"`
	ReadAt time.Time `json:"readAt,omitempty" bson:"readAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Notification Type Constants
const (
	NotificationEmergencyAlert     = "emergency_alert"
	NotificationAlertJoined        = "alert_joined"
	NotificationAlertVerified      = "alert_verified"
	NotificationAlertResolved      = "alert_resolved"
	NotificationAlertCancelled     = "alert_cancelled"
	NotificationCertificateAwarded = "certificate_awarded"
	NotificationResourceShared     = "resource_shared"
)

// Notification Priority Constants
const (
	NotificationPriorityLow    = "low"
	NotificationPriorityNormal = "normal"
	NotificationPriorityHigh   = "high"
	NotificationPriorityUrgent = "urgent"
)

// UrgencyToPriority maps an alert urgency level to a notification priority.
func UrgencyToPriority(urgency string) string {
	switch urgency {
	case UrgencyCritical:
		return NotificationPriorityUrgent
	case UrgencyHigh:
		return NotificationPriorityHigh
	case UrgencyMedium:
		return NotificationPriorityNormal
	default:
		return NotificationPriorityLow
	}
}
