package models

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert is the root aggregate for one emergency-response request raised by an
// organization. Responses are embedded so the whole lifecycle of an alert is a
// single document.
type Alert struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AlertID string             `json:"alertId" bson:"alertId"`

	OrganizationID    primitive.ObjectID `json:"organizationId" bson:"organizationId"`
	OrganizationName  string             `json:"organizationName" bson:"organizationName"`
	OrganizationEmail string             `json:"organizationEmail" bson:"organizationEmail"`

	Title            string           `json:"title" bson:"title"`
	Description      string           `json:"description" bson:"description"`
	EmergencyType    string           `json:"emergencyType" bson:"emergencyType"`
	UrgencyLevel     string           `json:"urgencyLevel" bson:"urgencyLevel"`
	Location         AlertLocation    `json:"location" bson:"location"`
	Instructions     string           `json:"instructions,omitempty" bson:"instructions,omitempty"`
	SafetyGuidelines string           `json:"safetyGuidelines,omitempty" bson:"safetyGuidelines,omitempty"`
	RequiredSkills   []string         `json:"requiredSkills,omitempty" bson:"requiredSkills,omitempty"`
	ContactInfo      AlertContact     `json:"contactInfo" bson:"contactInfo"`
	Image            string           `json:"image,omitempty" bson:"image,omitempty"`
	VolunteersNeeded VolunteersNeeded `json:"volunteersNeeded" bson:"volunteersNeeded"`

	StartTime         time.Time `json:"startTime,omitempty" bson:"startTime,omitempty"`
	EstimatedDuration string    `json:"estimatedDuration,omitempty" bson:"estimatedDuration,omitempty"`

	Status            string            `json:"status" bson:"status"`
	VerifiedByAdmin   bool              `json:"verifiedByAdmin" bson:"verifiedByAdmin"`
	VerifiedBy        *VerificationInfo `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	NotificationsSent int               `json:"notificationsSent" bson:"notificationsSent"`

	Responses []AlertResponse `json:"responses" bson:"responses"`
	Analytics AlertAnalytics  `json:"analytics" bson:"analytics"`

	// BroadcastedAt is the creation timestamp. The name predates the
	// verification gate and is kept for API continuity.
	BroadcastedAt time.Time `json:"broadcastedAt" bson:"broadcastedAt"`
	ResolvedAt    time.Time `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type AlertLocation struct {
	Address   string  `json:"address" bson:"address"`
	City      string  `json:"city,omitempty" bson:"city,omitempty"`
	Latitude  float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
}

type AlertContact struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}

type VolunteersNeeded struct {
	Virtual  int `json:"virtual" bson:"virtual"`
	InPerson int `json:"inPerson" bson:"inPerson"`
}

func (v VolunteersNeeded) Total() int {
	return v.Virtual + v.InPerson
}

type VerificationInfo struct {
	AdminID    primitive.ObjectID `json:"adminId" bson:"adminId"`
	AdminName  string             `json:"adminName" bson:"adminName"`
	VerifiedAt time.Time          `json:"verifiedAt" bson:"verifiedAt"`
}

// AlertResponse is one volunteer's participation record, unique per
// (alert, volunteer).
type AlertResponse struct {
	VolunteerID    primitive.ObjectID `json:"volunteerId" bson:"volunteerId"`
	VolunteerName  string             `json:"volunteerName" bson:"volunteerName"`
	VolunteerEmail string             `json:"volunteerEmail" bson:"volunteerEmail"`
	JoinedAt       time.Time          `json:"joinedAt" bson:"joinedAt"`
	Status         string             `json:"status" bson:"status"`
	ResponseType   string             `json:"responseType" bson:"responseType"`
	CheckInTime    *time.Time         `json:"checkInTime,omitempty" bson:"checkInTime,omitempty"`
	CheckOutTime   *time.Time         `json:"checkOutTime,omitempty" bson:"checkOutTime,omitempty"`
	Feedback       *ResponseFeedback  `json:"feedback,omitempty" bson:"feedback,omitempty"`
}

type ResponseFeedback struct {
	Rating      int       `json:"rating" bson:"rating"`
	Comment     string    `json:"comment,omitempty" bson:"comment,omitempty"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}

// AlertAnalytics holds the per-alert counters maintained incrementally plus
// the derived fields refreshed after check-out.
type AlertAnalytics struct {
	TotalViews         int64   `json:"totalViews" bson:"totalViews"`
	TotalClicks        int64   `json:"totalClicks" bson:"totalClicks"`
	CompletedResponses int64   `json:"completedResponses" bson:"completedResponses"`
	AverageRating      float64 `json:"averageRating" bson:"averageRating"`
}

// Emergency Type Constants
const (
	EmergencyTypeFire       = "fire"
	EmergencyTypeEarthquake = "earthquake"
	EmergencyTypeFlood      = "flood"
	EmergencyTypeTyphoon    = "typhoon"
	EmergencyTypeHurricane  = "hurricane"
	EmergencyTypeTsunami    = "tsunami"
	EmergencyTypeLandslide  = "landslide"
	EmergencyTypeMedical    = "medical"
	EmergencyTypeOther      = "other"
)

// Urgency Level Constants
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
	UrgencyLow      = "low"
)

// Alert Status Constants
const (
	AlertStatusPendingVerification = "pending_verification"
	AlertStatusActive              = "active"
	AlertStatusResolved            = "resolved"
	AlertStatusCancelled           = "cancelled"
)

// Response Status Constants
const (
	ResponseStatusJoined    = "joined"
	ResponseStatusCheckedIn = "checked-in"
	ResponseStatusCompleted = "completed"
)

// Response Type Constants
const (
	ResponseTypeVirtual  = "virtual"
	ResponseTypeInPerson = "in-person"
)

// alertStatusTransitions is the closed transition table for Alert.Status.
// resolved and cancelled are absorbing.
var alertStatusTransitions = map[string][]string{
	AlertStatusPendingVerification: {AlertStatusActive, AlertStatusCancelled},
	AlertStatusActive:              {AlertStatusResolved, AlertStatusCancelled},
	AlertStatusResolved:            {},
	AlertStatusCancelled:           {},
}

// CanTransitionAlertStatus reports whether an alert may move from one status
// to another.
func CanTransitionAlertStatus(from, to string) bool {
	for _, next := range alertStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextResponseStatus returns the only legal successor of a response status,
// or "" for the terminal state.
func NextResponseStatus(from string) string {
	switch from {
	case ResponseStatusJoined:
		return ResponseStatusCheckedIn
	case ResponseStatusCheckedIn:
		return ResponseStatusCompleted
	default:
		return ""
	}
}

func IsValidEmergencyType(t string) bool {
	switch t {
	case EmergencyTypeFire, EmergencyTypeEarthquake, EmergencyTypeFlood,
		EmergencyTypeTyphoon, EmergencyTypeHurricane, EmergencyTypeTsunami,
		EmergencyTypeLandslide, EmergencyTypeMedical, EmergencyTypeOther:
		return true
	}
	return false
}

func IsValidUrgencyLevel(l string) bool {
	switch l {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

// =================== REQUEST MODELS ===================

// CreateAlertRequest accepts loosely typed payloads for location, skills and
// volunteersNeeded: clients send either the structured value or a raw string
// (or bare integer for volunteersNeeded). Normalization happens in the
// service layer.
type CreateAlertRequest struct {
	Title             string          `json:"title" validate:"required"`
	Description       string          `json:"description" validate:"required"`
	EmergencyType     string          `json:"emergencyType" validate:"required,emergency_type"`
	UrgencyLevel      string          `json:"urgencyLevel" validate:"omitempty,urgency_level"`
	Location          json.RawMessage `json:"location" validate:"required"`
	Instructions      string          `json:"instructions,omitempty"`
	SafetyGuidelines  string          `json:"safetyGuidelines,omitempty"`
	RequiredSkills    json.RawMessage `json:"requiredSkills,omitempty"`
	ContactInfo       AlertContact    `json:"contactInfo,omitempty"`
	Image             string          `json:"image,omitempty"`
	VolunteersNeeded  json.RawMessage `json:"volunteersNeeded,omitempty"`
	StartTime         time.Time       `json:"startTime,omitempty"`
	EstimatedDuration string          `json:"estimatedDuration,omitempty"`
}

type UpdateAlertStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active resolved cancelled"`
}

type JoinAlertRequest struct {
	ResponseType string `json:"responseType,omitempty" validate:"omitempty,response_type"`
}

type CheckOutRequest struct {
	Rating  int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment string `json:"comment,omitempty"`
}

// AlertQuery carries the admin listing filters.
type AlertQuery struct {
	Status   string `form:"status"`
	Type     string `form:"type"`
	Urgency  string `form:"urgency"`
	Verified *bool  `form:"verified"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// =================== NORMALIZATION HELPERS ===================

// ParseLocation accepts a structured AlertLocation or a raw address string.
// A structured payload keeps whatever fields it carries; an object without an
// address stays address-less so the caller can reject it.
func ParseLocation(raw json.RawMessage) AlertLocation {
	if len(raw) == 0 {
		return AlertLocation{}
	}

	var addr string
	if err := json.Unmarshal(raw, &addr); err == nil {
		return AlertLocation{Address: strings.TrimSpace(addr)}
	}

	var loc AlertLocation
	if err := json.Unmarshal(raw, &loc); err == nil {
		loc.Address = strings.TrimSpace(loc.Address)
		return loc
	}

	return AlertLocation{}
}

// ParseRequiredSkills accepts a string list or a comma-separated string.
func ParseRequiredSkills(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var skills []string
	if err := json.Unmarshal(raw, &skills); err == nil {
		return normalizeSkills(skills)
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return normalizeSkills(strings.Split(joined, ","))
	}

	return nil
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// ParseVolunteersNeeded accepts a {virtual, inPerson} split or a bare
// integer, which counts as in-person.
func ParseVolunteersNeeded(raw json.RawMessage) VolunteersNeeded {
	if len(raw) == 0 {
		return VolunteersNeeded{}
	}

	var split VolunteersNeeded
	if err := json.Unmarshal(raw, &split); err == nil && split.Total() > 0 {
		return split
	}

	var total int
	if err := json.Unmarshal(raw, &total); err == nil && total > 0 {
		return VolunteersNeeded{InPerson: total}
	}

	return VolunteersNeeded{}
}
