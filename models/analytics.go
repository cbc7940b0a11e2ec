package models

import "time"

// PeriodAnalytics summarizes alert activity inside a reporting window.
// Rates are percentages; every rate is 0 whenever its denominator is 0.
type PeriodAnalytics struct {
	Period    string    `json:"period"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	TotalAlerts     int64 `json:"totalAlerts"`
	ActiveAlerts    int64 `json:"activeAlerts"`
	ResolvedAlerts  int64 `json:"resolvedAlerts"`
	CancelledAlerts int64 `json:"cancelledAlerts"`

	TotalResponses     int64   `json:"totalResponses"`
	CompletedResponses int64   `json:"completedResponses"`
	DistinctVolunteers int64   `json:"distinctVolunteers"`
	CompletionRate     float64 `json:"completionRate"`

	// AverageResponseTimeMins is the mean joinedAt minus broadcastedAt over
	// every response in the window, 0 when there are none.
	AverageResponseTimeMins float64 `json:"averageResponseTimeMins"`

	TotalNotificationsSent int64   `json:"totalNotificationsSent"`
	JoinRate               float64 `json:"joinRate"`
	TotalViews             int64   `json:"totalViews"`
	TotalClicks            int64   `json:"totalClicks"`
	ClickThroughRate       float64 `json:"clickThroughRate"`

	AlertsByType    map[string]int64 `json:"alertsByType"`
	AlertsByUrgency map[string]int64 `json:"alertsByUrgency"`
}

// DashboardStats backs the admin landing page.
type DashboardStats struct {
	TotalAlerts         int64            `json:"totalAlerts"`
	ActiveAlerts        int64            `json:"activeAlerts"`
	PendingVerification int64            `json:"pendingVerification"`
	AlertsThisMonth     int64            `json:"alertsThisMonth"`
	TotalVolunteers     int64            `json:"totalVolunteers"`
	TotalOrganizations  int64            `json:"totalOrganizations"`
	RecentAlerts        []Alert          `json:"recentAlerts"`
	TopVolunteers       []VolunteerBrief `json:"topVolunteers"`
}

// VolunteerBrief ranks a volunteer by response count.
type VolunteerBrief struct {
	VolunteerID        string  `json:"volunteerId"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	CompletedResponses int64   `json:"completedResponses"`
	TotalResponses     int64   `json:"totalResponses"`
	AverageRating      float64 `json:"averageRating"`
}

// OrganizationStats aggregates one organization's alert history.
type OrganizationStats struct {
	OrganizationID           string    `json:"organizationId"`
	TotalAlerts              int64     `json:"totalAlerts"`
	ActiveAlerts             int64     `json:"activeAlerts"`
	ResolvedAlerts           int64     `json:"resolvedAlerts"`
	TotalVolunteersEngaged   int64     `json:"totalVolunteersEngaged"`
	CompletionRate           float64   `json:"completionRate"`
	AverageVolunteersPerAlert float64  `json:"averageVolunteersPerAlert"`
	AlertHistory             []Alert   `json:"alertHistory"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// VolunteerStats aggregates one volunteer's participation across alerts.
type VolunteerStats struct {
	VolunteerID        string                   `json:"volunteerId"`
	TotalResponses     int64                    `json:"totalResponses"`
	CompletedResponses int64                    `json:"completedResponses"`
	HoursVolunteered   float64                  `json:"hoursVolunteered"`
	AverageRating      float64                  `json:"averageRating"`
	ResponseHistory    []VolunteerResponseEntry `json:"responseHistory"`
}

// VolunteerResponseEntry is one row of a volunteer's response history,
// flattened from the alert it belongs to.
type VolunteerResponseEntry struct {
	AlertID       string     `json:"alertId"`
	AlertTitle    string     `json:"alertTitle"`
	EmergencyType string     `json:"emergencyType"`
	UrgencyLevel  string     `json:"urgencyLevel"`
	AlertStatus   string     `json:"alertStatus"`
	ResponseType  string     `json:"responseType"`
	Status        string     `json:"status"`
	JoinedAt      time.Time  `json:"joinedAt"`
	CheckInTime   *time.Time `json:"checkInTime,omitempty"`
	CheckOutTime  *time.Time `json:"checkOutTime,omitempty"`
	Rating        int        `json:"rating,omitempty"`
}

// FeatureAdoptionMetrics measures how the alert feature is used over a window.
type FeatureAdoptionMetrics struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	BroadcastsPerDay map[string]int64 `json:"broadcastsPerDay"`

	JoinRate                float64            `json:"joinRate"`
	AverageResponseTimeMins float64            `json:"averageResponseTimeMins"`
	ResponseTimeByType      map[string]float64 `json:"responseTimeByType"`
	ResponseTimeByUrgency   map[string]float64 `json:"responseTimeByUrgency"`

	FirstTimeResponders int64 `json:"firstTimeResponders"`
	ReturningResponders int64 `json:"returningResponders"`

	// PeakHours counts responses per hour-of-day, index 0 through 23.
	PeakHours [24]int64 `json:"peakHours"`
}

// BroadcastResult reports the outcome of fanning an alert out to the
// volunteer roster. EmailsSent is what feeds Alert.NotificationsSent.
type BroadcastResult struct {
	AlertID              string        `json:"alertId"`
	Recipients           int           `json:"recipients"`
	EmailsSent           int           `json:"emailsSent"`
	EmailFailures        int           `json:"emailFailures"`
	NotificationsCreated int           `json:"notificationsCreated"`
	Duration             time.Duration `json:"-"`
	DurationMs           int64         `json:"durationMs"`
}
