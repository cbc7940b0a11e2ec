package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"relieflink/interfaces"
	"relieflink/models"
	"relieflink/utils"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// AnalyticsService aggregates alert activity into reporting views. Period
// reports are cached in Redis since they only change as alerts do.
type AnalyticsService struct {
	alerts interfaces.AlertStore
	users  interfaces.UserDirectory
	redis  *redis.Client

	cacheTTL time.Duration
}

func NewAnalyticsService(alerts interfaces.AlertStore, users interfaces.UserDirectory, redisClient *redis.Client, cacheTTL time.Duration) *AnalyticsService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AnalyticsService{
		alerts:   alerts,
		users:    users,
		redis:    redisClient,
		cacheTTL: cacheTTL,
	}
}

// GetPeriodAnalytics summarizes alert activity for a named period, or for an
// explicit window when both bounds are given.
func (ans *AnalyticsService) GetPeriodAnalytics(ctx context.Context, period string, customStart, customEnd *time.Time) (*models.PeriodAnalytics, error) {
	start, end := utils.GetTimeRangeForPeriod(period)
	if customStart != nil && customEnd != nil {
		period = "custom"
		start, end = *customStart, *customEnd
	}

	cacheKey := fmt.Sprintf("analytics:%s:%d:%d", period, start.Unix(), end.Unix())
	if cached := ans.readCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	alerts, err := ans.alerts.GetInRange(ctx, start, end)
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get alerts for analytics")
	}

	result := ans.computePeriod(period, start, end, alerts)
	ans.writeCache(ctx, cacheKey, result)
	return result, nil
}

func (ans *AnalyticsService) computePeriod(period string, start, end time.Time, alerts []models.Alert) *models.PeriodAnalytics {
	result := &models.PeriodAnalytics{
		Period:          period,
		StartDate:       start,
		EndDate:         end,
		TotalAlerts:     int64(len(alerts)),
		AlertsByType:    make(map[string]int64),
		AlertsByUrgency: make(map[string]int64),
	}

	volunteers := make(map[string]bool)
	var latencySum float64
	var latencyCount int64

	for _, alert := range alerts {
		switch alert.Status {
		case models.AlertStatusActive:
			result.ActiveAlerts++
		case models.AlertStatusResolved:
			result.ResolvedAlerts++
		case models.AlertStatusCancelled:
			result.CancelledAlerts++
		}

		result.AlertsByType[alert.EmergencyType]++
		result.AlertsByUrgency[alert.UrgencyLevel]++

		result.TotalResponses += int64(len(alert.Responses))
		for _, response := range alert.Responses {
			volunteers[response.VolunteerID.Hex()] = true
			if response.Status == models.ResponseStatusCompleted {
				result.CompletedResponses++
			}
			if !alert.BroadcastedAt.IsZero() {
				if latency := response.JoinedAt.Sub(alert.BroadcastedAt).Minutes(); latency >= 0 {
					latencySum += latency
					latencyCount++
				}
			}
		}

		result.TotalNotificationsSent += int64(alert.NotificationsSent)
		result.TotalViews += alert.Analytics.TotalViews
		result.TotalClicks += alert.Analytics.TotalClicks
	}

	result.DistinctVolunteers = int64(len(volunteers))
	result.AverageResponseTimeMins = utils.SafeRatio(latencySum, float64(latencyCount))
	result.CompletionRate = utils.SafePercentage(float64(result.CompletedResponses), float64(result.TotalResponses))
	result.JoinRate = utils.SafePercentage(float64(result.TotalResponses), float64(result.TotalNotificationsSent))
	result.ClickThroughRate = utils.SafeRatio(float64(result.TotalClicks), float64(result.TotalViews))
	return result
}

// GetDashboardStats backs the admin landing page with current totals, this
// month's volume and the most engaged volunteers.
func (ans *AnalyticsService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	all, _, err := ans.alerts.Query(ctx, models.AlertQuery{Page: 1, Limit: 100})
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get alerts for dashboard")
	}

	monthStart, monthEnd := utils.GetTimeRangeForPeriod("month")
	monthAlerts, err := ans.alerts.GetInRange(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get month alerts")
	}

	// Headline counters cover the current calendar month only.
	stats := &models.DashboardStats{
		TotalAlerts:     int64(len(monthAlerts)),
		AlertsThisMonth: int64(len(monthAlerts)),
	}
	for _, alert := range monthAlerts {
		switch alert.Status {
		case models.AlertStatusActive:
			stats.ActiveAlerts++
		case models.AlertStatusPendingVerification:
			stats.PendingVerification++
		}
	}

	// Volunteer rankings span the full history, which has to go through
	// GetInRange since Query is paginated. A wide range covers everything
	// ever created.
	historyStart := time.Unix(0, 0)
	history, err := ans.alerts.GetInRange(ctx, historyStart, time.Now().Add(time.Hour))
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get alert history")
	}

	volunteerTotals := make(map[string]*models.VolunteerBrief)

	for _, alert := range history {
		for _, response := range alert.Responses {
			key := response.VolunteerID.Hex()
			brief, ok := volunteerTotals[key]
			if !ok {
				brief = &models.VolunteerBrief{
					VolunteerID: key,
					Name:        response.VolunteerName,
					Email:       utils.MaskEmail(response.VolunteerEmail),
				}
				volunteerTotals[key] = brief
			}
			brief.TotalResponses++
			if response.Status == models.ResponseStatusCompleted {
				brief.CompletedResponses++
			}
		}
	}

	if stats.TotalVolunteers, err = ans.users.CountByRole(ctx, models.RoleVolunteer); err != nil {
		logrus.Warnf("Failed to count volunteers: %v", err)
	}
	if stats.TotalOrganizations, err = ans.users.CountByRole(ctx, models.RoleOrganization); err != nil {
		logrus.Warnf("Failed to count organizations: %v", err)
	}

	// Recent alerts come from the paginated query, newest first.
	limit := 10
	if len(all) < limit {
		limit = len(all)
	}
	stats.RecentAlerts = all[:limit]

	stats.TopVolunteers = rankVolunteers(volunteerTotals, 10)
	return stats, nil
}

func rankVolunteers(totals map[string]*models.VolunteerBrief, limit int) []models.VolunteerBrief {
	ranked := make([]models.VolunteerBrief, 0, len(totals))
	for _, brief := range totals {
		ranked = append(ranked, *brief)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalResponses != ranked[j].TotalResponses {
			return ranked[i].TotalResponses > ranked[j].TotalResponses
		}
		return ranked[i].CompletedResponses > ranked[j].CompletedResponses
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// GetOrganizationStats aggregates one organization's alert history.
func (ans *AnalyticsService) GetOrganizationStats(ctx context.Context, orgID string) (*models.OrganizationStats, error) {
	alerts, err := ans.alerts.GetByOrganization(ctx, orgID)
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get organization alerts")
	}

	stats := &models.OrganizationStats{
		OrganizationID: orgID,
		TotalAlerts:    int64(len(alerts)),
		AlertHistory:   alerts,
		GeneratedAt:    time.Now(),
	}

	var totalResponses, completedResponses int64
	volunteers := make(map[string]bool)

	for _, alert := range alerts {
		switch alert.Status {
		case models.AlertStatusActive:
			stats.ActiveAlerts++
		case models.AlertStatusResolved:
			stats.ResolvedAlerts++
		}

		totalResponses += int64(len(alert.Responses))
		for _, response := range alert.Responses {
			volunteers[response.VolunteerID.Hex()] = true
			if response.Status == models.ResponseStatusCompleted {
				completedResponses++
			}
		}
	}

	stats.TotalVolunteersEngaged = int64(len(volunteers))
	stats.CompletionRate = utils.SafePercentage(float64(completedResponses), float64(totalResponses))
	stats.AverageVolunteersPerAlert = utils.SafeRatio(float64(totalResponses), float64(len(alerts)))
	return stats, nil
}

// GetVolunteerStats aggregates one volunteer's participation, including
// hours derived from check-in/check-out pairs.
func (ans *AnalyticsService) GetVolunteerStats(ctx context.Context, volunteerID string) (*models.VolunteerStats, error) {
	alerts, err := ans.alerts.GetByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get volunteer alerts")
	}

	stats := &models.VolunteerStats{
		VolunteerID:     volunteerID,
		ResponseHistory: []models.VolunteerResponseEntry{},
	}

	var ratingSum, ratingCount float64

	for _, alert := range alerts {
		for _, response := range alert.Responses {
			if response.VolunteerID.Hex() != volunteerID {
				continue
			}

			stats.TotalResponses++
			if response.Status == models.ResponseStatusCompleted {
				stats.CompletedResponses++
			}

			if response.CheckInTime != nil && response.CheckOutTime != nil {
				stats.HoursVolunteered += response.CheckOutTime.Sub(*response.CheckInTime).Hours()
			}

			entry := models.VolunteerResponseEntry{
				AlertID:       alert.AlertID,
				AlertTitle:    alert.Title,
				EmergencyType: alert.EmergencyType,
				UrgencyLevel:  alert.UrgencyLevel,
				AlertStatus:   alert.Status,
				ResponseType:  response.ResponseType,
				Status:        response.Status,
				JoinedAt:      response.JoinedAt,
				CheckInTime:   response.CheckInTime,
				CheckOutTime:  response.CheckOutTime,
			}
			if response.Feedback != nil {
				entry.Rating = response.Feedback.Rating
				if response.Feedback.Rating > 0 {
					ratingSum += float64(response.Feedback.Rating)
					ratingCount++
				}
			}
			stats.ResponseHistory = append(stats.ResponseHistory, entry)
		}
	}

	stats.HoursVolunteered = utils.RoundToDecimalPlaces(stats.HoursVolunteered, 2)
	stats.AverageRating = utils.SafeRatio(ratingSum, ratingCount)
	return stats, nil
}

// GetFeatureAdoptionMetrics measures how the alert feature is used inside a
// window: broadcast cadence, join funnel, response latency and peak hours.
func (ans *AnalyticsService) GetFeatureAdoptionMetrics(ctx context.Context, start, end time.Time) (*models.FeatureAdoptionMetrics, error) {
	alerts, err := ans.alerts.GetInRange(ctx, start, end)
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get alerts for adoption metrics")
	}

	metrics := &models.FeatureAdoptionMetrics{
		StartDate:             start,
		EndDate:               end,
		BroadcastsPerDay:      make(map[string]int64),
		ResponseTimeByType:    make(map[string]float64),
		ResponseTimeByUrgency: make(map[string]float64),
	}

	// First-ever join times come from the full history, so responders who
	// were active before this window count as returning.
	responderFirstSeen := make(map[string]time.Time)
	history, err := ans.alerts.GetInRange(ctx, time.Unix(0, 0), end)
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get alert history for adoption metrics")
	}
	for _, alert := range history {
		for _, response := range alert.Responses {
			key := response.VolunteerID.Hex()
			if first, ok := responderFirstSeen[key]; !ok || response.JoinedAt.Before(first) {
				responderFirstSeen[key] = response.JoinedAt
			}
		}
	}

	var notified, joined int64
	var latencySum float64
	var latencyCount int64
	latencyByType := make(map[string][]float64)
	latencyByUrgency := make(map[string][]float64)

	for _, alert := range alerts {
		day := alert.CreatedAt.Format("2006-01-02")
		metrics.BroadcastsPerDay[day]++

		notified += int64(alert.NotificationsSent)
		joined += int64(len(alert.Responses))

		var activatedAt time.Time
		if alert.VerifiedBy != nil {
			activatedAt = alert.VerifiedBy.VerifiedAt
		} else {
			activatedAt = alert.CreatedAt
		}

		for _, response := range alert.Responses {
			metrics.PeakHours[response.JoinedAt.Hour()]++

			latency := response.JoinedAt.Sub(activatedAt).Minutes()
			if latency >= 0 {
				latencySum += latency
				latencyCount++
				latencyByType[alert.EmergencyType] = append(latencyByType[alert.EmergencyType], latency)
				latencyByUrgency[alert.UrgencyLevel] = append(latencyByUrgency[alert.UrgencyLevel], latency)
			}
		}
	}

	// A responder whose first join falls inside the window is first-time
	// for this window; everyone else who joined here is returning.
	seen := make(map[string]bool)
	for _, alert := range alerts {
		for _, response := range alert.Responses {
			key := response.VolunteerID.Hex()
			if seen[key] {
				continue
			}
			seen[key] = true
			if first := responderFirstSeen[key]; !first.Before(start) && first.Before(end) {
				metrics.FirstTimeResponders++
			} else {
				metrics.ReturningResponders++
			}
		}
	}

	metrics.JoinRate = utils.SafePercentage(float64(joined), float64(notified))
	metrics.AverageResponseTimeMins = utils.SafeRatio(latencySum, float64(latencyCount))
	for emergencyType, latencies := range latencyByType {
		metrics.ResponseTimeByType[emergencyType] = meanFloat(latencies)
	}
	for urgency, latencies := range latencyByUrgency {
		metrics.ResponseTimeByUrgency[urgency] = meanFloat(latencies)
	}
	return metrics, nil
}

func meanFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Cache helpers. A nil Redis client disables caching entirely.

func (ans *AnalyticsService) readCache(ctx context.Context, key string) *models.PeriodAnalytics {
	if ans.redis == nil {
		return nil
	}

	raw, err := ans.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logrus.Warnf("Analytics cache read failed: %v", err)
		}
		return nil
	}

	var cached models.PeriodAnalytics
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil
	}
	return &cached
}

func (ans *AnalyticsService) writeCache(ctx context.Context, key string, value *models.PeriodAnalytics) {
	if ans.redis == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := ans.redis.Set(ctx, key, raw, ans.cacheTTL).Err(); err != nil {
		logrus.Warnf("Analytics cache write failed: %v", err)
	}
}
