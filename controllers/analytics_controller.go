package controllers

import (
	"time"

	"relieflink/services"
	"relieflink/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AnalyticsController struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsController(analyticsService *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
	}
}

// GetPeriodAnalytics reports alert activity for a named period, or for an
// explicit startDate/endDate window (admin only)
func (anc *AnalyticsController) GetPeriodAnalytics(c *gin.Context) {
	period := c.DefaultQuery("period", "week")

	var customStart, customEnd *time.Time
	rawStart, rawEnd := c.Query("startDate"), c.Query("endDate")
	if rawStart != "" || rawEnd != "" {
		start, err := time.Parse("2006-01-02", rawStart)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid startDate, expected YYYY-MM-DD")
			return
		}
		end, err := time.Parse("2006-01-02", rawEnd)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid endDate, expected YYYY-MM-DD")
			return
		}
		end = end.AddDate(0, 0, 1)
		if !start.Before(end) {
			utils.BadRequestResponse(c, "startDate must not be after endDate")
			return
		}
		customStart, customEnd = &start, &end
	}

	analytics, err := anc.analyticsService.GetPeriodAnalytics(c.Request.Context(), period, customStart, customEnd)
	if err != nil {
		logrus.Errorf("Get period analytics failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Analytics retrieved successfully", analytics)
}

// GetDashboardStats backs the admin dashboard
func (anc *AnalyticsController) GetDashboardStats(c *gin.Context) {
	stats, err := anc.analyticsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		logrus.Errorf("Get dashboard stats failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Dashboard stats retrieved successfully", stats)
}

// GetOrganizationStats reports the calling organization's alert history
func (anc *AnalyticsController) GetOrganizationStats(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	stats, err := anc.analyticsService.GetOrganizationStats(c.Request.Context(), userID)
	if err != nil {
		logrus.Errorf("Get organization stats failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Organization stats retrieved successfully", stats)
}

// GetVolunteerStats reports the calling volunteer's participation
func (anc *AnalyticsController) GetVolunteerStats(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	stats, err := anc.analyticsService.GetVolunteerStats(c.Request.Context(), userID)
	if err != nil {
		logrus.Errorf("Get volunteer stats failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Volunteer stats retrieved successfully", stats)
}

// GetFeatureAdoption reports feature adoption metrics over a window (admin only)
func (anc *AnalyticsController) GetFeatureAdoption(c *gin.Context) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid start date, expected YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid end date, expected YYYY-MM-DD")
			return
		}
		end = parsed.AddDate(0, 0, 1)
	}

	if !start.Before(end) {
		utils.BadRequestResponse(c, "Start date must be before end date")
		return
	}

	metrics, err := anc.analyticsService.GetFeatureAdoptionMetrics(c.Request.Context(), start, end)
	if err != nil {
		logrus.Errorf("Get feature adoption failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Feature adoption metrics retrieved successfully", metrics)
}
