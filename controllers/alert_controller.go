package controllers

import (
	"relieflink/models"
	"relieflink/services"
	"relieflink/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AlertController struct {
	alertService *services.AlertService
}

func NewAlertController(alertService *services.AlertService) *AlertController {
	return &AlertController{
		alertService: alertService,
	}
}

// =================== ALERT LIFECYCLE ===================

// CreateAlert creates a new emergency alert (organization only)
func (ac *AlertController) CreateAlert(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req models.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	alert, err := ac.alertService.CreateAlert(c.Request.Context(), userID, req)
	if err != nil {
		logrus.Errorf("Create alert failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Alert created and queued for verification", alert)
}

// GetActiveAlerts lists the alerts volunteers can respond to
func (ac *AlertController) GetActiveAlerts(c *gin.Context) {
	alerts, err := ac.alertService.GetActiveAlerts(c.Request.Context())
	if err != nil {
		logrus.Errorf("Get active alerts failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Active alerts retrieved successfully", alerts)
}

// GetAlert gets a specific alert by its public identifier
func (ac *AlertController) GetAlert(c *gin.Context) {
	alertID := c.Param("alertId")

	alert, err := ac.alertService.GetAlert(c.Request.Context(), alertID)
	if err != nil {
		logrus.Errorf("Get alert failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Alert retrieved successfully", alert)
}

// QueryAlerts is the admin listing with filters and pagination
func (ac *AlertController) QueryAlerts(c *gin.Context) {
	var q models.AlertQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequestResponse(c, "Invalid query parameters")
		return
	}

	alerts, total, err := ac.alertService.QueryAlerts(c.Request.Context(), q)
	if err != nil {
		logrus.Errorf("Query alerts failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	meta := utils.CreatePaginationMeta(page, limit, total)
	utils.SuccessResponseWithMeta(c, "Alerts retrieved successfully", alerts, meta)
}

// GetMyAlerts lists the calling organization's alerts
func (ac *AlertController) GetMyAlerts(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	alerts, err := ac.alertService.GetOrganizationAlerts(c.Request.Context(), userID)
	if err != nil {
		logrus.Errorf("Get organization alerts failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Organization alerts retrieved successfully", alerts)
}

// VerifyAlert marks an alert verified and triggers the broadcast (admin only)
func (ac *AlertController) VerifyAlert(c *gin.Context) {
	userID := c.GetString("userID")
	alertID := c.Param("alertId")

	alert, err := ac.alertService.VerifyAlert(c.Request.Context(), userID, alertID)
	if err != nil {
		logrus.Errorf("Verify alert failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Alert verified, broadcast started", alert)
}

// UpdateAlertStatus transitions an alert's lifecycle status
func (ac *AlertController) UpdateAlertStatus(c *gin.Context) {
	userID := c.GetString("userID")
	alertID := c.Param("alertId")

	var req models.UpdateAlertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	alert, err := ac.alertService.UpdateAlertStatus(c.Request.Context(), userID, alertID, req.Status)
	if err != nil {
		logrus.Errorf("Update alert status failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Alert status updated successfully", alert)
}

// DeleteAlert removes an alert
func (ac *AlertController) DeleteAlert(c *gin.Context) {
	userID := c.GetString("userID")
	alertID := c.Param("alertId")

	if err := ac.alertService.DeleteAlert(c.Request.Context(), userID, alertID); err != nil {
		logrus.Errorf("Delete alert failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Alert deleted successfully", nil)
}
