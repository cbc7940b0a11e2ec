package controllers

import (
	"relieflink/models"
	"relieflink/services"
	"relieflink/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ResponseController struct {
	responseService *services.ResponseService
}

func NewResponseController(responseService *services.ResponseService) *ResponseController {
	return &ResponseController{
		responseService: responseService,
	}
}

// JoinAlert records the caller's response to an active alert (volunteer only)
func (rc *ResponseController) JoinAlert(c *gin.Context) {
	userID := c.GetString("userID")
	alertID := c.Param("alertId")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req models.JoinAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	alert, err := rc.responseService.JoinAlert(c.Request.Context(), userID, alertID, req)
	if err != nil {
		logrus.Errorf("Join alert failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Response recorded successfully", alert)
}

// CheckIn marks the caller as on-site for an alert
func (rc *ResponseController) CheckIn(c *gin.Context) {
	userID := c.GetString("userID")
	alertID := c.Param("alertId")

	alert, err := rc.responseService.CheckIn(c.Request.Context(), userID, alertID)
	if err != nil {
		logrus.Errorf("Check-in failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Checked in successfully", alert)
}

// CheckOut completes the caller's response with optional feedback
func (rc *ResponseController) CheckOut(c *gin.Context) {
	userID := c.GetString("userID")
	alertID := c.Param("alertId")

	var req models.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	alert, err := rc.responseService.CheckOut(c.Request.Context(), userID, alertID, req)
	if err != nil {
		logrus.Errorf("Check-out failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Checked out successfully", alert)
}

// GetMyResponses lists the caller's participation history
func (rc *ResponseController) GetMyResponses(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	responses, err := rc.responseService.GetMyResponses(c.Request.Context(), userID)
	if err != nil {
		logrus.Errorf("Get my responses failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Response history retrieved successfully", responses)
}
