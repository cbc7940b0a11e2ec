package controllers

import (
	"strconv"

	"relieflink/services"
	"relieflink/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type NotificationController struct {
	notificationService *services.NotificationService
}

func NewNotificationController(notificationService *services.NotificationService) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
	}
}

// GetNotifications lists the caller's in-app notifications
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	unreadOnly := c.Query("unread") == "true"
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	notifications, total, err := nc.notificationService.GetUserNotifications(c.Request.Context(), userID, unreadOnly, page, limit)
	if err != nil {
		logrus.Errorf("Get notifications failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	meta := utils.CreatePaginationMeta(page, limit, total)
	utils.SuccessResponseWithMeta(c, "Notifications retrieved successfully", notifications, meta)
}

// MarkNotificationRead marks one notification as read
func (nc *NotificationController) MarkNotificationRead(c *gin.Context) {
	userID := c.GetString("userID")
	notificationID := c.Param("notificationId")

	if err := nc.notificationService.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		logrus.Errorf("Mark notification read failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Notification marked as read", nil)
}

// MarkAllNotificationsRead marks every unread notification as read
func (nc *NotificationController) MarkAllNotificationsRead(c *gin.Context) {
	userID := c.GetString("userID")

	if err := nc.notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
		logrus.Errorf("Mark all notifications read failed: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "All notifications marked as read", nil)
}
