package routes

import (
	"relieflink/controllers"

	"github.com/gin-gonic/gin"
)

// SetupNotificationRoutes registers the per-user notification endpoints.
func SetupNotificationRoutes(api *gin.RouterGroup, ctrl *controllers.NotificationController) {
	notifications := api.Group("/notifications")
	{
		notifications.GET("", ctrl.GetNotifications)
		notifications.PUT("/:notificationId/read", ctrl.MarkNotificationRead)
		notifications.PUT("/read-all", ctrl.MarkAllNotificationsRead)
	}
}
