package routes

import (
	"relieflink/middleware"
	"relieflink/models"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// SetupAlertRoutes registers the alert lifecycle and volunteer response
// endpoints. The group is already behind RequireAuth.
func SetupAlertRoutes(api *gin.RouterGroup, ctrls *Controllers, authMW *middleware.AuthMiddleware, redisClient *redis.Client) {
	alerts := api.Group("/alerts")
	{
		alerts.POST("",
			authMW.RequireRole(models.RoleOrganization, models.RoleAdmin),
			middleware.AlertCreationRateLimit(redisClient),
			ctrls.Alert.CreateAlert,
		)
		alerts.GET("", ctrls.Alert.QueryAlerts)
		alerts.GET("/active", ctrls.Alert.GetActiveAlerts)
		alerts.GET("/mine", authMW.RequireRole(models.RoleOrganization, models.RoleAdmin), ctrls.Alert.GetMyAlerts)
		alerts.GET("/:alertId", ctrls.Alert.GetAlert)
		alerts.POST("/:alertId/verify", authMW.RequireRole(models.RoleAdmin), ctrls.Alert.VerifyAlert)
		alerts.PUT("/:alertId/status", ctrls.Alert.UpdateAlertStatus)
		alerts.DELETE("/:alertId", ctrls.Alert.DeleteAlert)

		// Volunteer response actions
		responseLimit := middleware.ResponseRateLimit(redisClient)
		alerts.POST("/:alertId/join",
			authMW.RequireRole(models.RoleVolunteer),
			responseLimit,
			ctrls.Response.JoinAlert,
		)
		alerts.POST("/:alertId/check-in",
			authMW.RequireRole(models.RoleVolunteer),
			responseLimit,
			ctrls.Response.CheckIn,
		)
		alerts.POST("/:alertId/check-out",
			authMW.RequireRole(models.RoleVolunteer),
			responseLimit,
			ctrls.Response.CheckOut,
		)
	}

	api.GET("/responses/mine", authMW.RequireRole(models.RoleVolunteer), ctrls.Response.GetMyResponses)
}
