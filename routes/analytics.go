package routes

import (
	"relieflink/controllers"
	"relieflink/middleware"
	"relieflink/models"

	"github.com/gin-gonic/gin"
)

// SetupAnalyticsRoutes registers the reporting endpoints. Dashboard and
// adoption metrics are admin-only; organizations and volunteers can read
// their own stats.
func SetupAnalyticsRoutes(api *gin.RouterGroup, ctrl *controllers.AnalyticsController, authMW *middleware.AuthMiddleware) {
	analytics := api.Group("/analytics")
	{
		analytics.GET("/period", authMW.RequireRole(models.RoleAdmin), ctrl.GetPeriodAnalytics)
		analytics.GET("/dashboard", authMW.RequireRole(models.RoleAdmin), ctrl.GetDashboardStats)
		analytics.GET("/adoption", authMW.RequireRole(models.RoleAdmin), ctrl.GetFeatureAdoption)
		analytics.GET("/organization", authMW.RequireRole(models.RoleOrganization, models.RoleAdmin), ctrl.GetOrganizationStats)
		analytics.GET("/volunteer", authMW.RequireRole(models.RoleVolunteer, models.RoleAdmin), ctrl.GetVolunteerStats)
	}
}
