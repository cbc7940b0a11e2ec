package routes

import (
	"context"
	"time"

	"relieflink/config"
	"relieflink/controllers"
	"relieflink/database"
	"relieflink/middleware"
	"relieflink/repositories"
	"relieflink/services"
	"relieflink/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// SetupRoutes wires repositories, services and controllers together and
// returns the configured router.
func SetupRoutes(cfg *config.Config, db *mongo.Database, redisClient *redis.Client, emailService services.EmailService) *gin.Engine {
	router := gin.New()

	repos := initializeRepositories(db)
	svcs := initializeServices(cfg, repos, redisClient, emailService)
	ctrls := initializeControllers(svcs)

	setupGlobalMiddleware(router, cfg, redisClient)
	setupPublicRoutes(router, redisClient)

	authMW := middleware.NewAuthMiddleware(utils.NewJWTService(cfg.JWTSecret), repos.User)
	setupAPIRoutes(router, ctrls, authMW, redisClient)

	return router
}

type Repositories struct {
	Alert        *repositories.AlertRepository
	User         *repositories.UserRepository
	Notification *repositories.NotificationRepository
}

func initializeRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Alert:        repositories.NewAlertRepository(db),
		User:         repositories.NewUserRepository(db),
		Notification: repositories.NewNotificationRepository(db),
	}
}

type Services struct {
	Alert        *services.AlertService
	Response     *services.ResponseService
	Analytics    *services.AnalyticsService
	Notification *services.NotificationService
	Broadcast    *services.BroadcastService
}

func initializeServices(cfg *config.Config, repos *Repositories, redisClient *redis.Client, emailService services.EmailService) *Services {
	validator := utils.NewValidationService()

	notificationService := services.NewNotificationService(repos.Notification)
	broadcastService := services.NewBroadcastService(emailService, notificationService, services.BroadcastConfig{
		WorkerCount:      cfg.BroadcastWorkers,
		RecipientTimeout: time.Duration(cfg.BroadcastRecipientTimeout) * time.Second,
	})

	return &Services{
		Alert:        services.NewAlertService(repos.Alert, repos.User, broadcastService, notificationService, validator),
		Response:     services.NewResponseService(repos.Alert, repos.User, emailService, notificationService, validator),
		Analytics:    services.NewAnalyticsService(repos.Alert, repos.User, redisClient, time.Duration(cfg.AnalyticsCacheTTL)*time.Second),
		Notification: notificationService,
		Broadcast:    broadcastService,
	}
}

type Controllers struct {
	Alert        *controllers.AlertController
	Response     *controllers.ResponseController
	Analytics    *controllers.AnalyticsController
	Notification *controllers.NotificationController
}

func initializeControllers(svcs *Services) *Controllers {
	return &Controllers{
		Alert:        controllers.NewAlertController(svcs.Alert),
		Response:     controllers.NewResponseController(svcs.Response),
		Analytics:    controllers.NewAnalyticsController(svcs.Analytics),
		Notification: controllers.NewNotificationController(svcs.Notification),
	}
}

func setupGlobalMiddleware(router *gin.Engine, cfg *config.Config, redisClient *redis.Client) {
	errorHandler := middleware.NewErrorHandler(cfg.Environment, logrus.StandardLogger())

	router.Use(gin.Recovery())
	router.Use(middleware.DefaultLoggerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Environment))
	router.Use(errorHandler.Handle())
	router.Use(middleware.DefaultRateLimit(
		redisClient,
		cfg.RateLimitRequest,
		time.Duration(cfg.RateLimitWindow)*time.Minute,
	))
}

func setupPublicRoutes(router *gin.Engine, redisClient *redis.Client) {
	router.GET("/health", func(c *gin.Context) {
		statuses := map[string]string{
			"database": "healthy",
		}

		dbHealth := database.HealthCheck()
		if status, ok := dbHealth["status"].(string); !ok || status != "healthy" {
			statuses["database"] = "unhealthy"
		}

		// Redis is optional; only report on it when configured.
		if redisClient != nil {
			statuses["redis"] = "healthy"
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				statuses["redis"] = "unhealthy"
			}
		}

		uptime := time.Since(startTime).Round(time.Second).String()
		c.JSON(200, utils.HealthCheckResponse(statuses, "1.0.0", uptime))
	})
}

func setupAPIRoutes(router *gin.Engine, ctrls *Controllers, authMW *middleware.AuthMiddleware, redisClient *redis.Client) {
	api := router.Group("/api/v1")
	api.Use(authMW.RequireAuth())

	SetupAlertRoutes(api, ctrls, authMW, redisClient)
	SetupAnalyticsRoutes(api, ctrls.Analytics, authMW)
	SetupNotificationRoutes(api, ctrls.Notification)
}
