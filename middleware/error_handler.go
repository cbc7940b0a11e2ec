package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"relieflink/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrorHandler provides centralized panic recovery and error translation
// for errors attached to the gin context.
type ErrorHandler struct {
	environment string
	logger      *logrus.Logger
}

func NewErrorHandler(environment string, logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		environment: environment,
		logger:      logger,
	}
}

// Handle returns the error handling middleware.
func (eh *ErrorHandler) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				eh.handlePanic(c, err)
			}
		}()

		c.Next()

		if len(c.Errors) > 0 {
			eh.handleGinErrors(c)
		}
	}
}

func (eh *ErrorHandler) handlePanic(c *gin.Context, err interface{}) {
	eh.logger.WithFields(logrus.Fields{
		"panic":   err,
		"stack":   string(debug.Stack()),
		"path":    c.Request.URL.Path,
		"method":  c.Request.Method,
		"user_id": c.GetString("userID"),
	}).Error("Panic recovered")

	var details interface{}
	if eh.environment == "development" {
		details = gin.H{"panic": err}
	}
	utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", details)
	c.Abort()
}

func (eh *ErrorHandler) handleGinErrors(c *gin.Context) {
	lastError := c.Errors.Last()
	if lastError == nil {
		return
	}

	for _, ginErr := range c.Errors {
		eh.logError(c, ginErr.Err)
	}

	if c.Writer.Written() {
		return
	}
	eh.processError(c, lastError.Err)
}

func (eh *ErrorHandler) logError(c *gin.Context, err error) {
	fields := logrus.Fields{
		"error":   err.Error(),
		"path":    c.Request.URL.Path,
		"method":  c.Request.Method,
		"user_id": c.GetString("userID"),
		"ip":      c.ClientIP(),
	}

	if eh.isClientError(err) {
		eh.logger.WithFields(fields).Warn("Client error")
	} else {
		eh.logger.WithFields(fields).Error("Server error")
	}
}

func (eh *ErrorHandler) processError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	var serviceErr utils.ServiceError

	switch {
	case errors.As(err, &validationErrs):
		utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", formatValidationErrors(validationErrs))
	case errors.As(err, &serviceErr):
		utils.HandleServiceError(c, serviceErr)
	case eh.isMongoError(err):
		eh.handleMongoError(c, err)
	default:
		var details interface{}
		if eh.environment == "development" {
			details = gin.H{"original_error": err.Error()}
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred", details)
	}
}

func (eh *ErrorHandler) isMongoError(err error) bool {
	return mongo.IsDuplicateKeyError(err) ||
		errors.Is(err, mongo.ErrNoDocuments) ||
		mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err)
}

func (eh *ErrorHandler) isClientError(err error) bool {
	var validationErrs validator.ValidationErrors
	var serviceErr utils.ServiceError
	if errors.As(err, &validationErrs) {
		return true
	}
	if errors.As(err, &serviceErr) {
		return serviceErr.StatusCode < http.StatusInternalServerError
	}
	return errors.Is(err, mongo.ErrNoDocuments)
}

func (eh *ErrorHandler) handleMongoError(c *gin.Context, err error) {
	switch {
	case mongo.IsDuplicateKeyError(err):
		utils.ConflictResponse(c, "Resource already exists")
	case errors.Is(err, mongo.ErrNoDocuments):
		utils.NotFoundResponse(c, "Resource")
	case mongo.IsTimeout(err):
		utils.ErrorResponse(c, http.StatusGatewayTimeout, "Database operation timed out", nil)
	case mongo.IsNetworkError(err):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Database connection error", nil)
	default:
		utils.InternalServerErrorResponse(c, "Database error")
	}
}

func formatValidationErrors(validationErrors validator.ValidationErrors) map[string]interface{} {
	fields := make(map[string]interface{})

	for _, err := range validationErrors {
		var message string
		switch err.Tag() {
		case "required":
			message = "This field is required"
		case "email":
			message = "Must be a valid email address"
		case "min":
			message = "Value is too short"
		case "max":
			message = "Value is too long"
		case "oneof":
			message = "Invalid value"
		case "url":
			message = "Must be a valid URL"
		default:
			message = "Invalid value"
		}

		fields[err.Field()] = map[string]interface{}{
			"message": message,
			"tag":     err.Tag(),
		}
	}

	return map[string]interface{}{"fields": fields}
}
