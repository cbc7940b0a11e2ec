package services

import (
	"context"
	"errors"
	"time"

	"relieflink/interfaces"
	"relieflink/models"
	"relieflink/utils"

	"github.com/sirupsen/logrus"
)

// ResponseService tracks volunteer participation on an alert: join,
// check-in, check-out with optional feedback.
type ResponseService struct {
	alerts    interfaces.AlertStore
	users     interfaces.UserDirectory
	email     interfaces.EmailSink
	validator *utils.ValidationService

	notifications *NotificationService
}

func NewResponseService(
	alerts interfaces.AlertStore,
	users interfaces.UserDirectory,
	email interfaces.EmailSink,
	notifications *NotificationService,
	validator *utils.ValidationService,
) *ResponseService {
	return &ResponseService{
		alerts:        alerts,
		users:         users,
		email:         email,
		notifications: notifications,
		validator:     validator,
	}
}

// JoinAlert records a volunteer's response. The storage-level conditional
// write guarantees one response per volunteer even under concurrent joins.
func (rs *ResponseService) JoinAlert(ctx context.Context, volunteerID, alertID string, req models.JoinAlertRequest) (*models.Alert, error) {
	if validationErrors := rs.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewBadRequestError(validationErrors[0].Message)
	}

	volunteer, err := rs.users.GetByID(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if volunteer.Role != models.RoleVolunteer {
		return nil, utils.NewForbiddenError("Only volunteers can respond to alerts")
	}

	responseType := req.ResponseType
	if responseType == "" {
		responseType = models.ResponseTypeInPerson
	}

	response := models.AlertResponse{
		VolunteerID:    volunteer.ID,
		VolunteerName:  volunteer.Name,
		VolunteerEmail: volunteer.Email,
		JoinedAt:       time.Now(),
		Status:         models.ResponseStatusJoined,
		ResponseType:   responseType,
	}

	if err := rs.alerts.AddResponse(ctx, alertID, response); err != nil {
		return nil, rs.translate(err)
	}

	alert, err := rs.alerts.GetByAlertID(ctx, alertID)
	if err != nil {
		return nil, rs.translate(err)
	}

	go rs.handleVolunteerJoined(volunteer, alert)

	logrus.WithFields(logrus.Fields{
		"alertId":   alertID,
		"volunteer": volunteer.ID.Hex(),
		"type":      responseType,
	}).Info("Volunteer joined alert")

	return alert, nil
}

// handleVolunteerJoined runs join side effects: confirmation email to the
// volunteer and an in-app notification to the organization.
func (rs *ResponseService) handleVolunteerJoined(volunteer *models.User, alert *models.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rs.email.SendJoinConfirmation(ctx, volunteer.Email, volunteer.Name, alert); err != nil {
		logrus.Warnf("Failed to send join confirmation to %s: %v", volunteer.Email, err)
	}

	if err := rs.notifications.NotifyAlertJoined(ctx, alert.OrganizationID, volunteer.Name, alert); err != nil {
		logrus.Warnf("Failed to notify organization of join on %s: %v", alert.AlertID, err)
	}
}

// CheckIn moves the caller's response from joined to checked-in.
func (rs *ResponseService) CheckIn(ctx context.Context, volunteerID, alertID string) (*models.Alert, error) {
	if err := rs.alerts.SetResponseCheckIn(ctx, alertID, volunteerID, time.Now()); err != nil {
		return nil, rs.translate(err)
	}

	alert, err := rs.alerts.GetByAlertID(ctx, alertID)
	if err != nil {
		return nil, rs.translate(err)
	}

	logrus.Infof("Volunteer %s checked in on %s", volunteerID, alertID)
	return alert, nil
}

// CheckOut completes the caller's response, stores feedback when present and
// refreshes the alert's derived analytics.
func (rs *ResponseService) CheckOut(ctx context.Context, volunteerID, alertID string, req models.CheckOutRequest) (*models.Alert, error) {
	if validationErrors := rs.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewBadRequestError(validationErrors[0].Message)
	}

	var feedback *models.ResponseFeedback
	if req.Rating > 0 || req.Comment != "" {
		feedback = &models.ResponseFeedback{
			Rating:      req.Rating,
			Comment:     utils.SanitizeInput(req.Comment),
			SubmittedAt: time.Now(),
		}
	}

	if err := rs.alerts.SetResponseCheckOut(ctx, alertID, volunteerID, time.Now(), feedback); err != nil {
		return nil, rs.translate(err)
	}

	if err := rs.alerts.RefreshAnalytics(ctx, alertID); err != nil {
		logrus.Warnf("Failed to refresh analytics for %s: %v", alertID, err)
	}

	alert, err := rs.alerts.GetByAlertID(ctx, alertID)
	if err != nil {
		return nil, rs.translate(err)
	}

	go rs.handleVolunteerCompleted(volunteerID, alert)

	logrus.Infof("Volunteer %s checked out of %s", volunteerID, alertID)
	return alert, nil
}

func (rs *ResponseService) handleVolunteerCompleted(volunteerID string, alert *models.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, response := range alert.Responses {
		if response.VolunteerID.Hex() == volunteerID {
			if err := rs.notifications.NotifyCertificateAwarded(ctx, response.VolunteerID, alert); err != nil {
				logrus.Warnf("Failed to record certificate notification: %v", err)
			}
			return
		}
	}
}

// GetMyResponses returns the caller's participation history across alerts.
func (rs *ResponseService) GetMyResponses(ctx context.Context, volunteerID string) ([]models.VolunteerResponseEntry, error) {
	alerts, err := rs.alerts.GetByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, rs.translate(err)
	}

	entries := make([]models.VolunteerResponseEntry, 0, len(alerts))
	for _, alert := range alerts {
		for _, response := range alert.Responses {
			if response.VolunteerID.Hex() != volunteerID {
				continue
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
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (rs *ResponseService) translate(err error) error {
	switch {
	case errors.Is(err, interfaces.ErrAlertNotFound):
		return utils.NewAlertNotFoundError()
	case errors.Is(err, interfaces.ErrAlertNotActive):
		return utils.NewAlertNotActiveError()
	case errors.Is(err, interfaces.ErrDuplicateResponse):
		return utils.NewDuplicateResponseError()
	case errors.Is(err, interfaces.ErrResponseNotFound):
		return utils.NewNotFoundError("Response")
	case errors.Is(err, interfaces.ErrInvalidTransition):
		return utils.NewConflictError("Response is not in the right state for this action")
	default:
		return utils.WrapDatabaseError(err, "response operation")
	}
}
