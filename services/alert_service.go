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

// AlertService owns the alert lifecycle: creation, verification, status
// transitions and the roster broadcast that follows verification.
type AlertService struct {
	alerts     interfaces.AlertStore
	users      interfaces.UserDirectory
	dispatcher interfaces.Dispatcher
	validator  *utils.ValidationService

	notifications *NotificationService
}

func NewAlertService(
	alerts interfaces.AlertStore,
	users interfaces.UserDirectory,
	dispatcher interfaces.Dispatcher,
	notifications *NotificationService,
	validator *utils.ValidationService,
) *AlertService {
	return &AlertService{
		alerts:        alerts,
		users:         users,
		dispatcher:    dispatcher,
		notifications: notifications,
		validator:     validator,
	}
}

// CreateAlert normalizes and persists a new alert. Alerts start in
// pending_verification and are invisible to volunteers until an admin
// verifies them.
func (as *AlertService) CreateAlert(ctx context.Context, orgUserID string, req models.CreateAlertRequest) (*models.Alert, error) {
	if validationErrors := as.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewBadRequestError(validationErrors[0].Message)
	}

	org, err := as.users.GetByID(ctx, orgUserID)
	if err != nil {
		return nil, err
	}
	if org.Role != models.RoleOrganization && org.Role != models.RoleAdmin {
		return nil, utils.NewForbiddenError("Only organizations can create alerts")
	}

	urgency := req.UrgencyLevel
	if urgency == "" {
		urgency = models.UrgencyHigh
	}

	now := time.Now()
	alert := &models.Alert{
		AlertID:           utils.GenerateAlertID(),
		OrganizationID:    org.ID,
		OrganizationName:  org.Name,
		OrganizationEmail: org.Email,
		Title:             utils.SanitizeInput(req.Title),
		Description:       req.Description,
		EmergencyType:     req.EmergencyType,
		UrgencyLevel:      urgency,
		Location:          models.ParseLocation(req.Location),
		Instructions:      req.Instructions,
		SafetyGuidelines:  req.SafetyGuidelines,
		RequiredSkills:    models.ParseRequiredSkills(req.RequiredSkills),
		ContactInfo:       req.ContactInfo,
		Image:             req.Image,
		VolunteersNeeded:  models.ParseVolunteersNeeded(req.VolunteersNeeded),
		StartTime:         req.StartTime,
		EstimatedDuration: req.EstimatedDuration,
		Status:            models.AlertStatusPendingVerification,
		Responses:         []models.AlertResponse{},
		BroadcastedAt:     now,
	}

	if alert.Location.Address == "" {
		return nil, utils.NewBadRequestError("Location address is required")
	}

	if err := as.alerts.Create(ctx, alert); err != nil {
		return nil, utils.WrapDatabaseError(err, "create alert")
	}

	logrus.WithFields(logrus.Fields{
		"alertId":      alert.AlertID,
		"organization": alert.OrganizationName,
		"type":         alert.EmergencyType,
		"urgency":      alert.UrgencyLevel,
	}).Info("Alert created, awaiting verification")

	return alert, nil
}

// GetAlert returns one alert and counts the view.
func (as *AlertService) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	alert, err := as.alerts.GetByAlertID(ctx, alertID)
	if err != nil {
		return nil, as.translate(err)
	}

	// View counting is best effort, the read should not fail on it.
	if err := as.alerts.IncrementViews(ctx, alertID); err != nil {
		logrus.Warnf("Failed to count view for %s: %v", alertID, err)
	} else {
		alert.Analytics.TotalViews++
	}

	return alert, nil
}

// GetActiveAlerts returns the volunteer-facing feed.
func (as *AlertService) GetActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	alerts, err := as.alerts.GetActive(ctx)
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get active alerts")
	}
	return alerts, nil
}

// QueryAlerts is the admin listing with filters and pagination.
func (as *AlertService) QueryAlerts(ctx context.Context, q models.AlertQuery) ([]models.Alert, int64, error) {
	if q.Status != "" && !isValidAlertStatus(q.Status) {
		return nil, 0, utils.NewBadRequestError("Invalid status filter")
	}
	alerts, total, err := as.alerts.Query(ctx, q)
	if err != nil {
		return nil, 0, utils.WrapDatabaseError(err, "query alerts")
	}
	return alerts, total, nil
}

// GetOrganizationAlerts returns every alert an organization has raised.
func (as *AlertService) GetOrganizationAlerts(ctx context.Context, orgID string) ([]models.Alert, error) {
	alerts, err := as.alerts.GetByOrganization(ctx, orgID)
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "get organization alerts")
	}
	return alerts, nil
}

// VerifyAlert flips the admin verification flag exactly once, activates the
// alert and kicks off the roster broadcast.
func (as *AlertService) VerifyAlert(ctx context.Context, adminID, alertID string) (*models.Alert, error) {
	admin, err := as.users.GetByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin.Role != models.RoleAdmin {
		return nil, utils.NewInsufficientPermissionsError()
	}

	err = as.alerts.MarkVerified(ctx, alertID, models.VerificationInfo{
		AdminID:    admin.ID,
		AdminName:  admin.Name,
		VerifiedAt: time.Now(),
	})
	if err != nil {
		return nil, as.translate(err)
	}

	err = as.alerts.UpdateStatus(ctx, alertID, models.AlertStatusPendingVerification, models.AlertStatusActive, nil)
	if err != nil && !errors.Is(err, interfaces.ErrInvalidTransition) {
		return nil, as.translate(err)
	}

	alert, err := as.alerts.GetByAlertID(ctx, alertID)
	if err != nil {
		return nil, as.translate(err)
	}

	if err := as.notifications.NotifyAlertVerified(ctx, alert.OrganizationID, alert); err != nil {
		logrus.Warnf("Failed to notify organization for %s: %v", alert.AlertID, err)
	}

	// The broadcast runs inside the verifying request so the response carries
	// the delivered count. The worker pool and per-recipient timeout bound how
	// long this can take.
	as.BroadcastAlert(ctx, alert)

	verified, err := as.alerts.GetByAlertID(ctx, alertID)
	if err != nil {
		return nil, as.translate(err)
	}
	return verified, nil
}

// BroadcastAlert fans the alert out to the current roster and persists the
// count of successful email deliveries as notificationsSent.
func (as *AlertService) BroadcastAlert(ctx context.Context, alert *models.Alert) *models.BroadcastResult {
	roster, err := as.users.GetVolunteerRoster(ctx)
	if err != nil {
		logrus.Errorf("Failed to load roster for broadcast of %s: %v", alert.AlertID, err)
		return nil
	}

	result := as.dispatcher.Broadcast(ctx, alert, roster)

	if err := as.alerts.SetNotificationsSent(ctx, alert.AlertID, result.EmailsSent); err != nil {
		logrus.Errorf("Failed to record notificationsSent for %s: %v", alert.AlertID, err)
	}

	return result
}

// UpdateAlertStatus moves an alert along its lifecycle. Organizations may
// only touch their own alerts; admins may touch any.
func (as *AlertService) UpdateAlertStatus(ctx context.Context, actorID, alertID, newStatus string) (*models.Alert, error) {
	alert, err := as.alerts.GetByAlertID(ctx, alertID)
	if err != nil {
		return nil, as.translate(err)
	}

	actor, err := as.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && alert.OrganizationID != actor.ID {
		return nil, utils.NewForbiddenError("You do not own this alert")
	}

	if !models.CanTransitionAlertStatus(alert.Status, newStatus) {
		return nil, utils.NewInvalidTransitionError(alert.Status, newStatus)
	}

	var resolvedAt *time.Time
	if newStatus == models.AlertStatusResolved {
		resolvedAt = utils.TimePtr(time.Now())
	}

	err = as.alerts.UpdateStatus(ctx, alertID, alert.Status, newStatus, resolvedAt)
	if err != nil {
		return nil, as.translate(err)
	}

	updated, err := as.alerts.GetByAlertID(ctx, alertID)
	if err != nil {
		return nil, as.translate(err)
	}

	if newStatus == models.AlertStatusResolved || newStatus == models.AlertStatusCancelled {
		go as.handleAlertClosed(updated)
	}

	logrus.WithFields(logrus.Fields{
		"alertId": alertID,
		"from":    alert.Status,
		"to":      newStatus,
	}).Info("Alert status updated")

	return updated, nil
}

func (as *AlertService) handleAlertClosed(alert *models.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	as.notifications.NotifyAlertClosed(ctx, alert)
}

// DeleteAlert removes an alert. Admins can delete anything; organizations
// only their own alerts, and only before verification.
func (as *AlertService) DeleteAlert(ctx context.Context, actorID, alertID string) error {
	alert, err := as.alerts.GetByAlertID(ctx, alertID)
	if err != nil {
		return as.translate(err)
	}

	actor, err := as.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	if actor.Role != models.RoleAdmin {
		if alert.OrganizationID != actor.ID {
			return utils.NewForbiddenError("You do not own this alert")
		}
		if alert.Status != models.AlertStatusPendingVerification {
			return utils.NewConflictError("Only unverified alerts can be deleted")
		}
	}

	if err := as.alerts.Delete(ctx, alertID); err != nil {
		return as.translate(err)
	}

	logrus.Infof("Alert %s deleted by %s", alertID, actorID)
	return nil
}

// translate maps storage sentinels to API-facing service errors.
func (as *AlertService) translate(err error) error {
	switch {
	case errors.Is(err, interfaces.ErrAlertNotFound):
		return utils.NewAlertNotFoundError()
	case errors.Is(err, interfaces.ErrAlreadyVerified):
		return utils.NewConflictError("Alert is already verified")
	case errors.Is(err, interfaces.ErrInvalidTransition):
		return utils.NewConflictError("Alert status changed concurrently, please retry")
	default:
		return utils.WrapDatabaseError(err, "alert operation")
	}
}

func isValidAlertStatus(status string) bool {
	switch status {
	case models.AlertStatusPendingVerification, models.AlertStatusActive,
		models.AlertStatusResolved, models.AlertStatusCancelled:
		return true
	}
	return false
}
