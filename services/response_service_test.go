package services

import (
	"context"
	"testing"
	"time"

	"relieflink/models"
	"relieflink/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type responseServiceFixture struct {
	store   *fakeAlertStore
	users   *fakeUserDirectory
	email   *fakeEmailSink
	sink    *fakeNotificationSink
	service *ResponseService

	volunteer *models.User
	org       *models.User
	alert     *models.Alert
}

func newResponseServiceFixture(t *testing.T) *responseServiceFixture {
	t.Helper()

	org := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Red Crescent Manila",
		Email:    "ops@redcrescent.example",
		Role:     models.RoleOrganization,
		IsActive: true,
	}
	volunteer := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Dana",
		Email:    "dana@example.com",
		Role:     models.RoleVolunteer,
		IsActive: true,
	}

	alert := testAlert(models.AlertStatusActive)
	alert.OrganizationID = org.ID
	alert.CreatedAt = time.Now()

	store := newFakeAlertStore()
	store.put(alert)
	users := newFakeUserDirectory(org, volunteer)
	email := newFakeEmailSink()
	sink := &fakeNotificationSink{}

	return &responseServiceFixture{
		store:   store,
		users:   users,
		email:   email,
		sink:    sink,
		service: NewResponseService(store, users, email, NewNotificationService(sink), utils.NewValidationService()),

		volunteer: volunteer,
		org:       org,
		alert:     alert,
	}
}

func TestJoinAlertRecordsResponse(t *testing.T) {
	fx := newResponseServiceFixture(t)

	alert, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)

	require.Len(t, alert.Responses, 1)
	response := alert.Responses[0]
	assert.Equal(t, fx.volunteer.ID, response.VolunteerID)
	assert.Equal(t, models.ResponseStatusJoined, response.Status)
	assert.Equal(t, models.ResponseTypeInPerson, response.ResponseType)
	assert.Nil(t, response.CheckInTime)

	// Joins count as clicks on the alert.
	assert.Equal(t, int64(1), alert.Analytics.TotalClicks)
}

func TestJoinAlertVirtualResponseType(t *testing.T) {
	fx := newResponseServiceFixture(t)

	alert, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{
		ResponseType: models.ResponseTypeVirtual,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ResponseTypeVirtual, alert.Responses[0].ResponseType)
}

func TestJoinAlertRejectsDuplicates(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)

	_, err = fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", serviceErr.Code)
	assert.Contains(t, serviceErr.Message, "already responded")
}

func TestJoinAlertRequiresActiveStatus(t *testing.T) {
	fx := newResponseServiceFixture(t)

	pending := testAlert(models.AlertStatusPendingVerification)
	pending.AlertID = "EA-1700000000001-PENDING1"
	fx.store.put(pending)

	_, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), pending.AlertID, models.JoinAlertRequest{})

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", serviceErr.Code)
	assert.Contains(t, serviceErr.Message, "not active")
}

func TestJoinAlertRejectsNonVolunteers(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.JoinAlert(context.Background(), fx.org.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", serviceErr.Code)
}

func TestJoinAlertSendsConfirmationAndNotifiesOrg(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		fx.email.mu.Lock()
		defer fx.email.mu.Unlock()
		return len(fx.email.joins) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return fx.sink.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCheckInAdvancesResponse(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)

	alert, err := fx.service.CheckIn(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID)
	require.NoError(t, err)

	response := alert.Responses[0]
	assert.Equal(t, models.ResponseStatusCheckedIn, response.Status)
	require.NotNil(t, response.CheckInTime)
}

func TestCheckInTwiceFails(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)
	_, err = fx.service.CheckIn(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID)
	require.NoError(t, err)

	_, err = fx.service.CheckIn(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID)

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", serviceErr.Code)
}

func TestCheckInWithoutJoinFails(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.CheckIn(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID)

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", serviceErr.Code)
}

func TestCheckOutCompletesWithFeedback(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)
	_, err = fx.service.CheckIn(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID)
	require.NoError(t, err)

	alert, err := fx.service.CheckOut(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.CheckOutRequest{
		Rating:  5,
		Comment: "Well organized",
	})
	require.NoError(t, err)

	response := alert.Responses[0]
	assert.Equal(t, models.ResponseStatusCompleted, response.Status)
	require.NotNil(t, response.CheckOutTime)
	require.NotNil(t, response.Feedback)
	assert.Equal(t, 5, response.Feedback.Rating)

	// Derived analytics refresh after check-out.
	assert.Equal(t, int64(1), alert.Analytics.CompletedResponses)
	assert.Equal(t, 5.0, alert.Analytics.AverageRating)
}

func TestCheckOutWithoutFeedbackLeavesItEmpty(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)
	_, err = fx.service.CheckIn(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID)
	require.NoError(t, err)

	alert, err := fx.service.CheckOut(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.CheckOutRequest{})
	require.NoError(t, err)

	assert.Nil(t, alert.Responses[0].Feedback)
}

func TestCheckOutRequiresCheckIn(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)

	_, err = fx.service.CheckOut(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.CheckOutRequest{})

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", serviceErr.Code)
}

func TestCheckOutRejectsOutOfRangeRating(t *testing.T) {
	fx := newResponseServiceFixture(t)

	_, err := fx.service.CheckOut(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.CheckOutRequest{Rating: 9})

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "BAD_REQUEST", serviceErr.Code)
}

func TestGetMyResponsesFlattensHistory(t *testing.T) {
	fx := newResponseServiceFixture(t)

	second := testAlert(models.AlertStatusActive)
	second.AlertID = "EA-1700000000002-SECOND01"
	second.Title = "Landslide clearing"
	second.EmergencyType = models.EmergencyTypeLandslide
	fx.store.put(second)

	_, err := fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)
	_, err = fx.service.JoinAlert(context.Background(), fx.volunteer.ID.Hex(), second.AlertID, models.JoinAlertRequest{})
	require.NoError(t, err)
	_, err = fx.service.CheckIn(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID)
	require.NoError(t, err)
	_, err = fx.service.CheckOut(context.Background(), fx.volunteer.ID.Hex(), fx.alert.AlertID, models.CheckOutRequest{Rating: 4})
	require.NoError(t, err)

	entries, err := fx.service.GetMyResponses(context.Background(), fx.volunteer.ID.Hex())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byAlert := make(map[string]models.VolunteerResponseEntry)
	for _, entry := range entries {
		byAlert[entry.AlertID] = entry
	}

	completed := byAlert[fx.alert.AlertID]
	assert.Equal(t, models.ResponseStatusCompleted, completed.Status)
	assert.Equal(t, 4, completed.Rating)

	joined := byAlert[second.AlertID]
	assert.Equal(t, models.ResponseStatusJoined, joined.Status)
	assert.Equal(t, models.EmergencyTypeLandslide, joined.EmergencyType)
}
