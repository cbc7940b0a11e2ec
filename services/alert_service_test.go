package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"relieflink/models"
	"relieflink/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type alertServiceFixture struct {
	store      *fakeAlertStore
	users      *fakeUserDirectory
	dispatcher *fakeDispatcher
	sink       *fakeNotificationSink
	service    *AlertService

	org       *models.User
	admin     *models.User
	volunteer *models.User
}

func newAlertServiceFixture(t *testing.T) *alertServiceFixture {
	t.Helper()

	org := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Red Crescent Manila",
		Email:    "ops@redcrescent.example",
		Role:     models.RoleOrganization,
		IsActive: true,
	}
	admin := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Platform Admin",
		Email:    "admin@relieflink.example",
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	volunteer := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Dana",
		Email:    "dana@example.com",
		Role:     models.RoleVolunteer,
		IsActive: true,
	}

	store := newFakeAlertStore()
	users := newFakeUserDirectory(org, admin, volunteer)
	dispatcher := &fakeDispatcher{}
	sink := &fakeNotificationSink{}

	return &alertServiceFixture{
		store:      store,
		users:      users,
		dispatcher: dispatcher,
		sink:       sink,
		service:    NewAlertService(store, users, dispatcher, NewNotificationService(sink), utils.NewValidationService()),
		org:        org,
		admin:      admin,
		volunteer:  volunteer,
	}
}

func validCreateRequest() models.CreateAlertRequest {
	return models.CreateAlertRequest{
		Title:         "Flooded riverside district",
		Description:   "Evacuation support needed in Barangay San Roque",
		EmergencyType: models.EmergencyTypeFlood,
		Location:      json.RawMessage(`{"address":"San Roque, Manila","city":"Manila"}`),
	}
}

func TestCreateAlertStartsPendingVerification(t *testing.T) {
	fx := newAlertServiceFixture(t)

	alert, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, models.AlertStatusPendingVerification, alert.Status)
	assert.False(t, alert.VerifiedByAdmin)
	assert.True(t, strings.HasPrefix(alert.AlertID, "EA-"))
	assert.Equal(t, models.UrgencyHigh, alert.UrgencyLevel)
	assert.Equal(t, fx.org.ID, alert.OrganizationID)
	assert.Empty(t, alert.Responses)
}

func TestCreateAlertNormalizesLooseFields(t *testing.T) {
	fx := newAlertServiceFixture(t)

	req := validCreateRequest()
	req.Location = json.RawMessage(`"Coastal Road km 12"`)
	req.RequiredSkills = json.RawMessage(`"First Aid, first aid, Swimming"`)
	req.VolunteersNeeded = json.RawMessage(`15`)

	alert, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), req)
	require.NoError(t, err)

	assert.Equal(t, "Coastal Road km 12", alert.Location.Address)
	assert.Equal(t, []string{"first aid", "swimming"}, alert.RequiredSkills)
	assert.Equal(t, 15, alert.VolunteersNeeded.InPerson)
	assert.Equal(t, 0, alert.VolunteersNeeded.Virtual)
	assert.Equal(t, 15, alert.VolunteersNeeded.Total())
}

func TestCreateAlertRejectsVolunteers(t *testing.T) {
	fx := newAlertServiceFixture(t)

	_, err := fx.service.CreateAlert(context.Background(), fx.volunteer.ID.Hex(), validCreateRequest())

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", serviceErr.Code)
}

func TestCreateAlertRequiresAddress(t *testing.T) {
	fx := newAlertServiceFixture(t)

	req := validCreateRequest()
	req.Location = json.RawMessage(`{"city":"Manila"}`)

	_, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), req)

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "BAD_REQUEST", serviceErr.Code)
}

func TestCreateAlertValidatesEmergencyType(t *testing.T) {
	fx := newAlertServiceFixture(t)

	req := validCreateRequest()
	req.EmergencyType = "alien-invasion"

	_, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), req)

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "BAD_REQUEST", serviceErr.Code)
}

func TestVerifyAlertActivatesAndBroadcasts(t *testing.T) {
	fx := newAlertServiceFixture(t)
	fx.users.roster = []models.User{*fx.volunteer}
	fx.dispatcher.result = &models.BroadcastResult{EmailsSent: 1, Recipients: 1}

	created, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)

	verified, err := fx.service.VerifyAlert(context.Background(), fx.admin.ID.Hex(), created.AlertID)
	require.NoError(t, err)

	assert.Equal(t, models.AlertStatusActive, verified.Status)
	assert.True(t, verified.VerifiedByAdmin)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, fx.admin.ID, verified.VerifiedBy.AdminID)

	// The broadcast completes within the verifying request, so the returned
	// alert already carries the delivered count.
	assert.Equal(t, 1, fx.dispatcher.calls)
	assert.Equal(t, 1, verified.NotificationsSent)
	assert.Equal(t, 1, fx.store.notificationsSent[created.AlertID])
}

func TestVerifyAlertRequiresAdmin(t *testing.T) {
	fx := newAlertServiceFixture(t)

	created, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)

	_, err = fx.service.VerifyAlert(context.Background(), fx.org.ID.Hex(), created.AlertID)

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", serviceErr.Code)
}

func TestVerifyAlertFiresExactlyOnce(t *testing.T) {
	fx := newAlertServiceFixture(t)

	created, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)

	_, err = fx.service.VerifyAlert(context.Background(), fx.admin.ID.Hex(), created.AlertID)
	require.NoError(t, err)

	_, err = fx.service.VerifyAlert(context.Background(), fx.admin.ID.Hex(), created.AlertID)
	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", serviceErr.Code)
}

func TestVerifyAlertUnknownAlert(t *testing.T) {
	fx := newAlertServiceFixture(t)

	_, err := fx.service.VerifyAlert(context.Background(), fx.admin.ID.Hex(), "EA-0-MISSING")

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", serviceErr.Code)
}

func TestBroadcastAlertRecordsEmailSuccesses(t *testing.T) {
	fx := newAlertServiceFixture(t)
	fx.users.roster = []models.User{*fx.volunteer, testVolunteer("extra")}
	fx.dispatcher.result = &models.BroadcastResult{EmailsSent: 2, EmailFailures: 0, Recipients: 2}

	created, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)

	result := fx.service.BroadcastAlert(context.Background(), created)
	require.NotNil(t, result)

	assert.Equal(t, 2, result.EmailsSent)
	assert.Equal(t, 2, fx.store.notificationsSent[created.AlertID])
	assert.LessOrEqual(t, result.EmailsSent, result.Recipients)
}

func TestUpdateAlertStatusResolvesWithTimestamp(t *testing.T) {
	fx := newAlertServiceFixture(t)

	created, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)
	_, err = fx.service.VerifyAlert(context.Background(), fx.admin.ID.Hex(), created.AlertID)
	require.NoError(t, err)

	updated, err := fx.service.UpdateAlertStatus(context.Background(), fx.org.ID.Hex(), created.AlertID, models.AlertStatusResolved)
	require.NoError(t, err)

	assert.Equal(t, models.AlertStatusResolved, updated.Status)
	assert.False(t, updated.ResolvedAt.IsZero())
}

func TestUpdateAlertStatusRejectsIllegalTransition(t *testing.T) {
	fx := newAlertServiceFixture(t)

	created, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)

	// pending_verification cannot jump straight to resolved
	_, err = fx.service.UpdateAlertStatus(context.Background(), fx.org.ID.Hex(), created.AlertID, models.AlertStatusResolved)

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TRANSITION", serviceErr.Code)
}

func TestUpdateAlertStatusTerminalStatesAreAbsorbing(t *testing.T) {
	fx := newAlertServiceFixture(t)

	created, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)
	_, err = fx.service.UpdateAlertStatus(context.Background(), fx.org.ID.Hex(), created.AlertID, models.AlertStatusCancelled)
	require.NoError(t, err)

	_, err = fx.service.UpdateAlertStatus(context.Background(), fx.admin.ID.Hex(), created.AlertID, models.AlertStatusActive)

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TRANSITION", serviceErr.Code)
}

func TestUpdateAlertStatusEnforcesOwnership(t *testing.T) {
	fx := newAlertServiceFixture(t)

	otherOrg := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Other Org",
		Email:    "other@example.com",
		Role:     models.RoleOrganization,
		IsActive: true,
	}
	fx.users.users[otherOrg.ID.Hex()] = otherOrg

	created, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)

	_, err = fx.service.UpdateAlertStatus(context.Background(), otherOrg.ID.Hex(), created.AlertID, models.AlertStatusCancelled)

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", serviceErr.Code)
}

func TestDeleteAlertRules(t *testing.T) {
	fx := newAlertServiceFixture(t)

	pending, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)

	active, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)
	_, err = fx.service.VerifyAlert(context.Background(), fx.admin.ID.Hex(), active.AlertID)
	require.NoError(t, err)

	// Organizations can delete their own alerts while still unverified.
	require.NoError(t, fx.service.DeleteAlert(context.Background(), fx.org.ID.Hex(), pending.AlertID))

	// Once verified, only an admin may delete.
	err = fx.service.DeleteAlert(context.Background(), fx.org.ID.Hex(), active.AlertID)
	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", serviceErr.Code)

	require.NoError(t, fx.service.DeleteAlert(context.Background(), fx.admin.ID.Hex(), active.AlertID))
}

func TestGetAlertCountsView(t *testing.T) {
	fx := newAlertServiceFixture(t)

	created, err := fx.service.CreateAlert(context.Background(), fx.org.ID.Hex(), validCreateRequest())
	require.NoError(t, err)

	fetched, err := fx.service.GetAlert(context.Background(), created.AlertID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetched.Analytics.TotalViews)

	fetched, err = fx.service.GetAlert(context.Background(), created.AlertID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetched.Analytics.TotalViews)
}

func TestQueryAlertsRejectsBadStatusFilter(t *testing.T) {
	fx := newAlertServiceFixture(t)

	_, _, err := fx.service.QueryAlerts(context.Background(), models.AlertQuery{Status: "bogus"})

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "BAD_REQUEST", serviceErr.Code)
}
