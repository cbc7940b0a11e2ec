package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"relieflink/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testAlert(status string) *models.Alert {
	return &models.Alert{
		ID:            primitive.NewObjectID(),
		AlertID:       "EA-1700000000000-TESTTEST",
		Title:         "Flooded riverside district",
		EmergencyType: models.EmergencyTypeFlood,
		UrgencyLevel:  models.UrgencyHigh,
		Status:        status,
	}
}

func testVolunteer(name string) models.User {
	return models.User{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Email:    name + "@example.com",
		Role:     models.RoleVolunteer,
		IsActive: true,
	}
}

func TestBroadcastDeliversBothChannels(t *testing.T) {
	email := newFakeEmailSink()
	sink := &fakeNotificationSink{}
	bs := NewBroadcastService(email, NewNotificationService(sink), DefaultBroadcastConfig())

	roster := []models.User{
		testVolunteer("ana"),
		testVolunteer("ben"),
		testVolunteer("cho"),
	}

	result := bs.Broadcast(context.Background(), testAlert(models.AlertStatusActive), roster)

	assert.Equal(t, 3, result.Recipients)
	assert.Equal(t, 3, result.EmailsSent)
	assert.Equal(t, 0, result.EmailFailures)
	assert.Equal(t, 3, result.NotificationsCreated)
	assert.Equal(t, 3, email.broadcastCount())
	assert.Equal(t, 3, sink.count())
}

func TestBroadcastReachesEveryRosterMember(t *testing.T) {
	email := newFakeEmailSink()
	sink := &fakeNotificationSink{}
	bs := NewBroadcastService(email, NewNotificationService(sink), DefaultBroadcastConfig())

	// A sparse user document, as written by an older importer, still gets
	// both channels. There is no per-volunteer opt-out.
	sparse := models.User{ID: primitive.NewObjectID(), Email: "sparse@example.com"}
	roster := []models.User{testVolunteer("ana"), sparse}

	result := bs.Broadcast(context.Background(), testAlert(models.AlertStatusActive), roster)

	assert.Equal(t, 2, result.EmailsSent)
	assert.Equal(t, 0, result.EmailFailures)
	assert.Equal(t, 2, result.NotificationsCreated)
}

func TestBroadcastIsolatesRecipientFailures(t *testing.T) {
	email := newFakeEmailSink()
	email.failFor["ben@example.com"] = true
	sink := &fakeNotificationSink{}
	bs := NewBroadcastService(email, NewNotificationService(sink), DefaultBroadcastConfig())

	roster := []models.User{
		testVolunteer("ana"),
		testVolunteer("ben"),
		testVolunteer("cho"),
	}

	result := bs.Broadcast(context.Background(), testAlert(models.AlertStatusActive), roster)

	assert.Equal(t, 2, result.EmailsSent)
	assert.Equal(t, 1, result.EmailFailures)
	// The failed email does not block ben's in-app notification.
	assert.Equal(t, 3, result.NotificationsCreated)
}

func TestBroadcastChannelFailuresAreIndependent(t *testing.T) {
	email := newFakeEmailSink()
	sink := &fakeNotificationSink{failAll: true}
	bs := NewBroadcastService(email, NewNotificationService(sink), DefaultBroadcastConfig())

	roster := []models.User{testVolunteer("ana")}

	result := bs.Broadcast(context.Background(), testAlert(models.AlertStatusActive), roster)

	assert.Equal(t, 1, result.EmailsSent)
	assert.Equal(t, 0, result.NotificationsCreated)
}

func TestBroadcastWithBoundedWorkerPool(t *testing.T) {
	email := newFakeEmailSink()
	sink := &fakeNotificationSink{}
	bs := NewBroadcastService(email, NewNotificationService(sink), BroadcastConfig{
		WorkerCount:      4,
		RecipientTimeout: time.Second,
	})

	roster := make([]models.User, 0, 50)
	for i := 0; i < 50; i++ {
		roster = append(roster, testVolunteer(fmt.Sprintf("vol%02d", i)))
	}

	result := bs.Broadcast(context.Background(), testAlert(models.AlertStatusActive), roster)

	require.Equal(t, 50, result.Recipients)
	assert.Equal(t, 50, result.EmailsSent)
	assert.Equal(t, 50, result.NotificationsCreated)
	assert.GreaterOrEqual(t, result.DurationMs, int64(0))
}

func TestBroadcastEmptyRoster(t *testing.T) {
	email := newFakeEmailSink()
	sink := &fakeNotificationSink{}
	bs := NewBroadcastService(email, NewNotificationService(sink), DefaultBroadcastConfig())

	result := bs.Broadcast(context.Background(), testAlert(models.AlertStatusActive), nil)

	assert.Equal(t, 0, result.Recipients)
	assert.Equal(t, 0, result.EmailsSent)
	assert.Equal(t, 0, result.NotificationsCreated)
}

func TestBroadcastConfigDefaults(t *testing.T) {
	bs := NewBroadcastService(newFakeEmailSink(), NewNotificationService(&fakeNotificationSink{}), BroadcastConfig{})

	assert.Equal(t, 1, bs.config.WorkerCount)
	assert.Equal(t, 10*time.Second, bs.config.RecipientTimeout)
}
