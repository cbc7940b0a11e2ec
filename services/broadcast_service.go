package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"relieflink/interfaces"
	"relieflink/models"

	"github.com/sirupsen/logrus"
)

// BroadcastService fans a verified alert out to the volunteer roster with a
// bounded worker pool. A failure for one recipient, or on one channel, never
// stops delivery to the rest.
type BroadcastService struct {
	email         interfaces.EmailSink
	notifications *NotificationService
	config        BroadcastConfig
}

type BroadcastConfig struct {
	WorkerCount      int           `json:"workerCount"`
	RecipientTimeout time.Duration `json:"recipientTimeout"`
}

// DefaultBroadcastConfig returns the fan-out settings used when the
// environment does not override them.
func DefaultBroadcastConfig() BroadcastConfig {
	return BroadcastConfig{
		WorkerCount:      8,
		RecipientTimeout: 10 * time.Second,
	}
}

func NewBroadcastService(email interfaces.EmailSink, notifications *NotificationService, config BroadcastConfig) *BroadcastService {
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if config.RecipientTimeout <= 0 {
		config.RecipientTimeout = 10 * time.Second
	}

	return &BroadcastService{
		email:         email,
		notifications: notifications,
		config:        config,
	}
}

// Broadcast delivers the alert to every roster member and reports per-channel
// outcomes. EmailsSent counts only successful email deliveries.
func (bs *BroadcastService) Broadcast(ctx context.Context, alert *models.Alert, roster []models.User) *models.BroadcastResult {
	start := time.Now()

	var emailsSent, emailFailures, notificationsCreated int64

	jobs := make(chan models.User)
	var wg sync.WaitGroup

	for i := 0; i < bs.config.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for volunteer := range jobs {
				sentEmail, createdNotif := bs.deliverToRecipient(ctx, alert, volunteer)
				if sentEmail {
					atomic.AddInt64(&emailsSent, 1)
				} else {
					atomic.AddInt64(&emailFailures, 1)
				}
				if createdNotif {
					atomic.AddInt64(&notificationsCreated, 1)
				}
			}
		}()
	}

	for _, volunteer := range roster {
		jobs <- volunteer
	}
	close(jobs)
	wg.Wait()

	duration := time.Since(start)
	result := &models.BroadcastResult{
		AlertID:              alert.AlertID,
		Recipients:           len(roster),
		EmailsSent:           int(emailsSent),
		EmailFailures:        int(emailFailures),
		NotificationsCreated: int(notificationsCreated),
		Duration:             duration,
		DurationMs:           duration.Milliseconds(),
	}

	logrus.WithFields(logrus.Fields{
		"alertId":    alert.AlertID,
		"recipients": result.Recipients,
		"emailsSent": result.EmailsSent,
		"failures":   result.EmailFailures,
		"durationMs": result.DurationMs,
	}).Info("Alert broadcast completed")

	return result
}

// deliverToRecipient attempts both channels for every volunteer inside a
// per-recipient timeout. Channel failures are independent.
func (bs *BroadcastService) deliverToRecipient(ctx context.Context, alert *models.Alert, volunteer models.User) (sentEmail, createdNotif bool) {
	recipientCtx, cancel := context.WithTimeout(ctx, bs.config.RecipientTimeout)
	defer cancel()

	err := bs.email.SendAlertBroadcast(recipientCtx, volunteer.Email, volunteer.Name, alert)
	if err != nil {
		logrus.Warnf("Broadcast email to %s failed: %v", volunteer.Email, err)
	} else {
		sentEmail = true
	}

	err = bs.notifications.NotifyEmergencyAlert(recipientCtx, volunteer.ID, alert)
	if err == nil {
		createdNotif = true
	}

	return sentEmail, createdNotif
}
