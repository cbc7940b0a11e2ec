package services

import (
	"context"
	"sync"
	"time"

	"relieflink/interfaces"
	"relieflink/models"
	"relieflink/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeAlertStore is an in-memory AlertStore that mirrors the conditional
// write semantics of the real repository: duplicate joins, double check-ins
// and double verification fail with the same sentinels.
type fakeAlertStore struct {
	mu     sync.Mutex
	alerts map[string]*models.Alert

	notificationsSent map[string]int
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{
		alerts:            make(map[string]*models.Alert),
		notificationsSent: make(map[string]int),
	}
}

func (fs *fakeAlertStore) put(alert *models.Alert) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	copied := *alert
	fs.alerts[alert.AlertID] = &copied
}

func (fs *fakeAlertStore) Create(ctx context.Context, alert *models.Alert) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if alert.ID.IsZero() {
		alert.ID = primitive.NewObjectID()
	}
	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now
	copied := *alert
	fs.alerts[alert.AlertID] = &copied
	return nil
}

func (fs *fakeAlertStore) GetByAlertID(ctx context.Context, alertID string) (*models.Alert, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	alert, ok := fs.alerts[alertID]
	if !ok {
		return nil, interfaces.ErrAlertNotFound
	}
	copied := *alert
	copied.Responses = append([]models.AlertResponse(nil), alert.Responses...)
	return &copied, nil
}

func (fs *fakeAlertStore) Query(ctx context.Context, q models.AlertQuery) ([]models.Alert, int64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.Alert
	for _, alert := range fs.alerts {
		if q.Status != "" && alert.Status != q.Status {
			continue
		}
		if q.Type != "" && alert.EmergencyType != q.Type {
			continue
		}
		out = append(out, *alert)
	}
	return out, int64(len(out)), nil
}

func (fs *fakeAlertStore) GetActive(ctx context.Context) ([]models.Alert, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.Alert
	for _, alert := range fs.alerts {
		if alert.Status == models.AlertStatusActive {
			out = append(out, *alert)
		}
	}
	return out, nil
}

func (fs *fakeAlertStore) GetByOrganization(ctx context.Context, orgID string) ([]models.Alert, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.Alert
	for _, alert := range fs.alerts {
		if alert.OrganizationID.Hex() == orgID {
			out = append(out, *alert)
		}
	}
	return out, nil
}

func (fs *fakeAlertStore) GetInRange(ctx context.Context, start, end time.Time) ([]models.Alert, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.Alert
	for _, alert := range fs.alerts {
		if !alert.CreatedAt.Before(start) && alert.CreatedAt.Before(end) {
			out = append(out, *alert)
		}
	}
	return out, nil
}

func (fs *fakeAlertStore) GetByVolunteer(ctx context.Context, volunteerID string) ([]models.Alert, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.Alert
	for _, alert := range fs.alerts {
		for _, response := range alert.Responses {
			if response.VolunteerID.Hex() == volunteerID {
				copied := *alert
				copied.Responses = append([]models.AlertResponse(nil), alert.Responses...)
				out = append(out, copied)
				break
			}
		}
	}
	return out, nil
}

func (fs *fakeAlertStore) Delete(ctx context.Context, alertID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.alerts[alertID]; !ok {
		return interfaces.ErrAlertNotFound
	}
	delete(fs.alerts, alertID)
	return nil
}

func (fs *fakeAlertStore) IncrementViews(ctx context.Context, alertID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	alert, ok := fs.alerts[alertID]
	if !ok {
		return interfaces.ErrAlertNotFound
	}
	alert.Analytics.TotalViews++
	return nil
}

func (fs *fakeAlertStore) MarkVerified(ctx context.Context, alertID string, info models.VerificationInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	alert, ok := fs.alerts[alertID]
	if !ok {
		return interfaces.ErrAlertNotFound
	}
	if alert.VerifiedByAdmin {
		return interfaces.ErrAlreadyVerified
	}
	alert.VerifiedByAdmin = true
	alert.VerifiedBy = &info
	return nil
}

func (fs *fakeAlertStore) SetNotificationsSent(ctx context.Context, alertID string, count int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	alert, ok := fs.alerts[alertID]
	if !ok {
		return interfaces.ErrAlertNotFound
	}
	alert.NotificationsSent = count
	fs.notificationsSent[alertID] = count
	return nil
}

func (fs *fakeAlertStore) UpdateStatus(ctx context.Context, alertID, from, to string, resolvedAt *time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	alert, ok := fs.alerts[alertID]
	if !ok {
		return interfaces.ErrAlertNotFound
	}
	if alert.Status != from {
		return interfaces.ErrInvalidTransition
	}
	alert.Status = to
	if resolvedAt != nil {
		alert.ResolvedAt = *resolvedAt
	}
	return nil
}

func (fs *fakeAlertStore) AddResponse(ctx context.Context, alertID string, response models.AlertResponse) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	alert, ok := fs.alerts[alertID]
	if !ok {
		return interfaces.ErrAlertNotFound
	}
	if alert.Status != models.AlertStatusActive {
		return interfaces.ErrAlertNotActive
	}
	for _, existing := range alert.Responses {
		if existing.VolunteerID == response.VolunteerID {
			return interfaces.ErrDuplicateResponse
		}
	}
	alert.Responses = append(alert.Responses, response)
	alert.Analytics.TotalClicks++
	return nil
}

func (fs *fakeAlertStore) SetResponseCheckIn(ctx context.Context, alertID, volunteerID string, at time.Time) error {
	return fs.advanceResponse(alertID, volunteerID, models.ResponseStatusJoined, func(r *models.AlertResponse) {
		r.Status = models.ResponseStatusCheckedIn
		r.CheckInTime = &at
	})
}

func (fs *fakeAlertStore) SetResponseCheckOut(ctx context.Context, alertID, volunteerID string, at time.Time, feedback *models.ResponseFeedback) error {
	return fs.advanceResponse(alertID, volunteerID, models.ResponseStatusCheckedIn, func(r *models.AlertResponse) {
		r.Status = models.ResponseStatusCompleted
		r.CheckOutTime = &at
		r.Feedback = feedback
	})
}

func (fs *fakeAlertStore) advanceResponse(alertID, volunteerID, requiredStatus string, apply func(*models.AlertResponse)) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	alert, ok := fs.alerts[alertID]
	if !ok {
		return interfaces.ErrAlertNotFound
	}
	for i := range alert.Responses {
		if alert.Responses[i].VolunteerID.Hex() != volunteerID {
			continue
		}
		if alert.Responses[i].Status != requiredStatus {
			return interfaces.ErrInvalidTransition
		}
		apply(&alert.Responses[i])
		return nil
	}
	return interfaces.ErrResponseNotFound
}

func (fs *fakeAlertStore) RefreshAnalytics(ctx context.Context, alertID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	alert, ok := fs.alerts[alertID]
	if !ok {
		return interfaces.ErrAlertNotFound
	}

	var completed int64
	var ratingSum, ratingCount float64
	for _, response := range alert.Responses {
		if response.Status == models.ResponseStatusCompleted {
			completed++
		}
		if response.Feedback != nil && response.Feedback.Rating > 0 {
			ratingSum += float64(response.Feedback.Rating)
			ratingCount++
		}
	}
	alert.Analytics.CompletedResponses = completed
	if ratingCount > 0 {
		alert.Analytics.AverageRating = ratingSum / ratingCount
	}
	return nil
}

// fakeUserDirectory serves users from a map keyed by hex ObjectID.
type fakeUserDirectory struct {
	mu     sync.Mutex
	users  map[string]*models.User
	roster []models.User
}

func newFakeUserDirectory(users ...*models.User) *fakeUserDirectory {
	fd := &fakeUserDirectory{users: make(map[string]*models.User)}
	for _, user := range users {
		fd.users[user.ID.Hex()] = user
	}
	return fd
}

func (fd *fakeUserDirectory) GetByID(ctx context.Context, userID string) (*models.User, error) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	user, ok := fd.users[userID]
	if !ok {
		return nil, utils.NewUserNotFoundError()
	}
	copied := *user
	return &copied, nil
}

func (fd *fakeUserDirectory) GetVolunteerRoster(ctx context.Context) ([]models.User, error) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return append([]models.User(nil), fd.roster...), nil
}

func (fd *fakeUserDirectory) CountByRole(ctx context.Context, role string) (int64, error) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	var count int64
	for _, user := range fd.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

// fakeEmailSink records deliveries and fails addresses listed in failFor.
type fakeEmailSink struct {
	mu         sync.Mutex
	broadcasts []string
	joins      []string
	failFor    map[string]bool
}

func newFakeEmailSink() *fakeEmailSink {
	return &fakeEmailSink{failFor: make(map[string]bool)}
}

func (fe *fakeEmailSink) SendAlertBroadcast(ctx context.Context, to, name string, alert *models.Alert) error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	if fe.failFor[to] {
		return context.DeadlineExceeded
	}
	fe.broadcasts = append(fe.broadcasts, to)
	return nil
}

func (fe *fakeEmailSink) SendJoinConfirmation(ctx context.Context, to, name string, alert *models.Alert) error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	if fe.failFor[to] {
		return context.DeadlineExceeded
	}
	fe.joins = append(fe.joins, to)
	return nil
}

func (fe *fakeEmailSink) broadcastCount() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return len(fe.broadcasts)
}

// fakeNotificationSink collects notifications in memory.
type fakeNotificationSink struct {
	mu      sync.Mutex
	created []models.Notification
	failAll bool
}

func (fn *fakeNotificationSink) Create(ctx context.Context, notification *models.Notification) error {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	if fn.failAll {
		return context.DeadlineExceeded
	}
	fn.created = append(fn.created, *notification)
	return nil
}

func (fn *fakeNotificationSink) GetForUser(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	var out []models.Notification
	for _, n := range fn.created {
		if n.UserID.Hex() == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (fn *fakeNotificationSink) MarkRead(ctx context.Context, userID, notificationID string) error {
	return nil
}

func (fn *fakeNotificationSink) MarkAllRead(ctx context.Context, userID string) error {
	return nil
}

func (fn *fakeNotificationSink) count() int {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	return len(fn.created)
}

// fakeDispatcher returns a canned result and remembers the roster it saw.
type fakeDispatcher struct {
	mu     sync.Mutex
	result *models.BroadcastResult
	calls  int
	roster []models.User
}

func (fd *fakeDispatcher) Broadcast(ctx context.Context, alert *models.Alert, roster []models.User) *models.BroadcastResult {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.calls++
	fd.roster = roster
	if fd.result != nil {
		return fd.result
	}
	return &models.BroadcastResult{AlertID: alert.AlertID, Recipients: len(roster)}
}
