package state

import (
	"sort"
	"sync"
	"time"
)

// Severity tags a notification for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Notification is a single user-facing message.
type Notification struct {
	ID      int
	Message string
	Tag     Severity
	Created time.Time
}

// NotificationsService is an append-only feed of user-facing messages. It
// never touches the network.
type NotificationsService struct {
	mu            sync.RWMutex
	notifications []Notification
	nextID        int
}

// NewNotificationsService creates an empty notification feed.
func NewNotificationsService() *NotificationsService {
	return &NotificationsService{nextID: 1}
}

// Post appends a notification and returns its id.
func (s *NotificationsService) Post(message string, tag Severity) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.notifications = append(s.notifications, Notification{
		ID:      id,
		Message: message,
		Tag:     tag,
		Created: time.Now(),
	})
	return id
}

// Dismiss removes a notification by id. Unknown ids are ignored.
func (s *NotificationsService) Dismiss(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, notification := range s.notifications {
		if notification.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// Timeline returns the notifications sorted by creation time descending,
// newest first.
func (s *NotificationsService) Timeline() []Notification {
	s.mu.RLock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Reset clears the feed.
func (s *NotificationsService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
}
