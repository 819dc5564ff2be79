package events

import (
	"time"

	"github.com/certhub/admin-gateway/internal/domain"
)

// EventType enumerates supported event identifiers. Values double as AMQP routing keys.
type EventType string

const (
	EventUserCreated       EventType = "user.created"
	EventUserToggled       EventType = "user.toggled"
	EventEnrollmentCreated EventType = "enrollment.created"
	EventEnrollmentUpdated EventType = "enrollment.updated"
	EventEnrollmentDeleted EventType = "enrollment.deleted"
)

// Event represents a domain event emitted by the admin service.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subjectId"`
	ActorUID  string    `json:"actorUid"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// UserToggledPayload payload.
type UserToggledPayload struct {
	Status domain.UserStatus `json:"status"`
}

// EnrollmentPayload is shared by enrollment events.
type EnrollmentPayload struct {
	UserID   string                  `json:"userId"`
	CourseID string                  `json:"courseId"`
	Status   domain.EnrollmentStatus `json:"status,omitempty"`
	Fields   []string                `json:"fields,omitempty"`
}
