package events

import "time"

// Account lifecycle event codes published on the bus.
const (
	TypeUserRegistered  = "USER_REGISTERED"
	TypeUserActivated   = "USER_ACTIVATED"
	TypeUserDeactivated = "USER_DEACTIVATED"
	TypeUserDeleted     = "USER_DELETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_ACTIVATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete event shape carried over the bus.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewUserLifecycleEvent builds an account lifecycle event for the given
// username.
func NewUserLifecycleEvent(eventType, username string) BaseEvent {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"username": username,
		},
		OccurredAt: time.Now(),
	}
}
