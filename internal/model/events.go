package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// EventStateChanged carries a new ViewState snapshot
	EventStateChanged EventType = "state_changed"
	// EventAuthFailed reports a rejected login or sign-up; state is unchanged
	EventAuthFailed EventType = "auth_failed"
	// EventViewerClosed is the last event a viewer emits
	EventViewerClosed EventType = "viewer_closed"
)

// Event is published by a viewer to its observers
type Event struct {
	Type      EventType
	Timestamp time.Time
	ViewerID  ViewerID
	State     ViewState
	Payload   any // Type-specific data
}

// AuthFailedPayload contains data for auth failed events
type AuthFailedPayload struct {
	Operation string // "login" or "create_account"
	Reason    string
}
