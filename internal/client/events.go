package client

import "github.com/devconnect/devconnect/internal/models"

// Event types consumed by the reducer. The names are the client-visible
// contract and match the wire constants the UI layer dispatches on.
const (
	EventGetProfile     = "GET_PROFILE"
	EventGetProfiles    = "GET_PROFILES"
	EventUpdateProfile  = "UPDATE_PROFILE"
	EventClearProfile   = "CLEAR_PROFILE"
	EventProfileError   = "PROFILE_ERROR"
	EventAccountDeleted = "ACCOUNT_DELETED"
)

// SyncError is the normalized error payload carried by PROFILE_ERROR.
type SyncError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Event is what the dispatcher emits and the reducer folds into state.
type Event struct {
	Type     string
	Profile  *models.Profile
	Profiles []models.Profile
	Err      *SyncError
}

// EventSink receives dispatcher events. The reducer's driver is the usual
// implementation; tests substitute a recorder.
type EventSink interface {
	Emit(Event)
}

// EmitFunc adapts a plain function to an EventSink.
type EmitFunc func(Event)

func (f EmitFunc) Emit(e Event) { f(e) }

// Notification severities accepted by the alert collaborator.
const (
	SeveritySuccess = "success"
	SeverityDanger  = "danger"
)

// Notifier is the fire-and-forget alert sink.
type Notifier interface {
	Notify(text, severity string)
}

// NotifyFunc adapts a plain function to a Notifier.
type NotifyFunc func(text, severity string)

func (f NotifyFunc) Notify(text, severity string) { f(text, severity) }

// Outcome is the declarative navigation result of a dispatched operation.
// The presentation layer performs the actual navigation.
type Outcome struct {
	Kind string // "navigate" or "stay"
	To   string
}

const (
	OutcomeNavigate = "navigate"
	OutcomeStay     = "stay"
)

func navigate(to string) Outcome { return Outcome{Kind: OutcomeNavigate, To: to} }
func stay() Outcome              { return Outcome{Kind: OutcomeStay} }
