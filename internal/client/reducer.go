package client

import "github.com/devconnect/devconnect/internal/models"

// State is the client-visible profile cache: at most one current/viewed
// profile plus an optional list. It is never authoritative; every mutation
// round-trips through the server first.
type State struct {
	Profile  *models.Profile
	Profiles []models.Profile
	Loading  bool
	Err      *SyncError
}

// NewState returns the initial state: loading, nothing cached.
func NewState() State {
	return State{Loading: true}
}

// Reduce folds one event into the state. It is pure and synchronous, knows
// nothing about network or navigation, never panics, and leaves the state
// unchanged for event types it has no rule for.
func Reduce(s State, e Event) State {
	switch e.Type {
	case EventGetProfile, EventUpdateProfile:
		s.Profile = e.Profile
		s.Loading = false
	case EventGetProfiles:
		s.Profiles = e.Profiles
		s.Loading = false
	case EventClearProfile:
		s.Profile = nil
		s.Loading = true
	case EventProfileError:
		s.Err = e.Err
		s.Loading = false
	case EventAccountDeleted:
		s = State{}
	}
	return s
}
