package client

import (
	"context"
	"errors"

	"github.com/devconnect/devconnect/internal/models"
)

const dashboardPath = "/dashboard"

// Dispatcher orchestrates one request/response cycle per user intent: it
// issues a single API call, emits exactly one terminal event (data or error),
// and returns a declarative navigation outcome. Notifications always precede
// the terminal event.
type Dispatcher struct {
	api    API
	sink   EventSink
	notify Notifier
}

func NewDispatcher(api API, sink EventSink, notify Notifier) *Dispatcher {
	return &Dispatcher{api: api, sink: sink, notify: notify}
}

// GetCurrentProfile loads the authenticated user's own profile.
func (d *Dispatcher) GetCurrentProfile(ctx context.Context) Outcome {
	p, err := d.api.CurrentProfile(ctx)
	if err != nil {
		return d.fail(err)
	}
	d.sink.Emit(Event{Type: EventGetProfile, Profile: p})
	return stay()
}

// GetProfileByID loads another user's public profile.
func (d *Dispatcher) GetProfileByID(ctx context.Context, userID string) Outcome {
	p, err := d.api.ProfileByUser(ctx, userID)
	if err != nil {
		return d.fail(err)
	}
	d.sink.Emit(Event{Type: EventGetProfile, Profile: p})
	return stay()
}

// GetProfiles loads the public profile list. The cached single profile is
// cleared before the call goes out so stale state is never shown while the
// list is in flight.
func (d *Dispatcher) GetProfiles(ctx context.Context) Outcome {
	d.sink.Emit(Event{Type: EventClearProfile})

	profiles, err := d.api.Profiles(ctx)
	if err != nil {
		return d.fail(err)
	}
	d.sink.Emit(Event{Type: EventGetProfiles, Profiles: profiles})
	return stay()
}

// SaveProfile creates or updates the caller's profile. First-time saves
// navigate to the dashboard; edit-mode saves stay on the page.
func (d *Dispatcher) SaveProfile(ctx context.Context, form models.ProfileForm, edit bool) Outcome {
	p, err := d.api.SaveProfile(ctx, form)
	if err != nil {
		return d.fail(err)
	}

	if edit {
		d.notify.Notify("Profile Updated", SeveritySuccess)
	} else {
		d.notify.Notify("Profile Created", SeveritySuccess)
	}
	d.sink.Emit(Event{Type: EventGetProfile, Profile: p})

	if edit {
		return stay()
	}
	return navigate(dashboardPath)
}

// AddExperience appends a work-history entry and always navigates back to
// the dashboard on success.
func (d *Dispatcher) AddExperience(ctx context.Context, form models.ExperienceForm) Outcome {
	p, err := d.api.AddExperience(ctx, form)
	if err != nil {
		return d.fail(err)
	}
	d.notify.Notify("Experience Added", SeveritySuccess)
	d.sink.Emit(Event{Type: EventUpdateProfile, Profile: p})
	return navigate(dashboardPath)
}

// AddEducation mirrors AddExperience for education entries.
func (d *Dispatcher) AddEducation(ctx context.Context, form models.EducationForm) Outcome {
	p, err := d.api.AddEducation(ctx, form)
	if err != nil {
		return d.fail(err)
	}
	d.notify.Notify("Education Added", SeveritySuccess)
	d.sink.Emit(Event{Type: EventUpdateProfile, Profile: p})
	return navigate(dashboardPath)
}

// RemoveExperience deletes one work-history entry by id.
func (d *Dispatcher) RemoveExperience(ctx context.Context, entryID string) Outcome {
	p, err := d.api.RemoveExperience(ctx, entryID)
	if err != nil {
		return d.fail(err)
	}
	d.notify.Notify("Experience Removed", SeveritySuccess)
	d.sink.Emit(Event{Type: EventUpdateProfile, Profile: p})
	return navigate(dashboardPath)
}

// RemoveEducation deletes one education entry by id.
func (d *Dispatcher) RemoveEducation(ctx context.Context, entryID string) Outcome {
	p, err := d.api.RemoveEducation(ctx, entryID)
	if err != nil {
		return d.fail(err)
	}
	d.notify.Notify("Education Removed", SeveritySuccess)
	d.sink.Emit(Event{Type: EventUpdateProfile, Profile: p})
	return navigate(dashboardPath)
}

// DeletionToken is the confirmation handle for account deletion. Deletion is
// a two-phase protocol: RequestDeletion hands the interaction layer a token
// and prompt, and only ConfirmDeletion performs the destructive call. A
// declined confirmation simply never calls ConfirmDeletion.
type DeletionToken struct {
	Prompt string
}

func (d *Dispatcher) RequestDeletion() DeletionToken {
	return DeletionToken{Prompt: "Are you sure? This can NOT be undone!"}
}

// ConfirmDeletion deletes the account and its profile. The account-deleted
// event is the terminal event; session teardown happens upstream.
func (d *Dispatcher) ConfirmDeletion(ctx context.Context, _ DeletionToken) Outcome {
	if err := d.api.DeleteAccount(ctx); err != nil {
		return d.fail(err)
	}
	d.notify.Notify("Your account has been permanently deleted", SeveritySuccess)
	d.sink.Emit(Event{Type: EventClearProfile})
	d.sink.Emit(Event{Type: EventAccountDeleted})
	return stay()
}

// fail normalizes any failure into the single terminal error event, fanning
// out one notification per structured validation message first.
func (d *Dispatcher) fail(err error) Outcome {
	syncErr := &SyncError{Message: err.Error()}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		for _, fe := range apiErr.Errors {
			d.notify.Notify(fe.Msg, SeverityDanger)
		}
		syncErr.Message = apiErr.Message
		syncErr.StatusCode = apiErr.StatusCode
	}

	d.sink.Emit(Event{Type: EventProfileError, Err: syncErr})
	return stay()
}
