package models

import "time"

// ChangeEvent is published to Kafka after every successful profile mutation
// and consumed by the audit worker.
type ChangeEvent struct {
	Type      string    `json:"type" db:"event_type"`
	UserID    string    `json:"user_id" db:"user_id"`
	ProfileID string    `json:"profile_id,omitempty" db:"profile_id"`
	At        time.Time `json:"at" db:"created_at"`
}

const (
	EventProfileUpdated    = "profile.updated"
	EventExperienceAdded   = "experience.added"
	EventExperienceRemoved = "experience.removed"
	EventEducationAdded    = "education.added"
	EventEducationRemoved  = "education.removed"
	EventAccountDeleted    = "account.deleted"
)
