package model

import "time"

// RegistrationMode says whether registrations are taken here or on an
// external site the club links out to.
type RegistrationMode string

const (
	RegistrationInternal RegistrationMode = "internal"
	RegistrationExternal RegistrationMode = "external"
)

// RegistrationStatus is the computed open/closed state of an event's
// registration window.
type RegistrationStatus string

const (
	RegistrationOpen      RegistrationStatus = "OPEN"
	RegistrationNotOpen   RegistrationStatus = "NOT_YET_OPEN"
	RegistrationClosed    RegistrationStatus = "CLOSED"
	RegistrationPassedOut RegistrationStatus = "EVENT_OVER"
)

// Event is the slice of the event subsystem's contract this core reads
// and partially mutates. The wider platform owns event metadata; the
// ticketing core owns RegisteredUsers, which must mirror the ids of all
// non-deleted tickets for the event.
type Event struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	StartsAt             time.Time        `json:"startsAt"`
	RegistrationMode     RegistrationMode `json:"registrationMode"`
	ExternalURL          string           `json:"externalUrl,omitempty"`
	RegistrationOpensAt  *time.Time       `json:"registrationOpensAt,omitempty"`
	RegistrationClosesAt *time.Time       `json:"registrationClosesAt,omitempty"`
	// Capacity 0 means unlimited.
	Capacity        int       `json:"capacity"`
	RegisteredUsers []string  `json:"registeredUsers"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RegisteredCount is the size of the back-reference set.
func (e *Event) RegisteredCount() int {
	return len(e.RegisteredUsers)
}

// IsFull reports whether a bounded event has no seats left.
func (e *Event) IsFull() bool {
	return e.Capacity > 0 && e.RegisteredCount() >= e.Capacity
}

// RegistrationStatusAt computes the registration window state at t.
func (e *Event) RegistrationStatusAt(t time.Time) RegistrationStatus {
	if t.After(e.StartsAt) {
		return RegistrationPassedOut
	}
	if e.RegistrationOpensAt != nil && t.Before(*e.RegistrationOpensAt) {
		return RegistrationNotOpen
	}
	if e.RegistrationClosesAt != nil && t.After(*e.RegistrationClosesAt) {
		return RegistrationClosed
	}
	return RegistrationOpen
}

// RegistrationStatus computes the window state now.
func (e *Event) RegistrationStatus() RegistrationStatus {
	return e.RegistrationStatusAt(time.Now().UTC())
}

// EventSummary is the minimal event view attached to ticket lookups.
type EventSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	StartsAt time.Time `json:"startsAt"`
}
