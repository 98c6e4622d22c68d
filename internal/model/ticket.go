// Package model defines the core domain types for the ticketing subsystem.
package model

import (
	"encoding/json"
	"time"
)

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "active"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// ParseTicketStatus validates a raw status value from a client.
func ParseTicketStatus(s string) (TicketStatus, error) {
	switch TicketStatus(s) {
	case TicketStatusActive, TicketStatusUsed, TicketStatusCancelled:
		return TicketStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Terminal reports whether no further transition may leave this status.
// used and cancelled are final; only active tickets move.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusUsed || s == TicketStatusCancelled
}

// NotificationStatus tracks the outcome of the post-registration email.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Ticket is one attendee's claim on one event's capacity. It is created
// only by the registration flow and mutated afterwards by the lifecycle
// manager (status) or by the post-commit side effects (QR, notification).
type Ticket struct {
	ID         string `json:"ticketId"`
	EventID    string `json:"eventId"`
	EventName  string `json:"eventName"` // snapshot at registration time; later renames are not tracked
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PersonalID string `json:"personalId"`
	Gender     string `json:"gender"`
	Course     string `json:"course"`
	Hosteler   bool   `json:"hosteler"`
	Hostel     string `json:"hostel,omitempty"`

	Status             TicketStatus       `json:"status"`
	QRURL              string             `json:"qrUrl,omitempty"`
	QRAssetID          string             `json:"-"`
	NotificationStatus NotificationStatus `json:"notificationStatus"`

	// PaymentDetails is an opaque passthrough; the ticketing core never
	// validates or interprets it.
	PaymentDetails json.RawMessage `json:"paymentDetails,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegisterRequest is the payload for registering for an event.
type RegisterRequest struct {
	FullName       string          `json:"fullName"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	PersonalID     string          `json:"personalId"`
	Gender         string          `json:"gender"`
	Course         string          `json:"course"`
	Hosteler       bool            `json:"hosteler"`
	Hostel         string          `json:"hostel"`
	PaymentDetails json.RawMessage `json:"paymentDetails"`
}

// AvailabilityRequest is the payload for the advisory duplicate pre-check.
type AvailabilityRequest struct {
	EventID    string `json:"eventId"`
	Email      string `json:"email"`
	PersonalID string `json:"personalId"`
}

// UpdateStatusRequest is the payload for PATCH ticket status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// TicketFilter narrows administrative ticket listings.
type TicketFilter struct {
	EventID string
	Status  TicketStatus
	Page    int
	Limit   int
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
