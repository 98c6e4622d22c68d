// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"

	"github.com/clubgrid/ticketing/internal/mailer"
	"github.com/clubgrid/ticketing/internal/model"
	"github.com/clubgrid/ticketing/internal/qrcode"
)

// EventStore reads event state owned by the wider platform.
type EventStore interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetSummary(ctx context.Context, id string) (*model.EventSummary, error)
}

// TicketStore persists tickets and maintains the event back-reference set.
type TicketStore interface {
	Register(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	Exists(ctx context.Context, eventID, email, personalID string) (bool, error)
	List(ctx context.Context, f model.TicketFilter) ([]model.Ticket, int, error)
	UpdateStatus(ctx context.Context, id string, status model.TicketStatus) error
	UpdateArtifact(ctx context.Context, id, url, assetID string) error
	UpdateNotificationStatus(ctx context.Context, id string, status model.NotificationStatus) error
	Delete(ctx context.Context, id string) (assetID string, err error)
}

// CodeIssuer produces and removes scannable ticket artifacts.
type CodeIssuer interface {
	Issue(ctx context.Context, ticketID string) (qrcode.Artifact, error)
	Remove(ctx context.Context, assetID string) error
}

// Notifier delivers ticket confirmations.
type Notifier interface {
	SendTicket(ctx context.Context, e mailer.TicketEmail) error
}

// SummaryCache caches event summaries for ticket lookups.
type SummaryCache interface {
	Get(ctx context.Context, eventID string) (*model.EventSummary, error)
	Set(ctx context.Context, s *model.EventSummary) error
}

// TicketService orchestrates registration, availability checks and the
// ticket lifecycle. The issuer, notifier and cache are optional: a nil
// collaborator degrades the corresponding side effect, never the ticket.
type TicketService struct {
	events   EventStore
	tickets  TicketStore
	issuer   CodeIssuer
	notifier Notifier
	cache    SummaryCache
}

// NewTicketService constructs a TicketService with its dependencies.
func NewTicketService(
	events EventStore,
	tickets TicketStore,
	issuer CodeIssuer,
	notifier Notifier,
	cache SummaryCache,
) *TicketService {
	return &TicketService{
		events:   events,
		tickets:  tickets,
		issuer:   issuer,
		notifier: notifier,
		cache:    cache,
	}
}
