package service

import (
	"context"
	"errors"
	"time"

	"github.com/clubgrid/ticketing/internal/model"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// TicketDetails is a ticket together with its minimal event summary.
type TicketDetails struct {
	Ticket *model.Ticket       `json:"ticket"`
	Event  *model.EventSummary `json:"event,omitempty"`
}

// TicketPage is one page of an administrative ticket listing.
type TicketPage struct {
	Tickets []model.Ticket `json:"tickets"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Total   int            `json:"total"`
}

// GetTicket returns a ticket with its event summary. The summary comes
// from the redis cache when warm; a cache failure falls back to the
// database and a missing event still returns the ticket alone.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*TicketDetails, error) {
	if ticketID == "" {
		return nil, model.NewValidationError("ticket id is required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return &TicketDetails{Ticket: ticket, Event: s.eventSummary(ctx, ticket.EventID)}, nil
}

func (s *TicketService) eventSummary(ctx context.Context, eventID string) *model.EventSummary {
	if s.cache != nil {
		if summary, err := s.cache.Get(ctx, eventID); err == nil {
			return summary
		}
	}
	summary, err := s.events.GetSummary(ctx, eventID)
	if err != nil {
		logrus.WithError(err).WithField("event_id", eventID).Warn("event summary lookup failed")
		return nil
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			logrus.WithError(err).Debug("event summary cache write failed")
		}
	}
	return summary
}

// ListTickets returns a page of tickets for administrators.
func (s *TicketService) ListTickets(ctx context.Context, f model.TicketFilter) (*TicketPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	if f.Status != "" {
		if _, err := model.ParseTicketStatus(string(f.Status)); err != nil {
			return nil, model.NewValidationError("invalid status filter: %s", f.Status)
		}
	}

	tickets, total, err := s.tickets.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return &TicketPage{Tickets: tickets, Page: f.Page, Limit: f.Limit, Total: total}, nil
}

// SetStatus transitions a ticket's lifecycle state. Re-applying the
// current status is a no-op success. Transitions out of a terminal state
// (used, cancelled) are rejected.
func (s *TicketService) SetStatus(ctx context.Context, ticketID, rawStatus string) (*model.Ticket, error) {
	if ticketID == "" {
		return nil, model.NewValidationError("ticket id is required")
	}
	status, err := model.ParseTicketStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == status {
		return ticket, nil
	}
	if ticket.Status.Terminal() {
		return nil, model.NewValidationError("cannot change a %s ticket", ticket.Status)
	}

	if err := s.tickets.UpdateStatus(ctx, ticketID, status); err != nil {
		return nil, err
	}
	ticket.Status = status
	ticket.UpdatedAt = time.Now().UTC()
	return ticket, nil
}

// DeleteTicket removes a ticket and its event back-reference atomically,
// then makes a best-effort attempt to remove the QR asset.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID string) error {
	if ticketID == "" {
		return model.NewValidationError("ticket id is required")
	}

	assetID, err := s.tickets.Delete(ctx, ticketID)
	if err != nil {
		return err
	}

	if s.issuer != nil && assetID != "" {
		if err := s.issuer.Remove(ctx, assetID); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).WithField("ticket_id", ticketID).Warn("qr asset cleanup failed")
		}
	}
	return nil
}
