// Package repository implements all database queries for the ticketing
// subsystem. It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubgrid/ticketing/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository reads the event subsystem's data. The wider platform
// creates and edits events; this core only consumes them and maintains
// their registered_users back-reference (see TicketRepository).
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// GetByID returns a single event or model.ErrEventNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT id, name, starts_at, registration_mode, external_url,
		        registration_opens_at, registration_closes_at, capacity,
		        registered_users::text[], created_at, updated_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(
		&e.ID, &e.Name, &e.StartsAt, &e.RegistrationMode, &e.ExternalURL,
		&e.RegistrationOpensAt, &e.RegistrationClosesAt, &e.Capacity,
		&e.RegisteredUsers, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// GetSummary returns the minimal event view attached to ticket lookups.
func (r *EventRepository) GetSummary(ctx context.Context, id string) (*model.EventSummary, error) {
	var s model.EventSummary
	err := r.db.QueryRow(ctx,
		`SELECT id, name, starts_at FROM events WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &s.StartsAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event summary: %w", err)
	}
	return &s, nil
}
