package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubgrid/ticketing/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// TicketRepository handles persistence for tickets, including the
// transactional registration path that owns the no-overbooking invariant.
type TicketRepository struct {
	db *pgxpool.Pool
}

// NewTicketRepository constructs a TicketRepository.
func NewTicketRepository(db *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, event_id, event_name, full_name, email, phone,
	personal_id, gender, course, hosteler, hostel, status, qr_url,
	qr_asset_id, notification_status, payment_details, created_at, updated_at`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(
		&t.ID, &t.EventID, &t.EventName, &t.FullName, &t.Email, &t.Phone,
		&t.PersonalID, &t.Gender, &t.Course, &t.Hosteler, &t.Hostel,
		&t.Status, &t.QRURL, &t.QRAssetID, &t.NotificationStatus,
		&t.PaymentDetails, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Register creates a ticket inside a single transaction that serialises
// concurrent attempts on the same event.
//
// The event row is locked with SELECT ... FOR UPDATE before the capacity
// check, so two registrations for the same event cannot both observe free
// capacity: the second blocks until the first commits and then sees the
// updated registered_users set. Registrations for different events lock
// different rows and never contend. Duplicate (event, email) and
// (event, personal_id) pairs are rejected by unique indexes, so even
// racing duplicates converge to one surviving ticket.
//
// The ticket's event_name snapshot is taken from the locked read, and the
// ticket id is appended to the event's registered_users in the same
// transaction. Only on commit does the ticket logically exist.
func (r *TicketRepository) Register(ctx context.Context, t *model.Ticket) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Fresh authoritative event state under the per-event row lock.
	var (
		ev         model.Event
		registered int
	)
	err = tx.QueryRow(ctx,
		`SELECT id, name, starts_at, registration_mode, external_url,
		        registration_opens_at, registration_closes_at, capacity,
		        cardinality(registered_users)
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		t.EventID,
	).Scan(
		&ev.ID, &ev.Name, &ev.StartsAt, &ev.RegistrationMode, &ev.ExternalURL,
		&ev.RegistrationOpensAt, &ev.RegistrationClosesAt, &ev.Capacity,
		&registered,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrEventNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if ev.RegistrationMode == model.RegistrationExternal {
		err = model.ErrEventExternal
		return err
	}
	if status := ev.RegistrationStatus(); status != model.RegistrationOpen {
		err = &model.RegistrationClosedError{Status: status}
		return err
	}
	if ev.Capacity > 0 && registered >= ev.Capacity {
		err = model.ErrEventFull
		return err
	}

	now := time.Now().UTC()
	t.EventName = ev.Name
	t.Status = model.TicketStatusActive
	t.NotificationStatus = model.NotificationPending
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err = tx.Exec(ctx,
		`INSERT INTO tickets (id, event_id, event_name, full_name, email, phone,
		                      personal_id, gender, course, hosteler, hostel,
		                      status, notification_status, payment_details,
		                      created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		t.ID, t.EventID, t.EventName, t.FullName, t.Email, t.Phone,
		t.PersonalID, t.Gender, t.Course, t.Hosteler, t.Hostel,
		t.Status, t.NotificationStatus, t.PaymentDetails,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			err = model.ErrAlreadyRegistered
			return err
		}
		return fmt.Errorf("insert ticket: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE events
		 SET registered_users = array_append(registered_users, $1), updated_at = $2
		 WHERE id = $3`,
		t.ID, now, t.EventID,
	)
	if err != nil {
		return fmt.Errorf("append registered user: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID returns a single ticket or model.ErrTicketNotFound.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

// Exists reports whether a ticket for the event already matches either
// identifier. Advisory read: provides no guarantee against a concurrent
// registration; the unique indexes do.
func (r *TicketRepository) Exists(ctx context.Context, eventID, email, personalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM tickets
		   WHERE event_id = $1
		     AND (($2 <> '' AND email = $2) OR ($3 <> '' AND personal_id = $3))
		 )`,
		eventID, email, personalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing ticket: %w", err)
	}
	return exists, nil
}

// List returns a page of tickets matching the filter plus the total count.
func (r *TicketRepository) List(ctx context.Context, f model.TicketFilter) ([]model.Ticket, int, error) {
	where := `WHERE ($1 = '' OR event_id::text = $1) AND ($2 = '' OR status = $2)`

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets `+where,
		f.EventID, string(f.Status),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	offset := (f.Page - 1) * f.Limit
	rows, err := r.db.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets `+where+`
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		f.EventID, string(f.Status), f.Limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, total, rows.Err()
}

// UpdateStatus sets the lifecycle status of a ticket.
func (r *TicketRepository) UpdateStatus(ctx context.Context, id string, status model.TicketStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTicketNotFound
	}
	return nil
}

// UpdateArtifact stores the QR artifact reference produced post-commit.
func (r *TicketRepository) UpdateArtifact(ctx context.Context, id, url, assetID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE tickets SET qr_url = $1, qr_asset_id = $2, updated_at = $3 WHERE id = $4`,
		url, assetID, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update ticket artifact: %w", err)
	}
	return nil
}

// UpdateNotificationStatus records the delivery outcome of the
// confirmation email as data, never as control flow.
func (r *TicketRepository) UpdateNotificationStatus(ctx context.Context, id string, status model.NotificationStatus) error {
	_, err := r.db.Exec(ctx,
		`UPDATE tickets SET notification_status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update notification status: %w", err)
	}
	return nil
}

// Delete removes a ticket and its id from the owning event's
// registered_users in one transaction, taking the same per-event row lock
// as Register so the array update cannot race a concurrent registration.
// It returns the ticket's QR asset id so the caller can clean up the
// artifact after commit.
func (r *TicketRepository) Delete(ctx context.Context, id string) (assetID string, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var eventID string
	err = tx.QueryRow(ctx,
		`SELECT event_id, qr_asset_id FROM tickets WHERE id = $1`, id,
	).Scan(&eventID, &assetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrTicketNotFound
		}
		return "", fmt.Errorf("get ticket for delete: %w", err)
	}

	_, err = tx.Exec(ctx,
		`SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID,
	)
	if err != nil {
		return "", fmt.Errorf("lock event row: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return "", fmt.Errorf("delete ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err = model.ErrTicketNotFound
		return "", err
	}

	_, err = tx.Exec(ctx,
		`UPDATE events
		 SET registered_users = array_remove(registered_users, $1), updated_at = $2
		 WHERE id = $3`,
		id, time.Now().UTC(), eventID,
	)
	if err != nil {
		return "", fmt.Errorf("remove registered user: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return assetID, nil
}
