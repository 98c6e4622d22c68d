package service

import (
	"context"
	"errors"
	"strings"

	"github.com/clubgrid/ticketing/internal/mailer"
	"github.com/clubgrid/ticketing/internal/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RegistrationResult is either a created ticket or, for external-mode
// events, the URL the client should be redirected to.
type RegistrationResult struct {
	Ticket      *model.Ticket `json:"ticket,omitempty"`
	RedirectURL string        `json:"externalUrl,omitempty"`
}

// Register validates the request, delegates the concurrency-safe creation
// to the ticket store, and then runs the best-effort post-commit side
// effects (QR issuance, confirmation email). Side-effect failures are
// recorded on the ticket, never surfaced: once the transaction commits the
// ticket is the authoritative success signal.
func (s *TicketService) Register(ctx context.Context, eventID string, req model.RegisterRequest) (*RegistrationResult, error) {
	if eventID == "" {
		return nil, model.NewValidationError("event id is required")
	}
	normalizeRegisterRequest(&req)
	if err := validateRegisterRequest(req); err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.RegistrationMode == model.RegistrationExternal {
		return &RegistrationResult{RedirectURL: event.ExternalURL}, nil
	}
	if status := event.RegistrationStatus(); status != model.RegistrationOpen {
		return nil, &model.RegistrationClosedError{Status: status}
	}

	ticket := &model.Ticket{
		ID:             uuid.New().String(),
		EventID:        eventID,
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		PersonalID:     req.PersonalID,
		Gender:         req.Gender,
		Course:         req.Course,
		Hosteler:       req.Hosteler,
		Hostel:         req.Hostel,
		PaymentDetails: req.PaymentDetails,
	}

	if err := s.tickets.Register(ctx, ticket); err != nil {
		// The store re-reads the event under its lock, so a flip to
		// external mode mid-flight still comes back as a redirect.
		if errors.Is(err, model.ErrEventExternal) {
			return &RegistrationResult{RedirectURL: event.ExternalURL}, nil
		}
		return nil, err
	}

	s.finalizeTicket(ctx, ticket, event)
	return &RegistrationResult{Ticket: ticket}, nil
}

// finalizeTicket runs the post-commit side effects in order: issue the QR
// artifact, then send the confirmation email referencing it. Each is
// independently failable; outcomes are persisted as data.
func (s *TicketService) finalizeTicket(ctx context.Context, t *model.Ticket, event *model.Event) {
	log := logrus.WithFields(logrus.Fields{"ticket_id": t.ID, "event_id": t.EventID})

	if s.issuer != nil {
		artifact, err := s.issuer.Issue(ctx, t.ID)
		if err != nil {
			log.WithError(err).Error("qr issuance failed")
		} else if err := s.tickets.UpdateArtifact(ctx, t.ID, artifact.URL, artifact.AssetID); err != nil {
			log.WithError(err).Error("persisting qr artifact failed")
		} else {
			t.QRURL = artifact.URL
			t.QRAssetID = artifact.AssetID
		}
	}

	notification := model.NotificationFailed
	if s.notifier != nil {
		err := s.notifier.SendTicket(ctx, mailer.TicketEmail{
			To:        t.Email,
			Name:      t.FullName,
			EventName: t.EventName,
			EventDate: event.StartsAt,
			TicketID:  t.ID,
			QRURL:     t.QRURL,
		})
		if err != nil {
			log.WithError(err).Error("confirmation email failed")
		} else {
			notification = model.NotificationSent
		}
	}
	if err := s.tickets.UpdateNotificationStatus(ctx, t.ID, notification); err != nil {
		log.WithError(err).Error("persisting notification status failed")
	}
	t.NotificationStatus = notification
}

// AvailabilityResult reports the advisory duplicate pre-check outcome.
type AvailabilityResult struct {
	Available bool `json:"available"`
}

// CheckAvailability looks for an existing ticket on the event matching
// either identifier. It mirrors the error the real registration would
// produce but guarantees nothing against a concurrent registration; the
// storage-level unique indexes do.
func (s *TicketService) CheckAvailability(ctx context.Context, req model.AvailabilityRequest) (*AvailabilityResult, error) {
	req.EventID = strings.TrimSpace(req.EventID)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PersonalID = strings.TrimSpace(req.PersonalID)

	if req.EventID == "" {
		return nil, model.NewValidationError("event id is required")
	}
	if req.Email == "" && req.PersonalID == "" {
		return nil, model.NewValidationError("either email or personal id is required")
	}

	if _, err := s.events.GetByID(ctx, req.EventID); err != nil {
		return nil, err
	}

	taken, err := s.tickets.Exists(ctx, req.EventID, req.Email, req.PersonalID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.ErrAlreadyRegistered
	}
	return &AvailabilityResult{Available: true}, nil
}

func normalizeRegisterRequest(req *model.RegisterRequest) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.PersonalID = strings.TrimSpace(req.PersonalID)
	req.Gender = strings.TrimSpace(req.Gender)
	req.Course = strings.TrimSpace(req.Course)
	req.Hostel = strings.TrimSpace(req.Hostel)
	if !req.Hosteler {
		req.Hostel = ""
	}
}

func validateRegisterRequest(req model.RegisterRequest) error {
	switch {
	case req.FullName == "":
		return model.NewValidationError("full name is required")
	case req.Email == "":
		return model.NewValidationError("email is required")
	case !isValidEmail(req.Email):
		return model.NewValidationError("email is not a valid email address")
	case req.Phone == "":
		return model.NewValidationError("phone is required")
	case req.PersonalID == "":
		return model.NewValidationError("personal id is required")
	case req.Hosteler && req.Hostel == "":
		return model.NewValidationError("hostel is required for hostelers")
	}
	return nil
}

// isValidEmail does a basic structural check (no external deps).
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
