package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clubgrid/ticketing/internal/mailer"
	"github.com/clubgrid/ticketing/internal/model"
	"github.com/clubgrid/ticketing/internal/qrcode"
	"github.com/google/uuid"
)

// memStore is an in-memory EventStore + TicketStore honoring the same
// contract as the postgres repositories: Register and Delete serialise on
// a single lock, duplicates lose, and the event back-reference set mirrors
// the surviving tickets.
type memStore struct {
	mu      sync.Mutex
	events  map[string]*model.Event
	tickets map[string]*model.Ticket
}

func newMemStore(events ...*model.Event) *memStore {
	s := &memStore{
		events:  make(map[string]*model.Event),
		tickets: make(map[string]*model.Ticket),
	}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

// eventView adapts memStore to the EventStore interface.
type eventView struct {
	s *memStore
}

func (v eventView) GetByID(ctx context.Context, id string) (*model.Event, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	e, ok := v.s.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	cp := *e
	cp.RegisteredUsers = append([]string(nil), e.RegisteredUsers...)
	return &cp, nil
}

func (v eventView) GetSummary(ctx context.Context, id string) (*model.EventSummary, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	e, ok := v.s.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return &model.EventSummary{ID: e.ID, Name: e.Name, StartsAt: e.StartsAt}, nil
}

func (s *memStore) Register(ctx context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[t.EventID]
	if !ok {
		return model.ErrEventNotFound
	}
	if ev.RegistrationMode == model.RegistrationExternal {
		return model.ErrEventExternal
	}
	if status := ev.RegistrationStatus(); status != model.RegistrationOpen {
		return &model.RegistrationClosedError{Status: status}
	}
	if ev.Capacity > 0 && len(ev.RegisteredUsers) >= ev.Capacity {
		return model.ErrEventFull
	}
	for _, existing := range s.tickets {
		if existing.EventID == t.EventID &&
			(existing.Email == t.Email || existing.PersonalID == t.PersonalID) {
			return model.ErrAlreadyRegistered
		}
	}

	now := time.Now().UTC()
	t.EventName = ev.Name
	t.Status = model.TicketStatusActive
	t.NotificationStatus = model.NotificationPending
	t.CreatedAt = now
	t.UpdatedAt = now

	cp := *t
	s.tickets[t.ID] = &cp
	ev.RegisteredUsers = append(ev.RegisteredUsers, t.ID)
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, model.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) Exists(ctx context.Context, eventID, email, personalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.EventID != eventID {
			continue
		}
		if (email != "" && t.Email == email) || (personalID != "" && t.PersonalID == personalID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) List(ctx context.Context, f model.TicketFilter) ([]model.Ticket, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.Ticket
	for _, t := range s.tickets {
		if f.EventID != "" && t.EventID != f.EventID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		matched = append(matched, *t)
	}
	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start >= total {
		return nil, total, nil
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id string, status model.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return model.ErrTicketNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) UpdateArtifact(ctx context.Context, id, url, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return model.ErrTicketNotFound
	}
	t.QRURL = url
	t.QRAssetID = assetID
	return nil
}

func (s *memStore) UpdateNotificationStatus(ctx context.Context, id string, status model.NotificationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return model.ErrTicketNotFound
	}
	t.NotificationStatus = status
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return "", model.ErrTicketNotFound
	}
	delete(s.tickets, id)
	if ev, ok := s.events[t.EventID]; ok {
		kept := ev.RegisteredUsers[:0]
		for _, ref := range ev.RegisteredUsers {
			if ref != id {
				kept = append(kept, ref)
			}
		}
		ev.RegisteredUsers = kept
	}
	return t.QRAssetID, nil
}

// fakeIssuer counts issuance calls and can be made to fail.
type fakeIssuer struct {
	mu      sync.Mutex
	fail    bool
	issued  []string
	removed []string
}

func (f *fakeIssuer) Issue(ctx context.Context, ticketID string) (qrcode.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return qrcode.Artifact{}, errors.New("qr renderer unavailable")
	}
	f.issued = append(f.issued, ticketID)
	assetID := uuid.New().String()
	return qrcode.Artifact{URL: "http://assets.test/" + assetID + ".png", AssetID: assetID}, nil
}

func (f *fakeIssuer) Remove(ctx context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("qr renderer unavailable")
	}
	f.removed = append(f.removed, assetID)
	return nil
}

// fakeNotifier records sent emails and can be made to fail.
type fakeNotifier struct {
	mu   sync.Mutex
	fail bool
	sent []mailer.TicketEmail
}

func (f *fakeNotifier) SendTicket(ctx context.Context, e mailer.TicketEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp connection refused")
	}
	f.sent = append(f.sent, e)
	return nil
}

// fakeCache is an in-memory SummaryCache with hit counting.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*model.EventSummary
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*model.EventSummary)}
}

func (f *fakeCache) Get(ctx context.Context, eventID string) (*model.EventSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.entries[eventID]
	if !ok {
		return nil, errors.New("cache miss")
	}
	f.hits++
	return s, nil
}

func (f *fakeCache) Set(ctx context.Context, s *model.EventSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[s.ID] = s
	return nil
}
