// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/clubgrid/ticketing/internal/model"
	"github.com/clubgrid/ticketing/internal/service"
	"github.com/go-chi/chi/v5"
)

// TicketHandler holds all HTTP handlers for the ticketing API.
type TicketHandler struct {
	svc *service.TicketService
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(svc *service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *model.ValidationError
		closedErr     *model.RegistrationClosedError
	)
	switch {
	case errors.Is(err, model.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, model.ErrTicketNotFound):
		writeError(w, http.StatusNotFound, "ticket not found")
	case errors.Is(err, model.ErrEventFull):
		writeError(w, http.StatusBadRequest, "Event is full")
	case errors.Is(err, model.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &closedErr):
		writeError(w, http.StatusBadRequest, closedErr.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// Register handles POST /api/events/{eventID}/register
// Performs a concurrency-safe registration for the specified event. For
// external-mode events it returns the external URL instead of a ticket.
func (h *TicketHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Register(r.Context(), eventID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if result.RedirectURL != "" {
		writeJSON(w, http.StatusOK, map[string]string{"externalUrl": result.RedirectURL})
		return
	}
	writeJSON(w, http.StatusCreated, result.Ticket)
}

// CheckAvailability handles POST /api/tickets/check-availability
// Advisory duplicate pre-check; mirrors the Conflict a real registration
// attempt would produce.
func (h *TicketHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req model.AvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.CheckAvailability(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetTicket handles GET /api/tickets/{ticketID}
// Returns the ticket plus a minimal event summary.
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.GetTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// ListTickets handles GET /api/tickets?eventId=&status=&page=&limit=
// Administrative paginated listing.
func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	pageResult, err := h.svc.ListTickets(r.Context(), model.TicketFilter{
		EventID: q.Get("eventId"),
		Status:  model.TicketStatus(q.Get("status")),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResult)
}

// UpdateStatus handles PATCH /api/tickets/{ticketID}/status
// Administrative lifecycle transition (scan-in, cancellation).
func (h *TicketHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ticket, err := h.svc.SetStatus(r.Context(), chi.URLParam(r, "ticketID"), req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// DeleteTicket handles DELETE /api/tickets/{ticketID}
// Removes the ticket, its event back-reference and (best-effort) its QR asset.
func (h *TicketHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTicket(r.Context(), chi.URLParam(r, "ticketID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
