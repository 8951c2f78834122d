package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cboderot1/turnos2/internal/models"
)

// CreateTicket carries the client intake fields for a new ticket.
type CreateTicket struct {
	ClientName       string             `json:"client_name"`
	ClientIdentifier string             `json:"client_identifier"`
	Motive           string             `json:"motive"`
	ClientType       models.ClientType  `json:"client_type"`
	ServiceType      models.ServiceType `json:"service_type"`
}

func (in *CreateTicket) validate() error {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientIdentifier = strings.TrimSpace(in.ClientIdentifier)
	in.Motive = strings.TrimSpace(in.Motive)
	if in.ClientName == "" {
		return fmt.Errorf("%w: client_name is required", ErrValidation)
	}
	if in.ClientIdentifier == "" {
		return fmt.Errorf("%w: client_identifier is required", ErrValidation)
	}
	if in.Motive == "" {
		return fmt.Errorf("%w: motive is required", ErrValidation)
	}
	if !in.ClientType.Valid() {
		return fmt.Errorf("%w: unknown client_type %q", ErrValidation, in.ClientType)
	}
	if !in.ServiceType.Valid() {
		return fmt.Errorf("%w: unknown service_type %q", ErrValidation, in.ServiceType)
	}
	return nil
}

// TicketStore owns ticket records and their status transitions. IDs are
// assigned from a monotonic counter, so ascending id equals arrival order.
// Tickets are never deleted; DONE tickets remain as reporting history.
type TicketStore struct {
	mu      sync.RWMutex
	nextID  int64
	tickets map[int64]*models.Ticket
}

func NewTicketStore() *TicketStore {
	return &TicketStore{nextID: 1, tickets: make(map[int64]*models.Ticket)}
}

func (s *TicketStore) Create(in CreateTicket) (models.Ticket, error) {
	if err := in.validate(); err != nil {
		return models.Ticket{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t := &models.Ticket{
		ID:               s.nextID,
		ClientName:       in.ClientName,
		ClientIdentifier: in.ClientIdentifier,
		Motive:           in.Motive,
		ClientType:       in.ClientType,
		ServiceType:      in.ServiceType,
		Priority:         in.ClientType.Priority(),
		Status:           models.TicketPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.nextID++
	s.tickets[t.ID] = t
	return *t, nil
}

func (s *TicketStore) Get(id int64) (models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return models.Ticket{}, fmt.Errorf("%w: ticket %d", ErrNotFound, id)
	}
	return *t, nil
}

// SetAssigned moves a PENDING ticket to ASSIGNED and records the owning
// agent. AssignedTo is historical: it is never cleared afterwards.
func (s *TicketStore) SetAssigned(id int64, agentID string) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return models.Ticket{}, fmt.Errorf("%w: ticket %d", ErrNotFound, id)
	}
	if t.Status != models.TicketPending {
		return models.Ticket{}, fmt.Errorf("%w: ticket %d is %s, want PENDING", ErrInvalidTransition, id, t.Status)
	}
	t.Status = models.TicketAssigned
	t.AssignedTo = agentID
	t.UpdatedAt = time.Now()
	return *t, nil
}

func (s *TicketStore) SetCompleted(id int64) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return models.Ticket{}, fmt.Errorf("%w: ticket %d", ErrNotFound, id)
	}
	if t.Status != models.TicketAssigned {
		return models.Ticket{}, fmt.Errorf("%w: ticket %d is %s, want ASSIGNED", ErrInvalidTransition, id, t.Status)
	}
	t.Status = models.TicketDone
	t.UpdatedAt = time.Now()
	return *t, nil
}

// ListByStatusAndService returns tickets of one status and service type.
// PENDING tickets come back in serving order; other statuses by id.
func (s *TicketStore) ListByStatusAndService(status models.TicketStatus, svc models.ServiceType) []models.Ticket {
	s.mu.RLock()
	out := make([]models.Ticket, 0)
	for _, t := range s.tickets {
		if t.Status == status && t.ServiceType == svc {
			out = append(out, *t)
		}
	}
	s.mu.RUnlock()

	if status == models.TicketPending {
		orderForServing(out)
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out
}

// Completed returns every DONE ticket across both services, for reporting.
func (s *TicketStore) Completed() []models.Ticket {
	s.mu.RLock()
	out := make([]models.Ticket, 0)
	for _, t := range s.tickets {
		if t.Status == models.TicketDone {
			out = append(out, *t)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Assigned returns every ASSIGNED ticket, ordered by id. Used for orphan
// detection after admin overrides.
func (s *TicketStore) Assigned() []models.Ticket {
	s.mu.RLock()
	out := make([]models.Ticket, 0)
	for _, t := range s.tickets {
		if t.Status == models.TicketAssigned {
			out = append(out, *t)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
