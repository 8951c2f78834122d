package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cboderot1/turnos2/internal/events"
	"github.com/cboderot1/turnos2/internal/models"
)

// Archiver receives completed tickets for durable reporting history.
// Failures are logged and never block dispatch.
type Archiver interface {
	Archive(ctx context.Context, t models.Ticket) error
}

// Coordinator orchestrates the store, queue and registry. Every compound
// mutation (peek-then-assign, complete-then-free, admin override) runs under
// a single mutex, so two agents can never be handed the same head-of-queue
// ticket and an agent can never be double-freed. Reads go straight to the
// store/registry, which carry their own locks.
type Coordinator struct {
	mu sync.Mutex

	store    *TicketStore
	queue    *QueueManager
	agents   *AgentRegistry
	archive  Archiver
	events   events.Publisher
	log      zerolog.Logger
	autoDisp bool
}

type Option func(*Coordinator)

// WithArchiver attaches a completed-ticket sink.
func WithArchiver(a Archiver) Option {
	return func(c *Coordinator) { c.archive = a }
}

// WithPublisher attaches a lifecycle event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(c *Coordinator) { c.events = p }
}

// WithAutoDispatch makes ticket creation attempt an immediate pairing with
// a free eligible agent, matching the original walk-in center behavior.
func WithAutoDispatch(on bool) Option {
	return func(c *Coordinator) { c.autoDisp = on }
}

func New(log zerolog.Logger, opts ...Option) *Coordinator {
	store := NewTicketStore()
	c := &Coordinator{
		store:  store,
		queue:  NewQueueManager(store),
		agents: NewAgentRegistry(),
		events: events.Nop{},
		log:    log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateTicket validates and stores a new PENDING ticket. With auto-dispatch
// enabled it then tries to pair the ticket with a free eligible agent in the
// same critical section.
func (c *Coordinator) CreateTicket(ctx context.Context, in CreateTicket) (models.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.store.Create(in)
	if err != nil {
		return models.Ticket{}, err
	}
	c.publish(func() error { return c.events.TicketCreated(ctx, t) })
	c.log.Info().Int64("ticket", t.ID).Str("service", string(t.ServiceType)).Bool("priority", t.Priority).Msg("ticket created")

	if c.autoDisp {
		if assigned, ok := c.tryAutoDispatch(ctx, t); ok {
			return assigned, nil
		}
	}
	return t, nil
}

// tryAutoDispatch pairs the new ticket with a free agent of the matching
// role, if one exists. Caller holds c.mu. The new ticket is only dispatched
// when it is actually the queue head, so it cannot overtake earlier arrivals.
func (c *Coordinator) tryAutoDispatch(ctx context.Context, t models.Ticket) (models.Ticket, bool) {
	head, ok := c.queue.PeekNext(t.ServiceType)
	if !ok || head.ID != t.ID {
		return models.Ticket{}, false
	}
	for _, a := range c.agents.ListByStatus(models.AgentFree) {
		if svc, ok := a.Role.Queue(); ok && svc == t.ServiceType {
			assigned, err := c.assign(ctx, t.ID, a.UserID)
			if err != nil {
				c.log.Error().Err(err).Int64("ticket", t.ID).Msg("auto-dispatch failed")
				return models.Ticket{}, false
			}
			return assigned, true
		}
	}
	return models.Ticket{}, false
}

// assign performs the two-sided mutation that binds agent and ticket.
// Caller holds c.mu and has verified the agent is FREE and the ticket is
// the current queue head, so neither store call can fail on a precondition;
// both updates land or the error aborts before any state changed.
func (c *Coordinator) assign(ctx context.Context, ticketID int64, agentID string) (models.Ticket, error) {
	t, err := c.store.SetAssigned(ticketID, agentID)
	if err != nil {
		return models.Ticket{}, err
	}
	if _, err := c.agents.SetBusy(agentID, ticketID); err != nil {
		return models.Ticket{}, err
	}
	c.publish(func() error { return c.events.TicketAssigned(ctx, t) })
	c.log.Info().Int64("ticket", t.ID).Str("agent", agentID).Msg("ticket assigned")
	return t, nil
}

// TakeNext atomically hands the caller the head of its eligible queue.
func (c *Coordinator) TakeNext(ctx context.Context, agentID string, role models.Role) (models.Ticket, error) {
	svc, ok := role.Queue()
	if !ok {
		return models.Ticket{}, fmt.Errorf("%w: role %s pulls no queue", ErrForbidden, role)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	agent := c.agents.Ensure(agentID, role)
	if agent.Status != models.AgentFree {
		return models.Ticket{}, fmt.Errorf("%w: agent %s already holds ticket %d", ErrInvalidTransition, agentID, agent.CurrentTicketID)
	}
	head, ok := c.queue.PeekNext(svc)
	if !ok {
		return models.Ticket{}, fmt.Errorf("%w: no pending %s tickets", ErrQueueEmpty, svc)
	}
	return c.assign(ctx, head.ID, agentID)
}

// Complete finishes the caller's in-flight ticket and frees the agent.
// When ticketID is nonzero the caller addressed a specific ticket and must
// own it. A second call for an already-free agent fails with
// ErrNothingToComplete rather than succeeding silently, so double submits
// are distinguishable from state desync.
func (c *Coordinator) Complete(ctx context.Context, agentID string, role models.Role, ticketID int64) (models.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent := c.agents.Ensure(agentID, role)
	if agent.Status != models.AgentBusy || agent.CurrentTicketID == 0 {
		return models.Ticket{}, fmt.Errorf("%w: agent %s has no ticket in progress", ErrNothingToComplete, agentID)
	}
	if ticketID != 0 && ticketID != agent.CurrentTicketID {
		return models.Ticket{}, fmt.Errorf("%w: ticket %d is not held by agent %s", ErrForbidden, ticketID, agentID)
	}

	t, err := c.store.SetCompleted(agent.CurrentTicketID)
	if err != nil {
		return models.Ticket{}, err
	}
	if _, err := c.agents.SetFree(agentID); err != nil {
		return models.Ticket{}, err
	}
	c.publish(func() error { return c.events.TicketCompleted(ctx, t) })
	c.log.Info().Int64("ticket", t.ID).Str("agent", agentID).Msg("ticket completed")

	if c.archive != nil {
		if err := c.archive.Archive(ctx, t); err != nil {
			c.log.Error().Err(err).Int64("ticket", t.ID).Msg("archive failed")
		}
	}
	return t, nil
}

// ForceAgentStatus is the admin override. Forcing FREE on a BUSY agent
// detaches its ticket without completing it; the ticket stays ASSIGNED and
// shows up in Orphaned() until an operator reconciles it.
func (c *Coordinator) ForceAgentStatus(ctx context.Context, userID string, role models.Role, status models.AgentStatus) (models.AgentState, error) {
	if !status.Valid() {
		return models.AgentState{}, fmt.Errorf("%w: unknown agent status %q", ErrValidation, status)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state, orphaned := c.agents.Force(userID, role, status)
	if orphaned != 0 {
		c.log.Warn().Int64("ticket", orphaned).Str("agent", userID).Msg("agent forced free, ticket orphaned")
	}
	c.publish(func() error { return c.events.AgentForced(ctx, state) })
	return state, nil
}

// AgentState returns the caller's state, registering it FREE on first sight.
func (c *Coordinator) AgentState(userID string, role models.Role) models.AgentState {
	return c.agents.Ensure(userID, role)
}

func (c *Coordinator) Ticket(id int64) (models.Ticket, error) {
	return c.store.Get(id)
}

// QueueSummary is the public display's poll target: both pending queues in
// serving order plus the agents currently attending.
type QueueSummary struct {
	MatrizadorQueue []models.Ticket     `json:"matrizador_queue"`
	AsesorQueue     []models.Ticket     `json:"asesor_queue"`
	Attending       []models.AgentState `json:"attending"`
}

func (c *Coordinator) QueueSnapshot() QueueSummary {
	return QueueSummary{
		MatrizadorQueue: c.queue.Pending(models.ServiceTramite),
		AsesorQueue:     c.queue.Pending(models.ServiceAsesoria),
		Attending:       c.agents.ListByStatus(models.AgentBusy),
	}
}

func (c *Coordinator) Agents() []models.AgentState {
	return c.agents.List()
}

// ReportFilter narrows the completed-ticket report.
type ReportFilter struct {
	ServiceType models.ServiceType
	Since       time.Time
}

// Completed returns finished tickets for reporting, newest first.
func (c *Coordinator) Completed(f ReportFilter) []models.Ticket {
	done := c.store.Completed()
	out := make([]models.Ticket, 0, len(done))
	for _, t := range done {
		if f.ServiceType != "" && t.ServiceType != f.ServiceType {
			continue
		}
		if !f.Since.IsZero() && t.UpdatedAt.Before(f.Since) {
			continue
		}
		out = append(out, t)
	}
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Orphaned surfaces the admin-override anomaly: ASSIGNED tickets that no
// BUSY agent points at. The core never repairs these on its own.
func (c *Coordinator) Orphaned() []models.Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	held := make(map[int64]struct{})
	for _, a := range c.agents.ListByStatus(models.AgentBusy) {
		held[a.CurrentTicketID] = struct{}{}
	}
	out := make([]models.Ticket, 0)
	for _, t := range c.store.Assigned() {
		if _, ok := held[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func (c *Coordinator) publish(fn func() error) {
	if err := fn(); err != nil {
		c.log.Error().Err(err).Msg("event publish failed")
	}
}
