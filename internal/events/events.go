// Package events publishes ticket lifecycle events to a Redis Stream so
// display boards can consume pushes instead of polling. Publishing is
// best-effort: the dispatcher logs failures and keeps going.
package events

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cboderot1/turnos2/internal/models"
)

const (
	EventTicketCreated   = "ticket.created"
	EventTicketAssigned  = "ticket.assigned"
	EventTicketCompleted = "ticket.completed"
	EventAgentForced     = "agent.forced"
)

type Publisher interface {
	TicketCreated(ctx context.Context, t models.Ticket) error
	TicketAssigned(ctx context.Context, t models.Ticket) error
	TicketCompleted(ctx context.Context, t models.Ticket) error
	AgentForced(ctx context.Context, a models.AgentState) error
}

// Stream publishes via XADD to a single stream.
type Stream struct {
	rdb    redis.Cmdable
	stream string
}

func NewStream(rdb redis.Cmdable, stream string) *Stream {
	return &Stream{rdb: rdb, stream: stream}
}

func (s *Stream) publish(ctx context.Context, event string, fields map[string]interface{}) error {
	fields["event"] = event
	fields["at"] = time.Now().UTC().Format(time.RFC3339)
	return s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: fields,
	}).Err()
}

func ticketFields(t models.Ticket) map[string]interface{} {
	return map[string]interface{}{
		"ticket_id":    t.ID,
		"service_type": string(t.ServiceType),
		"status":       string(t.Status),
		"priority":     t.Priority,
	}
}

func (s *Stream) TicketCreated(ctx context.Context, t models.Ticket) error {
	return s.publish(ctx, EventTicketCreated, ticketFields(t))
}

func (s *Stream) TicketAssigned(ctx context.Context, t models.Ticket) error {
	f := ticketFields(t)
	f["assigned_to"] = t.AssignedTo
	return s.publish(ctx, EventTicketAssigned, f)
}

func (s *Stream) TicketCompleted(ctx context.Context, t models.Ticket) error {
	f := ticketFields(t)
	f["assigned_to"] = t.AssignedTo
	return s.publish(ctx, EventTicketCompleted, f)
}

func (s *Stream) AgentForced(ctx context.Context, a models.AgentState) error {
	return s.publish(ctx, EventAgentForced, map[string]interface{}{
		"user_id": a.UserID,
		"status":  string(a.Status),
	})
}

// Nop satisfies Publisher when no Redis is configured.
type Nop struct{}

func (Nop) TicketCreated(context.Context, models.Ticket) error   { return nil }
func (Nop) TicketAssigned(context.Context, models.Ticket) error  { return nil }
func (Nop) TicketCompleted(context.Context, models.Ticket) error { return nil }
func (Nop) AgentForced(context.Context, models.AgentState) error { return nil }
