package dispatch

import (
	"sort"

	"github.com/cboderot1/turnos2/internal/models"
)

// QueueManager defines the serving order over the store's pending sets.
// There is no separate queue structure to keep in sync: the order is a pure
// function of ticket fields, recomputed from the store on every query.
type QueueManager struct {
	store *TicketStore
}

func NewQueueManager(store *TicketStore) *QueueManager {
	return &QueueManager{store: store}
}

// orderForServing sorts pending tickets in place: priority tickets first,
// FIFO by id within each tier. A later-arriving priority ticket jumps ahead
// of every standard ticket but never ahead of an earlier priority one.
func orderForServing(ts []models.Ticket) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].Priority != ts[j].Priority {
			return ts[i].Priority
		}
		return ts[i].ID < ts[j].ID
	})
}

// Pending returns the pending tickets of one service type in serving order.
func (q *QueueManager) Pending(svc models.ServiceType) []models.Ticket {
	return q.store.ListByStatusAndService(models.TicketPending, svc)
}

// PeekNext returns the head of the queue for the given service type, or
// false when the pending set is empty. It does not reserve the ticket;
// the coordinator holds its own lock across peek-then-assign.
func (q *QueueManager) PeekNext(svc models.ServiceType) (models.Ticket, bool) {
	pending := q.Pending(svc)
	if len(pending) == 0 {
		return models.Ticket{}, false
	}
	return pending[0], true
}
