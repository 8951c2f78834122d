package dispatch

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cboderot1/turnos2/internal/models"
)

// AgentRegistry owns agent availability state. Identity and role are
// established by the auth collaborator; the registry only learns about an
// agent when it first shows up in a dispatch operation or status query.
type AgentRegistry struct {
	mu     sync.RWMutex
	agents map[string]*models.AgentState
}

func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{agents: make(map[string]*models.AgentState)}
}

// Ensure registers the agent as FREE on first sight and returns its state.
// The role comes verified from the request, so it is refreshed every call.
func (r *AgentRegistry) Ensure(userID string, role models.Role) models.AgentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[userID]
	if !ok {
		a = &models.AgentState{
			UserID:    userID,
			Role:      role,
			Status:    models.AgentFree,
			UpdatedAt: time.Now(),
		}
		r.agents[userID] = a
	}
	a.Role = role
	return *a
}

func (r *AgentRegistry) Get(userID string) (models.AgentState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[userID]
	if !ok {
		return models.AgentState{}, fmt.Errorf("%w: agent %s", ErrNotFound, userID)
	}
	return *a, nil
}

func (r *AgentRegistry) SetBusy(userID string, ticketID int64) (models.AgentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[userID]
	if !ok {
		return models.AgentState{}, fmt.Errorf("%w: agent %s", ErrNotFound, userID)
	}
	if a.Status == models.AgentBusy {
		return models.AgentState{}, fmt.Errorf("%w: agent %s already busy with ticket %d", ErrInvalidTransition, userID, a.CurrentTicketID)
	}
	a.Status = models.AgentBusy
	a.CurrentTicketID = ticketID
	a.UpdatedAt = time.Now()
	return *a, nil
}

func (r *AgentRegistry) SetFree(userID string) (models.AgentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[userID]
	if !ok {
		return models.AgentState{}, fmt.Errorf("%w: agent %s", ErrNotFound, userID)
	}
	if a.Status == models.AgentFree {
		return models.AgentState{}, fmt.Errorf("%w: agent %s already free", ErrInvalidTransition, userID)
	}
	a.Status = models.AgentFree
	a.CurrentTicketID = 0
	a.UpdatedAt = time.Now()
	return *a, nil
}

// Force unconditionally sets the agent's status, registering it if unseen.
// Forcing FREE clears CurrentTicketID without touching the ticket itself;
// the returned orphanedTicket is the id that got detached (zero if none).
func (r *AgentRegistry) Force(userID string, role models.Role, status models.AgentStatus) (state models.AgentState, orphanedTicket int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[userID]
	if !ok {
		a = &models.AgentState{UserID: userID, Role: role}
		r.agents[userID] = a
	}
	a.Role = role
	if status == models.AgentFree && a.Status == models.AgentBusy {
		orphanedTicket = a.CurrentTicketID
		a.CurrentTicketID = 0
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	return *a, orphanedTicket
}

func (r *AgentRegistry) ListByStatus(status models.AgentStatus) []models.AgentState {
	r.mu.RLock()
	out := make([]models.AgentState, 0)
	for _, a := range r.agents {
		if a.Status == status {
			out = append(out, *a)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (r *AgentRegistry) List() []models.AgentState {
	r.mu.RLock()
	out := make([]models.AgentState, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, *a)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
