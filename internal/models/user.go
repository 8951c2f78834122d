package models

import "time"

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleAsesor     Role = "ASESOR"
	RoleMatrizador Role = "MATRIZADOR"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAsesor || r == RoleMatrizador
}

// Queue returns the service type this role pulls from. Admins pull nothing.
func (r Role) Queue() (ServiceType, bool) {
	switch r {
	case RoleMatrizador:
		return ServiceTramite, true
	case RoleAsesor:
		return ServiceAsesoria, true
	}
	return "", false
}

type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type AgentStatus string

const (
	AgentFree AgentStatus = "FREE"
	AgentBusy AgentStatus = "BUSY"
)

func (s AgentStatus) Valid() bool {
	return s == AgentFree || s == AgentBusy
}

// AgentState tracks an agent's availability. CurrentTicketID is zero unless
// the agent is BUSY, in which case it references the ASSIGNED ticket it owns.
type AgentState struct {
	UserID          string      `json:"user_id"`
	Role            Role        `json:"role"`
	Status          AgentStatus `json:"status"`
	CurrentTicketID int64       `json:"current_ticket_id,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
