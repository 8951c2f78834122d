package models

import "time"

type ServiceType string

const (
	ServiceTramite  ServiceType = "TRAMITE"
	ServiceAsesoria ServiceType = "ASESORIA"
)

func (s ServiceType) Valid() bool {
	return s == ServiceTramite || s == ServiceAsesoria
}

type ClientType string

const (
	ClientGeneral       ClientType = "GENERAL"
	ClientTerceraEdad   ClientType = "TERCERA_EDAD"
	ClientDiscapacitado ClientType = "DISCAPACITADO"
)

func (c ClientType) Valid() bool {
	switch c {
	case ClientGeneral, ClientTerceraEdad, ClientDiscapacitado:
		return true
	}
	return false
}

// Priority reports whether this client class is served ahead of the general
// public within its queue.
func (c ClientType) Priority() bool {
	return c == ClientTerceraEdad || c == ClientDiscapacitado
}

type TicketStatus string

const (
	TicketPending  TicketStatus = "PENDING"
	TicketAssigned TicketStatus = "ASSIGNED"
	TicketDone     TicketStatus = "DONE"
)

type Ticket struct {
	ID               int64        `json:"id"`
	ClientName       string       `json:"client_name"`
	ClientIdentifier string       `json:"client_identifier"`
	Motive           string       `json:"motive"`
	ClientType       ClientType   `json:"client_type"`
	ServiceType      ServiceType  `json:"service_type"`
	Priority         bool         `json:"priority"`
	Status           TicketStatus `json:"status"`
	AssignedTo       string       `json:"assigned_to,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
