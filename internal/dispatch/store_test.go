package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboderot1/turnos2/internal/models"
)

func TestStoreTransitions(t *testing.T) {
	s := NewTicketStore()

	created, err := s.Create(intake("Ana", models.ClientGeneral, models.ServiceTramite))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, models.TicketPending, created.Status)

	// completing a PENDING ticket skips a state
	_, err = s.SetCompleted(created.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assigned, err := s.SetAssigned(created.ID, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketAssigned, assigned.Status)
	assert.Equal(t, "m1", assigned.AssignedTo)

	// assigning twice violates PENDING->ASSIGNED
	_, err = s.SetAssigned(created.ID, "m2")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	done, err := s.SetCompleted(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketDone, done.Status)

	// no reverse transitions
	_, err = s.SetAssigned(created.ID, "m1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.SetCompleted(created.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStoreUnknownTicket(t *testing.T) {
	s := NewTicketStore()
	_, err := s.Get(99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.SetAssigned(99, "m1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.SetCompleted(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreTrimsIntakeFields(t *testing.T) {
	s := NewTicketStore()
	created, err := s.Create(CreateTicket{
		ClientName:       "  Ana Pérez  ",
		ClientIdentifier: " 0912345678 ",
		Motive:           " escritura ",
		ClientType:       models.ClientGeneral,
		ServiceType:      models.ServiceTramite,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", created.ClientName)
	assert.Equal(t, "0912345678", created.ClientIdentifier)
	assert.Equal(t, "escritura", created.Motive)
}

func TestListByStatusAndService(t *testing.T) {
	s := NewTicketStore()

	_, err := s.Create(intake("g1", models.ClientGeneral, models.ServiceTramite))
	require.NoError(t, err)
	_, err = s.Create(intake("p1", models.ClientTerceraEdad, models.ServiceTramite))
	require.NoError(t, err)
	_, err = s.Create(intake("other", models.ClientGeneral, models.ServiceAsesoria))
	require.NoError(t, err)

	pending := s.ListByStatusAndService(models.TicketPending, models.ServiceTramite)
	require.Len(t, pending, 2)
	// serving order for pending: priority ahead of general
	assert.Equal(t, int64(2), pending[0].ID)
	assert.Equal(t, int64(1), pending[1].ID)

	_, err = s.SetAssigned(2, "m1")
	require.NoError(t, err)
	_, err = s.SetCompleted(2)
	require.NoError(t, err)

	assert.Len(t, s.ListByStatusAndService(models.TicketPending, models.ServiceTramite), 1)
	assert.Len(t, s.Completed(), 1)
}
