package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cboderot1/turnos2/internal/dispatch"
	"github.com/cboderot1/turnos2/internal/middleware"
	"github.com/cboderot1/turnos2/internal/models"
	"github.com/cboderot1/turnos2/internal/utils"
)

// TicketHTTP wires client intake and ticket lifecycle endpoints to the
// dispatch coordinator.
type TicketHTTP struct {
	core *dispatch.Coordinator
}

func NewTicketHTTP(core *dispatch.Coordinator) *TicketHTTP {
	return &TicketHTTP{core: core}
}

// POST /api/tickets
// Client intake. Public: the kiosk in the lobby has no session.
func (h *TicketHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in dispatch.CreateTicket
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		t, err := h.core.CreateTicket(r.Context(), in)
		if err != nil {
			dispatchError(w, err)
			return
		}
		utils.JSON(w, http.StatusCreated, t)
	}
}

// GET /api/tickets/queue
// Poll target for the public display: pending queues in serving order plus
// the agents currently attending.
func (h *TicketHTTP) Queue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.JSON(w, http.StatusOK, h.core.QueueSnapshot())
	}
}

// GET /api/tickets/{id}
func (h *TicketHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid id")
			return
		}
		t, err := h.core.Ticket(id)
		if err != nil {
			dispatchError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// POST /api/tickets/{id}/complete
// The calling agent must own the addressed ticket.
func (h *TicketHTTP) Complete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid id")
			return
		}
		uid, _ := utils.GetString(r.Context(), middleware.CtxUserID)
		role, _ := utils.GetString(r.Context(), middleware.CtxRole)

		t, err := h.core.Complete(r.Context(), uid, models.Role(role), id)
		if err != nil {
			dispatchError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}
