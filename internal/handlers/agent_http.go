package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cboderot1/turnos2/internal/dispatch"
	"github.com/cboderot1/turnos2/internal/middleware"
	"github.com/cboderot1/turnos2/internal/models"
	"github.com/cboderot1/turnos2/internal/repository"
	"github.com/cboderot1/turnos2/internal/utils"
)

type AgentHTTP struct {
	core  *dispatch.Coordinator
	users repository.UserRepository
}

func NewAgentHTTP(core *dispatch.Coordinator, users repository.UserRepository) *AgentHTTP {
	return &AgentHTTP{core: core, users: users}
}

// AgentSummary joins user identity with live availability for admin views.
type AgentSummary struct {
	models.User
	Status          models.AgentStatus `json:"status"`
	CurrentTicketID int64              `json:"current_ticket_id,omitempty"`
}

// GET /api/agents (admin)
func (h *AgentHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := h.core.Agents()
		byID := make(map[string]models.AgentState, len(states))
		for _, s := range states {
			byID[s.UserID] = s
		}

		out := make([]AgentSummary, 0)
		for _, role := range []models.Role{models.RoleAsesor, models.RoleMatrizador} {
			users, _, err := h.users.List(r.Context(), role, 200, 0)
			if err != nil {
				utils.Error(w, http.StatusInternalServerError, err.Error())
				return
			}
			for _, u := range users {
				s := AgentSummary{User: u, Status: models.AgentFree}
				if st, ok := byID[u.ID]; ok {
					s.Status = st.Status
					s.CurrentTicketID = st.CurrentTicketID
				}
				out = append(out, s)
			}
		}
		utils.JSON(w, http.StatusOK, out)
	}
}

// GET /api/agents/me
// First sight of an agent registers it FREE.
func (h *AgentHTTP) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, _ := utils.GetString(r.Context(), middleware.CtxUserID)
		role, _ := utils.GetString(r.Context(), middleware.CtxRole)
		utils.JSON(w, http.StatusOK, h.core.AgentState(uid, models.Role(role)))
	}
}

// POST /api/agents/{id}/next
func (h *AgentHTTP) TakeNext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID := chi.URLParam(r, "id")
		role, err := h.targetRole(r.Context(), targetID)
		if err != nil {
			utils.Error(w, http.StatusNotFound, "agent not found")
			return
		}
		t, err := h.core.TakeNext(r.Context(), targetID, role)
		if err != nil {
			dispatchError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// POST /api/agents/{id}/status (admin)
// Forces availability outside the take/complete cycle. Forcing FREE on a
// BUSY agent orphans its in-flight ticket; see /api/reports/orphans.
func (h *AgentHTTP) ForceStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID := chi.URLParam(r, "id")
		var in struct {
			Status models.AgentStatus `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		role, err := h.targetRole(r.Context(), targetID)
		if err != nil {
			utils.Error(w, http.StatusNotFound, "agent not found")
			return
		}
		state, err := h.core.ForceAgentStatus(r.Context(), targetID, role, in.Status)
		if err != nil {
			dispatchError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, state)
	}
}

// targetRole resolves the role of the agent being acted on. When the caller
// is the target the verified context role is enough; otherwise (an admin
// acting on another agent) the user store is authoritative.
func (h *AgentHTTP) targetRole(ctx context.Context, targetID string) (models.Role, error) {
	uid, _ := utils.GetString(ctx, middleware.CtxUserID)
	role, _ := utils.GetString(ctx, middleware.CtxRole)
	if uid == targetID {
		return models.Role(role), nil
	}
	u, err := h.users.GetByID(ctx, targetID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", dispatch.ErrNotFound
	}
	return u.Role, nil
}
