package handlers

import (
	"net/http"

	"github.com/cboderot1/turnos2/internal/models"
	"github.com/cboderot1/turnos2/internal/repository"
	"github.com/cboderot1/turnos2/internal/utils"
)

type UserHTTP struct {
	repo repository.UserRepository
}

func NewUserHTTP(r repository.UserRepository) *UserHTTP {
	return &UserHTTP{repo: r}
}

// GET /api/users?role=&limit=&offset= (admin)
func (h *UserHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		role := models.Role(qv.Get("role"))
		if role != "" && !role.Valid() {
			utils.Error(w, http.StatusBadRequest, "unknown role")
			return
		}
		limit := utils.QueryInt(qv, "limit", 50)
		offset := utils.QueryInt(qv, "offset", 0)

		users, total, err := h.repo.List(r.Context(), role, limit, offset)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"items": users, "total": total})
	}
}
