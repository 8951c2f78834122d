package handlers

import (
	"errors"
	"net/http"

	"github.com/cboderot1/turnos2/internal/dispatch"
	"github.com/cboderot1/turnos2/internal/utils"
)

// dispatchError maps the core error taxonomy onto HTTP status codes.
func dispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispatch.ErrValidation):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dispatch.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dispatch.ErrQueueEmpty):
		// expected, not exceptional: callers poll and retry
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dispatch.ErrForbidden):
		utils.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, dispatch.ErrInvalidTransition), errors.Is(err, dispatch.ErrNothingToComplete):
		utils.Error(w, http.StatusConflict, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, err.Error())
	}
}
