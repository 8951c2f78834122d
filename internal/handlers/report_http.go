package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/cboderot1/turnos2/internal/dispatch"
	"github.com/cboderot1/turnos2/internal/models"
	"github.com/cboderot1/turnos2/internal/utils"
)

type ReportsHTTP struct {
	core *dispatch.Coordinator
}

func NewReportsHTTP(core *dispatch.Coordinator) *ReportsHTTP {
	return &ReportsHTTP{core: core}
}

// GET /api/reports?service_type=&since=
// Completed tickets, newest first. since is RFC3339.
func (h *ReportsHTTP) Completed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		var f dispatch.ReportFilter
		if s := strings.TrimSpace(qv.Get("service_type")); s != "" {
			svc := models.ServiceType(s)
			if !svc.Valid() {
				utils.Error(w, http.StatusBadRequest, "unknown service_type")
				return
			}
			f.ServiceType = svc
		}
		if s := strings.TrimSpace(qv.Get("since")); s != "" {
			ts, err := time.Parse(time.RFC3339, s)
			if err != nil {
				utils.Error(w, http.StatusBadRequest, "since must be RFC3339")
				return
			}
			f.Since = ts
		}
		utils.JSON(w, http.StatusOK, h.core.Completed(f))
	}
}

// GET /api/reports/orphans
// ASSIGNED tickets no BUSY agent points at: the documented leftover of an
// admin forcing a busy agent free. Operators reconcile these by hand.
func (h *ReportsHTTP) Orphans() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.JSON(w, http.StatusOK, h.core.Orphaned())
	}
}
