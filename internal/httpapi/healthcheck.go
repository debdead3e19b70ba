package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"airwatch-server/internal/utils"
)

// Check reports the state of an optional dependency such as the MQTT broker.
// A failing check marks the service degraded; only the database fails the probe.
type Check struct {
	Name    string
	Healthy func() bool
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db     *sql.DB
	checks []Check
}

func NewHealthchecker(db *sql.DB, checks ...Check) healthchecker {
	return &healthcheckerImpl{db: db, checks: checks}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "failed to check database connectivity")
		return
	}

	body := map[string]string{"status": "ok", "database": "up"}
	for _, c := range h.checks {
		if c.Healthy() {
			body[c.Name] = "up"
			continue
		}
		body[c.Name] = "down"
		body["status"] = "degraded"
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, checks []Check) {
	healthchecker := NewHealthchecker(db, checks...)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
