package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux with the health check and, when staticDir is set, the
// static file handler under /static/.
func NewMux(db *sql.DB, staticDir string, checks ...Check) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, checks)
	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	return mux
}
