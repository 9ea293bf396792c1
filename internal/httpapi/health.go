package httpapi

import (
	"context"
	"database/sql"
	"net/http"
)

// healthzHandler implements GET /healthz (spec §6): a bare liveness probe
// that never touches the database.
func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Hello, World!"))
	}
}

// databaseCheckHandler implements GET /database-check (spec §6): pings the
// database and reports 500 on failure, supplementing spec §6's bare
// liveness probe with the readiness check original_source splits out
// separately.
func databaseCheckHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), databaseCheckTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("database unreachable"))
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
