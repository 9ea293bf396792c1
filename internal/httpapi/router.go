package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/myyrakle/batchman/internal/repo"
	"github.com/myyrakle/batchman/internal/service"
)

// databaseCheckTimeout bounds the /database-check ping (spec §6).
const databaseCheckTimeout = 3 * time.Second

// CORSConfig configures the rs/cors middleware wrapping the router,
// supplementing spec §6's bare handler table with the CORS layer
// original_source's HTTP server installs in front of every route.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// DefaultCORSConfig permits any origin with the methods spec §6's table
// uses, matching original_source's permissive development default.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
	}
}

// Deps bundles every capability the router's handlers need.
type Deps struct {
	DB              *sql.DB
	TaskDefinitions repo.TaskDefinitionRepository
	Jobs            *service.JobService
	Schedules       *service.ScheduleService
	CORS            CORSConfig
	Logger          *slog.Logger
}

// NewRouter builds the full HTTP surface of spec §6: the /api-prefixed
// handler table, a static-file fallback for everything else, and the
// request-ID + access-log + CORS middleware chain.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthzHandler())
	mux.HandleFunc("GET /database-check", databaseCheckHandler(deps.DB))

	taskDefs := &taskDefinitionHandlers{repo: deps.TaskDefinitions, logger: deps.Logger}
	mux.HandleFunc("GET /api/task-definitions", taskDefs.list)
	mux.HandleFunc("POST /api/task-definitions", taskDefs.create)
	mux.HandleFunc("PATCH /api/task-definitions/{id}", taskDefs.patch)
	mux.HandleFunc("DELETE /api/task-definitions/{id}", taskDefs.delete)

	jobs := &jobHandlers{jobs: deps.Jobs, logger: deps.Logger}
	mux.HandleFunc("POST /api/jobs/submit", jobs.submit)
	mux.HandleFunc("POST /api/jobs/stop", jobs.stop)
	mux.HandleFunc("GET /api/jobs", jobs.list)
	mux.HandleFunc("GET /api/jobs/{id}/logs", jobs.logs)

	scheds := &scheduleHandlers{schedules: deps.Schedules, logger: deps.Logger}
	mux.HandleFunc("GET /api/schedules", scheds.list)
	mux.HandleFunc("POST /api/schedules", scheds.create)
	mux.HandleFunc("PATCH /api/schedules/{id}", scheds.patch)
	mux.HandleFunc("DELETE /api/schedules/{id}", scheds.delete)

	mux.Handle("/", StaticHandler())

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: deps.CORS.AllowedOrigins,
		AllowedMethods: deps.CORS.AllowedMethods,
		AllowedHeaders: deps.CORS.AllowedHeaders,
	})

	var handler http.Handler = mux
	handler = corsMiddleware.Handler(handler)
	handler = withAccessLog(deps.Logger, handler)
	handler = withRequestID(handler)
	return handler
}
