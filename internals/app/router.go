package app

import (
	"context"
	"net/http"
	"time"

	middle "komonitor/internals/middleware"
	"komonitor/internals/modules/runner"
	"komonitor/pkg/apperror"
	"komonitor/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Pinger is anything with a liveness check, such as the db pool or redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

func RegisterRoutes(c *Container) chi.Router {
	return NewRouter(c.runnerHandler, c.Logger, map[string]Pinger{
		"postgres": c.DB,
		"redis":    c.RedisClient,
	})
}

func NewRouter(batches *runner.Handler, logger *zerolog.Logger, deps map[string]Pinger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(logger))

	r.Get("/healthz", healthHandler(deps))

	r.Route("/api/v1", func(v1 chi.Router) {
		// batches run until every job settled, so no request timeout here
		v1.Mount("/batches", runner.Routes(batches))
	})

	return r
}

func healthHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := make(map[string]string, len(deps))
		healthy := true
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				report[name] = "down"
				healthy = false
				continue
			}
			report[name] = "up"
		}

		if !healthy {
			utils.WriteError(w, http.StatusServiceUnavailable, reqID, apperror.Dependency, "dependency unavailable")
			return
		}
		utils.WriteJSON(w, http.StatusOK, reqID, "ok", report)
	}
}
