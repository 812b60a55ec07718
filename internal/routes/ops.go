package routes

import (
	"net/http"

	"github.com/dukerupert/esans/internal/router"
)

// RegisterOpsRoutes registers the health check and the Prometheus endpoint.
// They run without the session middleware so probes never mint cookies.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.ServeHTTP)
	}
}
