package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	adminhandler "intake/internal/admin/handler"
	certhandler "intake/internal/certificate/handler"
	intakehandler "intake/internal/intake/handler"
	"intake/internal/objectstore"
	"intake/internal/platform/metrics"
	"intake/pkg/platform/httputil"
	"intake/pkg/platform/middleware/metadata"
	"intake/pkg/platform/middleware/request"
	"intake/pkg/platform/middleware/requesttime"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type routes struct {
	intake       *intakehandler.Handler
	certificates *certhandler.Handler
	admin        *adminhandler.Handler
	adminLimit   func(http.Handler) http.Handler
	requireAdmin func(http.Handler) http.Handler
	httpMetrics  *metrics.HTTP
	gatherer     prometheus.Gatherer
	health       pinger
	files        objectstore.Store
	logger       *slog.Logger
	// clock defaults to time.Now.
	clock func() time.Time
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	if rt.clock != nil {
		r.Use(requesttime.WithClock(rt.clock))
	} else {
		r.Use(requesttime.Middleware)
	}
	r.Use(middleware.Recoverer)
	r.Use(rt.httpMetrics.Middleware)

	r.Get("/health", healthHandler(rt.health, rt.logger))
	r.Handle("/metrics", metrics.Handler(rt.gatherer))
	if fs, ok := rt.files.(*objectstore.FilesystemStore); ok {
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(fs.Root()))))
	}

	rt.intake.Register(r)
	rt.certificates.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(rt.adminLimit)
		rt.admin.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(rt.requireAdmin)
			rt.admin.RegisterAdmin(r)
			rt.certificates.RegisterAdmin(r)
		})
	})

	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

func healthHandler(p pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
