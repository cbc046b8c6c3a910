package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	adminhandler "intake/internal/admin/handler"
	adminservice "intake/internal/admin/service"
	certhandler "intake/internal/certificate/handler"
	certmetrics "intake/internal/certificate/metrics"
	certservice "intake/internal/certificate/service"
	"intake/internal/guard/captcha"
	"intake/internal/guard/formtoken"
	intakehandler "intake/internal/intake/handler"
	intakemetrics "intake/internal/intake/metrics"
	intakeservice "intake/internal/intake/service"
	"intake/internal/objectstore"
	"intake/internal/platform/config"
	"intake/internal/platform/httpserver"
	"intake/internal/platform/logger"
	"intake/internal/platform/metrics"
	rlmetrics "intake/internal/ratelimit/metrics"
	rlmiddleware "intake/internal/ratelimit/middleware"
	rlservice "intake/internal/ratelimit/service"
	"intake/internal/ratelimit/sweeper"
	"intake/pkg/platform/audit/publisher"
	"intake/pkg/platform/middleware/admin"
)

const auditBuffer = 256

// main loads configuration, wires stores and services, and runs the HTTP
// server and throttle sweeper until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Guard.UsingDevSecret {
		log.Warn("FORM_TOKEN_SECRET not set, using the development secret")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	in, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.Close()

	srv, err := build(cfg, log, reg, reg, in)
	if err != nil {
		return err
	}
	defer srv.audit.Close()
	httpSrv := httpserver.New(cfg.Server.Addr, srv.router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting intake server",
			"addr", cfg.Server.Addr,
			"environment", cfg.Server.Environment,
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// server is the wired HTTP surface plus the background pieces main runs.
type server struct {
	router  http.Handler
	sweeper *sweeper.Sweeper
	audit   *publisher.Publisher
}

type buildOption func(*routes)

// withClock replaces the wall clock used to stamp requests.
func withClock(clock func() time.Time) buildOption {
	return func(rt *routes) {
		rt.clock = clock
	}
}

func build(cfg config.Config, log *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer, in *infra, opts ...buildOption) (*server, error) {
	auditPublisher := publisher.NewPublisher(in.audit,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithLogger(log),
	)

	throttle, err := rlservice.New(in.buckets, in.cooldowns, in.suspicious, rlservice.Config{
		SubmitLimit:      cfg.Throttle.SubmitLimit,
		SubmitWindow:     cfg.Throttle.SubmitWindow,
		AdminLimit:       cfg.Throttle.AdminLimit,
		AdminWindow:      cfg.Throttle.AdminWindow,
		EmailCooldown:    cfg.Throttle.EmailCooldown,
		SuspiciousLimit:  cfg.Throttle.SuspiciousLimit,
		SuspiciousWindow: cfg.Throttle.SuspiciousWindow,
	},
		rlservice.WithLogger(log),
		rlservice.WithMetrics(rlmetrics.New(reg)),
		rlservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return nil, err
	}

	sweep, err := sweeper.New(cfg.Throttle.SweepSchedule, throttle, log)
	if err != nil {
		return nil, err
	}

	objects, err := objectstore.FromConfig(cfg.ObjectStore, cfg.Server.BaseURL)
	if err != nil {
		return nil, err
	}
	uploader := objectstore.NewUploader(objects)
	fetcher := objectstore.NewFetcher(cfg.ObjectStore.HTTPTimeout)

	tokens, err := formtoken.New(formtoken.Config{
		Secret:    cfg.Guard.FormTokenSecret,
		MaxAge:    cfg.Guard.FormTokenMaxAge,
		MinDwell:  cfg.Guard.MinDwell,
		EnforceIP: cfg.Guard.EnforceTokenIP,
	})
	if err != nil {
		return nil, err
	}
	verifier := captcha.New(captcha.Config{
		Secret:    cfg.Guard.TurnstileSecret,
		VerifyURL: cfg.Guard.TurnstileVerifyURL,
		Timeout:   cfg.Guard.CaptchaTimeout,
	}, captcha.WithLogger(log))
	if !verifier.Enabled() {
		log.Warn("TURNSTILE_SECRET_KEY not set, CAPTCHA verification is disabled")
	}

	submissions, err := intakeservice.New(in.applications, throttle, intakeservice.Config{
		BaseURL:             cfg.Server.BaseURL,
		InlineImageFallback: cfg.ObjectStore.InlineImageFallback,
	},
		intakeservice.WithLogger(log),
		intakeservice.WithMetrics(intakemetrics.New(reg)),
		intakeservice.WithAuditPublisher(auditPublisher),
		intakeservice.WithFormTokens(tokens),
		intakeservice.WithCaptcha(verifier),
		intakeservice.WithImageUploader(uploader),
	)
	if err != nil {
		return nil, err
	}

	certificates, err := certservice.New(in.certificates, in.applications, uploader, certservice.Config{
		BaseURL:             cfg.Server.BaseURL,
		InlineImageFallback: cfg.ObjectStore.InlineImageFallback,
	},
		certservice.WithLogger(log),
		certservice.WithMetrics(certmetrics.New(reg)),
		certservice.WithAuditPublisher(auditPublisher),
		certservice.WithImageLoader(fetcher),
	)
	if err != nil {
		return nil, err
	}

	credential := admin.NewCredential(cfg.Admin.Password, cfg.Admin.PasswordHash)
	if !credential.Configured() {
		log.Warn("admin credential not configured, admin endpoints will refuse requests")
	}
	console, err := adminservice.New(in.applications, credential,
		adminservice.WithLogger(log),
		adminservice.WithAuditPublisher(auditPublisher),
		adminservice.WithAuditLister(auditPublisher),
		adminservice.WithImageLoader(fetcher),
	)
	if err != nil {
		return nil, err
	}

	rt := routes{
		intake:       intakehandler.New(submissions, log, cfg.Server.MaxRequestBytes),
		certificates: certhandler.New(certificates, log, cfg.Server.MaxRequestBytes),
		admin:        adminhandler.New(console, log),
		adminLimit:   rlmiddleware.New(throttle, log).RateLimitAdmin,
		requireAdmin: admin.RequireAdmin(credential, log),
		httpMetrics:  metrics.NewHTTP(reg),
		gatherer:     gatherer,
		health:       in,
		files:        objects,
		logger:       log,
	}
	for _, opt := range opts {
		opt(&rt)
	}

	return &server{
		router:  newRouter(rt),
		sweeper: sweep,
		audit:   auditPublisher,
	}, nil
}
