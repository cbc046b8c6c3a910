// Package service applies the submission, admin and email throttles and
// tracks suspicious activity per client IP.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"intake/internal/ratelimit/metrics"
	"intake/internal/ratelimit/models"
	"intake/internal/ratelimit/ports"
	"intake/pkg/platform/audit"
	"intake/pkg/platform/middleware/metadata"
)

// Config holds the limits applied by the service.
type Config struct {
	SubmitLimit      int
	SubmitWindow     time.Duration
	AdminLimit       int
	AdminWindow      time.Duration
	EmailCooldown    time.Duration
	SuspiciousLimit  int
	SuspiciousWindow time.Duration
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		SubmitLimit:      5,
		SubmitWindow:     time.Hour,
		AdminLimit:       30,
		AdminWindow:      15 * time.Minute,
		EmailCooldown:    30 * time.Minute,
		SuspiciousLimit:  10,
		SuspiciousWindow: time.Hour,
	}
}

type Service struct {
	buckets        ports.BucketStore
	cooldowns      ports.CooldownStore
	suspicious     ports.SuspiciousStore
	config         Config
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(buckets ports.BucketStore, cooldowns ports.CooldownStore, suspicious ports.SuspiciousStore, cfg Config, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("bucket store is required")
	}
	if cooldowns == nil {
		return nil, errors.New("cooldown store is required")
	}
	if suspicious == nil {
		return nil, errors.New("suspicious store is required")
	}

	svc := &Service{
		buckets:    buckets,
		cooldowns:  cooldowns,
		suspicious: suspicious,
		config:     cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckRateLimit applies the per-IP submission window and records an allowed attempt.
func (s *Service) CheckRateLimit(ctx context.Context, ip string) (*models.RateLimitResult, error) {
	return s.check(ctx, models.ClassSubmit, ip, s.config.SubmitLimit, s.config.SubmitWindow)
}

// CheckAdmin applies the per-IP admin window.
func (s *Service) CheckAdmin(ctx context.Context, ip string) (*models.RateLimitResult, error) {
	return s.check(ctx, models.ClassAdmin, ip, s.config.AdminLimit, s.config.AdminWindow)
}

func (s *Service) check(ctx context.Context, class models.EndpointClass, ip string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	result, err := s.buckets.Allow(ctx, models.BucketKey(class, ip), limit, window)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		s.metrics.IncrementDenied(class)
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventRateLimitExceeded,
			"ip_prefix", metadata.IPPrefix(ip),
			"check", string(class),
			"decision", "deny",
		)
	}
	return result, nil
}

// CheckEmailCooldown takes the email's cooldown slot or reports the remaining wait.
func (s *Service) CheckEmailCooldown(ctx context.Context, email string) (*models.CooldownResult, error) {
	result, err := s.cooldowns.Acquire(ctx, models.CooldownKey(email), s.config.EmailCooldown)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		s.metrics.IncrementDenied(models.ClassCooldown)
		s.logger.InfoContext(ctx, "email cooldown active",
			"wait_seconds", int(result.WaitTime.Seconds()),
		)
	}
	return result, nil
}

// RecordSuspicious counts one failed attempt from ip and returns the new count.
func (s *Service) RecordSuspicious(ctx context.Context, ip, reason string) (int, error) {
	count, err := s.suspicious.Record(ctx, models.SuspiciousKey(ip), s.config.SuspiciousWindow)
	if err != nil {
		return 0, err
	}
	s.metrics.IncrementSuspicious()
	s.logger.WarnContext(ctx, "suspicious activity recorded",
		"ip_prefix", metadata.IPPrefix(ip),
		"check", reason,
		"count", count,
	)
	if count == s.config.SuspiciousLimit {
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventSuspiciousBlocked,
			"ip_prefix", metadata.IPPrefix(ip),
			"reason", reason,
			"decision", "block",
		)
	}
	return count, nil
}

// IsSuspicious reports whether ip has reached the failure threshold inside the window.
func (s *Service) IsSuspicious(ctx context.Context, ip string) (bool, error) {
	count, err := s.suspicious.Count(ctx, models.SuspiciousKey(ip), s.config.SuspiciousWindow)
	if err != nil {
		return false, err
	}
	return count >= s.config.SuspiciousLimit, nil
}

// Sweep purges expired entries from every store.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int, error) {
	total := 0
	var errs []error
	for _, store := range []interface {
		Sweep(context.Context, time.Time) (int, error)
	}{s.buckets, s.cooldowns, s.suspicious} {
		n, err := store.Sweep(ctx, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}
