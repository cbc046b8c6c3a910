// Package service implements the admin console operations: password check,
// submission listing, exports and the audit trail.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"intake/internal/admin/export"
	intakemodels "intake/internal/intake/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/audit"
	"intake/pkg/platform/middleware/admin"
	"intake/pkg/platform/middleware/metadata"
	"intake/pkg/requestcontext"
)

const (
	// DefaultAuditLimit is used when the caller does not ask for a size.
	DefaultAuditLimit = 100
	maxAuditLimit     = 500

	exportCSV    = "csv"
	exportImages = "images"
)

// ApplicationLister reads every stored application.
type ApplicationLister interface {
	ListNewestFirst(ctx context.Context) ([]*intakemodels.Application, error)
}

// AuditLister reads the retained audit trail.
type AuditLister interface {
	List(ctx context.Context, limit int) ([]audit.Event, error)
}

// Service backs the admin endpoints.
type Service struct {
	applications   ApplicationLister
	credential     *admin.Credential
	images         export.ImageLoader
	audits         AuditLister
	auditPublisher audit.Publisher
	logger         *slog.Logger
	concurrency    int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithAuditLister exposes the audit trail on the admin API.
func WithAuditLister(lister AuditLister) Option {
	return func(s *Service) {
		s.audits = lister
	}
}

// WithImageLoader enables the images ZIP export.
func WithImageLoader(loader export.ImageLoader) Option {
	return func(s *Service) {
		s.images = loader
	}
}

// WithExportConcurrency bounds parallel image downloads during export.
func WithExportConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(applications ApplicationLister, credential *admin.Credential, opts ...Option) (*Service, error) {
	if applications == nil {
		return nil, errors.New("applications store is required")
	}
	if credential == nil {
		return nil, errors.New("admin credential is required")
	}
	s := &Service{
		applications: applications,
		credential:   credential,
		logger:       slog.Default(),
		concurrency:  export.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Verify checks a password typed into the admin login form.
func (s *Service) Verify(ctx context.Context, password string) error {
	if !s.credential.Configured() {
		s.logger.ErrorContext(ctx, "admin credential not configured",
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.New(dErrors.CodeInternal, "Server configuration error")
	}
	if !s.credential.Matches(password) {
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventAdminAuthFailed,
			"ip_prefix", metadata.IPPrefix(requestcontext.ClientIP(ctx)),
			"reason", "password_mismatch",
		)
		return dErrors.New(dErrors.CodeUnauthorized, "Invalid password")
	}
	return nil
}

// Submissions returns every application, newest first.
func (s *Service) Submissions(ctx context.Context) ([]*intakemodels.Application, error) {
	apps, err := s.applications.ListNewestFirst(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to fetch submissions")
	}
	return apps, nil
}

// WriteCSV streams the spreadsheet export of apps.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, apps []*intakemodels.Application) error {
	if err := export.WriteCSV(w, apps); err != nil {
		return err
	}
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventAdminExport,
		"check", exportCSV,
		"count", len(apps),
	)
	return nil
}

// WriteImages streams a ZIP of every photo and signature in apps.
func (s *Service) WriteImages(ctx context.Context, w io.Writer, apps []*intakemodels.Application) (*export.ZipSummary, error) {
	if s.images == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "Image export is not configured")
	}
	summary, err := export.WriteZip(ctx, w, apps, s.images, s.concurrency, s.logger)
	if err != nil {
		return nil, err
	}
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventAdminExport,
		"check", exportImages,
		"written", summary.Written,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

// RecentAudit returns up to limit retained audit events, newest first.
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]audit.Event, error) {
	if s.audits == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "Audit trail is not configured")
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	events, err := s.audits.List(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to load audit events")
	}
	return events, nil
}
