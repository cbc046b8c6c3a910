// Package service runs an application submission through the abuse checks,
// validation, duplicate detection and persistence.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"intake/internal/guard/captcha"
	"intake/internal/guard/formtoken"
	"intake/internal/intake/metrics"
	"intake/internal/intake/models"
	"intake/internal/intake/validation"
	"intake/internal/objectstore"
	rlmodels "intake/internal/ratelimit/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/audit"
	"intake/pkg/platform/middleware/metadata"
	"intake/pkg/platform/qrcode"
	"intake/pkg/platform/sentinel"
	"intake/pkg/requestcontext"
)

const (
	qrSize = 200

	msgSubmitted    = "Application submitted successfully!"
	msgSubmitFailed = "Failed to submit application. Please try again."
	msgBanned       = "Too many failed attempts. Please try again later."
	msgFormNotFound = "Form not found or has expired"
	msgDupEmail     = "An application with this email already exists. Please use a different email."
	msgDupRoll      = "An application with this university roll number already exists."
)

// Store persists applications.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	FindByEmail(ctx context.Context, email string) (*models.Application, error)
	FindByRollNumber(ctx context.Context, roll string) (*models.Application, error)
	ListNewestFirst(ctx context.Context) ([]*models.Application, error)
}

// Throttle is the rate limiter, email cooldown and suspicious-activity tracker.
type Throttle interface {
	IsSuspicious(ctx context.Context, ip string) (bool, error)
	RecordSuspicious(ctx context.Context, ip, reason string) (int, error)
	CheckRateLimit(ctx context.Context, ip string) (*rlmodels.RateLimitResult, error)
	CheckEmailCooldown(ctx context.Context, email string) (*rlmodels.CooldownResult, error)
}

// FormTokens issues and verifies signed form-load tokens.
type FormTokens interface {
	Issue(ctx context.Context, ip string) (string, error)
	Verify(ctx context.Context, token, ip string) (time.Duration, error)
}

// CaptchaVerifier checks a CAPTCHA response token.
type CaptchaVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token, ip string) error
}

// ImageUploader moves an inline image to object storage.
type ImageUploader interface {
	UploadImage(ctx context.Context, kind objectstore.ImageKind, roll, dataURL string) (string, error)
}

// Config holds submission settings.
type Config struct {
	// BaseURL prefixes the shareable view URL.
	BaseURL string
	// InlineImageFallback keeps the data URL when an upload fails.
	InlineImageFallback bool
}

type Service struct {
	store          Store
	throttle       Throttle
	tokens         FormTokens
	captcha        CaptchaVerifier
	images         ImageUploader
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

func WithFormTokens(tokens FormTokens) Option {
	return func(s *Service) {
		s.tokens = tokens
	}
}

func WithCaptcha(verifier CaptchaVerifier) Option {
	return func(s *Service) {
		s.captcha = verifier
	}
}

func WithImageUploader(images ImageUploader) Option {
	return func(s *Service) {
		s.images = images
	}
}

func New(store Store, throttle Throttle, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("application store is required")
	}
	if throttle == nil {
		return nil, errors.New("throttle is required")
	}
	svc := &Service{
		store:    store,
		throttle: throttle,
		config:   cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// IssueFormToken returns a signed token stamped with the current time.
func (s *Service) IssueFormToken(ctx context.Context, ip string) (string, error) {
	if s.tokens == nil {
		return "", dErrors.New(dErrors.CodeUnavailable, "Form tokens are not enabled")
	}
	token, err := s.tokens.Issue(ctx, ip)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue form token")
	}
	return token, nil
}

// Admit runs the checks that precede reading the body: the suspicious-IP ban
// and the per-IP submission window. Throttle store failures let the request through.
func (s *Service) Admit(ctx context.Context, ip string) error {
	banned, err := s.throttle.IsSuspicious(ctx, ip)
	if err != nil {
		s.logger.WarnContext(ctx, "suspicious check failed", "error", err)
	} else if banned {
		s.reject(ctx, ip, models.OutcomeBanned, false)
		return dErrors.New(dErrors.CodeForbidden, msgBanned)
	}

	result, err := s.throttle.CheckRateLimit(ctx, ip)
	if err != nil {
		s.logger.WarnContext(ctx, "rate limit check failed", "error", err)
		return nil
	}
	if !result.Allowed {
		s.reject(ctx, ip, models.OutcomeRateLimit, false)
		wait := time.Duration(result.RetryAfter) * time.Second
		return &models.ThrottledError{
			Wait: wait,
			Err:  dErrors.New(dErrors.CodeRateLimited, rlmodels.SubmissionLimitMessage(wait)),
		}
	}
	return nil
}

// RecordRejection counts a request rejected before Submit, such as an
// oversized or unparseable body, as suspicious.
func (s *Service) RecordRejection(ctx context.Context, ip, outcome string) {
	s.reject(ctx, ip, outcome, true)
}

// Submit verifies and stores an application whose request already passed Admit.
func (s *Service) Submit(ctx context.Context, ip string, req *models.SubmitRequest) (*models.SubmitResponse, error) {
	req.Normalize()

	if s.captcha != nil && s.captcha.Enabled() {
		if err := s.captcha.Verify(ctx, req.TurnstileToken, ip); err != nil {
			s.reject(ctx, ip, models.OutcomeCaptcha, true)
			return nil, captcha.ToDomainError(err)
		}
	}

	if s.tokens != nil && req.FormToken != "" {
		elapsed, err := s.tokens.Verify(ctx, req.FormToken, ip)
		if err != nil {
			s.logger.InfoContext(ctx, "form token rejected",
				"elapsed_ms", elapsed.Milliseconds(),
				"error", err,
			)
			s.reject(ctx, ip, models.OutcomeTiming, true)
			return nil, formtoken.ToDomainError(err)
		}
	}

	if req.EmailAddress != "" {
		cooldown, err := s.throttle.CheckEmailCooldown(ctx, req.EmailAddress)
		if err != nil {
			s.logger.WarnContext(ctx, "email cooldown check failed", "error", err)
		} else if !cooldown.Allowed {
			s.reject(ctx, ip, models.OutcomeCooldown, false)
			return nil, &models.ThrottledError{
				Wait: cooldown.WaitTime,
				Err:  dErrors.New(dErrors.CodeRateLimited, rlmodels.CooldownMessage(cooldown.WaitTime)),
			}
		}
	}

	now := requestcontext.Now(ctx)
	if err := validation.Validate(req, now); err != nil {
		s.reject(ctx, ip, models.OutcomeValidation, true)
		return nil, err
	}

	if err := s.checkDuplicates(ctx, ip, req); err != nil {
		return nil, err
	}

	app := newApplication(req, ip, now)
	var err error
	if app.Photo, err = s.storeImage(ctx, objectstore.KindPhoto, app.UniversityRollNumber, req.Photo); err != nil {
		s.metrics.IncrementSubmission(models.OutcomeError)
		return nil, err
	}
	if app.Signature, err = s.storeImage(ctx, objectstore.KindSignature, app.UniversityRollNumber, req.Signature); err != nil {
		s.metrics.IncrementSubmission(models.OutcomeError)
		return nil, err
	}

	if err := s.store.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.reject(ctx, ip, models.OutcomeDuplicate, false)
			return nil, duplicateError(sentinel.ConflictField(err))
		}
		s.logger.ErrorContext(ctx, "failed to insert application", "error", err)
		s.metrics.IncrementSubmission(models.OutcomeError)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgSubmitFailed)
	}

	viewURL := s.config.BaseURL + "/form/view/" + app.ID.String()
	qr, err := qrcode.DataURL(viewURL, qrSize)
	if err != nil {
		s.logger.WarnContext(ctx, "qr code generation failed", "error", err)
		qr = ""
	}

	s.metrics.IncrementSubmission(models.OutcomeAccepted)
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventSubmissionAccepted,
		"application_id", app.ID.String(),
		"ip_prefix", metadata.IPPrefix(ip),
	)

	return &models.SubmitResponse{
		Success: true,
		Message: msgSubmitted,
		ID:      app.ID.String(),
		ViewURL: viewURL,
		QRCode:  qr,
	}, nil
}

func (s *Service) checkDuplicates(ctx context.Context, ip string, req *models.SubmitRequest) error {
	for _, lookup := range []struct {
		field string
		find  func(context.Context, string) (*models.Application, error)
		value string
	}{
		{models.FieldEmail, s.store.FindByEmail, req.EmailAddress},
		{models.FieldUniversityRoll, s.store.FindByRollNumber, req.UniversityRoll},
	} {
		_, err := lookup.find(ctx, lookup.value)
		switch {
		case err == nil:
			s.reject(ctx, ip, models.OutcomeDuplicate, false)
			return duplicateError(lookup.field)
		case errors.Is(err, sentinel.ErrNotFound):
		default:
			s.logger.ErrorContext(ctx, "duplicate lookup failed", "field", lookup.field, "error", err)
			s.metrics.IncrementSubmission(models.OutcomeError)
			return dErrors.Wrap(err, dErrors.CodeInternal, msgSubmitFailed)
		}
	}
	return nil
}

// storeImage uploads an inline image and returns the value to persist.
func (s *Service) storeImage(ctx context.Context, kind objectstore.ImageKind, roll, dataURL string) (string, error) {
	if dataURL == "" || s.images == nil {
		return dataURL, nil
	}
	url, err := s.images.UploadImage(ctx, kind, roll, dataURL)
	if err == nil {
		return url, nil
	}
	if !errors.Is(err, sentinel.ErrUnavailable) {
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventImageUploadFailure,
			"check", string(kind),
			"error", err,
		)
	}
	// Only inline data may be kept; anything else would be fetched server-side later.
	if !s.config.InlineImageFallback || !objectstore.IsDataURL(dataURL) {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, msgSubmitFailed)
	}
	return dataURL, nil
}

func (s *Service) reject(ctx context.Context, ip, outcome string, suspicious bool) {
	s.metrics.IncrementSubmission(outcome)
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventSubmissionRejected,
		"ip_prefix", metadata.IPPrefix(ip),
		"check", outcome,
		"bot", requestcontext.IsBot(ctx),
		"decision", "deny",
	)
	if !suspicious {
		return
	}
	if _, err := s.throttle.RecordSuspicious(ctx, ip, outcome); err != nil {
		s.logger.WarnContext(ctx, "failed to record suspicious activity", "error", err)
	}
}

// Get returns a submitted application for the public view page, without the submitter IP.
func (s *Service) Get(ctx context.Context, id string) (*models.Application, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, msgFormNotFound)
	}
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgFormNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load form")
	}
	return app.WithoutIP(), nil
}

// List returns every application, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Application, error) {
	apps, err := s.store.ListNewestFirst(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

func duplicateError(field string) error {
	if field == models.FieldUniversityRoll {
		return dErrors.New(dErrors.CodeConflict, msgDupRoll)
	}
	return dErrors.New(dErrors.CodeConflict, msgDupEmail)
}

func newApplication(req *models.SubmitRequest, ip string, now time.Time) *models.Application {
	return &models.Application{
		ID:                           uuid.New(),
		StudentName:                  req.StudentName,
		FatherName:                   req.FatherName,
		MotherName:                   req.MotherName,
		Gender:                       req.Gender,
		DateOfBirth:                  req.DateOfBirth,
		Address:                      req.Address,
		InternshipTopic:              req.InternshipTopic,
		Course:                       req.Course,
		CourseOther:                  req.CourseOther,
		CollegeName:                  req.CollegeName,
		CollegeNameOther:             req.CollegeOther,
		HonoursSubject:               req.HonoursSubject,
		HonoursSubjectOther:          req.HonoursOther,
		CurrentSemester:              req.CurrentSemester,
		ClassRollNo:                  req.ClassRollNo,
		UniversityName:               req.UniversityName,
		UniversityRollNumber:         req.UniversityRoll,
		UniversityRegistrationNumber: req.UniversityReg,
		ContactNumber:                req.ContactNumber,
		WhatsappNumber:               req.WhatsappNumber,
		EmailAddress:                 req.EmailAddress,
		DeclarationAccepted:          req.DeclarationAccepted,
		IPAddress:                    ip,
		CreatedAt:                    now,
	}
}
