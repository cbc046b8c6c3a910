// Package service issues internship certificates: grading, serial allocation,
// PDF rendering and upload.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"intake/internal/certificate/document"
	"intake/internal/certificate/metrics"
	"intake/internal/certificate/models"
	intakemodels "intake/internal/intake/models"
	"intake/internal/objectstore"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/audit"
	"intake/pkg/platform/sentinel"
	"intake/pkg/requestcontext"
)

const (
	msgApplicationNotFound = "Application not found"
	msgCertificateNotFound = "Certificate not found"
	msgAlreadyIssued       = "Certificate already exists for this application"
	msgRecordFailed        = "Failed to create certificate record"
	msgGenerateFailed      = "Failed to generate certificate"
	msgStudentFailed       = "Failed to create student record"
	msgStudentEmailTaken   = "An application with this email already exists."

	generatedEmailDomain = "rts-generated.local"
)

var unsafeRollChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Store persists certificates. Create allocates the serial number.
type Store interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error)
	FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*models.Certificate, error)
	UpdateURL(ctx context.Context, id uuid.UUID, url string) error
}

// ApplicationStore is the subset of the application store used for issuance.
type ApplicationStore interface {
	Create(ctx context.Context, app *intakemodels.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*intakemodels.Application, error)
	FindByRollNumber(ctx context.Context, roll string) (*intakemodels.Application, error)
}

// Uploader writes certificate PDFs and scratch photos to object storage.
type Uploader interface {
	UploadCertificate(ctx context.Context, certificateID string, pdf []byte) (string, error)
	UploadImage(ctx context.Context, kind objectstore.ImageKind, roll, dataURL string) (string, error)
}

// ImageLoader resolves a stored photo value, URL or data URL, to bytes.
type ImageLoader interface {
	Load(ctx context.Context, value string) (*objectstore.Image, error)
}

// Renderer turns a certificate into a PDF.
type Renderer func(in *document.Input) ([]byte, error)

type Config struct {
	// BaseURL prefixes the verification view URL encoded in the QR code.
	BaseURL string
	// InlineImageFallback keeps a scratch photo inline when its upload fails.
	InlineImageFallback bool
}

type Service struct {
	store          Store
	applications   ApplicationStore
	uploader       Uploader
	images         ImageLoader
	render         Renderer
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

func WithImageLoader(images ImageLoader) Option {
	return func(s *Service) {
		s.images = images
	}
}

func WithRenderer(render Renderer) Option {
	return func(s *Service) {
		s.render = render
	}
}

func New(store Store, applications ApplicationStore, uploader Uploader, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("certificate store is required")
	}
	if applications == nil {
		return nil, errors.New("application store is required")
	}
	if uploader == nil {
		return nil, errors.New("uploader is required")
	}
	svc := &Service{
		store:        store,
		applications: applications,
		uploader:     uploader,
		render:       document.Render,
		config:       cfg,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// IssueForApplication grades and certifies an existing application.
func (s *Service) IssueForApplication(ctx context.Context, req *models.GenerateRequest) (*models.IssueResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	terms, err := req.Terms()
	if err != nil {
		return nil, err
	}

	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, msgApplicationNotFound)
	}
	app, err := s.applications.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgApplicationNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}

	return s.issue(ctx, app, terms, models.VariantApplication)
}

// IssueFromScratch records a student who never applied online, then certifies them.
func (s *Service) IssueFromScratch(ctx context.Context, req *models.ScratchRequest) (*models.IssueResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	terms, err := req.Terms()
	if err != nil {
		return nil, err
	}

	_, err = s.applications.FindByRollNumber(ctx, req.RollNo)
	switch {
	case err == nil:
		return nil, rollTakenError(req.RollNo)
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgStudentFailed)
	}

	now := requestcontext.Now(ctx)
	app := scratchApplication(req, now)
	app.Photo = s.scratchPhoto(ctx, req.RollNo, req.Photo)

	if err := s.applications.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if sentinel.ConflictField(err) == intakemodels.FieldEmail {
				return nil, dErrors.New(dErrors.CodeConflict, msgStudentEmailTaken)
			}
			return nil, rollTakenError(req.RollNo)
		}
		s.logger.ErrorContext(ctx, "failed to insert scratch application", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgStudentFailed)
	}

	resp, err := s.issue(ctx, app, terms, models.VariantScratch)
	if err != nil {
		return nil, err
	}
	resp.ApplicationID = app.ID.String()
	return resp, nil
}

func (s *Service) issue(ctx context.Context, app *intakemodels.Application, terms *models.Terms, variant string) (*models.IssueResponse, error) {
	existing, err := s.store.FindByApplicationID(ctx, app.ID)
	switch {
	case err == nil:
		return nil, alreadyIssuedError(existing)
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgRecordFailed)
	}

	now := requestcontext.Now(ctx)
	grade := models.GradeFor(terms.Marks)
	cert := &models.Certificate{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		RTSRegNumber:  terms.RTSRegNumber,
		Marks:         terms.Marks,
		Grade:         grade.Letter,
		GradePoint:    grade.Point,
		StartDate:     terms.Start.Format(models.DateLayout),
		EndDate:       terms.End.Format(models.DateLayout),
		DurationDays:  models.DurationDays(terms.Start, terms.End),
		IssuedAt:      now,
	}
	if err := s.store.Create(ctx, cert); err != nil {
		if errors.Is(err, sentinel.ErrConflict) && sentinel.ConflictField(err) == models.FieldApplicationID {
			if existing, findErr := s.store.FindByApplicationID(ctx, app.ID); findErr == nil {
				return nil, alreadyIssuedError(existing)
			}
			return nil, dErrors.New(dErrors.CodeConflict, msgAlreadyIssued)
		}
		s.logger.ErrorContext(ctx, "failed to insert certificate", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgRecordFailed)
	}

	viewURL := s.config.BaseURL + "/certificate/view/" + cert.ID.String()
	started := time.Now()
	pdf, err := s.render(&document.Input{
		Application: app,
		Certificate: cert,
		Photo:       s.loadPhoto(ctx, app.Photo),
		ViewURL:     viewURL,
		IssuedOn:    now,
	})
	s.metrics.ObserveRender(time.Since(started).Seconds())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render certificate",
			"certificate_id", cert.ID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgGenerateFailed)
	}

	cert.CertificateURL = s.upload(ctx, cert, pdf)

	s.metrics.IncrementIssued(variant)
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventCertificateIssued,
		"certificate_id", cert.ID.String(),
		"application_id", app.ID.String(),
		"serial_number", cert.SerialNumber,
		"variant", variant,
	)

	return &models.IssueResponse{
		Success:        true,
		CertificateID:  cert.ID.String(),
		SerialNumber:   cert.SerialNumber,
		Grade:          cert.Grade,
		GradePoint:     cert.GradePoint,
		CertificateURL: cert.CertificateURL,
		ViewURL:        viewURL,
	}, nil
}

// upload stores the PDF and backfills the record. Failures leave the URL empty.
func (s *Service) upload(ctx context.Context, cert *models.Certificate, pdf []byte) string {
	url, err := s.uploader.UploadCertificate(ctx, cert.ID.String(), pdf)
	if err != nil {
		s.metrics.IncrementUploadFailed()
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventCertificateUpload,
			"certificate_id", cert.ID.String(),
			"error", err,
		)
		return ""
	}
	if err := s.store.UpdateURL(ctx, cert.ID, url); err != nil {
		s.logger.WarnContext(ctx, "failed to save certificate url",
			"certificate_id", cert.ID.String(),
			"error", err,
		)
	}
	return url
}

func (s *Service) loadPhoto(ctx context.Context, value string) []byte {
	if value == "" || s.images == nil {
		return nil
	}
	img, err := s.images.Load(ctx, value)
	if err != nil {
		s.logger.WarnContext(ctx, "certificate photo unavailable", "error", err)
		return nil
	}
	return img.Data
}

func (s *Service) scratchPhoto(ctx context.Context, roll, dataURL string) string {
	if dataURL == "" {
		return ""
	}
	url, err := s.uploader.UploadImage(ctx, objectstore.KindPhoto, roll, dataURL)
	if err == nil {
		return url
	}
	if !errors.Is(err, sentinel.ErrUnavailable) {
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventImageUploadFailure,
			"check", string(objectstore.KindPhoto),
			"error", err,
		)
	}
	if s.config.InlineImageFallback {
		return dataURL
	}
	return ""
}

// Get returns a certificate with its application, without the submitter IP.
func (s *Service) Get(ctx context.Context, id string) (*models.CertificateView, error) {
	certID, err := uuid.Parse(id)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, msgCertificateNotFound)
	}
	cert, err := s.store.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgCertificateNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch certificate")
	}
	app, err := s.applications.FindByID(ctx, cert.ApplicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgApplicationNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch certificate")
	}
	return &models.CertificateView{Certificate: cert, Application: app.WithoutIP()}, nil
}

func alreadyIssuedError(existing *models.Certificate) error {
	return &models.ExistsError{
		Existing: existing,
		Err:      dErrors.New(dErrors.CodeConflict, msgAlreadyIssued),
	}
}

func rollTakenError(roll string) error {
	return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(
		`A student with roll number %q already exists in the system. Use the "Certificate" button next to their name in the table instead.`,
		roll,
	))
}

// GeneratedEmail is the placeholder address stored for scratch students without one.
func GeneratedEmail(roll string, now time.Time) string {
	return fmt.Sprintf("cert-%s-%d@%s", unsafeRollChars.ReplaceAllString(roll, "-"), now.UnixMilli(), generatedEmailDomain)
}

func scratchApplication(req *models.ScratchRequest, now time.Time) *intakemodels.Application {
	orDefault := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	email := req.Email
	if email == "" {
		email = GeneratedEmail(req.RollNo, now)
	}
	return &intakemodels.Application{
		ID:                           uuid.New(),
		StudentName:                  req.StudentName,
		FatherName:                   req.FatherName,
		MotherName:                   orDefault(req.MotherName, models.DefaultPlaceholder),
		Gender:                       req.Gender,
		DateOfBirth:                  orDefault(req.DateOfBirth, models.DefaultDateOfBirth),
		Address:                      orDefault(req.Address, models.DefaultPlaceholder),
		InternshipTopic:              req.Topic,
		Course:                       req.Course,
		CollegeName:                  req.College,
		HonoursSubject:               orDefault(req.HonoursSubject, req.Course),
		CurrentSemester:              req.Semester,
		ClassRollNo:                  req.ClassRoll,
		UniversityName:               intakemodels.DefaultUniversity,
		UniversityRollNumber:         req.RollNo,
		UniversityRegistrationNumber: req.RegNo,
		ContactNumber:                orDefault(req.Contact, models.DefaultPlaceholder),
		EmailAddress:                 email,
		CreatedAt:                    now,
	}
}
