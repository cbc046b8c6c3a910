package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"intake/internal/guard/captcha"
	"intake/internal/guard/formtoken"
	"intake/internal/intake/metrics"
	"intake/internal/intake/mocks"
	"intake/internal/intake/models"
	"intake/internal/objectstore"
	rlmodels "intake/internal/ratelimit/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/sentinel"
	"intake/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks

const clientIP = "203.0.113.7"

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	store    *mocks.MockStore
	throttle *mocks.MockThrottle
	tokens   *mocks.MockFormTokens
	captcha  *mocks.MockCaptchaVerifier
	images   *mocks.MockImageUploader
	metrics  *metrics.Metrics
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.now = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = mocks.NewMockStore(ctrl)
	s.throttle = mocks.NewMockThrottle(ctrl)
	s.tokens = mocks.NewMockFormTokens(ctrl)
	s.captcha = mocks.NewMockCaptchaVerifier(ctrl)
	s.images = mocks.NewMockImageUploader(ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
}

func (s *ServiceSuite) newService(cfg Config, opts ...Option) *Service {
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	}, opts...)
	svc, err := New(s.store, s.throttle, cfg, opts...)
	s.Require().NoError(err)
	return svc
}

func submitRequest() *models.SubmitRequest {
	return &models.SubmitRequest{
		StudentName:         "  Rahul Verma ",
		FatherName:          "Sunil Verma",
		MotherName:          "Anita Verma",
		Gender:              "Male",
		DateOfBirth:         "2004-08-21",
		Address:             "Rajendra Nagar, Patna",
		InternshipTopic:     "Machine Learning",
		Course:              "B.Sc",
		CollegeName:         "Patna Science College",
		HonoursSubject:      "Mathematics",
		CurrentSemester:     "5th Semester",
		ClassRollNo:         "31",
		UniversityRoll:      "PU-2023-31",
		UniversityReg:       "REG-3131",
		ContactNumber:       "9000000031",
		EmailAddress:        "Rahul.Verma@Example.com",
		Photo:               "data:image/png;base64,iVBORw0KGgo=",
		DeclarationAccepted: true,
		FormToken:           "signed-token",
		TurnstileToken:      "cf-token",
	}
}

func (s *ServiceSuite) requireDomainError(err error, code dErrors.Code, msg string) {
	s.T().Helper()
	s.Require().Error(err)
	de, ok := dErrors.Is(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Equal(code, de.Code)
	s.Equal(msg, de.Message)
}

func (s *ServiceSuite) expectCooldownAllowed(email string) {
	s.throttle.EXPECT().CheckEmailCooldown(gomock.Any(), email).
		Return(&rlmodels.CooldownResult{Allowed: true}, nil)
}

func (s *ServiceSuite) expectNoDuplicates() {
	s.store.EXPECT().FindByEmail(gomock.Any(), "rahul.verma@example.com").Return(nil, sentinel.ErrNotFound)
	s.store.EXPECT().FindByRollNumber(gomock.Any(), "PU-2023-31").Return(nil, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.throttle, Config{})
	s.ErrorContains(err, "store is required")
	_, err = New(s.store, nil, Config{})
	s.ErrorContains(err, "throttle is required")
}

func (s *ServiceSuite) TestAdmit() {
	s.Run("clean ip passes", func() {
		s.throttle.EXPECT().IsSuspicious(gomock.Any(), clientIP).Return(false, nil)
		s.throttle.EXPECT().CheckRateLimit(gomock.Any(), clientIP).Return(&rlmodels.RateLimitResult{Allowed: true}, nil)
		s.NoError(s.newService(Config{}).Admit(s.ctx, clientIP))
	})

	s.Run("banned ip is forbidden without another strike", func() {
		s.throttle.EXPECT().IsSuspicious(gomock.Any(), clientIP).Return(true, nil)
		err := s.newService(Config{}).Admit(s.ctx, clientIP)
		s.requireDomainError(err, dErrors.CodeForbidden, "Too many failed attempts. Please try again later.")
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(models.OutcomeBanned)))
	})

	s.Run("rate limited carries the wait", func() {
		s.throttle.EXPECT().IsSuspicious(gomock.Any(), clientIP).Return(false, nil)
		s.throttle.EXPECT().CheckRateLimit(gomock.Any(), clientIP).
			Return(&rlmodels.RateLimitResult{Allowed: false, RetryAfter: 1500}, nil)

		err := s.newService(Config{}).Admit(s.ctx, clientIP)
		s.requireDomainError(err, dErrors.CodeRateLimited, "Too many submissions. Please try again in 25 minutes.")
		var throttled *models.ThrottledError
		s.Require().ErrorAs(err, &throttled)
		s.Equal(25*time.Minute, throttled.Wait)
	})

	s.Run("throttle store failure lets the request through", func() {
		s.throttle.EXPECT().IsSuspicious(gomock.Any(), clientIP).Return(false, errors.New("redis down"))
		s.throttle.EXPECT().CheckRateLimit(gomock.Any(), clientIP).Return(nil, errors.New("redis down"))
		s.NoError(s.newService(Config{}).Admit(s.ctx, clientIP))
	})
}

func (s *ServiceSuite) TestSubmitSuccess() {
	svc := s.newService(
		Config{BaseURL: "https://apply.example.org", InlineImageFallback: true},
		WithCaptcha(s.captcha),
		WithFormTokens(s.tokens),
		WithImageUploader(s.images),
	)

	s.captcha.EXPECT().Enabled().Return(true)
	s.captcha.EXPECT().Verify(gomock.Any(), "cf-token", clientIP).Return(nil)
	s.tokens.EXPECT().Verify(gomock.Any(), "signed-token", clientIP).Return(30*time.Second, nil)
	s.expectCooldownAllowed("rahul.verma@example.com")
	s.expectNoDuplicates()
	s.images.EXPECT().UploadImage(gomock.Any(), objectstore.KindPhoto, "PU-2023-31", "data:image/png;base64,iVBORw0KGgo=").
		Return("https://cdn.example.org/photo/PU_2023_31_1.png", nil)

	var stored *models.Application
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, app *models.Application) error {
		stored = app
		return nil
	})

	resp, err := svc.Submit(s.ctx, clientIP, submitRequest())
	s.Require().NoError(err)

	s.True(resp.Success)
	s.Equal("Application submitted successfully!", resp.Message)
	s.Equal(stored.ID.String(), resp.ID)
	s.Equal("https://apply.example.org/form/view/"+resp.ID, resp.ViewURL)
	s.True(strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))

	s.Equal("Rahul Verma", stored.StudentName)
	s.Equal("rahul.verma@example.com", stored.EmailAddress)
	s.Equal(models.DefaultUniversity, stored.UniversityName)
	s.Equal("https://cdn.example.org/photo/PU_2023_31_1.png", stored.Photo)
	s.Empty(stored.Signature)
	s.Equal(clientIP, stored.IPAddress)
	s.Equal(s.now, stored.CreatedAt)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(models.OutcomeAccepted)))
}

func (s *ServiceSuite) TestSubmitCaptchaFailureIsSuspicious() {
	svc := s.newService(Config{}, WithCaptcha(s.captcha))
	s.captcha.EXPECT().Enabled().Return(true)
	s.captcha.EXPECT().Verify(gomock.Any(), "cf-token", clientIP).Return(captcha.ErrRejected)
	s.throttle.EXPECT().RecordSuspicious(gomock.Any(), clientIP, models.OutcomeCaptcha).Return(1, nil)

	_, err := svc.Submit(s.ctx, clientIP, submitRequest())
	s.requireDomainError(err, dErrors.CodeBadRequest, "CAPTCHA verification failed. Please try again.")
}

func (s *ServiceSuite) TestSubmitDisabledCaptchaIsSkipped() {
	svc := s.newService(Config{}, WithCaptcha(s.captcha))
	s.captcha.EXPECT().Enabled().Return(false)
	s.throttle.EXPECT().CheckEmailCooldown(gomock.Any(), gomock.Any()).
		Return(&rlmodels.CooldownResult{Allowed: false, WaitTime: time.Minute}, nil)

	_, err := svc.Submit(s.ctx, clientIP, submitRequest())
	s.Require().Error(err)
}

func (s *ServiceSuite) TestSubmitTooFastIsSuspicious() {
	svc := s.newService(Config{}, WithFormTokens(s.tokens))
	s.tokens.EXPECT().Verify(gomock.Any(), "signed-token", clientIP).Return(2*time.Second, formtoken.ErrTooFast)
	s.throttle.EXPECT().RecordSuspicious(gomock.Any(), clientIP, models.OutcomeTiming).Return(1, nil)

	_, err := svc.Submit(s.ctx, clientIP, submitRequest())
	s.requireDomainError(err, dErrors.CodeBadRequest, "Form submitted too quickly. Please take your time to fill the form.")
}

func (s *ServiceSuite) TestSubmitWithoutTokenSkipsTiming() {
	svc := s.newService(Config{}, WithFormTokens(s.tokens))
	req := submitRequest()
	req.FormToken = ""
	req.DeclarationAccepted = false
	s.expectCooldownAllowed("rahul.verma@example.com")
	s.throttle.EXPECT().RecordSuspicious(gomock.Any(), clientIP, models.OutcomeValidation).Return(1, nil)

	_, err := svc.Submit(s.ctx, clientIP, req)
	s.requireDomainError(err, dErrors.CodeValidation, "Please accept the declaration")
}

func (s *ServiceSuite) TestSubmitCooldownIsNotSuspicious() {
	svc := s.newService(Config{})
	s.throttle.EXPECT().CheckEmailCooldown(gomock.Any(), "rahul.verma@example.com").
		Return(&rlmodels.CooldownResult{Allowed: false, WaitTime: 12 * time.Minute}, nil)

	_, err := svc.Submit(s.ctx, clientIP, submitRequest())
	s.requireDomainError(err, dErrors.CodeRateLimited,
		"This email was recently used. Please try again in 12 minutes or use a different email.")
	var throttled *models.ThrottledError
	s.Require().ErrorAs(err, &throttled)
	s.Equal(12*time.Minute, throttled.Wait)
}

func (s *ServiceSuite) TestSubmitHoneypotIsSuspicious() {
	svc := s.newService(Config{})
	req := submitRequest()
	req.Website = "filled-by-bot"
	s.expectCooldownAllowed("rahul.verma@example.com")
	s.throttle.EXPECT().RecordSuspicious(gomock.Any(), clientIP, models.OutcomeValidation).Return(3, nil)

	_, err := svc.Submit(s.ctx, clientIP, req)
	s.requireDomainError(err, dErrors.CodeValidation, "Invalid submission")
}

func (s *ServiceSuite) TestSubmitDuplicates() {
	s.Run("existing email", func() {
		svc := s.newService(Config{})
		s.expectCooldownAllowed("rahul.verma@example.com")
		s.store.EXPECT().FindByEmail(gomock.Any(), "rahul.verma@example.com").Return(&models.Application{}, nil)

		_, err := svc.Submit(s.ctx, clientIP, submitRequest())
		s.requireDomainError(err, dErrors.CodeConflict, "An application with this email already exists. Please use a different email.")
	})

	s.Run("existing roll number", func() {
		svc := s.newService(Config{})
		s.expectCooldownAllowed("rahul.verma@example.com")
		s.store.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.store.EXPECT().FindByRollNumber(gomock.Any(), "PU-2023-31").Return(&models.Application{}, nil)

		_, err := svc.Submit(s.ctx, clientIP, submitRequest())
		s.requireDomainError(err, dErrors.CodeConflict, "An application with this university roll number already exists.")
	})

	s.Run("insert race maps the violated column", func() {
		svc := s.newService(Config{})
		s.expectCooldownAllowed("rahul.verma@example.com")
		s.expectNoDuplicates()
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(sentinel.Conflict(models.FieldUniversityRoll))

		_, err := svc.Submit(s.ctx, clientIP, submitRequest())
		s.requireDomainError(err, dErrors.CodeConflict, "An application with this university roll number already exists.")
	})
}

func (s *ServiceSuite) TestSubmitInsertFailure() {
	svc := s.newService(Config{})
	s.expectCooldownAllowed("rahul.verma@example.com")
	s.expectNoDuplicates()
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := svc.Submit(s.ctx, clientIP, submitRequest())
	s.requireDomainError(err, dErrors.CodeInternal, "Failed to submit application. Please try again.")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(models.OutcomeError)))
}

func (s *ServiceSuite) TestSubmitUploadFailure() {
	s.Run("falls back to inline data", func() {
		svc := s.newService(Config{InlineImageFallback: true}, WithImageUploader(s.images))
		s.expectCooldownAllowed("rahul.verma@example.com")
		s.expectNoDuplicates()
		s.images.EXPECT().UploadImage(gomock.Any(), objectstore.KindPhoto, gomock.Any(), gomock.Any()).
			Return("", errors.New("bucket missing"))

		var stored *models.Application
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, app *models.Application) error {
			stored = app
			return nil
		})

		_, err := svc.Submit(s.ctx, clientIP, submitRequest())
		s.Require().NoError(err)
		s.Equal("data:image/png;base64,iVBORw0KGgo=", stored.Photo)
	})

	s.Run("rejects when fallback is off", func() {
		svc := s.newService(Config{InlineImageFallback: false}, WithImageUploader(s.images))
		s.expectCooldownAllowed("rahul.verma@example.com")
		s.expectNoDuplicates()
		s.images.EXPECT().UploadImage(gomock.Any(), objectstore.KindPhoto, gomock.Any(), gomock.Any()).
			Return("", errors.New("bucket missing"))

		_, err := svc.Submit(s.ctx, clientIP, submitRequest())
		s.requireDomainError(err, dErrors.CodeInternal, "Failed to submit application. Please try again.")
	})
}

func (s *ServiceSuite) TestRecordRejection() {
	s.throttle.EXPECT().RecordSuspicious(gomock.Any(), clientIP, models.OutcomeTooLarge).Return(1, nil)
	s.newService(Config{}).RecordRejection(s.ctx, clientIP, models.OutcomeTooLarge)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(models.OutcomeTooLarge)))
}

func (s *ServiceSuite) TestIssueFormToken() {
	s.Run("without issuer", func() {
		_, err := s.newService(Config{}).IssueFormToken(s.ctx, clientIP)
		s.requireDomainError(err, dErrors.CodeUnavailable, "Form tokens are not enabled")
	})

	s.Run("issued", func() {
		s.tokens.EXPECT().Issue(gomock.Any(), clientIP).Return("tok", nil)
		token, err := s.newService(Config{}, WithFormTokens(s.tokens)).IssueFormToken(s.ctx, clientIP)
		s.Require().NoError(err)
		s.Equal("tok", token)
	})
}

func (s *ServiceSuite) TestGet() {
	svc := s.newService(Config{})

	s.Run("malformed id", func() {
		_, err := svc.Get(s.ctx, "not-a-uuid")
		s.requireDomainError(err, dErrors.CodeNotFound, "Form not found or has expired")
	})

	s.Run("missing record", func() {
		id := uuid.New()
		s.store.EXPECT().FindByID(gomock.Any(), id).Return(nil, sentinel.ErrNotFound)
		_, err := svc.Get(s.ctx, id.String())
		s.requireDomainError(err, dErrors.CodeNotFound, "Form not found or has expired")
	})

	s.Run("strips the submitter ip", func() {
		id := uuid.New()
		s.store.EXPECT().FindByID(gomock.Any(), id).Return(&models.Application{ID: id, IPAddress: clientIP}, nil)
		app, err := svc.Get(s.ctx, id.String())
		s.Require().NoError(err)
		s.Equal(id, app.ID)
		s.Empty(app.IPAddress)
	})
}
