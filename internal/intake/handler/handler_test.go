package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"intake/internal/intake/handler/mocks"
	"intake/internal/intake/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const (
	testClientIP = "198.51.100.23"
	maxBodyBytes = 1024
)

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, maxBodyBytes).Register(s.router)
}

func (s *HandlerSuite) TestFormToken() {
	s.service.EXPECT().IssueFormToken(gomock.Any(), testClientIP).Return("signed", nil)

	rr := testutil.DoRequest(s.router, testutil.WithClientIP(testutil.NewRequest(s.T(), http.MethodGet, "/api/form-token"), testClientIP))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "token", "signed")
}

func (s *HandlerSuite) TestSubmitAccepted() {
	body := map[string]any{"studentName": "Kavya", "emailAddress": "kavya@example.com"}
	s.service.EXPECT().Admit(gomock.Any(), testClientIP).Return(nil)
	s.service.EXPECT().Submit(gomock.Any(), testClientIP, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req *models.SubmitRequest) (*models.SubmitResponse, error) {
			s.Equal("Kavya", req.StudentName)
			s.Equal("kavya@example.com", req.EmailAddress)
			return &models.SubmitResponse{Success: true, Message: "Application submitted successfully!", ID: "abc", ViewURL: "http://x/form/view/abc"}, nil
		})

	req := testutil.WithClientIP(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/submit", body), testClientIP)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[models.SubmitResponse](s.T(), rr)
	s.True(resp.Success)
	s.Equal("abc", resp.ID)
}

func (s *HandlerSuite) TestSubmitDeclaredTooLarge() {
	s.service.EXPECT().RecordRejection(gomock.Any(), testClientIP, models.OutcomeTooLarge)

	req := testutil.WithClientIP(testutil.NewRequest(s.T(), http.MethodPost, "/api/submit"), testClientIP)
	req.ContentLength = maxBodyBytes + 1
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusRequestEntityTooLarge)
	testutil.AssertErrorDescription(s.T(), rr, "Request too large")
}

func (s *HandlerSuite) TestSubmitBodyOverflow() {
	s.service.EXPECT().Admit(gomock.Any(), testClientIP).Return(nil)
	s.service.EXPECT().RecordRejection(gomock.Any(), testClientIP, models.OutcomeTooLarge)

	payload := `{"address":"` + strings.Repeat("x", 2*maxBodyBytes) + `"}`
	req := testutil.WithClientIP(testutil.NewRequest(s.T(), http.MethodPost, "/api/submit"), testClientIP)
	req.Body = io.NopCloser(bytes.NewBufferString(payload))
	req.ContentLength = -1
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusRequestEntityTooLarge)
}

func (s *HandlerSuite) TestSubmitMalformedBody() {
	s.service.EXPECT().Admit(gomock.Any(), testClientIP).Return(nil)
	s.service.EXPECT().RecordRejection(gomock.Any(), testClientIP, models.OutcomeBadBody)

	req := testutil.WithClientIP(testutil.NewRequest(s.T(), http.MethodPost, "/api/submit"), testClientIP)
	req.Body = io.NopCloser(strings.NewReader(`{"studentName":`))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorDescription(s.T(), rr, "Invalid request body")
}

func (s *HandlerSuite) TestSubmitBannedSkipsBody() {
	s.service.EXPECT().Admit(gomock.Any(), testClientIP).
		Return(dErrors.New(dErrors.CodeForbidden, "Too many failed attempts. Please try again later."))

	req := testutil.WithClientIP(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/submit", map[string]string{}), testClientIP)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
}

func (s *HandlerSuite) TestSubmitThrottledSetsRetryAfter() {
	s.service.EXPECT().Admit(gomock.Any(), testClientIP).Return(&models.ThrottledError{
		Wait: 90 * time.Second,
		Err:  dErrors.New(dErrors.CodeRateLimited, "Too many submissions. Please try again in 2 minutes."),
	})

	req := testutil.WithClientIP(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/submit", map[string]string{}), testClientIP)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)
	s.Equal("90", rr.Header().Get("Retry-After"))
	testutil.AssertErrorDescription(s.T(), rr, "Too many submissions. Please try again in 2 minutes.")
}

func (s *HandlerSuite) TestSubmitConflict() {
	s.service.EXPECT().Admit(gomock.Any(), testClientIP).Return(nil)
	s.service.EXPECT().Submit(gomock.Any(), testClientIP, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "An application with this email already exists. Please use a different email."))

	req := testutil.WithClientIP(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/submit", map[string]string{}), testClientIP)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	testutil.AssertErrorDescription(s.T(), rr, "An application with this email already exists. Please use a different email.")
}

func (s *HandlerSuite) TestGetForm() {
	id := uuid.New()

	s.Run("found", func() {
		s.service.EXPECT().Get(gomock.Any(), id.String()).Return(&models.Application{ID: id, StudentName: "Kavya"}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/forms/"+id.String()))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[models.ApplicationResponse](s.T(), rr)
		s.True(resp.Success)
		s.Equal("Kavya", resp.Data.StudentName)
	})

	s.Run("missing", func() {
		s.service.EXPECT().Get(gomock.Any(), "nope").Return(nil, dErrors.New(dErrors.CodeNotFound, "Form not found or has expired"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/forms/nope"))

		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
		testutil.AssertErrorDescription(s.T(), rr, "Form not found or has expired")
	})
}
