//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"intake/internal/certificate/models"
	"intake/internal/certificate/store/postgres"
	intakemodels "intake/internal/intake/models"
	appstore "intake/internal/intake/store/postgres"
	"intake/pkg/platform/sentinel"
	"intake/pkg/testutil/containers"
)

type CertificateStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	apps     *appstore.PostgresStore
	store    *postgres.PostgresStore
}

func TestCertificateStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CertificateStoreSuite))
}

func (s *CertificateStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.apps = appstore.New(s.postgres.DB)
	s.store = postgres.New(s.postgres.DB, "RTS")
}

func (s *CertificateStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "certificates", "internship_applications"))
}

func (s *CertificateStoreSuite) newApplication(roll string) uuid.UUID {
	app := &intakemodels.Application{
		ID:                   uuid.New(),
		StudentName:          "Kumar Gaurav",
		Gender:               "Male",
		UniversityRollNumber: roll,
		EmailAddress:         roll + "@example.com",
		CreatedAt:            time.Now().UTC(),
	}
	s.Require().NoError(s.apps.Create(context.Background(), app))
	return app.ID
}

func certificate(applicationID uuid.UUID) *models.Certificate {
	return &models.Certificate{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		RTSRegNumber:  "RTS-77",
		Marks:         66,
		Grade:         "B+",
		GradePoint:    7,
		StartDate:     "2026-01-01",
		EndDate:       "2026-01-31",
		DurationDays:  31,
		IssuedAt:      time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (s *CertificateStoreSuite) TestCreateAndRead() {
	ctx := context.Background()
	cert := certificate(s.newApplication("PU-1"))
	s.Require().NoError(s.store.Create(ctx, cert))
	s.Equal("RTS/2026/0001", cert.SerialNumber)

	s.Require().NoError(s.store.UpdateURL(ctx, cert.ID, "https://cdn.example.org/c.pdf"))

	got, err := s.store.FindByApplicationID(ctx, cert.ApplicationID)
	s.Require().NoError(err)
	s.Equal(cert.ID, got.ID)
	s.Equal("2026-01-01", got.StartDate)
	s.Equal("https://cdn.example.org/c.pdf", got.CertificateURL)
}

func (s *CertificateStoreSuite) TestSecondCertificateConflicts() {
	ctx := context.Background()
	appID := s.newApplication("PU-2")
	s.Require().NoError(s.store.Create(ctx, certificate(appID)))

	err := s.store.Create(ctx, certificate(appID))
	s.ErrorIs(err, sentinel.ErrConflict)
	s.Equal(models.FieldApplicationID, sentinel.ConflictField(err))
}

func (s *CertificateStoreSuite) TestConcurrentSerialsAreUnique() {
	ctx := context.Background()
	const n = 8
	certs := make([]*models.Certificate, n)
	for i := range certs {
		certs[i] = certificate(s.newApplication("PU-C" + string(rune('A'+i))))
	}

	var wg sync.WaitGroup
	for _, c := range certs {
		wg.Add(1)
		go func(c *models.Certificate) {
			defer wg.Done()
			s.NoError(s.store.Create(ctx, c))
		}(c)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, c := range certs {
		s.False(seen[c.SerialNumber])
		seen[c.SerialNumber] = true
	}
	s.True(seen["RTS/2026/0008"])
}
