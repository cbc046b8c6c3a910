package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"intake/internal/certificate/models"
	"intake/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore("RTS")
	s.ctx = context.Background()
}

func certificate(issuedAt time.Time) *models.Certificate {
	return &models.Certificate{
		ID:            uuid.New(),
		ApplicationID: uuid.New(),
		RTSRegNumber:  "RTS-1",
		Marks:         81,
		Grade:         "A+",
		GradePoint:    9,
		StartDate:     "2026-01-01",
		EndDate:       "2026-01-31",
		DurationDays:  31,
		IssuedAt:      issuedAt,
	}
}

func (s *InMemoryStoreSuite) TestSerialsAreYearScoped() {
	jan := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	first := certificate(jan)
	second := certificate(jan.Add(time.Hour))
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))
	s.Equal("RTS/2026/0001", first.SerialNumber)
	s.Equal("RTS/2026/0002", second.SerialNumber)

	nextYear := certificate(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(s.ctx, nextYear))
	s.Equal("RTS/2027/0001", nextYear.SerialNumber)
}

func (s *InMemoryStoreSuite) TestOneCertificatePerApplication() {
	cert := certificate(time.Now())
	s.Require().NoError(s.store.Create(s.ctx, cert))

	again := certificate(time.Now())
	again.ApplicationID = cert.ApplicationID
	err := s.store.Create(s.ctx, again)
	s.ErrorIs(err, sentinel.ErrConflict)
	s.Equal(models.FieldApplicationID, sentinel.ConflictField(err))

	got, err := s.store.FindByApplicationID(s.ctx, cert.ApplicationID)
	s.Require().NoError(err)
	s.Equal(cert.ID, got.ID)
}

func (s *InMemoryStoreSuite) TestUpdateURL() {
	cert := certificate(time.Now())
	s.Require().NoError(s.store.Create(s.ctx, cert))
	s.Require().NoError(s.store.UpdateURL(s.ctx, cert.ID, "https://cdn.example.org/certificates/x.pdf"))

	got, err := s.store.FindByID(s.ctx, cert.ID)
	s.Require().NoError(err)
	s.Equal("https://cdn.example.org/certificates/x.pdf", got.CertificateURL)

	s.ErrorIs(s.store.UpdateURL(s.ctx, uuid.New(), "x"), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestNotFound() {
	_, err := s.store.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByApplicationID(s.ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestConcurrentIssuanceNeverRepeatsSerials() {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	certs := make([]*models.Certificate, 50)
	for i := range certs {
		certs[i] = certificate(at)
		wg.Add(1)
		go func(c *models.Certificate) {
			defer wg.Done()
			s.NoError(s.store.Create(s.ctx, c))
		}(certs[i])
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, c := range certs {
		s.False(seen[c.SerialNumber], "duplicate serial %s", c.SerialNumber)
		seen[c.SerialNumber] = true
	}
	s.True(seen["RTS/2026/0050"])
}
