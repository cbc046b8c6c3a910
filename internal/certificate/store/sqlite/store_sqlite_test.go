package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"intake/internal/certificate/models"
	"intake/internal/platform/sqlite"
	"intake/pkg/platform/sentinel"
)

type SQLiteStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) SetupTest() {
	db, err := sqlite.Open(":memory:")
	s.Require().NoError(err)
	s.store, err = New(db, "RTS")
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func certificate(issuedAt time.Time) *models.Certificate {
	return &models.Certificate{
		ID:            uuid.New(),
		ApplicationID: uuid.New(),
		RTSRegNumber:  "RTS-5",
		Marks:         55,
		Grade:         "B",
		GradePoint:    6,
		StartDate:     "2025-06-01",
		EndDate:       "2025-06-30",
		DurationDays:  30,
		IssuedAt:      issuedAt,
	}
}

func (s *SQLiteStoreSuite) TestSerialAllocation() {
	at := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	first, second := certificate(at), certificate(at)
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))
	s.Equal("RTS/2025/0001", first.SerialNumber)
	s.Equal("RTS/2025/0002", second.SerialNumber)

	other := certificate(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(s.ctx, other))
	s.Equal("RTS/2026/0001", other.SerialNumber)
}

func (s *SQLiteStoreSuite) TestApplicationUniqueness() {
	cert := certificate(time.Now())
	s.Require().NoError(s.store.Create(s.ctx, cert))

	again := certificate(time.Now())
	again.ApplicationID = cert.ApplicationID
	err := s.store.Create(s.ctx, again)
	s.ErrorIs(err, sentinel.ErrConflict)
	s.Equal(models.FieldApplicationID, sentinel.ConflictField(err))
}

func (s *SQLiteStoreSuite) TestReadsAndURLBackfill() {
	cert := certificate(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(s.ctx, cert))
	s.Require().NoError(s.store.UpdateURL(s.ctx, cert.ID, "http://localhost:8080/files/certificates/x.pdf"))

	got, err := s.store.FindByApplicationID(s.ctx, cert.ApplicationID)
	s.Require().NoError(err)
	s.Equal(cert.ID, got.ID)
	s.Equal(cert.SerialNumber, got.SerialNumber)
	s.Equal("2025-06-01", got.StartDate)
	s.Equal("http://localhost:8080/files/certificates/x.pdf", got.CertificateURL)

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.UpdateURL(s.ctx, uuid.New(), "x"), sentinel.ErrNotFound)
}
