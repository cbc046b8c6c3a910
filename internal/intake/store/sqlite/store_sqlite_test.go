package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"intake/internal/intake/models"
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
	s.store, err = New(db)
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func application(email, roll string, createdAt time.Time) *models.Application {
	return &models.Application{
		ID:                   uuid.New(),
		StudentName:          "Neha Kumari",
		Gender:               "Female",
		EmailAddress:         email,
		UniversityRollNumber: roll,
		CreatedAt:            createdAt,
	}
}

func (s *SQLiteStoreSuite) TestRoundTrip() {
	app := application("neha@example.com", "PU-3", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(s.ctx, app))

	got, err := s.store.FindByRollNumber(s.ctx, "PU-3")
	s.Require().NoError(err)
	s.Equal(app.ID, got.ID)
	s.Equal(app.EmailAddress, got.EmailAddress)
	s.True(app.CreatedAt.Equal(got.CreatedAt))
}

func (s *SQLiteStoreSuite) TestNotFound() {
	_, err := s.store.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SQLiteStoreSuite) TestUniqueColumns() {
	now := time.Now().UTC()
	s.Require().NoError(s.store.Create(s.ctx, application("a@example.com", "PU-1", now)))

	err := s.store.Create(s.ctx, application("a@example.com", "PU-2", now))
	s.ErrorIs(err, sentinel.ErrConflict)
	s.Equal(models.FieldEmail, sentinel.ConflictField(err))

	err = s.store.Create(s.ctx, application("b@example.com", "PU-1", now))
	s.ErrorIs(err, sentinel.ErrConflict)
	s.Equal(models.FieldUniversityRoll, sentinel.ConflictField(err))
}

func (s *SQLiteStoreSuite) TestListNewestFirst() {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Create(s.ctx, application("old@example.com", "PU-1", base)))
	s.Require().NoError(s.store.Create(s.ctx, application("new@example.com", "PU-2", base.Add(time.Minute))))

	list, err := s.store.ListNewestFirst(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("new@example.com", list[0].EmailAddress)
}
