package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/internal/certificate/models"
	"intake/pkg/platform/sentinel"
)

var columnNames = []string{
	"id", "application_id", "serial_number", "issue_year", "sequence", "rts_reg_number",
	"marks", "grade", "grade_point", "start_date", "end_date", "duration_days", "certificate_url", "issued_at",
}

func sampleCertificate() *models.Certificate {
	return &models.Certificate{
		ID:            uuid.MustParse("0c3c8a8e-5a0a-4d7e-9d55-3f4b8b1e2c10"),
		ApplicationID: uuid.MustParse("7f9c24e8-3b12-4fef-91e1-a1a4c8d1f0aa"),
		RTSRegNumber:  "RTS-2026-14",
		Marks:         77,
		Grade:         "A",
		GradePoint:    8,
		StartDate:     "2026-01-05",
		EndDate:       "2026-02-03",
		DurationDays:  30,
		IssuedAt:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func newMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, "RTS"), mock
}

func TestCreate(t *testing.T) {
	t.Run("allocates the next serial in the issue year", func(t *testing.T) {
		store, mock := newMock(t)
		cert := sampleCertificate()

		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(serialLockSpace, 2026).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(sequence\), 0\) FROM certificates`).
			WithArgs(2026).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(41))
		mock.ExpectExec(`INSERT INTO certificates`).
			WithArgs(cert.ID, cert.ApplicationID, "RTS/2026/0042", 2026, 42, cert.RTSRegNumber,
				cert.Marks, cert.Grade, cert.GradePoint, cert.StartDate, cert.EndDate, cert.DurationDays,
				"", cert.IssuedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, store.Create(context.Background(), cert))
		assert.Equal(t, "RTS/2026/0042", cert.SerialNumber)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps the application constraint to a conflict", func(t *testing.T) {
		store, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT COALESCE`).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO certificates`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "certificates_application_key"})
		mock.ExpectRollback()

		err := store.Create(context.Background(), sampleCertificate())
		require.ErrorIs(t, err, sentinel.ErrConflict)
		assert.Equal(t, models.FieldApplicationID, sentinel.ConflictField(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFindByApplicationID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store, mock := newMock(t)
		cert := sampleCertificate()

		mock.ExpectQuery(`SELECT .+ FROM certificates WHERE application_id = \$1`).
			WithArgs(cert.ApplicationID).
			WillReturnRows(sqlmock.NewRows(columnNames).AddRow(
				cert.ID.String(), cert.ApplicationID.String(), "RTS/2026/0003", 2026, 3, cert.RTSRegNumber,
				cert.Marks, cert.Grade, cert.GradePoint,
				time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
				cert.DurationDays, "https://cdn.example.org/c.pdf", cert.IssuedAt,
			))

		got, err := store.FindByApplicationID(context.Background(), cert.ApplicationID)
		require.NoError(t, err)
		assert.Equal(t, "RTS/2026/0003", got.SerialNumber)
		assert.Equal(t, "2026-01-05", got.StartDate)
		assert.Equal(t, "2026-02-03", got.EndDate)
		assert.Equal(t, "https://cdn.example.org/c.pdf", got.CertificateURL)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(`SELECT .+ FROM certificates WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(columnNames))

		_, err := store.FindByID(context.Background(), uuid.New())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestUpdateURL(t *testing.T) {
	store, mock := newMock(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE certificates SET certificate_url`).
		WithArgs(id, "https://cdn.example.org/c.pdf").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.UpdateURL(context.Background(), id, "https://cdn.example.org/c.pdf"))

	mock.ExpectExec(`UPDATE certificates SET certificate_url`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, store.UpdateURL(context.Background(), id, "x"), sentinel.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
