package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intake/internal/certificate/models"
	"intake/internal/platform/postgres"
	"intake/pkg/platform/sentinel"
	"intake/pkg/platform/tx"
)

// serialLockSpace namespaces the advisory lock taken per issue year.
const serialLockSpace = 7201

const columns = `id, application_id, serial_number, issue_year, sequence, rts_reg_number,
	marks, grade, grade_point, start_date, end_date, duration_days, certificate_url, issued_at`

var constraintFields = map[string]string{
	"certificates_application_key": models.FieldApplicationID,
	"certificates_serial_key":      "serial_number",
}

// PostgresStore persists certificates in the certificates table.
type PostgresStore struct {
	db     *sql.DB
	prefix string
}

func New(db *sql.DB, serialPrefix string) *PostgresStore {
	return &PostgresStore{db: db, prefix: serialPrefix}
}

// Create allocates the next serial for the issue year and inserts cert in one
// transaction. Concurrent issuers in the same year serialize on an advisory lock.
func (s *PostgresStore) Create(ctx context.Context, cert *models.Certificate) error {
	return tx.Run(ctx, s.db, func(ctx context.Context, sqlTx *sql.Tx) error {
		year := cert.IssuedAt.Year()
		if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, serialLockSpace, year); err != nil {
			return fmt.Errorf("lock certificate year: %w", err)
		}

		var last int
		err := sqlTx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sequence), 0) FROM certificates WHERE issue_year = $1`, year,
		).Scan(&last)
		if err != nil {
			return fmt.Errorf("read certificate sequence: %w", err)
		}
		cert.AssignSerial(s.prefix, last+1)

		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO certificates (`+columns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			cert.ID, cert.ApplicationID, cert.SerialNumber, cert.IssueYear, cert.Sequence, cert.RTSRegNumber,
			cert.Marks, cert.Grade, cert.GradePoint, cert.StartDate, cert.EndDate, cert.DurationDays,
			cert.CertificateURL, cert.IssuedAt,
		)
		if err != nil {
			if constraint, ok := postgres.UniqueViolation(err); ok {
				field, known := constraintFields[constraint]
				if !known {
					field = constraint
				}
				return fmt.Errorf("insert certificate: %w", sentinel.Conflict(field))
			}
			return fmt.Errorf("insert certificate: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	return s.findOne(ctx, "id", id)
}

func (s *PostgresStore) FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*models.Certificate, error) {
	return s.findOne(ctx, "application_id", applicationID)
}

func (s *PostgresStore) findOne(ctx context.Context, column string, id uuid.UUID) (*models.Certificate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM certificates WHERE `+column+` = $1`, id)

	var (
		cert       models.Certificate
		start, end time.Time
	)
	err := row.Scan(
		&cert.ID, &cert.ApplicationID, &cert.SerialNumber, &cert.IssueYear, &cert.Sequence, &cert.RTSRegNumber,
		&cert.Marks, &cert.Grade, &cert.GradePoint, &start, &end, &cert.DurationDays,
		&cert.CertificateURL, &cert.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate by %s: %w", column, err)
	}
	cert.StartDate = start.Format(models.DateLayout)
	cert.EndDate = end.Format(models.DateLayout)
	return &cert, nil
}

func (s *PostgresStore) UpdateURL(ctx context.Context, id uuid.UUID, url string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE certificates SET certificate_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("update certificate url: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update certificate url: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
