package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"intake/internal/intake/models"
	"intake/internal/platform/postgres"
	"intake/pkg/platform/sentinel"
)

const columns = `id, student_name, father_name, mother_name, gender, date_of_birth, address,
	internship_topic, course, course_other, college_name, college_name_other,
	honours_subject, honours_subject_other, current_semester, class_roll_no,
	university_name, university_roll_number, university_registration_number,
	contact_number, whatsapp_number, email_address, photo, signature,
	declaration_accepted, ip_address, created_at`

var constraintFields = map[string]string{
	"internship_applications_email_key": models.FieldEmail,
	"internship_applications_roll_key":  models.FieldUniversityRoll,
}

// PostgresStore persists applications in internship_applications.
type PostgresStore struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed application store.
func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO internship_applications (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`,
		app.ID, app.StudentName, app.FatherName, app.MotherName, app.Gender, app.DateOfBirth, app.Address,
		app.InternshipTopic, app.Course, app.CourseOther, app.CollegeName, app.CollegeNameOther,
		app.HonoursSubject, app.HonoursSubjectOther, app.CurrentSemester, app.ClassRollNo,
		app.UniversityName, app.UniversityRollNumber, app.UniversityRegistrationNumber,
		app.ContactNumber, app.WhatsappNumber, app.EmailAddress, app.Photo, app.Signature,
		app.DeclarationAccepted, app.IPAddress, app.CreatedAt,
	)
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok {
			field, known := constraintFields[constraint]
			if !known {
				field = constraint
			}
			return fmt.Errorf("insert application: %w", sentinel.Conflict(field))
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return s.findOne(ctx, "id", id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Application, error) {
	return s.findOne(ctx, "email_address", email)
}

func (s *PostgresStore) FindByRollNumber(ctx context.Context, roll string) (*models.Application, error) {
	return s.findOne(ctx, "university_roll_number", roll)
}

// findOne looks up by a fixed, internal column name.
func (s *PostgresStore) findOne(ctx context.Context, column string, value any) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM internship_applications WHERE `+column+` = $1`, value)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application by %s: %w", column, err)
	}
	return app, nil
}

func (s *PostgresStore) ListNewestFirst(ctx context.Context) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM internship_applications ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var app models.Application
	err := row.Scan(
		&app.ID, &app.StudentName, &app.FatherName, &app.MotherName, &app.Gender, &app.DateOfBirth, &app.Address,
		&app.InternshipTopic, &app.Course, &app.CourseOther, &app.CollegeName, &app.CollegeNameOther,
		&app.HonoursSubject, &app.HonoursSubjectOther, &app.CurrentSemester, &app.ClassRollNo,
		&app.UniversityName, &app.UniversityRollNumber, &app.UniversityRegistrationNumber,
		&app.ContactNumber, &app.WhatsappNumber, &app.EmailAddress, &app.Photo, &app.Signature,
		&app.DeclarationAccepted, &app.IPAddress, &app.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}
