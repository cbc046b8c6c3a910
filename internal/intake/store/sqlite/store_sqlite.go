package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"intake/internal/intake/models"
	"intake/internal/platform/sqlite"
	"intake/pkg/platform/sentinel"
)

// applicationRow is the gorm mapping of internship_applications.
type applicationRow struct {
	ID                           string `gorm:"primaryKey;size:36"`
	StudentName                  string `gorm:"not null"`
	FatherName                   string `gorm:"not null"`
	MotherName                   string `gorm:"not null"`
	Gender                       string `gorm:"not null"`
	DateOfBirth                  string `gorm:"not null"`
	Address                      string `gorm:"not null"`
	InternshipTopic              string `gorm:"not null"`
	Course                       string `gorm:"not null"`
	CourseOther                  string
	CollegeName                  string `gorm:"not null"`
	CollegeNameOther             string
	HonoursSubject               string `gorm:"not null"`
	HonoursSubjectOther          string
	CurrentSemester              string `gorm:"not null"`
	ClassRollNo                  string `gorm:"not null"`
	UniversityName               string `gorm:"not null"`
	UniversityRollNumber         string `gorm:"not null;uniqueIndex"`
	UniversityRegistrationNumber string `gorm:"not null"`
	ContactNumber                string `gorm:"not null"`
	WhatsappNumber               string
	EmailAddress                 string `gorm:"not null;uniqueIndex"`
	Photo                        string
	Signature                    string
	DeclarationAccepted          bool
	IPAddress                    string
	CreatedAt                    time.Time `gorm:"index"`
}

func (applicationRow) TableName() string { return "internship_applications" }

// Store persists applications through gorm on SQLite.
type Store struct {
	db *gorm.DB
}

// New migrates the applications table and returns the store.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&applicationRow{}); err != nil {
		return nil, fmt.Errorf("migrate applications: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Create(ctx context.Context, app *models.Application) error {
	row := toRow(app)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if column, ok := sqlite.UniqueViolation(err); ok {
			return fmt.Errorf("insert application: %w", sentinel.Conflict(column))
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return s.first(ctx, "id = ?", id.String())
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Application, error) {
	return s.first(ctx, "email_address = ?", email)
}

func (s *Store) FindByRollNumber(ctx context.Context, roll string) (*models.Application, error) {
	return s.first(ctx, "university_roll_number = ?", roll)
}

func (s *Store) first(ctx context.Context, query string, arg any) (*models.Application, error) {
	var row applicationRow
	err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return fromRow(row)
}

func (s *Store) ListNewestFirst(ctx context.Context) ([]*models.Application, error) {
	var rows []applicationRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	out := make([]*models.Application, 0, len(rows))
	for _, row := range rows {
		app, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}

func toRow(app *models.Application) applicationRow {
	return applicationRow{
		ID:                           app.ID.String(),
		StudentName:                  app.StudentName,
		FatherName:                   app.FatherName,
		MotherName:                   app.MotherName,
		Gender:                       app.Gender,
		DateOfBirth:                  app.DateOfBirth,
		Address:                      app.Address,
		InternshipTopic:              app.InternshipTopic,
		Course:                       app.Course,
		CourseOther:                  app.CourseOther,
		CollegeName:                  app.CollegeName,
		CollegeNameOther:             app.CollegeNameOther,
		HonoursSubject:               app.HonoursSubject,
		HonoursSubjectOther:          app.HonoursSubjectOther,
		CurrentSemester:              app.CurrentSemester,
		ClassRollNo:                  app.ClassRollNo,
		UniversityName:               app.UniversityName,
		UniversityRollNumber:         app.UniversityRollNumber,
		UniversityRegistrationNumber: app.UniversityRegistrationNumber,
		ContactNumber:                app.ContactNumber,
		WhatsappNumber:               app.WhatsappNumber,
		EmailAddress:                 app.EmailAddress,
		Photo:                        app.Photo,
		Signature:                    app.Signature,
		DeclarationAccepted:          app.DeclarationAccepted,
		IPAddress:                    app.IPAddress,
		CreatedAt:                    app.CreatedAt,
	}
}

func fromRow(row applicationRow) (*models.Application, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("parse application id: %w", err)
	}
	return &models.Application{
		ID:                           id,
		StudentName:                  row.StudentName,
		FatherName:                   row.FatherName,
		MotherName:                   row.MotherName,
		Gender:                       row.Gender,
		DateOfBirth:                  row.DateOfBirth,
		Address:                      row.Address,
		InternshipTopic:              row.InternshipTopic,
		Course:                       row.Course,
		CourseOther:                  row.CourseOther,
		CollegeName:                  row.CollegeName,
		CollegeNameOther:             row.CollegeNameOther,
		HonoursSubject:               row.HonoursSubject,
		HonoursSubjectOther:          row.HonoursSubjectOther,
		CurrentSemester:              row.CurrentSemester,
		ClassRollNo:                  row.ClassRollNo,
		UniversityName:               row.UniversityName,
		UniversityRollNumber:         row.UniversityRollNumber,
		UniversityRegistrationNumber: row.UniversityRegistrationNumber,
		ContactNumber:                row.ContactNumber,
		WhatsappNumber:               row.WhatsappNumber,
		EmailAddress:                 row.EmailAddress,
		Photo:                        row.Photo,
		Signature:                    row.Signature,
		DeclarationAccepted:          row.DeclarationAccepted,
		IPAddress:                    row.IPAddress,
		CreatedAt:                    row.CreatedAt,
	}, nil
}
