package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"intake/internal/certificate/models"
	"intake/internal/platform/sqlite"
	"intake/pkg/platform/sentinel"
)

type certificateRow struct {
	ID             string `gorm:"primaryKey;size:36"`
	ApplicationID  string `gorm:"not null;size:36;uniqueIndex"`
	SerialNumber   string `gorm:"not null;uniqueIndex"`
	IssueYear      int    `gorm:"not null;index"`
	Sequence       int    `gorm:"not null"`
	RTSRegNumber   string `gorm:"not null"`
	Marks          int    `gorm:"not null"`
	Grade          string `gorm:"not null"`
	GradePoint     int    `gorm:"not null"`
	StartDate      string `gorm:"not null"`
	EndDate        string `gorm:"not null"`
	DurationDays   int    `gorm:"not null"`
	CertificateURL string
	IssuedAt       time.Time
}

func (certificateRow) TableName() string { return "certificates" }

// Store persists certificates through gorm on SQLite.
type Store struct {
	db     *gorm.DB
	prefix string
}

// New migrates the certificates table and returns the store.
func New(db *gorm.DB, serialPrefix string) (*Store, error) {
	if err := db.AutoMigrate(&certificateRow{}); err != nil {
		return nil, fmt.Errorf("migrate certificates: %w", err)
	}
	return &Store{db: db, prefix: serialPrefix}, nil
}

// Create allocates the next serial for the issue year and inserts cert in one transaction.
func (s *Store) Create(ctx context.Context, cert *models.Certificate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		err := tx.Model(&certificateRow{}).
			Where("issue_year = ?", cert.IssuedAt.Year()).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&last).Error
		if err != nil {
			return fmt.Errorf("read certificate sequence: %w", err)
		}
		cert.AssignSerial(s.prefix, last+1)

		row := toRow(cert)
		if err := tx.Create(&row).Error; err != nil {
			if column, ok := sqlite.UniqueViolation(err); ok {
				return fmt.Errorf("insert certificate: %w", sentinel.Conflict(column))
			}
			return fmt.Errorf("insert certificate: %w", err)
		}
		return nil
	})
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	return s.first(ctx, "id = ?", id.String())
}

func (s *Store) FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*models.Certificate, error) {
	return s.first(ctx, "application_id = ?", applicationID.String())
}

func (s *Store) first(ctx context.Context, query string, arg any) (*models.Certificate, error) {
	var row certificateRow
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return fromRow(&row)
}

func (s *Store) UpdateURL(ctx context.Context, id uuid.UUID, url string) error {
	res := s.db.WithContext(ctx).Model(&certificateRow{}).
		Where("id = ?", id.String()).
		Update("certificate_url", url)
	if res.Error != nil {
		return fmt.Errorf("update certificate url: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func toRow(c *models.Certificate) certificateRow {
	return certificateRow{
		ID:             c.ID.String(),
		ApplicationID:  c.ApplicationID.String(),
		SerialNumber:   c.SerialNumber,
		IssueYear:      c.IssueYear,
		Sequence:       c.Sequence,
		RTSRegNumber:   c.RTSRegNumber,
		Marks:          c.Marks,
		Grade:          c.Grade,
		GradePoint:     c.GradePoint,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		DurationDays:   c.DurationDays,
		CertificateURL: c.CertificateURL,
		IssuedAt:       c.IssuedAt,
	}
}

func fromRow(r *certificateRow) (*models.Certificate, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse certificate id: %w", err)
	}
	appID, err := uuid.Parse(r.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("parse application id: %w", err)
	}
	return &models.Certificate{
		ID:             id,
		ApplicationID:  appID,
		SerialNumber:   r.SerialNumber,
		IssueYear:      r.IssueYear,
		Sequence:       r.Sequence,
		RTSRegNumber:   r.RTSRegNumber,
		Marks:          r.Marks,
		Grade:          r.Grade,
		GradePoint:     r.GradePoint,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		DurationDays:   r.DurationDays,
		CertificateURL: r.CertificateURL,
		IssuedAt:       r.IssuedAt,
	}, nil
}
