package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of internship dates.
const DateLayout = "2006-01-02"

// DefaultSerialPrefix opens every serial number unless configured otherwise.
const DefaultSerialPrefix = "RTS"

// FieldApplicationID is reported by stores when an application already has a certificate.
const FieldApplicationID = "application_id"

// Certificate is an issued internship certificate. It is immutable once
// created, apart from backfilling CertificateURL.
type Certificate struct {
	ID             uuid.UUID `json:"id"`
	ApplicationID  uuid.UUID `json:"application_id"`
	SerialNumber   string    `json:"serial_number"`
	IssueYear      int       `json:"issue_year"`
	Sequence       int       `json:"sequence"`
	RTSRegNumber   string    `json:"rts_reg_number"`
	Marks          int       `json:"marks"`
	Grade          string    `json:"grade"`
	GradePoint     int       `json:"grade_point"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	DurationDays   int       `json:"duration_days"`
	CertificateURL string    `json:"certificate_url"`
	IssuedAt       time.Time `json:"issued_at"`
}

// AssignSerial records the allocated per-year sequence and derives the serial number.
func (c *Certificate) AssignSerial(prefix string, sequence int) {
	c.IssueYear = c.IssuedAt.Year()
	c.Sequence = sequence
	c.SerialNumber = FormatSerial(prefix, c.IssueYear, sequence)
}

// FormatSerial renders "{prefix}/{YYYY}/{NNNN}".
func FormatSerial(prefix string, year, sequence int) string {
	if prefix == "" {
		prefix = DefaultSerialPrefix
	}
	return fmt.Sprintf("%s/%d/%04d", prefix, year, sequence)
}

// Grade is a letter grade and its grade point.
type Grade struct {
	Letter string
	Point  int
}

var gradeTable = []struct {
	min   int
	grade Grade
}{
	{90, Grade{"O (Outstanding)", 10}},
	{80, Grade{"A+", 9}},
	{70, Grade{"A", 8}},
	{60, Grade{"B+", 7}},
	{50, Grade{"B", 6}},
	{45, Grade{"C", 5}},
	{40, Grade{"D", 4}},
}

// GradeFor maps marks out of 100 to a grade.
func GradeFor(marks int) Grade {
	for _, row := range gradeTable {
		if marks >= row.min {
			return row.grade
		}
	}
	return Grade{"F (Fail)", 0}
}

// DurationDays counts the days from start to end, both inclusive.
func DurationDays(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours()/24)) + 1
}

// FormatDMY renders a date as DD-MM-YYYY.
func FormatDMY(t time.Time) string {
	return t.Format("02-01-2006")
}

// GenderTokens are the words that agree with the student's gender in the certificate body.
type GenderTokens struct {
	Salutation string
	Relation   string
	Pronoun    string
	Possessive string
}

// TokensFor picks feminine tokens for genders starting with "f", masculine otherwise.
func TokensFor(gender string) GenderTokens {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(gender)), "f") {
		return GenderTokens{Salutation: "Ms.", Relation: "D/o", Pronoun: "her", Possessive: "her"}
	}
	return GenderTokens{Salutation: "Mr.", Relation: "S/o", Pronoun: "him", Possessive: "his"}
}
