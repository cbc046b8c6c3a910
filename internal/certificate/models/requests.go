package models

import (
	"math"
	"strings"
	"time"

	dErrors "intake/pkg/domain-errors"
)

// GenerateRequest issues a certificate for an existing application.
type GenerateRequest struct {
	ApplicationID string   `json:"applicationId"`
	RTSRegNumber  string   `json:"rtsRegNumber"`
	Marks         *float64 `json:"marks"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
}

func (r *GenerateRequest) Normalize() {
	r.ApplicationID = strings.TrimSpace(r.ApplicationID)
	r.RTSRegNumber = strings.TrimSpace(r.RTSRegNumber)
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.EndDate = strings.TrimSpace(r.EndDate)
}

func (r *GenerateRequest) Validate() error {
	if r.ApplicationID == "" {
		return dErrors.New(dErrors.CodeValidation, "applicationId is required")
	}
	_, err := ParseTerms(r.RTSRegNumber, r.Marks, r.StartDate, r.EndDate)
	return err
}

// Terms returns the validated grading inputs.
func (r *GenerateRequest) Terms() (*Terms, error) {
	return ParseTerms(r.RTSRegNumber, r.Marks, r.StartDate, r.EndDate)
}

// ScratchRequest creates an application record and issues its certificate in one step.
type ScratchRequest struct {
	StudentName    string   `json:"studentName"`
	FatherName     string   `json:"fatherName"`
	MotherName     string   `json:"motherName"`
	Gender         string   `json:"gender"`
	DateOfBirth    string   `json:"dob"`
	Address        string   `json:"address"`
	Contact        string   `json:"contact"`
	Email          string   `json:"email"`
	Course         string   `json:"course"`
	College        string   `json:"college"`
	HonoursSubject string   `json:"honoursSubject"`
	Semester       string   `json:"semester"`
	RollNo         string   `json:"rollNo"`
	RegNo          string   `json:"regNo"`
	ClassRoll      string   `json:"classRoll"`
	Topic          string   `json:"topic"`
	Photo          string   `json:"photo"`
	RTSRegNumber   string   `json:"rtsRegNumber"`
	Marks          *float64 `json:"marks"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
}

// Scratch record defaults for fields the admin form does not collect.
const (
	DefaultGender      = "Male"
	DefaultPlaceholder = "N/A"
	DefaultDateOfBirth = "2000-01-01"
)

func (r *ScratchRequest) Normalize() {
	for _, f := range []*string{
		&r.StudentName, &r.FatherName, &r.MotherName, &r.Gender, &r.DateOfBirth,
		&r.Address, &r.Contact, &r.Email, &r.Course, &r.College, &r.HonoursSubject,
		&r.Semester, &r.RollNo, &r.RegNo, &r.ClassRoll, &r.Topic, &r.Photo,
		&r.RTSRegNumber, &r.StartDate, &r.EndDate,
	} {
		*f = strings.TrimSpace(*f)
	}
	r.Email = strings.ToLower(r.Email)
	if r.Gender == "" {
		r.Gender = DefaultGender
	}
}

func (r *ScratchRequest) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"studentName", r.StudentName},
		{"fatherName", r.FatherName},
		{"course", r.Course},
		{"college", r.College},
		{"semester", r.Semester},
		{"rollNo", r.RollNo},
		{"regNo", r.RegNo},
		{"classRoll", r.ClassRoll},
		{"topic", r.Topic},
		{"rtsRegNumber", r.RTSRegNumber},
		{"startDate", r.StartDate},
		{"endDate", r.EndDate},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "Missing required fields: "+strings.Join(missing, ", "))
	}
	_, err := ParseTerms(r.RTSRegNumber, r.Marks, r.StartDate, r.EndDate)
	return err
}

// Terms returns the validated grading inputs.
func (r *ScratchRequest) Terms() (*Terms, error) {
	return ParseTerms(r.RTSRegNumber, r.Marks, r.StartDate, r.EndDate)
}

// Terms are the validated inputs shared by both issue flows.
type Terms struct {
	RTSRegNumber string
	Marks        int
	Start        time.Time
	End          time.Time
}

// ParseTerms checks the registration number, marks and internship period.
func ParseTerms(rtsRegNumber string, marks *float64, startDate, endDate string) (*Terms, error) {
	rtsRegNumber = strings.TrimSpace(rtsRegNumber)
	if rtsRegNumber == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rtsRegNumber is required")
	}
	if marks == nil || *marks != math.Trunc(*marks) || *marks < 0 || *marks > 100 {
		return nil, dErrors.New(dErrors.CodeValidation, "marks must be an integer between 0 and 100")
	}
	if startDate == "" || endDate == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "startDate and endDate are required")
	}
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "startDate and endDate must be dates in YYYY-MM-DD format")
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "startDate and endDate must be dates in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return nil, dErrors.New(dErrors.CodeValidation, "endDate must not be before startDate")
	}
	return &Terms{
		RTSRegNumber: rtsRegNumber,
		Marks:        int(*marks),
		Start:        start,
		End:          end,
	}, nil
}
