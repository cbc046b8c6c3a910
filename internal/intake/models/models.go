package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OtherOption is the dropdown sentinel that unlocks a free-text field.
const OtherOption = "Other"

// DefaultUniversity is stored when the form omits the university name.
const DefaultUniversity = "Patliputra University"

// Application is a persisted internship application.
type Application struct {
	ID                           uuid.UUID `json:"id"`
	StudentName                  string    `json:"student_name"`
	FatherName                   string    `json:"father_name"`
	MotherName                   string    `json:"mother_name"`
	Gender                       string    `json:"gender"`
	DateOfBirth                  string    `json:"date_of_birth"`
	Address                      string    `json:"address"`
	InternshipTopic              string    `json:"internship_topic"`
	Course                       string    `json:"course"`
	CourseOther                  string    `json:"course_other,omitempty"`
	CollegeName                  string    `json:"college_name"`
	CollegeNameOther             string    `json:"college_name_other,omitempty"`
	HonoursSubject               string    `json:"honours_subject"`
	HonoursSubjectOther          string    `json:"honours_subject_other,omitempty"`
	CurrentSemester              string    `json:"current_semester"`
	ClassRollNo                  string    `json:"class_roll_no"`
	UniversityName               string    `json:"university_name"`
	UniversityRollNumber         string    `json:"university_roll_number"`
	UniversityRegistrationNumber string    `json:"university_registration_number"`
	ContactNumber                string    `json:"contact_number"`
	WhatsappNumber               string    `json:"whatsapp_number,omitempty"`
	EmailAddress                 string    `json:"email_address"`
	// Photo and Signature hold a public URL or, when upload failed, the inline data URL.
	Photo               string    `json:"photo,omitempty"`
	Signature           string    `json:"signature,omitempty"`
	DeclarationAccepted bool      `json:"declaration_accepted"`
	IPAddress           string    `json:"ip_address,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// CollegeDisplay returns the free-text college when "Other" was selected.
func (a *Application) CollegeDisplay() string {
	if a.CollegeName == OtherOption && a.CollegeNameOther != "" {
		return a.CollegeNameOther
	}
	return a.CollegeName
}

// HonoursDisplay returns the free-text honours subject when "Other" was selected.
func (a *Application) HonoursDisplay() string {
	if a.HonoursSubject == OtherOption && a.HonoursSubjectOther != "" {
		return a.HonoursSubjectOther
	}
	return a.HonoursSubject
}

// CourseDisplay returns the free-text course when "Other" was selected.
func (a *Application) CourseDisplay() string {
	if a.Course == OtherOption && a.CourseOther != "" {
		return a.CourseOther
	}
	return a.Course
}

// FirstName is the first word of the student name.
func (a *Application) FirstName() string {
	fields := strings.Fields(a.StudentName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// WithoutIP returns a copy with the submitter IP removed, for public reads.
func (a *Application) WithoutIP() *Application {
	cp := *a
	cp.IPAddress = ""
	return &cp
}

// Unique fields reported by stores on a conflicting insert.
const (
	FieldEmail          = "email_address"
	FieldUniversityRoll = "university_roll_number"
)
