package models

import "strings"

// SubmitRequest is the public application form body.
// Structural rules live in validate tags; label names the field in error messages.
type SubmitRequest struct {
	StudentName     string `json:"studentName" label:"Student Name" validate:"required,max=100"`
	FatherName      string `json:"fatherName" label:"Father's Name" validate:"required,max=100"`
	MotherName      string `json:"motherName" label:"Mother's Name" validate:"required,max=100"`
	Gender          string `json:"gender" label:"Gender" validate:"required"`
	DateOfBirth     string `json:"dateOfBirth" label:"Date of Birth" validate:"required"`
	Address         string `json:"address" label:"Address" validate:"required,max=500"`
	InternshipTopic string `json:"internshipTopic" label:"Internship Topic" validate:"required"`
	Course          string `json:"course" label:"Course" validate:"required"`
	CourseOther     string `json:"courseOther" label:"Other Course" validate:"max=100"`
	CollegeName     string `json:"collegeName" label:"College Name" validate:"required"`
	CollegeOther    string `json:"collegeNameOther" label:"Other College Name" validate:"max=100"`
	HonoursSubject  string `json:"honoursSubject" label:"Honours Subject" validate:"required"`
	HonoursOther    string `json:"honoursSubjectOther" label:"Other Honours Subject" validate:"max=100"`
	CurrentSemester string `json:"currentSemester" label:"Current Semester" validate:"required"`
	ClassRollNo     string `json:"classRollNo" label:"Class Roll No" validate:"required,max=50"`
	UniversityName  string `json:"universityName" label:"University Name" validate:"max=150"`
	UniversityRoll  string `json:"universityRollNumber" label:"University Roll Number" validate:"required,max=50"`
	UniversityReg   string `json:"universityRegistrationNumber" label:"University Registration Number" validate:"required,max=50"`
	ContactNumber   string `json:"contactNumber" label:"Contact Number" validate:"required"`
	WhatsappNumber  string `json:"whatsappNumber" label:"WhatsApp Number"`
	EmailAddress    string `json:"emailAddress" label:"Email Address" validate:"required,max=254"`

	Photo     string `json:"photo,omitempty"`
	Signature string `json:"signature,omitempty"`

	DeclarationAccepted bool `json:"declarationAccepted"`

	// Website is the honeypot. Humans never see it.
	Website        string `json:"website"`
	TurnstileToken string `json:"turnstileToken"`
	FormToken      string `json:"formToken"`
}

// Normalize trims every text field and lower-cases the email.
func (r *SubmitRequest) Normalize() {
	for _, f := range []*string{
		&r.StudentName, &r.FatherName, &r.MotherName, &r.Gender, &r.DateOfBirth,
		&r.Address, &r.InternshipTopic, &r.Course, &r.CourseOther, &r.CollegeName,
		&r.CollegeOther, &r.HonoursSubject, &r.HonoursOther, &r.CurrentSemester,
		&r.ClassRollNo, &r.UniversityName, &r.UniversityRoll, &r.UniversityReg,
		&r.ContactNumber, &r.WhatsappNumber, &r.Photo, &r.Signature,
		&r.TurnstileToken, &r.FormToken,
	} {
		*f = strings.TrimSpace(*f)
	}
	r.EmailAddress = strings.ToLower(strings.TrimSpace(r.EmailAddress))
	if r.UniversityName == "" {
		r.UniversityName = DefaultUniversity
	}
}
