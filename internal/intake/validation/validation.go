// Package validation checks a submitted application and reports the first
// failing field.
package validation

import (
	"math"
	"regexp"
	"strings"
	"time"

	"intake/internal/intake/models"
	"intake/internal/objectstore"
	dErrors "intake/pkg/domain-errors"
)

const (
	MaxPhotoBytes     = 250 * 1024
	MaxSignatureBytes = 150 * 1024

	minAge = 16
	maxAge = 60
)

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(viagra|cialis|casino|lottery|winner|prize|claim|urgent|bitcoin|crypto)\b`),
	regexp.MustCompile(`(?i)\b(click here|buy now|limited offer|act now|free money)\b`),
	regexp.MustCompile(`(?i)https?://\S+`),
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
}

// Validate runs every check in order and fails on the first problem.
// The request must already be normalized.
func Validate(req *models.SubmitRequest, now time.Time) error {
	if req.Website != "" {
		return invalid("Invalid submission")
	}

	if err := validate.Struct(req); err != nil {
		return invalid(firstFieldMessage(err))
	}

	if msg := checkOtherFields(req); msg != "" {
		return invalid(msg)
	}

	for _, dd := range []struct {
		value, tag, label string
	}{
		{req.Gender, "gender", "gender"},
		{req.InternshipTopic, "topic", "internship topic"},
		{req.Course, "course", "course"},
		{req.CollegeName, "college", "college"},
		{req.HonoursSubject, "honours", "honours subject"},
		{req.CurrentSemester, "semester", "semester"},
	} {
		if validate.Var(dd.value, dd.tag) != nil {
			return invalid("Invalid " + dd.label + " selected")
		}
	}

	if validate.Var(req.EmailAddress, "strict_email") != nil {
		return invalid("Invalid email address")
	}
	if IsDisposableEmail(req.EmailAddress) {
		return invalid("Disposable email addresses are not allowed. Please use a permanent email.")
	}

	if validate.Var(req.ContactNumber, "phone10") != nil {
		return invalid("Contact number must be 10 digits")
	}
	if req.WhatsappNumber != "" && validate.Var(req.WhatsappNumber, "phone10") != nil {
		return invalid("WhatsApp number must be 10 digits")
	}

	if msg := checkDateOfBirth(req.DateOfBirth, now); msg != "" {
		return invalid(msg)
	}

	if !req.DeclarationAccepted {
		return invalid("Please accept the declaration")
	}

	for _, f := range []struct{ label, value string }{
		{"Student Name", req.StudentName},
		{"Father's Name", req.FatherName},
		{"Mother's Name", req.MotherName},
		{"Address", req.Address},
	} {
		if ContainsSpam(f.value) {
			return invalid("Invalid content detected in " + f.label)
		}
	}

	if req.Photo != "" && !objectstore.IsDataURL(req.Photo) {
		return invalid("Invalid photo format")
	}
	if req.Signature != "" && !objectstore.IsDataURL(req.Signature) {
		return invalid("Invalid signature format")
	}
	if DecodedSize(req.Photo) > MaxPhotoBytes {
		return invalid("Photo must be 250KB or smaller")
	}
	if DecodedSize(req.Signature) > MaxSignatureBytes {
		return invalid("Signature must be 150KB or smaller")
	}
	return nil
}

func invalid(msg string) error {
	return dErrors.New(dErrors.CodeValidation, msg)
}

func checkOtherFields(req *models.SubmitRequest) string {
	switch {
	case req.CollegeName == models.OtherOption && req.CollegeOther == "":
		return "Please specify your college name"
	case req.HonoursSubject == models.OtherOption && req.HonoursOther == "":
		return "Please specify your honours subject"
	case req.Course == models.OtherOption && req.CourseOther == "":
		return "Please specify your course"
	}
	return ""
}

func checkDateOfBirth(value string, now time.Time) string {
	dob, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return "Invalid date of birth"
	}
	age := Age(dob, now)
	if age < minAge || age > maxAge {
		return "Age must be between 16 and 60 years"
	}
	return ""
}

// Age is whole years elapsed, using 365.25-day years.
func Age(dob, now time.Time) int {
	years := now.Sub(dob).Hours() / (365.25 * 24)
	return int(math.Floor(years))
}

// ContainsSpam reports whether text matches any spam or injection pattern.
func ContainsSpam(text string) bool {
	if text == "" {
		return false
	}
	for _, p := range spamPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// DecodedSize estimates the byte size of a base64 payload, ignoring any data URL prefix.
func DecodedSize(encoded string) int {
	if encoded == "" {
		return 0
	}
	if _, after, found := strings.Cut(encoded, ","); found && after != "" {
		encoded = after
	}
	padding := len(encoded) - len(strings.TrimRight(encoded, "="))
	return len(encoded)*3/4 - padding
}
