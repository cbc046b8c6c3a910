// Package export renders application data for offline use: a spreadsheet and
// an archive of the uploaded images.
package export

import (
	"bufio"
	"io"
	"strings"
	"time"

	"intake/internal/intake/models"
)

// CSVHeaders lists the export columns in order.
var CSVHeaders = []string{
	"Student Name", "Father Name", "Mother Name", "Gender", "DOB", "Address",
	"Internship Topic", "College", "Honours Subject", "Semester", "Class Roll",
	"University", "Uni Roll No", "Uni Reg No", "Contact", "WhatsApp", "Email",
	"Has Photo", "Has Signature", "Submitted At",
}

// CSVFilename is internship_applications_YYYY-MM-DD.csv.
func CSVFilename(now time.Time) string {
	return "internship_applications_" + now.UTC().Format("2006-01-02") + ".csv"
}

// WriteCSV writes one row per application. Every cell is quoted, which
// encoding/csv cannot be told to do.
func WriteCSV(w io.Writer, apps []*models.Application) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, CSVHeaders)
	for _, a := range apps {
		bw.WriteByte('\n')
		writeRow(bw, []string{
			a.StudentName, a.FatherName, a.MotherName, a.Gender, a.DateOfBirth, a.Address,
			a.InternshipTopic, a.CollegeDisplay(), a.HonoursDisplay(), a.CurrentSemester, a.ClassRollNo,
			a.UniversityName, a.UniversityRollNumber, a.UniversityRegistrationNumber,
			a.ContactNumber, a.WhatsappNumber, a.EmailAddress,
			yesNo(a.Photo != ""), yesNo(a.Signature != ""), a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		w.WriteByte('"')
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
