// Package document renders the internship certificate PDF.
package document

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"

	"intake/internal/certificate/models"
	intakemodels "intake/internal/intake/models"
	"intake/pkg/platform/qrcode"
)

// Page geometry in millimetres, A4 landscape.
const (
	pageWidth  = 297.0
	pageHeight = 210.0

	bodyCenterX  = 140.0
	bodyMaxWidth = 200.0
	bodyFontSize = 11.0

	qrPixels    = 256
	photoWidth  = 20.0
	photoHeight = 25.0
)

var (
	cream    = color.RGBA{253, 252, 245, 255}
	green    = color.RGBA{20, 100, 40, 255}
	deepRed  = color.RGBA{150, 20, 20, 255}
	ink      = color.RGBA{40, 40, 40, 255}
	muted    = color.RGBA{80, 80, 80, 255}
	faint    = color.RGBA{150, 150, 150, 255}
	caption  = color.RGBA{100, 100, 100, 255}
	sigLines = color.RGBA{60, 60, 60, 255}
)

// Input is everything printed on a certificate.
type Input struct {
	Application *intakemodels.Application
	Certificate *models.Certificate
	// Photo is the raw applicant photo, any format imaging can decode. Optional.
	Photo []byte
	// ViewURL is encoded in the verification QR code.
	ViewURL  string
	IssuedOn time.Time
}

// Render produces the certificate PDF.
func Render(in *Input) ([]byte, error) {
	return render(in, true)
}

func render(in *Input, compress bool) ([]byte, error) {
	if in == nil || in.Application == nil || in.Certificate == nil {
		return nil, fmt.Errorf("render certificate: application and certificate are required")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Internship Certificate "+in.Certificate.SerialNumber, true)
	pdf.AddPage()

	d := &drawer{pdf: pdf}
	d.frame()
	d.header()
	d.body(in.Application, in.Certificate)
	d.grid(in.Application, in.Certificate)

	if len(in.Photo) > 0 {
		// An undecodable photo is left off rather than failing issuance.
		if thumb, err := Thumbnail(in.Photo); err == nil {
			d.photo(thumb)
		}
	}
	if err := d.qr(in.ViewURL); err != nil {
		return nil, err
	}
	d.footer(in.Certificate.SerialNumber, in.IssuedOn)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail normalizes a photo to a passport-ratio JPEG.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	thumb := imaging.Fill(img, 240, 300, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

type drawer struct {
	pdf *fpdf.Fpdf
}

func (d *drawer) fill(c color.RGBA)   { d.pdf.SetFillColor(int(c.R), int(c.G), int(c.B)) }
func (d *drawer) stroke(c color.RGBA) { d.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B)) }
func (d *drawer) text(c color.RGBA)   { d.pdf.SetTextColor(int(c.R), int(c.G), int(c.B)) }

func (d *drawer) right(s string, x, y float64) {
	d.pdf.Text(x-d.pdf.GetStringWidth(s), y, s)
}

func (d *drawer) center(s string, x, y float64) {
	d.pdf.Text(x-d.pdf.GetStringWidth(s)/2, y, s)
}

func (d *drawer) frame() {
	d.fill(cream)
	d.pdf.Rect(0, 0, pageWidth, pageHeight, "F")

	d.stroke(green)
	d.pdf.SetLineWidth(5)
	d.pdf.Rect(8, 8, 281, 194, "D")
	d.pdf.SetLineWidth(1)
	d.pdf.Rect(15, 15, 267, 180, "D")

	d.fill(green)
	for _, corner := range [][2]float64{{14, 14}, {280, 14}, {14, 193}, {280, 193}} {
		d.pdf.Rect(corner[0], corner[1], 3, 3, "F")
	}

	d.pdf.SetFont("Helvetica", "", 7)
	d.text(faint)
	d.pdf.TransformBegin()
	d.pdf.TransformRotate(90, 5, 185)
	d.pdf.Text(5, 185, "To verify genuineness of the certificate please visit on www.rtseducation.in")
	d.pdf.TransformEnd()
}

func (d *drawer) header() {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.text(green)
	d.pdf.Text(18, 26, "PATLIPUTRA UNIVERSITY")
	d.pdf.SetFont("Helvetica", "", 8)
	d.text(muted)
	d.pdf.Text(18, 31, "Patna, Bihar")
	d.pdf.SetFontSize(7)
	d.pdf.Text(18, 35, "www.ppup.ac.in")

	d.pdf.SetFont("Helvetica", "B", 9)
	d.text(green)
	d.right("RAJTECH TECHNOLOGICAL SYSTEM", 278, 24)
	d.right("(PVT.) LTD", 278, 29)
	d.pdf.SetFont("Helvetica", "", 7)
	d.text(muted)
	d.right("Reg. No: U72900BR2023PTC062819", 278, 34)
	d.right("ISO 9001:2015 Certified", 278, 43)

	d.stroke(green)
	d.pdf.SetLineWidth(0.4)
	d.pdf.Line(18, 50, 279, 50)

	d.pdf.SetFont("Times", "I", 32)
	d.text(deepRed)
	d.center("Certificate", pageWidth/2, 64)
	d.pdf.SetLineWidth(0.7)
	d.pdf.Line(116, 67, 181, 67)
}

// Paragraph text marks bold spans with **double asterisks**.
func bodyText(app *intakemodels.Application, cert *models.Certificate) string {
	tok := models.TokensFor(app.Gender)
	var b strings.Builder
	fmt.Fprintf(&b, "This is to certify that %s **%s** ", tok.Salutation, app.StudentName)
	if cert.RTSRegNumber != "" {
		fmt.Fprintf(&b, "Reg. No. **%s** ", cert.RTSRegNumber)
	}
	fmt.Fprintf(&b, "%s %s, student of **%s** at **PATLIPUTRA UNIVERSITY** ", tok.Relation, app.FatherName, app.CurrentSemester)
	fmt.Fprintf(&b, "has interned at our institution for a period of **%d days**. ", cert.DurationDays)
	fmt.Fprintf(&b, "Trained with **%s** for one of our institutions AT **RAJTECH TECHNOLOGICAL SYSTEM PRIVATE LIMITED** ", app.InternshipTopic)
	fmt.Fprintf(&b, "and has achieved the grade **'%s'** in the examination. ", cert.Grade)
	fmt.Fprintf(&b, "During the period of internship **%s** was found to be efficient, hard working and diligent. ", app.FirstName())
	fmt.Fprintf(&b, "We wish %s the very best in all %s future endeavours.", tok.Pronoun, tok.Possessive)
	return b.String()
}

type word struct {
	text  string
	bold  bool
	space bool
	width float64
}

// splitWords breaks emphasis markup into words, remembering which words
// follow whitespace so punctuation stays attached across style changes.
func splitWords(text string) []word {
	var words []word
	trailing := true
	for i, span := range strings.Split(text, "**") {
		if span == "" {
			continue
		}
		bold := i%2 == 1
		lead := trailing || unicode.IsSpace(rune(span[0]))
		for j, f := range strings.Fields(span) {
			words = append(words, word{text: f, bold: bold, space: j > 0 || lead})
		}
		trailing = unicode.IsSpace(rune(span[len(span)-1]))
	}
	return words
}

type line struct {
	words []word
	width float64
}

func (d *drawer) layout(words []word, maxWidth float64) []line {
	spaceWidth := map[bool]float64{}
	for _, bold := range []bool{false, true} {
		d.setBodyFont(bold)
		spaceWidth[bold] = d.pdf.GetStringWidth(" ")
	}

	var lines []line
	var cur line
	for _, w := range words {
		d.setBodyFont(w.bold)
		w.width = d.pdf.GetStringWidth(w.text)
		gap := 0.0
		if w.space && len(cur.words) > 0 {
			gap = spaceWidth[w.bold]
		}
		if len(cur.words) > 0 && cur.width+gap+w.width > maxWidth {
			lines = append(lines, cur)
			cur = line{}
			gap = 0
		}
		if gap > 0 {
			cur.words = append(cur.words, word{text: " ", bold: w.bold, width: gap})
		}
		cur.words = append(cur.words, w)
		cur.width += gap + w.width
	}
	if len(cur.words) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

func (d *drawer) setBodyFont(bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	d.pdf.SetFont("Helvetica", style, bodyFontSize)
}

func (d *drawer) body(app *intakemodels.Application, cert *models.Certificate) {
	d.text(ink)
	y := 74.0
	for _, l := range d.layout(splitWords(bodyText(app, cert)), bodyMaxWidth) {
		x := bodyCenterX - l.width/2
		for _, w := range l.words {
			if w.text != " " {
				d.setBodyFont(w.bold)
				d.pdf.Text(x, y, w.text)
			}
			x += w.width
		}
		y += 6
	}
}

func (d *drawer) grid(app *intakemodels.Application, cert *models.Certificate) {
	const top = 125.0
	d.text(ink)
	d.pdf.SetFont("Helvetica", "", 9.5)
	d.pdf.Text(18, top, "Roll No.:")
	d.pdf.Text(120, top, "Class Roll:")
	d.pdf.Text(18, top+8, "Reg. No. (University):")
	d.pdf.Text(18, top+16, "Marks Obtained:")
	d.pdf.Text(18, top+24, "Internship Period:")

	d.pdf.SetFont("Helvetica", "B", 9.5)
	d.pdf.Text(60, top, app.UniversityRollNumber)
	d.pdf.Text(145, top, app.ClassRollNo)
	d.pdf.Text(60, top+8, app.UniversityRegistrationNumber)
	d.pdf.Text(60, top+16, fmt.Sprintf("%d/100", cert.Marks))
	d.pdf.Text(60, top+24, Period(cert.StartDate, cert.EndDate))
}

// Period renders stored dates as "DD-MM-YYYY to DD-MM-YYYY".
func Period(start, end string) string {
	return dmy(start) + " to " + dmy(end)
}

func dmy(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return models.FormatDMY(t)
}

func (d *drawer) photo(jpeg []byte) {
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	d.pdf.RegisterImageOptionsReader("photo", opts, bytes.NewReader(jpeg))
	d.pdf.ImageOptions("photo", 256, 48, photoWidth, photoHeight, false, opts, 0, "")
	d.stroke(green)
	d.pdf.SetLineWidth(0.5)
	d.pdf.Rect(256, 48, photoWidth, photoHeight, "D")
}

func (d *drawer) qr(viewURL string) error {
	png, err := qrcode.PNG(viewURL, qrPixels)
	if err != nil {
		return fmt.Errorf("render certificate qr: %w", err)
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	d.pdf.ImageOptions("qr", 255, 78, 22, 22, false, opts, 0, "")

	d.pdf.SetFont("Helvetica", "", 7)
	d.text(caption)
	d.center("Scan to verify", 266, 104)
	return nil
}

func (d *drawer) footer(serial string, issuedOn time.Time) {
	d.pdf.SetFont("Helvetica", "", 8)
	d.text(caption)
	d.right("Sl. No. "+serial, 278, 114)

	const bottom = 180.0
	d.pdf.SetFont("Helvetica", "", 10)
	d.text(ink)
	d.pdf.Text(18, bottom+5, "Date of Issue: "+models.FormatDMY(issuedOn))

	d.stroke(sigLines)
	d.pdf.SetLineWidth(0.3)
	d.pdf.SetFontSize(9)
	d.pdf.Line(110, bottom, 180, bottom)
	d.center("Auth. Signatory", 145, bottom+5)
	d.pdf.Line(205, bottom, 275, bottom)
	d.center("Director", 240, bottom+5)
}
