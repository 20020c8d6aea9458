// Package document lays out the single-page welcome PDF: a title, the
// submitted fields, the optional photo and the identifier QR code.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrImageDecode is returned when an image handed to the assembler cannot be decoded.
	ErrImageDecode = errors.New("image decode failed")
	// ErrSerialization is returned when the page cannot be rendered into PDF
	// bytes, including text the core font cannot represent.
	ErrSerialization = errors.New("document serialization failed")
)

// DefaultMaxPhotoPixels bounds width*height of an accepted photo.
const DefaultMaxPhotoPixels = 24_000_000

// Fields are the text values printed on the page, already in display form.
type Fields struct {
	Name     string
	Age      string
	Semester string
	Roll     string
	Email    string
}

// Lines returns the labelled field lines in the order they appear on the page.
func (f Fields) Lines() []string {
	return []string{
		"Name: " + f.Name,
		"Age: " + f.Age,
		"Semester: " + f.Semester,
		"Roll: " + f.Roll,
		"Email: " + f.Email,
	}
}

// Page geometry in points, bottom-left origin like the PDF coordinate space.
const (
	PageWidth  = 400.0
	PageHeight = 600.0

	Title         = "CSIT Welcome Program"
	titleX        = 150.0
	titleY        = 550.0
	titleFontSize = 20.0

	lineX        = 50.0
	firstLineY   = 500.0
	lineSpacing  = 30.0
	lineFontSize = 14.0

	imageSize = 100.0
	imageY    = 250.0
	photoX    = 50.0
	codeX     = 200.0

	creator = "welcomepdf"
)

// Rect is an image placement in bottom-left page coordinates.
type Rect struct {
	X, Y, W, H float64
}

// PhotoRect is where the submitted photo is drawn.
var PhotoRect = Rect{X: photoX, Y: imageY, W: imageSize, H: imageSize}

// CodeRect is where the QR code is drawn, with or without a photo.
var CodeRect = Rect{X: codeX, Y: imageY, W: imageSize, H: imageSize}

// Options tune serialization.
type Options struct {
	// Compress flate-encodes page content streams.
	Compress bool
	// MaxPhotoPixels rejects photos whose header declares more pixels.
	// Zero means DefaultMaxPhotoPixels.
	MaxPhotoPixels int
}

// Assembler composes welcome documents. It holds no per-request state and is
// safe for concurrent use.
type Assembler struct {
	opts Options
}

// NewAssembler creates an assembler.
func NewAssembler(opts Options) *Assembler {
	if opts.MaxPhotoPixels <= 0 {
		opts.MaxPhotoPixels = DefaultMaxPhotoPixels
	}
	return &Assembler{opts: opts}
}

// Assemble renders fields, the PNG code image and, when non-empty, the JPEG
// photo onto a single 400x600 page and returns the serialized PDF. Any failure
// aborts the whole document.
func (a *Assembler) Assemble(fields Fields, codeImage, photo []byte) ([]byte, error) {
	if _, err := png.DecodeConfig(bytes.NewReader(codeImage)); err != nil {
		return nil, fmt.Errorf("%w: code image: %v", ErrImageDecode, err)
	}
	if len(photo) > 0 {
		if err := a.checkPhoto(photo); err != nil {
			return nil, err
		}
	}

	title, err := winAnsi(Title)
	if err != nil {
		return nil, err
	}
	lines := fields.Lines()
	for i, line := range lines {
		if lines[i], err = winAnsi(line); err != nil {
			return nil, err
		}
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetCompression(a.opts.Compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle(Title, true)
	pdf.SetCreator(creator, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "", titleFontSize)
	pdf.SetTextColor(0, 0, 179)
	pdf.Text(titleX, top(titleY), title)

	pdf.SetFont("Helvetica", "", lineFontSize)
	pdf.SetTextColor(0, 0, 0)
	for i, line := range lines {
		pdf.Text(lineX, top(firstLineY-float64(i)*lineSpacing), line)
	}

	if len(photo) > 0 {
		if err := drawImage(pdf, "photo", "JPG", photo, PhotoRect); err != nil {
			return nil, fmt.Errorf("%w: photo: %v", ErrImageDecode, err)
		}
	}
	if err := drawImage(pdf, "code", "PNG", codeImage, CodeRect); err != nil {
		return nil, fmt.Errorf("%w: code image: %v", ErrImageDecode, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

// checkPhoto reads the JPEG header first so a small file declaring huge
// dimensions is refused before any pixel buffer is allocated.
func (a *Assembler) checkPhoto(photo []byte) error {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(photo))
	if err != nil {
		return fmt.Errorf("%w: photo: %v", ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > a.opts.MaxPhotoPixels {
		return fmt.Errorf("%w: photo: %dx%d exceeds %d pixels", ErrImageDecode, cfg.Width, cfg.Height, a.opts.MaxPhotoPixels)
	}
	if _, err := jpeg.Decode(bytes.NewReader(photo)); err != nil {
		return fmt.Errorf("%w: photo: %v", ErrImageDecode, err)
	}
	return nil
}

// winAnsi encodes s for the Helvetica core font. Characters outside
// Windows-1252 fail instead of being replaced.
func winAnsi(s string) (string, error) {
	out, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("%w: text %q: %v", ErrSerialization, s, err)
	}
	return out, nil
}

func drawImage(pdf *fpdf.Fpdf, name, kind string, data []byte, r Rect) error {
	opts := fpdf.ImageOptions{ImageType: kind}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() {
		return pdf.Error()
	}
	// fpdf places images by their top-left corner.
	pdf.ImageOptions(name, r.X, top(r.Y+r.H), r.W, r.H, false, opts, 0, "")
	return pdf.Error()
}

// top converts a bottom-left y coordinate into fpdf's top-left space.
func top(y float64) float64 {
	return PageHeight - y
}
