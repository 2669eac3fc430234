package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Preview placement on a landscape A4 page, in points.
const (
	ImageX      = 40.0
	ImageY      = 40.0
	ImageWidth  = 500.0
	ImageHeight = 300.0
)

// WritePDF writes a single-page landscape A4 document with img placed at
// (ImageX, ImageY) sized ImageWidth x ImageHeight.
func WritePDF(w io.Writer, title string, img image.Image, created time.Time) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}

	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetCreator("designmate", false)
	pdf.SetTitle(title, true)
	if !created.IsZero() {
		pdf.SetCreationDate(created)
	}
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("preview", opt, &buf)
	pdf.ImageOptions("preview", ImageX, ImageY, ImageWidth, ImageHeight, false, opt, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// FileName is the download name for a design: "<name>.pdf", or "design.pdf"
// when the name is blank. Path separators are replaced.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "design.pdf"
	}
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	return name + ".pdf"
}
