package display

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/ui"
)

// Format is an image file encoding.
type Format string

// Supported encodings.
const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return "", apperrors.NewConfigError("unsupported output extension %q (use .png, .bmp or .tiff)", filepath.Ext(path))
	}
}

// ToImage colours f with p.
func ToImage(f *render.Field, p Palette) *image.RGBA {
	w, h := f.Device.Width, f.Device.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		row := f.Row(y)
		for x, score := range row {
			img.SetRGBA(x, y, p.Color(score))
		}
	}
	return img
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
}

// ImageWriter is a Display that saves each presented field to Path and
// reports to Out.
type ImageWriter struct {
	Path    string
	Format  Format
	Palette Palette
	Out     io.Writer
	Logger  logging.Logger
}

// NewImageWriter returns a writer for path; the format follows its extension.
func NewImageWriter(path string, p Palette, out io.Writer, logger logging.Logger) (*ImageWriter, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &ImageWriter{Path: path, Format: format, Palette: p, Out: out, Logger: logger}, nil
}

// Present implements Display.
func (w *ImageWriter) Present(f *render.Field) error {
	if dir := filepath.Dir(w.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.WrapError(err, "failed to create output directory")
		}
	}
	file, err := os.Create(w.Path)
	if err != nil {
		return apperrors.WrapError(err, "failed to create output file")
	}
	if err := Encode(file, ToImage(f, w.Palette), w.Format); err != nil {
		file.Close()
		return apperrors.WrapError(err, "failed to encode %s", w.Format)
	}
	if err := file.Close(); err != nil {
		return apperrors.WrapError(err, "failed to write output file")
	}

	if w.Logger != nil {
		w.Logger.Info("image written", logging.String("path", w.Path), logging.String("format", string(w.Format)))
	}
	if w.Out != nil {
		fmt.Fprintf(w.Out, "%s✓ Image saved to: %s%s%s\n", ui.ColorGreen(), ui.ColorCyan(), w.Path, ui.ColorReset())
	}
	return nil
}

// PresentError implements Display.
func (w *ImageWriter) PresentError(err error) {
	if w.Logger != nil {
		w.Logger.Error("render failed, no image written", err, logging.String("path", w.Path))
	}
	if w.Out != nil {
		fmt.Fprintf(w.Out, "%s✗ No image written: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
	}
}
