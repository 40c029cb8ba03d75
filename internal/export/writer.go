// Package export writes rendered frames to disk as a numbered PNG
// sequence and draws the text overlay (title, frame counter, trigger
// confidence) on top of each frame.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// overlayColor is the phosphor green the scope UI uses everywhere.
var overlayColor = color.RGBA{R: 51, G: 255, B: 119, A: 255}

// Writer writes one PNG per frame into a directory, named 000000.png,
// 000001.png and so on, the layout frame-sequence encoders expect.
type Writer struct {
	dir   string
	title string
	face  font.Face
}

// NewWriter creates the output directory and loads the overlay font.
// With an empty fontPath the fixed 7x13 face is used instead.
func NewWriter(dir, title, fontPath string, fontSize float64) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	face := font.Face(basicfont.Face7x13)
	if fontPath != "" {
		loaded, err := LoadFont(fontPath, fontSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load font: %w", err)
		}
		face = loaded
	}

	return &Writer{dir: dir, title: title, face: face}, nil
}

// LoadFont loads a TrueType font face at the given point size.
func LoadFont(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, err
	}

	f, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, err
	}

	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// WriteFrame overlays the frame's text and writes it as PNG number n.
func (w *Writer) WriteFrame(n int64, img *image.RGBA, confidences []float32) error {
	w.drawOverlay(img, n, confidences)

	path := w.FramePath(n)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode frame %d: %w", n, err)
	}
	return f.Close()
}

// FramePath returns the file path frame n is written to.
func (w *Writer) FramePath(n int64) string {
	return filepath.Join(w.dir, fmt.Sprintf("%06d.png", n))
}

func (w *Writer) drawOverlay(img *image.RGBA, n int64, confidences []float32) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(overlayColor),
		Face: w.face,
	}

	metrics := w.face.Metrics()
	lineHeight := metrics.Ascent.Ceil() + metrics.Descent.Ceil()
	margin := 12

	if w.title != "" {
		d.Dot = freetype.Pt(margin, margin+metrics.Ascent.Ceil())
		d.DrawString(w.title)
	}

	status := fmt.Sprintf("frame %06d", n)
	for i, c := range confidences {
		status += fmt.Sprintf("  ch%d %3.0f%%", i, c*100)
	}
	bottom := img.Bounds().Dy() - margin - lineHeight + metrics.Ascent.Ceil()
	d.Dot = freetype.Pt(margin, bottom)
	d.DrawString(status)
}
