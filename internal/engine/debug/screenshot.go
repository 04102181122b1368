// Package debug provides frame capture for the viewer.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const timestampFormat = "2006-01-02_15-04-05"

// Format is an image encoding for captures.
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ParseFormat maps a config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPNG, FormatBMP, FormatTIFF:
		return f, nil
	case "":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unknown screenshot format %q", s)
	}
}

// Encode writes img to w.
func (f Format) Encode(w io.Writer, img image.Image) error {
	switch f {
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return png.Encode(w, img)
	}
}

// ScreenshotCapture writes frames to files named <prefix>_<timestamp>.<format>.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	format    Format
	now       func() time.Time
}

// NewScreenshotCapture creates a PNG capture handler writing into outputDir.
func NewScreenshotCapture(outputDir, prefix string) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		format:    FormatPNG,
		now:       time.Now,
	}
}

// SetFormat selects the encoding of later captures.
func (sc *ScreenshotCapture) SetFormat(f Format) {
	sc.format = f
}

// SetOutputDir sets the output directory for screenshots.
func (sc *ScreenshotCapture) SetOutputDir(dir string) {
	sc.outputDir = dir
}

// CaptureFromPixels writes RGBA pixels read from OpenGL. Rows are bottom-up,
// so the image is flipped vertically.
func (sc *ScreenshotCapture) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	img, err := FlipRGBA(pixels, width, height)
	if err != nil {
		return "", err
	}
	return sc.CaptureFromImage(img)
}

// CaptureFromImage encodes img and returns the file name.
func (sc *ScreenshotCapture) CaptureFromImage(img image.Image) (string, error) {
	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0o755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := sc.uniqueFilename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := sc.format.Encode(file, img); err != nil {
		file.Close()
		return "", fmt.Errorf("encoding %s: %w", sc.format, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	return filename, nil
}

// GenerateFilename returns the file name a capture taken now would use.
func (sc *ScreenshotCapture) GenerateFilename() string {
	return sc.filename(0)
}

func (sc *ScreenshotCapture) filename(seq int) string {
	stamp := sc.now().Format(timestampFormat)
	name := fmt.Sprintf("%s_%s.%s", sc.prefix, stamp, sc.format)
	if seq > 0 {
		name = fmt.Sprintf("%s_%s_%d.%s", sc.prefix, stamp, seq, sc.format)
	}
	if sc.outputDir != "" {
		name = filepath.Join(sc.outputDir, name)
	}
	return name
}

// uniqueFilename appends a counter when several captures land in the same second.
func (sc *ScreenshotCapture) uniqueFilename() string {
	for seq := 0; ; seq++ {
		name := sc.filename(seq)
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return name
		}
	}
}

// FlipRGBA copies bottom-up RGBA rows into a top-down image.
func FlipRGBA(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}
