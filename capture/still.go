package capture

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	// Blank imports for image decoders so image.Decode can handle them.
	_ "image/jpeg"
	_ "image/png"
)

// Still is a Source that always serves the same picture.
type Still struct {
	rgba *image.RGBA
}

// NewStill converts img to RGBA8.
func NewStill(img image.Image) (*Still, error) {
	if img == nil {
		return nil, fmt.Errorf("still image is nil")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("still image has no pixels")
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &Still{rgba: rgba}, nil
}

// LoadStill decodes a PNG or JPEG file.
func LoadStill(path string) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &AcquisitionError{Input: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &AcquisitionError{Input: path, Err: fmt.Errorf("failed to decode image: %w", err)}
	}
	return NewStill(img)
}

func (s *Still) Width() int  { return s.rgba.Rect.Dx() }
func (s *Still) Height() int { return s.rgba.Rect.Dy() }
func (s *Still) Ready() bool { return true }

func (s *Still) ReadPixels(dst []byte) bool {
	if len(dst) != len(s.rgba.Pix) {
		return false
	}
	copy(dst, s.rgba.Pix)
	return true
}
