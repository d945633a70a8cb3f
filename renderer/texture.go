package renderer

import (
	"fmt"

	"github.com/richinsley/goshadercam/capture"
	"github.com/richinsley/goshadercam/gpu"
)

// FrameTexture is the texture the active effect samples. Its storage is
// allocated once; each upload replaces the contents.
type FrameTexture struct {
	ID     uint32
	width  int
	height int

	staging []byte
	flipped []byte
}

// NewFrameTexture allocates a width x height RGBA8 texture with nearest
// filtering and clamp-to-edge wrapping.
func NewFrameTexture(dev gpu.Device, width, height int) (*FrameTexture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame texture size %dx%d", width, height)
	}
	t := &FrameTexture{
		ID:      dev.GenTexture(),
		width:   width,
		height:  height,
		staging: make([]byte, width*height*4),
		flipped: make([]byte, width*height*4),
	}
	dev.BindTexture(t.ID)
	dev.TexParameters()
	dev.TexImage2D(int32(width), int32(height), nil)
	dev.BindTexture(0)
	return t, nil
}

func (t *FrameTexture) Width() int  { return t.width }
func (t *FrameTexture) Height() int { return t.height }

// Upload copies the source's current frame into the texture, flipped so
// that row 0 of the frame ends up at the top of the quad. It reports false,
// leaving the texture untouched, when the frame does not match the texture
// or the source has nothing to give.
func (t *FrameTexture) Upload(dev gpu.Device, src capture.Source) bool {
	if src.Width() != t.width || src.Height() != t.height {
		return false
	}
	if !src.ReadPixels(t.staging) {
		return false
	}
	vflip(t.flipped, t.staging, t.width*4, t.height)

	dev.BindTexture(t.ID)
	dev.TexSubImage2D(int32(t.width), int32(t.height), t.flipped)
	return true
}

// Dispose deletes the texture.
func (t *FrameTexture) Dispose(dev gpu.Device) {
	dev.DeleteTexture(t.ID)
}

// vflip copies src into dst with the row order reversed.
func vflip(dst, src []byte, rowSize, height int) {
	for y := 0; y < height; y++ {
		srcRow := src[(height-1-y)*rowSize:]
		copy(dst[y*rowSize:(y+1)*rowSize], srcRow[:rowSize])
	}
}
