// Package capture provides the frames the renderer draws: a live camera or
// video file decoded by ffmpeg, or a still image.
package capture

import "fmt"

// Source is a producer of RGBA8 frames of a fixed size. Row 0 of a frame is
// the top of the picture.
type Source interface {
	Width() int
	Height() int
	// Ready reports whether a complete frame is available.
	Ready() bool
	// ReadPixels copies the latest frame into dst, which must hold
	// Width()*Height()*4 bytes. It reports false when no frame was copied.
	ReadPixels(dst []byte) bool
}

// Stopper is implemented by sources holding an upstream stream.
type Stopper interface {
	Stop() error
}

// AcquisitionError reports that a frame source could not be opened or died
// before delivering a frame.
type AcquisitionError struct {
	Input string
	Err   error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("could not acquire video from %s: %v", e.Input, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// FrameSize returns the byte length of one RGBA8 frame of s.
func FrameSize(s Source) int {
	return s.Width() * s.Height() * 4
}
