package options

import (
	"fmt"
	"strconv"
	"strings"
)

type CamOptions struct {
	Device      *string // Capture device, e.g. /dev/video0 or an avfoundation index. Empty picks the OS default.
	Format      *string // ffmpeg demuxer overriding the OS default (v4l2, avfoundation, dshow).
	InputFile   *string // Video file decoded in real time instead of a camera.
	Image       *string // PNG or JPEG shown instead of a camera.
	Width       *int    // Window width. 0 uses the frame width.
	Height      *int    // Window height. 0 uses the frame height.
	Effect      *string // Effect selected at startup. Empty uses the declared default.
	EffectsFile *string // TOML effect declarations replacing the built-in ones.
	ShaderDir   *string // Directory searched for shader units before the built-in ones.
	ClearColor  *string // "r,g,b,a" in 0..1.
	FFMPEGPath  *string
	Translate   *bool // Translate shaders with ANGLE before compiling.
	Verbose     *bool
	Help        *bool
}

// ParseColor parses "r,g,b" or "r,g,b,a" with components in [0, 1].
func ParseColor(s string) ([4]float32, error) {
	c := [4]float32{0, 0, 0, 1}
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return c, fmt.Errorf("invalid color %q: want r,g,b or r,g,b,a", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return c, fmt.Errorf("invalid color %q: %w", s, err)
		}
		if v < 0 || v > 1 {
			return c, fmt.Errorf("invalid color %q: component %d out of range", s, i)
		}
		c[i] = float32(v)
	}
	return c, nil
}
