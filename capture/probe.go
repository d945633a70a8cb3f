package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DefaultProbeTimeout bounds a single ffprobe run.
const DefaultProbeTimeout = 10 * time.Second

// Demuxer options that change what ffprobe opens, forwarded from the
// capture arguments.
var probeForwarded = []string{"f", "framerate", "video_size", "pixel_format", "input_format"}

type probeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// FFprobePath returns the ffprobe that ships next to ffmpegPath, or
// "ffprobe" from PATH when ffmpegPath is empty.
func FFprobePath(ffmpegPath string) string {
	if ffmpegPath == "" {
		return "ffprobe"
	}
	dir, base := filepath.Split(ffmpegPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if strings.Contains(name, "ffmpeg") {
		name = strings.Replace(name, "ffmpeg", "ffprobe", 1)
	} else {
		name = "ffprobe"
	}
	return filepath.Join(dir, name+ext)
}

func probeArgs(args ffmpeg.KwArgs) ffmpeg.KwArgs {
	out := ffmpeg.KwArgs{
		"show_format":  "",
		"show_streams": "",
		"of":           "json",
	}
	for _, k := range probeForwarded {
		if v, ok := args[k]; ok {
			out[k] = v
		}
	}
	return out
}

// ProbeSize runs ffprobe at path on input with the demuxer options of args
// and returns the size of the first video stream. A stream whose size is not
// known yet reports 0x0 without error. The run is killed when ctx is done or
// after DefaultProbeTimeout.
func ProbeSize(ctx context.Context, path, input string, args ffmpeg.KwArgs) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	argv := append(ffmpeg.ConvertKwargsToCmdLineArgs(probeArgs(args)), input)
	cmd := exec.CommandContext(ctx, path, argv...)
	// a killed script can leave children holding the output pipes
	cmd.WaitDelay = 100 * time.Millisecond
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	for _, option := range ffmpeg.GlobalCommandOptions {
		option(cmd)
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, 0, fmt.Errorf("probe of %s interrupted: %w", input, ctxErr)
		}
		return 0, 0, fmt.Errorf("failed to probe %s: %w: %s", input, err, strings.TrimSpace(stderr.String()))
	}
	return parseProbe(stdout.Bytes())
}

func parseProbe(data []byte) (int, int, error) {
	var res probeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return 0, 0, fmt.Errorf("failed to parse probe output: %w", err)
	}
	for _, s := range res.Streams {
		if s.CodecType == "video" {
			return s.Width, s.Height, nil
		}
	}
	return 0, 0, fmt.Errorf("no video stream found")
}
