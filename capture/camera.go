package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"runtime"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// CameraConfig selects what ffmpeg decodes.
type CameraConfig struct {
	// Device is the capture device (for example /dev/video0 or an
	// avfoundation index). Ignored when File is set.
	Device string
	// Format overrides the platform's capture demuxer.
	Format string
	// File decodes a video file in real time and loops it.
	File string
	// FFmpegPath overrides the ffmpeg binary. The ffprobe used to size the
	// stream is looked up next to it.
	FFmpegPath string
	// Width and Height skip size probing when both are positive.
	Width, Height int
	// Verbose forwards ffmpeg's diagnostics to stdout.
	Verbose bool
	// OnError is called at most once, from the reader goroutine, when the
	// stream fails.
	OnError func(error)
}

// DefaultDevice returns the usual first camera for the current OS.
func DefaultDevice() string {
	switch runtime.GOOS {
	case "darwin":
		return "0"
	case "windows":
		return "video=Integrated Camera"
	default:
		return "/dev/video0"
	}
}

// Input names the device or file the config reads from.
func (c *CameraConfig) Input() string {
	if c.File != "" {
		return c.File
	}
	if c.Device == "" {
		return DefaultDevice()
	}
	return c.Device
}

func (c *CameraConfig) inputArgs() ffmpeg.KwArgs {
	args := ffmpeg.KwArgs{"loglevel": "error"}
	if c.File != "" {
		args["re"] = ""
		args["stream_loop"] = "-1"
		return args
	}

	args["fflags"] = "nobuffer"
	switch runtime.GOOS {
	case "darwin":
		args["f"] = "avfoundation"
		args["framerate"] = "30"
	case "linux":
		args["f"] = "v4l2"
	case "windows":
		args["f"] = "dshow"
	}
	if c.Format != "" {
		args["f"] = c.Format
	}
	return args
}

// Camera is a Source fed by an ffmpeg process writing raw RGBA frames.
type Camera struct {
	cfg    CameraConfig
	width  int
	height int

	cmd        *exec.Cmd
	pipeReader *io.PipeReader

	mu     sync.Mutex
	latest []byte
	ready  bool
	frames int

	stopOnce  sync.Once
	errorOnce sync.Once
	stopped   chan struct{}
}

// OpenCamera resolves the frame size (probing with a SizePoller unless the
// config fixes it) and starts decoding. Failures are *AcquisitionError.
func OpenCamera(ctx context.Context, cfg CameraConfig) (*Camera, error) {
	input := cfg.Input()
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		ffprobe := FFprobePath(cfg.FFmpegPath)
		args := cfg.inputArgs()
		poller := NewSizePoller(func(ctx context.Context) (int, int, error) {
			return ProbeSize(ctx, ffprobe, input, args)
		})
		var err error
		w, h, _, err = poller.Wait(ctx)
		if err != nil {
			return nil, &AcquisitionError{Input: input, Err: err}
		}
	}

	c := newCamera(cfg, w, h)
	if err := c.start(); err != nil {
		return nil, &AcquisitionError{Input: input, Err: err}
	}
	return c, nil
}

func newCamera(cfg CameraConfig, width, height int) *Camera {
	return &Camera{
		cfg:     cfg,
		width:   width,
		height:  height,
		latest:  make([]byte, width*height*4),
		stopped: make(chan struct{}),
	}
}

func (c *Camera) start() error {
	pipeReader, pipeWriter := io.Pipe()
	c.pipeReader = pipeReader

	stream := ffmpeg.Input(c.cfg.Input(), c.cfg.inputArgs()).
		Output("pipe:", ffmpeg.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": "rgba",
			"s":       fmt.Sprintf("%dx%d", c.width, c.height),
		}).
		WithOutput(pipeWriter)
	if c.cfg.Verbose {
		stream = stream.ErrorToStdOut()
	}
	if c.cfg.FFmpegPath != "" {
		stream.SetFfmpegPath(c.cfg.FFmpegPath)
	}

	c.cmd = stream.Compile()
	if err := c.cmd.Start(); err != nil {
		pipeWriter.Close()
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	log.Printf("Capturing %s at %dx%d", c.cfg.Input(), c.width, c.height)

	go func() {
		err := c.cmd.Wait()
		if err != nil {
			pipeWriter.CloseWithError(fmt.Errorf("ffmpeg exited: %w", err))
			return
		}
		pipeWriter.Close()
	}()
	go c.readFrames(pipeReader)
	return nil
}

// readFrames publishes every complete frame read from r until r fails. A
// trailing partial frame is dropped.
func (c *Camera) readFrames(r io.Reader) {
	frame := make([]byte, len(c.latest))
	for {
		if _, err := io.ReadFull(r, frame); err != nil {
			select {
			case <-c.stopped:
				return
			default:
			}
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				err = fmt.Errorf("stream ended")
			}
			c.fail(err)
			return
		}
		c.mu.Lock()
		copy(c.latest, frame)
		c.ready = true
		c.frames++
		c.mu.Unlock()
	}
}

func (c *Camera) fail(err error) {
	c.mu.Lock()
	delivered := c.frames
	c.mu.Unlock()

	if delivered == 0 {
		err = &AcquisitionError{Input: c.cfg.Input(), Err: err}
	} else {
		err = fmt.Errorf("capture from %s stopped after %d frames: %w", c.cfg.Input(), delivered, err)
	}
	log.Printf("Capture error: %v", err)
	c.errorOnce.Do(func() {
		if c.cfg.OnError != nil {
			c.cfg.OnError(err)
		}
	})
}

func (c *Camera) Width() int  { return c.width }
func (c *Camera) Height() int { return c.height }

// Ready reports whether at least one complete frame has arrived.
func (c *Camera) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// ReadPixels copies the most recent frame.
func (c *Camera) ReadPixels(dst []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready || len(dst) != len(c.latest) {
		return false
	}
	copy(dst, c.latest)
	return true
}

// Stop kills ffmpeg and releases the pipe. Safe to call more than once.
func (c *Camera) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopped)
		if c.cmd != nil && c.cmd.Process != nil {
			err = c.cmd.Process.Kill()
		}
		if c.pipeReader != nil {
			c.pipeReader.Close()
		}
		log.Printf("Capture from %s stopped", c.cfg.Input())
	})
	return err
}
