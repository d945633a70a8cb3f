package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/richinsley/goshadercam/capture"
	"github.com/richinsley/goshadercam/effect"
	"github.com/richinsley/goshadercam/glfwcontext"
	"github.com/richinsley/goshadercam/gpu/glcore"
	"github.com/richinsley/goshadercam/options"
	"github.com/richinsley/goshadercam/renderer"
	"github.com/richinsley/goshadercam/report"
	"github.com/richinsley/goshadercam/shader"
)

func init() {
	runtime.LockOSThread()
}

// loadLibrary returns the built-in shader units, overridden by -shaders.
func loadLibrary(opts *options.CamOptions) (*shader.Library, error) {
	lib := shader.Builtin()
	if *opts.ShaderDir == "" {
		return lib, nil
	}
	return lib.WithDir(*opts.ShaderDir)
}

// loadRegistry builds the effects from the built-in or user declarations.
func loadRegistry(opts *options.CamOptions) (*effect.Registry, error) {
	lib, err := loadLibrary(opts)
	if err != nil {
		return nil, err
	}

	var decls *effect.Declarations
	if *opts.EffectsFile != "" {
		decls, err = effect.LoadDeclarations(*opts.EffectsFile)
	} else {
		decls, err = effect.BuiltinDeclarations()
	}
	if err != nil {
		return nil, err
	}

	reg, err := decls.Build(lib)
	if err != nil {
		return nil, err
	}
	if *opts.Effect != "" {
		if err := reg.SetActiveName(*opts.Effect); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// openSource opens the still image, video file or camera named by opts.
func openSource(ctx context.Context, opts *options.CamOptions, panel *report.Panel) (capture.Source, error) {
	if *opts.Image != "" {
		return capture.LoadStill(*opts.Image)
	}
	cam, err := capture.OpenCamera(ctx, capture.CameraConfig{
		Device:     *opts.Device,
		Format:     *opts.Format,
		File:       *opts.InputFile,
		FFmpegPath: *opts.FFMPEGPath,
		Verbose:    *opts.Verbose,
		OnError:    panel.Report,
	})
	if err != nil {
		return nil, err
	}
	panel.Attach(cam)
	return cam, nil
}

func run(ctx context.Context, opts *options.CamOptions, panel *report.Panel) error {
	clearColor, err := options.ParseColor(*opts.ClearColor)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(opts)
	if err != nil {
		return err
	}

	source, err := openSource(ctx, opts, panel)
	if err != nil {
		return err
	}
	if s, ok := source.(capture.Stopper); ok {
		defer s.Stop()
	}

	width, height := *opts.Width, *opts.Height
	if width <= 0 || height <= 0 {
		width, height = source.Width(), source.Height()
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return fmt.Errorf("failed to initialize graphics: %w", err)
	}
	defer glfwcontext.TerminateGraphics()

	window, err := glfwcontext.New(width, height, "goshadercam")
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer window.Shutdown()
	window.MakeCurrent()

	dev, err := glcore.New()
	if err != nil {
		return err
	}
	log.Printf("OpenGL version: %s", dev.Version())

	var tr shader.Translator = shader.Retarget{}
	if *opts.Translate {
		tr = shader.NewANGLETranslator(ctx)
	}

	rc := renderer.New(dev, window, source, reg, tr, renderer.Config{ClearColor: clearColor})
	if err := rc.Initialise(); err != nil {
		return err
	}
	defer rc.Dispose()
	// stop drawing once capture fails
	panel.Halt(rc.Stop)

	window.RegisterEffectKeys(reg.Len(), rc.RequestEffect)

	log.Println("Starting render loop...")
	if err := rc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	opts := &options.CamOptions{
		Device:      flag.String("device", "", "Capture device (default depends on the OS)"),
		Format:      flag.String("format", "", "ffmpeg input format overriding the OS default"),
		InputFile:   flag.String("input", "", "Video file to use instead of a camera"),
		Image:       flag.String("image", "", "PNG or JPEG image to use instead of a camera"),
		Width:       flag.Int("width", 0, "Window width (default: frame width)"),
		Height:      flag.Int("height", 0, "Window height (default: frame height)"),
		Effect:      flag.String("effect", "", "Effect to start with (default: declared default)"),
		EffectsFile: flag.String("effects", "", "TOML file declaring the effects"),
		ShaderDir:   flag.String("shaders", "", "Directory of shader units overriding the built-in ones"),
		ClearColor:  flag.String("clear", "1,0,0,1", "Clear color as r,g,b,a"),
		FFMPEGPath:  flag.String("ffmpeg", "", "Path to ffmpeg executable"),
		Translate:   flag.Bool("translate", true, "Translate shaders with ANGLE (false only rewrites the #version line)"),
		Verbose:     flag.Bool("verbose", false, "Show ffmpeg diagnostics"),
		Help:        flag.Bool("help", false, "Show help message"),
	}
	flag.Parse()

	if *opts.Help {
		fmt.Println("Camera feed through swappable shader effects")
		fmt.Println("Keys: 1-9 switch effect, Esc quits")
		flag.PrintDefaults()
		if lib, err := loadLibrary(opts); err == nil {
			fmt.Printf("Shader units: %s\n", strings.Join(lib.IDs(), ", "))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	panel := report.NewPanel()
	if err := run(ctx, opts, panel); err != nil {
		panel.Report(err)
		stop()
		os.Exit(1)
	}
	if panel.Err() != nil {
		stop()
		os.Exit(1)
	}
}
