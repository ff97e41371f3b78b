// Package capture takes desktop screenshots by delegating to an external
// screenshot tool and decoding the PNG it produces.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/config"
	"github.com/xkilldash9x/gridpoint/internal/sysexec"
)

// OutputPlaceholder in a capture command is replaced by the temporary file the
// tool must write. Commands without it are expected to print the PNG on stdout.
const OutputPlaceholder = "{output}"

// CommandCapturer implements schemas.Capturer with a configurable command line,
// such as ImageMagick's import, gnome-screenshot, grim or scrot.
type CommandCapturer struct {
	command      []string
	screenWidth  int
	screenHeight int
	runner       sysexec.Runner
	logger       *zap.Logger
}

// NewCommandCapturer builds a capturer from cfg. runner may be nil to run real
// processes; whichever runner is used, each capture is bounded by cfg.Timeout.
func NewCommandCapturer(cfg config.CaptureConfig, runner sysexec.Runner, logger *zap.Logger) (*CommandCapturer, error) {
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, errors.New("capture command is empty")
	}
	runner = sysexec.WithTimeout(runner, cfg.Timeout)
	return &CommandCapturer{
		command:      append([]string(nil), cfg.Command...),
		screenWidth:  cfg.ScreenWidth,
		screenHeight: cfg.ScreenHeight,
		runner:       runner,
		logger:       logger.Named("capture"),
	}, nil
}

// Capture runs the command and decodes the resulting PNG.
func (c *CommandCapturer) Capture(ctx context.Context) (*schemas.Screenshot, error) {
	dir, err := os.MkdirTemp("", "gridpoint-capture-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	outPath := filepath.Join(dir, "capture.png")

	args := make([]string, 0, len(c.command)-1)
	usesFile := false
	for _, a := range c.command[1:] {
		if strings.Contains(a, OutputPlaceholder) {
			usesFile = true
			a = strings.ReplaceAll(a, OutputPlaceholder, outPath)
		}
		args = append(args, a)
	}

	c.logger.Debug("Running capture command", zap.String("command", c.command[0]), zap.Strings("args", args))
	res, err := c.runner.Run(ctx, c.command[0], args...)
	if err != nil {
		return nil, fmt.Errorf("capture command failed: %w", err)
	}

	var data []byte
	if usesFile {
		if data, err = os.ReadFile(outPath); err != nil {
			return nil, fmt.Errorf("capture command produced no image: %w", err)
		}
	} else {
		data = res.Stdout
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode captured PNG: %w", err)
	}

	shot := &schemas.Screenshot{Image: img, ScreenWidth: c.screenWidth, ScreenHeight: c.screenHeight}
	c.logger.Info("Screen captured",
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return shot, nil
}

// StaticCapturer returns the same image on every call. It backs the offline
// replay mode that grounds a click against a saved screenshot.
type StaticCapturer struct {
	Image image.Image
	// ScreenWidth/ScreenHeight carry the logical screen size, if it differs.
	ScreenWidth  int
	ScreenHeight int
}

// Capture returns the stored image.
func (s StaticCapturer) Capture(context.Context) (*schemas.Screenshot, error) {
	if s.Image == nil {
		return nil, errors.New("no image loaded")
	}
	return &schemas.Screenshot{Image: s.Image, ScreenWidth: s.ScreenWidth, ScreenHeight: s.ScreenHeight}, nil
}

// LoadPNG reads a PNG from disk for use with StaticCapturer.
func LoadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
