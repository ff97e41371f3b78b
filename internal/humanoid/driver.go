package humanoid

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/gridpoint/internal/sysexec"
)

// Driver is the low-level pointer device the Humanoid steers. Implementations
// exist for the X11 desktop (xdotool) and for a Chrome tab (CDP).
type Driver interface {
	// Sleep pauses execution, respecting context cancellation.
	Sleep(ctx context.Context, d time.Duration) error
	// Position reports the current pointer location.
	Position(ctx context.Context) (Vector2D, error)
	// MoveTo warps the pointer to p with no button held.
	MoveTo(ctx context.Context, p Vector2D) error
	// Press and Release act on the primary button at p.
	Press(ctx context.Context, p Vector2D) error
	Release(ctx context.Context, p Vector2D) error
}

// XdotoolDriver drives the desktop pointer through the xdotool binary.
type XdotoolDriver struct {
	binary string
	runner sysexec.Runner
}

// XdotoolTimeout bounds each xdotool invocation.
const XdotoolTimeout = 5 * time.Second

// NewXdotoolDriver returns a driver that invokes binary (usually "xdotool").
// runner may be nil to run real processes; calls are bounded by XdotoolTimeout.
func NewXdotoolDriver(binary string, runner sysexec.Runner) *XdotoolDriver {
	if binary == "" {
		binary = "xdotool"
	}
	return &XdotoolDriver{binary: binary, runner: sysexec.WithTimeout(runner, XdotoolTimeout)}
}

func (d *XdotoolDriver) Sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Position parses the KEY=VALUE output of `xdotool getmouselocation --shell`.
func (d *XdotoolDriver) Position(ctx context.Context) (Vector2D, error) {
	res, err := d.runner.Run(ctx, d.binary, "getmouselocation", "--shell")
	if err != nil {
		return Vector2D{}, err
	}
	var pos Vector2D
	var seenX, seenY bool
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		switch key {
		case "X":
			pos.X, seenX = float64(n), true
		case "Y":
			pos.Y, seenY = float64(n), true
		}
	}
	if !seenX || !seenY {
		return Vector2D{}, fmt.Errorf("unexpected getmouselocation output: %q", strings.TrimSpace(string(res.Stdout)))
	}
	return pos, nil
}

func (d *XdotoolDriver) MoveTo(ctx context.Context, p Vector2D) error {
	_, err := d.runner.Run(ctx, d.binary, "mousemove", "--sync", px(p.X), px(p.Y))
	return err
}

func (d *XdotoolDriver) Press(ctx context.Context, p Vector2D) error {
	if err := d.MoveTo(ctx, p); err != nil {
		return err
	}
	_, err := d.runner.Run(ctx, d.binary, "mousedown", "1")
	return err
}

func (d *XdotoolDriver) Release(ctx context.Context, p Vector2D) error {
	_, err := d.runner.Run(ctx, d.binary, "mouseup", "1")
	return err
}

// px rounds to the nearest whole pixel; xdotool takes integers only.
func px(v float64) string {
	return strconv.Itoa(int(v + 0.5))
}
