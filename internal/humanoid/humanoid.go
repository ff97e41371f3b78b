// Package humanoid performs the approved click. Rather than teleporting the
// pointer, it travels along a curved, eased path whose duration follows
// Fitts's law, then presses and releases the primary button with a short,
// randomized hold. The final pointer position is always the exact target.
package humanoid

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/internal/config"
)

// Humanoid implements schemas.Clicker on top of a Driver.
type Humanoid struct {
	cfg    config.HumanoidConfig
	driver Driver
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Humanoid. rng may be nil, in which case a time-seeded source is used.
func New(cfg config.HumanoidConfig, driver Driver, logger *zap.Logger, rng *rand.Rand) *Humanoid {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Humanoid{
		cfg:    cfg,
		driver: driver,
		logger: logger.Named("humanoid"),
		rng:    rng,
	}
}

// Click moves to (x, y) and clicks the primary button once. With motion
// disabled the pointer is warped straight to the target.
func (h *Humanoid) Click(ctx context.Context, x, y float64) error {
	target := Vector2D{X: x, Y: y}

	if h.cfg.Enabled {
		if err := h.travel(ctx, target); err != nil {
			return fmt.Errorf("pointer movement failed: %w", err)
		}
	} else if err := h.driver.MoveTo(ctx, target); err != nil {
		return fmt.Errorf("pointer movement failed: %w", err)
	}

	if err := h.driver.Press(ctx, target); err != nil {
		return fmt.Errorf("mouse press failed: %w", err)
	}

	// Once pressed, the button is always released, even on cancellation.
	holdErr := h.driver.Sleep(ctx, h.holdDuration())
	if err := h.driver.Release(context.WithoutCancel(ctx), target); err != nil {
		return fmt.Errorf("mouse release failed: %w", err)
	}
	if holdErr != nil {
		return holdErr
	}

	h.logger.Info("Clicked", zap.Float64("x", x), zap.Float64("y", y))
	return nil
}

// travel walks the pointer from its current position to target.
func (h *Humanoid) travel(ctx context.Context, target Vector2D) error {
	start, err := h.driver.Position(ctx)
	if err != nil {
		h.logger.Debug("Pointer position unavailable, starting at target", zap.Error(err))
		start = target
	}

	dist := start.Dist(target)
	duration, bend := h.plan(dist)
	numSteps := int(duration.Seconds() * float64(h.cfg.StepsPerSecond))
	if numSteps < 2 {
		numSteps = 2
	}
	path := bezierPath(start, target, bend, numSteps)
	stepDelay := duration / time.Duration(len(path))

	h.logger.Debug("Moving pointer",
		zap.Float64("distance", dist),
		zap.Duration("duration", duration),
		zap.Int("steps", len(path)),
	)

	for _, p := range path {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.driver.MoveTo(ctx, p); err != nil {
			return err
		}
		if err := h.driver.Sleep(ctx, stepDelay); err != nil {
			return err
		}
	}
	return nil
}

// plan draws the movement time and the signed path curvature.
func (h *Humanoid) plan(dist float64) (time.Duration, float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d := movementDuration(h.cfg.FittsA, h.cfg.FittsB, dist, h.rng.Float64())
	bend := h.cfg.Curvature * (h.rng.Float64()*2 - 1)
	return d, bend
}

func (h *Humanoid) holdDuration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	lo, hi := h.cfg.ClickHoldMinMs, h.cfg.ClickHoldMaxMs
	ms := lo
	if hi > lo {
		ms += h.rng.Intn(hi - lo + 1)
	}
	return time.Duration(ms) * time.Millisecond
}
