// Package browser runs the grounding loop against a Chrome tab instead of
// the desktop. The tab is both the screen (CDP screenshots) and the pointer
// device (CDP mouse events).
package browser

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/config"
	"github.com/xkilldash9x/gridpoint/internal/humanoid"
)

// Session owns one browser process and a single tab.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger

	mu  sync.Mutex
	pos humanoid.Vector2D
}

var (
	_ schemas.Capturer = (*Session)(nil)
	_ humanoid.Driver  = (*Session)(nil)
)

// ExecOptions builds the allocator options for cfg.
func ExecOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}

// NewSession launches the browser, sizes the viewport and opens cfg.URL.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, ExecOptions(cfg)...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      logger.Named("browser"),
		pos:         humanoid.Vector2D{X: float64(cfg.ViewportWidth) / 2, Y: float64(cfg.ViewportHeight) / 2},
	}

	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer loadCancel()
	err := chromedp.Run(loadCtx,
		chromedp.EmulateViewport(int64(cfg.ViewportWidth), int64(cfg.ViewportHeight)),
		chromedp.Navigate(cfg.URL),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open %s: %w", cfg.URL, err)
	}

	s.logger.Info("Browser session ready", zap.String("url", cfg.URL))
	return s, nil
}

// run executes actions in the tab while honouring the caller's context.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(s.ctx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Capture screenshots the viewport. ScreenWidth/ScreenHeight carry the CSS
// viewport size, which differs from the image on high-DPI displays.
func (s *Session) Capture(ctx context.Context) (*schemas.Screenshot, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("browser screenshot failed: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode browser screenshot: %w", err)
	}
	return &schemas.Screenshot{
		Image:        img,
		ScreenWidth:  s.cfg.ViewportWidth,
		ScreenHeight: s.cfg.ViewportHeight,
	}, nil
}

func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Position returns the last pointer location sent to the tab. CDP has no
// query for it; a fresh session starts in the middle of the viewport.
func (s *Session) Position(context.Context) (humanoid.Vector2D, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, nil
}

func (s *Session) MoveTo(ctx context.Context, p humanoid.Vector2D) error {
	return s.dispatch(ctx, mouseEvent(input.MouseMoved, p))
}

func (s *Session) Press(ctx context.Context, p humanoid.Vector2D) error {
	return s.dispatch(ctx, mouseEvent(input.MousePressed, p))
}

func (s *Session) Release(ctx context.Context, p humanoid.Vector2D) error {
	return s.dispatch(ctx, mouseEvent(input.MouseReleased, p))
}

func (s *Session) dispatch(ctx context.Context, ev *input.DispatchMouseEventParams) error {
	if err := s.run(ctx, ev); err != nil {
		return err
	}
	s.mu.Lock()
	s.pos = humanoid.Vector2D{X: ev.X, Y: ev.Y}
	s.mu.Unlock()
	return nil
}

// mouseEvent builds a primary-button event. Buttons reflects the held state:
// 1 while pressed, 0 otherwise.
func mouseEvent(typ input.MouseType, p humanoid.Vector2D) *input.DispatchMouseEventParams {
	ev := input.DispatchMouseEvent(typ, p.X, p.Y)
	switch typ {
	case input.MousePressed:
		ev = ev.WithButton(input.Left).WithClickCount(1).WithButtons(1)
	case input.MouseReleased:
		ev = ev.WithButton(input.Left).WithClickCount(1).WithButtons(0)
	default:
		ev = ev.WithButton(input.None)
	}
	return ev
}

// Close shuts down the tab and the browser process.
func (s *Session) Close() error {
	s.cancel()
	s.allocCancel()
	return nil
}
