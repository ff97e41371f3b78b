// File: cmd/components.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/browser"
	"github.com/xkilldash9x/gridpoint/internal/capture"
	"github.com/xkilldash9x/gridpoint/internal/config"
	"github.com/xkilldash9x/gridpoint/internal/dialog"
	"github.com/xkilldash9x/gridpoint/internal/gate"
	"github.com/xkilldash9x/gridpoint/internal/grid"
	"github.com/xkilldash9x/gridpoint/internal/grounding"
	"github.com/xkilldash9x/gridpoint/internal/humanoid"
	"github.com/xkilldash9x/gridpoint/internal/llmclient"
	"github.com/xkilldash9x/gridpoint/internal/observability"
	"github.com/xkilldash9x/gridpoint/internal/orchestrator"
	"github.com/xkilldash9x/gridpoint/internal/store"
	"github.com/xkilldash9x/gridpoint/internal/sysexec"
)

// clickComponents holds the initialized collaborators of one click run.
type clickComponents struct {
	Orchestrator *orchestrator.Orchestrator
	Dialog       schemas.Dialog
	Gateway      *llmclient.Gateway
	Session      *browser.Session
}

// Shutdown releases the model client and the browser, if any.
func (cc *clickComponents) Shutdown() {
	logger := observability.GetLogger().Named("shutdown")
	if cc.Gateway != nil {
		if err := cc.Gateway.Close(); err != nil {
			logger.Warn("Error closing model client", zap.Error(err))
		}
	}
	if cc.Session != nil {
		if err := cc.Session.Close(); err != nil {
			logger.Warn("Error closing browser session", zap.Error(err))
		}
	}
}

// initializeClickComponents is a variable so tests can substitute the wiring.
var initializeClickComponents = buildClickComponents

// buildClickComponents handles dependency injection for the click command.
func buildClickComponents(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *zap.Logger) (*clickComponents, error) {
	components := &clickComponents{}
	// Capture and xdotool bound their own calls; dialogs wait on the human.
	runner := sysexec.CommandRunner{}

	// 1. Browser session, shared by capture and executor when selected.
	if cfg.Capture.Backend == config.BackendBrowser || cfg.Executor.Backend == config.BackendBrowser {
		session, err := browser.NewSession(ctx, cfg.Browser, logger)
		if err != nil {
			return components, fmt.Errorf("failed to start browser session: %w", err)
		}
		components.Session = session
	}

	// 2. Capture
	var capturer schemas.Capturer
	switch {
	case cfg.Capture.Image != "":
		img, err := capture.LoadPNG(cfg.Capture.Image)
		if err != nil {
			return components, fmt.Errorf("failed to load replay image: %w", err)
		}
		capturer = capture.StaticCapturer{Image: img, ScreenWidth: cfg.Capture.ScreenWidth, ScreenHeight: cfg.Capture.ScreenHeight}
	case cfg.Capture.Backend == config.BackendBrowser:
		capturer = components.Session
	default:
		c, err := capture.NewCommandCapturer(cfg.Capture, runner, logger)
		if err != nil {
			return components, fmt.Errorf("failed to initialize capturer: %w", err)
		}
		capturer = c
	}

	// 3. Executor
	var driver humanoid.Driver
	if cfg.Executor.Backend == config.BackendBrowser {
		driver = components.Session
	} else {
		driver = humanoid.NewXdotoolDriver(cfg.Executor.Xdotool, runner)
	}
	clicker := humanoid.New(cfg.Executor.Humanoid, driver, logger, nil)

	// 4. Model
	client, err := llmclient.NewClient(ctx, cfg.Model, logger)
	if err != nil {
		return components, fmt.Errorf("failed to initialize model client: %w", err)
	}
	components.Gateway = llmclient.NewGateway(client, cfg.Model, logger)

	// 5. Dialog and gate
	dlg, err := dialog.New(cfg.Dialog, runner, in, out)
	if err != nil {
		return components, fmt.Errorf("failed to initialize dialog: %w", err)
	}
	components.Dialog = dlg

	// 6. Artifacts
	artifacts, err := store.New(cfg.Artifacts, logger)
	if err != nil {
		return components, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	// 7. Orchestrator
	style, err := gridStyle(cfg.Grid)
	if err != nil {
		return components, err
	}
	policy := grounding.PolicyTolerant
	if cfg.Resolver.Strict {
		policy = grounding.PolicyStrict
	}
	orch, err := orchestrator.New(orchestrator.Dependencies{
		Capturer:  capturer,
		Model:     components.Gateway,
		Resolver:  grounding.NewResolver(policy),
		Gate:      gate.New(dlg, cfg.Dialog.ConfirmTimeout, logger),
		Clicker:   clicker,
		Artifacts: artifacts,
	}, grid.Spec{Rows: cfg.Grid.Rows, Cols: cfg.Grid.Cols}, style, logger)
	if err != nil {
		return components, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	components.Orchestrator = orch

	return components, nil
}

// gridStyle converts the configured overlay appearance.
func gridStyle(cfg config.GridConfig) (grid.Style, error) {
	c, err := grid.ParseColor(cfg.Color)
	if err != nil {
		return grid.Style{}, fmt.Errorf("invalid grid.color: %w", err)
	}
	return grid.Style{Color: c, LineWidth: cfg.LineWidth, LabelScale: cfg.LabelScale}, nil
}
