// File: cmd/click.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/internal/observability"
	"github.com/xkilldash9x/gridpoint/internal/orchestrator"
)

func newClickCmd() *cobra.Command {
	clickCmd := &cobra.Command{
		Use:   "click [goal...]",
		Short: "Ground a goal to one grid cell and click it after confirmation",
		Long: `Captures the screen, overlays a numbered grid and asks the vision model which
cell achieves the goal. The resolved click is shown for approval and performed
only if approved. Without a goal argument, the goal is asked for interactively.`,
		Example: `  gridpoint click "open the settings menu"
  gridpoint click --rows 6 --cols 6 --dialog tui submit the form`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFrom(ctx)
			if err != nil {
				return err
			}

			components, err := initializeClickComponents(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			if err != nil {
				if components != nil {
					components.Shutdown()
				}
				return fmt.Errorf("failed to initialize click components: %w", err)
			}
			defer components.Shutdown()

			goal := strings.TrimSpace(strings.Join(args, " "))
			if goal == "" {
				goal, err = orchestrator.PromptGoal(ctx, components.Dialog)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return err
					}
					logger.Error("Goal prompt failed", zap.Error(err))
					color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "Could not ask for a goal: %v\nNothing was clicked.\n", err)
					return nil
				}
			}

			outcome := components.Orchestrator.Run(ctx, goal)
			printOutcome(cmd.OutOrStdout(), outcome)

			// Every pipeline outcome is a normal exit; only an interrupted
			// process reports failure.
			if errors.Is(outcome.Err, context.Canceled) {
				return outcome.Err
			}
			return nil
		},
	}

	flags := clickCmd.Flags()
	flags.Int("rows", 0, "Grid rows. (Overrides config/env)")
	flags.Int("cols", 0, "Grid columns. (Overrides config/env)")
	flags.String("provider", "", "Vision model provider: ollama or gemini. (Overrides config/env)")
	flags.StringP("model", "m", "", "Vision model name. (Overrides config/env)")
	flags.String("endpoint", "", "Model API base URL. (Overrides config/env)")
	flags.Bool("strict", false, "Require the answer to start with the cell number.")
	flags.StringP("dialog", "d", "", "Dialog kind: console, zenity or tui. (Overrides config/env)")
	flags.Duration("confirm-timeout", 0, "Deny automatically after this long without a decision.")
	flags.String("backend", "", "Capture and click backend: desktop or browser. (Overrides config/env)")
	flags.String("url", "", "Page to open for the browser backend. (Overrides config/env)")
	flags.String("image", "", "Ground against this PNG instead of capturing the screen.")
	flags.String("artifacts", "", "Directory for screen.png and screen_grid.png. (Overrides config/env)")

	overrideFlag(flags, "rows", "grid.rows")
	overrideFlag(flags, "cols", "grid.cols")
	overrideFlag(flags, "provider", "model.provider")
	overrideFlag(flags, "model", "model.model")
	overrideFlag(flags, "endpoint", "model.endpoint")
	overrideFlag(flags, "strict", "resolver.strict")
	overrideFlag(flags, "dialog", "dialog.kind")
	overrideFlag(flags, "confirm-timeout", "dialog.confirm_timeout")
	overrideFlag(flags, "backend", "capture.backend", "executor.backend")
	overrideFlag(flags, "url", "browser.url")
	overrideFlag(flags, "image", "capture.image")
	overrideFlag(flags, "artifacts", "artifacts.dir")

	return clickCmd
}

// printOutcome reports the run to the operator.
func printOutcome(w io.Writer, out *orchestrator.Outcome) {
	if out.Answer != "" {
		fmt.Fprintf(w, "Model answered: %q\n", out.Answer)
	}
	switch out.State {
	case orchestrator.StateExecuted:
		color.New(color.FgGreen, color.Bold).Fprintf(w, "Clicked grid #%d at (%d, %d).\n",
			out.Action.CellIndex, int(out.Action.Coordinates.X), int(out.Action.Coordinates.Y))
	case orchestrator.StateDenied:
		color.New(color.FgYellow).Fprintln(w, "Action denied. Nothing was clicked.")
	case orchestrator.StateAborted:
		color.New(color.FgYellow).Fprintln(w, "Cancelled. Nothing was clicked.")
	default:
		color.New(color.FgRed).Fprintf(w, "Run stopped (%s): %v\n", out.State, out.Err)
	}
}
