// File: cmd/grid.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/internal/capture"
	"github.com/xkilldash9x/gridpoint/internal/grid"
	"github.com/xkilldash9x/gridpoint/internal/observability"
	"github.com/xkilldash9x/gridpoint/internal/store"
)

func newGridCmd() *cobra.Command {
	gridCmd := &cobra.Command{
		Use:   "grid <input.png> <output.png>",
		Short: "Draw the numbered grid over an existing screenshot",
		Long: `Renders the same overlay the vision model sees onto a PNG file. Useful for
checking grid density and label legibility without calling a model.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}

			src, err := capture.LoadPNG(args[0])
			if err != nil {
				return err
			}
			style, err := gridStyle(cfg.Grid)
			if err != nil {
				return err
			}
			layout, overlay, err := grid.Render(src, grid.Spec{Rows: cfg.Grid.Rows, Cols: cfg.Grid.Cols}, style)
			if err != nil {
				return fmt.Errorf("failed to render grid: %w", err)
			}
			data, err := store.EncodePNG(overlay)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[1], err)
			}
			logger.Info("Grid overlay written", zap.String("path", args[1]), zap.Int("cells", layout.Len()))

			showCells, _ := cmd.Flags().GetBool("cells")
			if showCells {
				out := cmd.OutOrStdout()
				for _, c := range layout.Cells() {
					fmt.Fprintf(out, "%d\t(%d, %d)\n", c.Index, int(c.Center.X), int(c.Center.Y))
				}
			}
			return nil
		},
	}

	gridCmd.Flags().Int("rows", 0, "Grid rows. (Overrides config/env)")
	gridCmd.Flags().Int("cols", 0, "Grid columns. (Overrides config/env)")
	gridCmd.Flags().Bool("cells", false, "Print each cell's index and center.")
	overrideFlag(gridCmd.Flags(), "rows", "grid.rows")
	overrideFlag(gridCmd.Flags(), "cols", "grid.cols")

	return gridCmd
}
