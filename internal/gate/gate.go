// Package gate holds the human confirmation step. Nothing is clicked unless
// the operator explicitly picks Approve.
package gate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/api/schemas"
)

// Title is shown on every confirmation dialog.
const Title = "Safety Check"

// Gate asks a human to approve a resolved action.
type Gate struct {
	dialog  schemas.Dialog
	timeout time.Duration
	logger  *zap.Logger
}

// New returns a gate that waits at most timeout for an answer; zero waits
// indefinitely.
func New(dialog schemas.Dialog, timeout time.Duration, logger *zap.Logger) *Gate {
	return &Gate{dialog: dialog, timeout: timeout, logger: logger.Named("gate")}
}

// Message renders the summary shown to the operator. Coordinates are
// truncated to whole pixels.
func Message(action schemas.ResolvedAction) string {
	return fmt.Sprintf("AI wants to CLICK Grid #%d\n(Coordinates: %d, %d)\n\nGoal: %s",
		action.CellIndex, int(action.Coordinates.X), int(action.Coordinates.Y), action.Goal)
}

// Decide blocks until the operator answers. Only the exact OptionApprove
// approves; any other answer, a dialog failure, a timeout or a cancelled
// context is a denial. The returned error explains a denial that was not an
// explicit choice and is nil otherwise.
func (g *Gate) Decide(ctx context.Context, action schemas.ResolvedAction) (schemas.Decision, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	choice, err := g.dialog.Confirm(ctx, Title, Message(action),
		[]string{schemas.OptionApprove, schemas.OptionDeny})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		g.logger.Warn("No decision received, treating as denial", zap.Error(err))
		return schemas.DecisionDenied, fmt.Errorf("confirmation not obtained: %w", err)
	}

	if choice == schemas.OptionApprove {
		g.logger.Info("Action approved", zap.Int("cell", action.CellIndex))
		return schemas.DecisionApproved, nil
	}
	g.logger.Info("Action denied", zap.Int("cell", action.CellIndex), zap.String("choice", choice))
	return schemas.DecisionDenied, nil
}
