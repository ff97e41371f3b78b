// Package orchestrator runs one grounding attempt end to end: capture the
// screen, overlay the grid, ask the model for a cell, resolve its answer,
// ask the human, and click only on approval. Every stage fails fast; no
// stage is retried.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/grid"
	"github.com/xkilldash9x/gridpoint/internal/grounding"
	"github.com/xkilldash9x/gridpoint/internal/store"
)

// Goal prompt shown when no goal is supplied up front.
const (
	GoalPromptTitle = "Local Agent Goal"
	GoalPromptText  = "What should the agent do?"
)

// State is a step of the per-run state machine.
type State string

const (
	StateIdle                 State = "IDLE"
	StateCaptured             State = "CAPTURED"
	StateOverlaid             State = "OVERLAID"
	StateAwaitingModel        State = "AWAITING_MODEL"
	StateResolved             State = "RESOLVED"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"

	// Terminal states.
	StateExecuted        State = "EXECUTED"
	StateDenied          State = "DENIED"
	StateAborted         State = "ABORTED"
	StateCaptureFailed   State = "CAPTURE_FAILED"
	StateModelFailed     State = "MODEL_FAILED"
	StateParseFailed     State = "PARSE_FAILED"
	StateExecutionFailed State = "EXECUTION_FAILED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case StateExecuted, StateDenied, StateAborted, StateCaptureFailed,
		StateModelFailed, StateParseFailed, StateExecutionFailed:
		return true
	}
	return false
}

var (
	ErrEmptyGoal        = errors.New("no goal given")
	ErrCaptureFailure   = errors.New("screen capture failed")
	ErrOverlayFailure   = errors.New("grid overlay failed")
	ErrUserDenied       = errors.New("action denied by user")
	ErrExecutionFailure = errors.New("click execution failed")
)

// Asker sends an image and a prompt to the vision model.
type Asker interface {
	Ask(ctx context.Context, png []byte, prompt string) (string, error)
}

// Decider obtains the human decision for a resolved action.
type Decider interface {
	Decide(ctx context.Context, action schemas.ResolvedAction) (schemas.Decision, error)
}

// ArtifactWriter persists the raw and annotated screenshots.
type ArtifactWriter interface {
	SaveScreenshot(img image.Image) (string, error)
	SaveOverlay(img image.Image) (string, []byte, error)
}

// Dependencies are the collaborators a run needs. Artifacts is optional.
type Dependencies struct {
	Capturer  schemas.Capturer
	Model     Asker
	Resolver  *grounding.Resolver
	Gate      Decider
	Clicker   schemas.Clicker
	Artifacts ArtifactWriter
}

// Outcome is the observable result of one run.
type Outcome struct {
	RunID string
	Goal  string
	State State
	// Trace lists every state visited, starting at StateIdle.
	Trace          []State
	Answer         string
	Action         *schemas.ResolvedAction
	Decision       schemas.Decision
	ScreenshotPath string
	OverlayPath    string
	// Err is nil only for StateExecuted.
	Err error
}

func (o *Outcome) enter(s State) {
	o.State = s
	o.Trace = append(o.Trace, s)
}

func (o *Outcome) fail(s State, err error) *Outcome {
	o.enter(s)
	o.Err = err
	return o
}

// Orchestrator drives single grounding runs with a fixed grid configuration.
type Orchestrator struct {
	deps   Dependencies
	spec   grid.Spec
	style  grid.Style
	logger *zap.Logger
}

// New validates the dependencies and the grid spec.
func New(deps Dependencies, spec grid.Spec, style grid.Style, logger *zap.Logger) (*Orchestrator, error) {
	if deps.Capturer == nil || deps.Model == nil || deps.Resolver == nil || deps.Gate == nil || deps.Clicker == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{deps: deps, spec: spec, style: style, logger: logger.Named("orchestrator")}, nil
}

// PromptGoal asks the operator for a goal. An empty answer means cancel.
func PromptGoal(ctx context.Context, dialog schemas.Dialog) (string, error) {
	goal, err := dialog.Prompt(ctx, GoalPromptTitle, GoalPromptText)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(goal), nil
}

// Run performs one attempt for goal. It never panics on collaborator
// failures; the outcome records where and why the run stopped.
func (o *Orchestrator) Run(ctx context.Context, goal string) *Outcome {
	out := &Outcome{RunID: uuid.New().String(), Goal: goal}
	out.enter(StateIdle)
	log := o.logger.With(zap.String("run_id", out.RunID))

	defer func() {
		fields := []zap.Field{zap.String("state", string(out.State))}
		if out.Err != nil {
			fields = append(fields, zap.Error(out.Err))
		}
		log.Info("Run finished", fields...)
	}()

	if strings.TrimSpace(goal) == "" {
		return out.fail(StateAborted, ErrEmptyGoal)
	}
	log.Info("Thinking about goal", zap.String("goal", goal))

	// 1. Capture.
	shot, err := o.deps.Capturer.Capture(ctx)
	if err == nil && (shot == nil || shot.Image == nil) {
		err = errors.New("capturer returned no image")
	}
	if err != nil {
		return out.fail(StateCaptureFailed, fmt.Errorf("%w: %w", ErrCaptureFailure, err))
	}
	out.enter(StateCaptured)
	if o.deps.Artifacts != nil {
		if out.ScreenshotPath, err = o.deps.Artifacts.SaveScreenshot(shot.Image); err != nil {
			log.Warn("Failed to save screenshot", zap.Error(err))
		}
	}

	// 2. Partition and overlay.
	// Failures from here on are overlay failures; the capture itself succeeded.
	layout, annotated, err := grid.Render(shot.Image, o.spec, o.style)
	if err != nil {
		return out.fail(StateCaptureFailed, fmt.Errorf("%w: %w", ErrOverlayFailure, err))
	}
	png, err := o.encodeOverlay(out, annotated, log)
	if err != nil {
		return out.fail(StateCaptureFailed, fmt.Errorf("%w: encoding PNG: %w", ErrOverlayFailure, err))
	}
	out.enter(StateOverlaid)

	// 3. Ask the model.
	out.enter(StateAwaitingModel)
	answer, err := o.deps.Model.Ask(ctx, png, grounding.BuildPrompt(goal, layout.Len()))
	if err != nil {
		return out.fail(StateModelFailed, err)
	}
	out.Answer = answer
	log.Info("AI suggests clicking", zap.String("answer", answer))

	// 4. Resolve.
	action, err := o.deps.Resolver.Resolve(answer, layout, goal)
	if err != nil {
		return out.fail(StateParseFailed, err)
	}
	action.Coordinates = toScreen(action.Coordinates, shot)
	out.Action = &action
	out.enter(StateResolved)

	// 5. Confirm.
	out.enter(StateAwaitingConfirmation)
	decision, gateErr := o.deps.Gate.Decide(ctx, action)
	out.Decision = decision
	if decision != schemas.DecisionApproved {
		if gateErr != nil {
			return out.fail(StateDenied, fmt.Errorf("%w: %w", ErrUserDenied, gateErr))
		}
		return out.fail(StateDenied, ErrUserDenied)
	}

	// 6. Execute.
	log.Info("Clicking", zap.Float64("x", action.Coordinates.X), zap.Float64("y", action.Coordinates.Y))
	if err := o.deps.Clicker.Click(ctx, action.Coordinates.X, action.Coordinates.Y); err != nil {
		return out.fail(StateExecutionFailed, fmt.Errorf("%w: %w", ErrExecutionFailure, err))
	}
	out.enter(StateExecuted)
	return out
}

func (o *Orchestrator) encodeOverlay(out *Outcome, img image.Image, log *zap.Logger) ([]byte, error) {
	if o.deps.Artifacts != nil {
		path, data, err := o.deps.Artifacts.SaveOverlay(img)
		if err == nil {
			out.OverlayPath = path
			return data, nil
		}
		log.Warn("Failed to save overlay, sending it from memory", zap.Error(err))
	}
	return store.EncodePNG(img)
}

// toScreen maps a point in screenshot pixels to the pointer's coordinate
// space. They differ on high-DPI displays, where the capture is larger than
// the logical screen.
func toScreen(p schemas.Point, shot *schemas.Screenshot) schemas.Point {
	b := shot.Image.Bounds()
	if shot.ScreenWidth > 0 && b.Dx() > 0 {
		p.X = p.X * float64(shot.ScreenWidth) / float64(b.Dx())
	}
	if shot.ScreenHeight > 0 && b.Dy() > 0 {
		p.Y = p.Y * float64(shot.ScreenHeight) / float64(b.Dy())
	}
	return p
}
