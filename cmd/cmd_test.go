// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/gridpoint/internal/capture"
	"github.com/xkilldash9x/gridpoint/internal/config"
	"github.com/xkilldash9x/gridpoint/internal/dialog"
	"github.com/xkilldash9x/gridpoint/internal/gate"
	"github.com/xkilldash9x/gridpoint/internal/grid"
	"github.com/xkilldash9x/gridpoint/internal/grounding"
	"github.com/xkilldash9x/gridpoint/internal/mocks"
	"github.com/xkilldash9x/gridpoint/internal/observability"
	"github.com/xkilldash9x/gridpoint/internal/orchestrator"
)

func TestMain(m *testing.M) {
	// Keep test output clean; later InitializeLogger calls are no-ops.
	observability.Initialize(config.LoggerConfig{Level: "fatal", Format: "console", ServiceName: "test"}, zapcore.AddSync(io.Discard))
	os.Exit(m.Run())
}

// executeCommand runs a pristine command tree with the given stdin.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

type askerFunc func(ctx context.Context, png []byte, prompt string) (string, error)

func (f askerFunc) Ask(ctx context.Context, png []byte, prompt string) (string, error) {
	return f(ctx, png, prompt)
}

// stubComponents wires a real gate, resolver and console dialog around a
// blank 800x600 screen and a model that always gives answer.
func stubComponents(t *testing.T, clicker *mocks.MockClicker, answer string) {
	t.Helper()
	original := initializeClickComponents
	t.Cleanup(func() { initializeClickComponents = original })

	initializeClickComponents = func(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *zap.Logger) (*clickComponents, error) {
		dlg := dialog.NewConsole(in, out)
		style, err := gridStyle(cfg.Grid)
		if err != nil {
			return nil, err
		}
		orch, err := orchestrator.New(orchestrator.Dependencies{
			Capturer: capture.StaticCapturer{Image: image.NewRGBA(image.Rect(0, 0, 800, 600))},
			Model: askerFunc(func(context.Context, []byte, string) (string, error) {
				return answer, nil
			}),
			Resolver: grounding.NewResolver(grounding.PolicyTolerant),
			Gate:     gate.New(dlg, cfg.Dialog.ConfirmTimeout, logger),
			Clicker:  clicker,
		}, grid.Spec{Rows: cfg.Grid.Rows, Cols: cfg.Grid.Cols}, style, logger)
		if err != nil {
			return nil, err
		}
		return &clickComponents{Orchestrator: orch, Dialog: dlg}, nil
	}
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := executeCommand(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "gridpoint version "+Version)
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "gridpoint version "+Version+"\n", out)
}

func TestRootCmd_NoArgsShowsHelp(t *testing.T) {
	out, err := executeCommand(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Gridpoint captures the screen")
	assert.Contains(t, out, "click")
	assert.Contains(t, out, "grid")
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	_, err := executeCommand(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "grid", "a.png", "b.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize configuration")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "gridpoint.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("grid:\n  rows: 0\n"), 0o600))

	_, err := executeCommand(t, "", "--config", cfgPath, "click", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestClickCmd_ApprovedClicks(t *testing.T) {
	clicker := new(mocks.MockClicker)
	clicker.On("Click", mock.Anything, 300.0, 225.0).Return(nil).Once()
	stubComponents(t, clicker, "Grid #6")

	out, err := executeCommand(t, "Approve\n", "click", "open", "settings")
	require.NoError(t, err)

	assert.Contains(t, out, "AI wants to CLICK Grid #6")
	assert.Contains(t, out, "(Coordinates: 300, 225)")
	assert.Contains(t, out, "Goal: open settings")
	assert.Contains(t, out, "Clicked grid #6 at (300, 225).")
	clicker.AssertExpectations(t)
}

func TestClickCmd_DeniedDoesNotClick(t *testing.T) {
	clicker := new(mocks.MockClicker)
	stubComponents(t, clicker, "6")

	// Option 2 is Deny.
	out, err := executeCommand(t, "2\n", "click", "open settings")
	require.NoError(t, err)

	assert.Contains(t, out, "Action denied. Nothing was clicked.")
	clicker.AssertNotCalled(t, "Click", mock.Anything, mock.Anything, mock.Anything)
}

func TestClickCmd_PromptsForGoal(t *testing.T) {
	clicker := new(mocks.MockClicker)
	clicker.On("Click", mock.Anything, 500.0, 75.0).Return(nil).Once()
	stubComponents(t, clicker, "3")

	out, err := executeCommand(t, "close the window\nApprove\n", "click")
	require.NoError(t, err)

	assert.Contains(t, out, orchestrator.GoalPromptTitle)
	assert.Contains(t, out, "Goal: close the window")
	clicker.AssertExpectations(t)
}

func TestClickCmd_EmptyGoalAborts(t *testing.T) {
	clicker := new(mocks.MockClicker)
	stubComponents(t, clicker, "3")

	out, err := executeCommand(t, "\n", "click")
	require.NoError(t, err, "an aborted run is a normal exit")
	assert.Contains(t, out, "Cancelled. Nothing was clicked.")
	clicker.AssertNotCalled(t, "Click", mock.Anything, mock.Anything, mock.Anything)
}

func TestClickCmd_GoalPromptFailureIsReported(t *testing.T) {
	clicker := new(mocks.MockClicker)
	stubComponents(t, clicker, "3")
	stubbed := initializeClickComponents
	dlg := new(mocks.MockDialog)
	dlg.On("Prompt", mock.Anything, orchestrator.GoalPromptTitle, orchestrator.GoalPromptText).
		Return("", errors.New("zenity: executable file not found")).Once()
	initializeClickComponents = func(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *zap.Logger) (*clickComponents, error) {
		cc, err := stubbed(ctx, cfg, in, out, logger)
		if cc != nil {
			cc.Dialog = dlg
		}
		return cc, err
	}

	out, err := executeCommand(t, "", "click")
	require.NoError(t, err)

	assert.Contains(t, out, "Could not ask for a goal: zenity: executable file not found")
	assert.NotContains(t, out, "Cancelled", "a broken dialog is not an operator cancel")
	dlg.AssertExpectations(t)
	clicker.AssertNotCalled(t, "Click", mock.Anything, mock.Anything, mock.Anything)
}

func TestClickCmd_GridFlagsOverrideConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "gridpoint.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("grid:\n  rows: 8\n  cols: 8\n"), 0o600))

	clicker := new(mocks.MockClicker)
	clicker.On("Click", mock.Anything, 600.0, 450.0).Return(nil).Once()
	stubComponents(t, clicker, "4")

	_, err := executeCommand(t, "Approve\n", "--config", cfgPath, "click", "--rows", "2", "--cols", "2", "bottom right")
	require.NoError(t, err)
	clicker.AssertExpectations(t)
}

func TestClickCmd_ParseFailureIsReported(t *testing.T) {
	clicker := new(mocks.MockClicker)
	stubComponents(t, clicker, "I cannot tell.")

	out, err := executeCommand(t, "", "click", "open settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Model answered: \"I cannot tell.\"")
	assert.Contains(t, out, "PARSE_FAILED")
}

func TestClickCmd_InitializationFailure(t *testing.T) {
	original := initializeClickComponents
	t.Cleanup(func() { initializeClickComponents = original })
	initializeClickComponents = func(context.Context, *config.Config, io.Reader, io.Writer, *zap.Logger) (*clickComponents, error) {
		return &clickComponents{}, assert.AnError
	}

	_, err := executeCommand(t, "", "click", "open settings")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to initialize click components")
}

func TestGridCmd_WritesOverlay(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	outPath := filepath.Join(dir, "out.png")

	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	for i := range src.Pix {
		src.Pix[i] = 0x80
	}
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	out, err := executeCommand(t, "", "grid", "--rows", "2", "--cols", "2", "--cells", in, outPath)
	require.NoError(t, err)
	assert.Equal(t, "1\t(25, 12)\n2\t(75, 12)\n3\t(25, 37)\n4\t(75, 37)\n", out)

	img, err := capture.LoadPNG(outPath)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())
	r, g, b, _ := img.At(50, 0).RGBA()
	assert.Equal(t, color.RGBA{R: 255, A: 255}, color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}, "grid lines are drawn in the configured color")
}

func TestGridCmd_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 90, 30))))
	require.NoError(t, f.Close())

	t.Cleanup(func() { os.Unsetenv("GRIDPOINT_GRID_COLS") })

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"grid", "--rows", "1", "--cells", in, filepath.Join(dir, "out.png")})

	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GRIDPOINT_GRID_COLS=3\n"), 0o600))
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, "1\t(15, 15)\n2\t(45, 15)\n3\t(75, 15)\n", out.String())
}

func TestGridCmd_MissingInput(t *testing.T) {
	_, err := executeCommand(t, "", "grid", "missing.png", "out.png")
	assert.Error(t, err)
}
