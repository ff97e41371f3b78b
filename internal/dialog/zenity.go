package dialog

import (
	"context"
	"errors"
	"strings"

	"github.com/xkilldash9x/gridpoint/internal/sysexec"
)

// Zenity shows GTK dialogs through the zenity binary.
type Zenity struct {
	binary string
	runner sysexec.Runner
}

// NewZenity returns a dialog that invokes binary (usually "zenity").
func NewZenity(binary string, runner sysexec.Runner) *Zenity {
	if binary == "" {
		binary = "zenity"
	}
	if runner == nil {
		runner = sysexec.CommandRunner{}
	}
	return &Zenity{binary: binary, runner: runner}
}

// Prompt opens an entry box. Closing the box or pressing Cancel yields "".
func (z *Zenity) Prompt(ctx context.Context, title, message string) (string, error) {
	res, err := z.runner.Run(ctx, z.binary, "--entry", "--title", title, "--text", message)
	if dismissed(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// Confirm uses a question box for two options (OK is the first option) and a
// radio list otherwise.
func (z *Zenity) Confirm(ctx context.Context, title, message string, options []string) (string, error) {
	if len(options) == 2 {
		_, err := z.runner.Run(ctx, z.binary, "--question", "--title", title, "--text", message,
			"--ok-label", options[0], "--cancel-label", options[1])
		if dismissed(err) {
			return options[1], nil
		}
		if err != nil {
			return "", err
		}
		return options[0], nil
	}

	args := []string{"--list", "--title", title, "--text", message, "--column", "Option"}
	args = append(args, options...)
	res, err := z.runner.Run(ctx, z.binary, args...)
	if dismissed(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// dismissed reports zenity's exit status 1, used for Cancel and closed windows.
func dismissed(err error) bool {
	var execErr *sysexec.Error
	return errors.As(err, &execErr) && execErr.Code == sysexec.CodeFailed && execErr.ExitCode == 1
}
