// Package dialog implements the human side of the loop: asking for a goal
// and asking for a decision. Three surfaces are provided: a plain console,
// zenity desktop dialogs and a full-screen terminal modal.
package dialog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/config"
	"github.com/xkilldash9x/gridpoint/internal/sysexec"
)

// New returns the dialog selected by cfg. Console dialogs use in/out; the
// others ignore them.
func New(cfg config.DialogConfig, runner sysexec.Runner, in io.Reader, out io.Writer) (schemas.Dialog, error) {
	switch cfg.Kind {
	case "", config.DialogConsole:
		return NewConsole(in, out), nil
	case config.DialogZenity:
		return NewZenity(cfg.Zenity, runner), nil
	case config.DialogTUI:
		return NewTUI(tcell.NewScreen), nil
	default:
		return nil, fmt.Errorf("unknown dialog kind '%s'. Supported: [%s %s %s]",
			cfg.Kind, config.DialogConsole, config.DialogZenity, config.DialogTUI)
	}
}

// matchOption maps typed input onto one of options: an exact option name in
// any letter case, or its 1-based number. Anything else is returned as typed
// so the caller sees a non-selection.
func matchOption(input string, options []string) string {
	input = strings.TrimSpace(input)
	for _, opt := range options {
		if strings.EqualFold(input, opt) {
			return opt
		}
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return input
}
