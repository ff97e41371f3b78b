// Package sysexec runs the external desktop helpers (screenshot tools,
// xdotool, zenity) with bounded time and classified failures.
package sysexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
}

// Code classifies command failures.
type Code string

const (
	CodeTimeout  Code = "TIMEOUT"
	CodeNotFound Code = "COMMAND_NOT_FOUND"
	CodeFailed   Code = "COMMAND_FAILED"
)

// Error is returned for any command that did not exit cleanly.
type Error struct {
	Code     Code
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " ")), e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Runner executes a command and returns its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

const waitDelay = time.Second

// CommandRunner runs real processes. A zero Timeout relies on ctx alone.
type CommandRunner struct {
	Timeout time.Duration
}

// Run starts name with args and waits for it to exit.
func (r CommandRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	// Children that inherit the pipes must not keep Wait blocked after a kill.
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	command := strings.TrimSpace(name + " " + strings.Join(args, " "))
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, &Error{Code: CodeTimeout, Command: command, Stderr: res.Stderr, Err: ctx.Err()}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return res, &Error{Code: CodeNotFound, Command: name, Err: err}
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
		return res, &Error{Code: CodeFailed, Command: command, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return res, &Error{Code: CodeFailed, Command: command, Err: err}
}

// WithTimeout bounds every command run through r by d, whatever the runner.
// A non-positive d returns r unchanged.
func WithTimeout(r Runner, d time.Duration) Runner {
	if r == nil {
		r = CommandRunner{}
	}
	if d <= 0 {
		return r
	}
	return timeoutRunner{runner: r, timeout: d}
}

type timeoutRunner struct {
	runner  Runner
	timeout time.Duration
}

func (t timeoutRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	res, err := t.runner.Run(ctx, name, args...)
	if err == nil || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, err
	}
	var se *Error
	if errors.As(err, &se) && se.Code == CodeTimeout {
		return res, err
	}
	command := strings.TrimSpace(name + " " + strings.Join(args, " "))
	return res, &Error{Code: CodeTimeout, Command: command, Stderr: res.Stderr, Err: ctx.Err()}
}
