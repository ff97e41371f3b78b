package dialog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console prompts on a terminal stream. It is not safe for concurrent use.
//
// A read abandoned by cancellation keeps waiting on in. The next read takes
// over that pending line instead of racing it for the reader; a line that
// arrived while nobody was asking is discarded as stale.
type Console struct {
	in      *bufio.Reader
	out     io.Writer
	pending chan lineResult

	title  *color.Color
	accent *color.Color
	muted  *color.Color
}

// NewConsole reads answers from in and writes prompts to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		title:  color.New(color.FgYellow, color.Bold),
		accent: color.New(color.FgCyan),
		muted:  color.New(color.Faint),
	}
}

// Prompt asks for a line of free text. End of input counts as a cancellation.
func (c *Console) Prompt(ctx context.Context, title, message string) (string, error) {
	c.title.Fprintln(c.out, title)
	fmt.Fprintf(c.out, "%s ", message)
	return c.readLine(ctx)
}

// Confirm shows message and the numbered options, then reads a single answer.
func (c *Console) Confirm(ctx context.Context, title, message string, options []string) (string, error) {
	fmt.Fprintln(c.out)
	c.title.Fprintf(c.out, "== %s ==\n", title)
	fmt.Fprintln(c.out, message)
	fmt.Fprintln(c.out)
	for i, opt := range options {
		c.accent.Fprintf(c.out, "  [%d] %s\n", i+1, opt)
	}
	c.muted.Fprint(c.out, "> ")

	line, err := c.readLine(ctx)
	if err != nil {
		return "", err
	}
	return matchOption(line, options), nil
}

type lineResult struct {
	line string
	err  error
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	ch := c.pending
	c.pending = nil
	if ch != nil {
		select {
		case res := <-ch:
			if res.err != nil {
				// The stream is finished; report it on this read.
				ch = make(chan lineResult, 1)
				ch <- lineResult{err: res.err}
			} else {
				ch = nil
			}
		default:
		}
	}
	if ch == nil {
		ch = make(chan lineResult, 1)
		go func() {
			line, err := c.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		c.pending = ch
		fmt.Fprintln(c.out)
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}
