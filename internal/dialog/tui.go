package dialog

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// TUI draws a centered modal on the whole terminal.
type TUI struct {
	newScreen func() (tcell.Screen, error)
	// ready, when set, is called once the screen is initialized.
	ready func(tcell.Screen)
}

// NewTUI uses newScreen to obtain a screen for every interaction.
func NewTUI(newScreen func() (tcell.Screen, error)) *TUI {
	return &TUI{newScreen: newScreen}
}

var (
	styleBox      = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleTitle    = styleBox.Foreground(tcell.ColorYellow).Bold(true)
	styleOption   = styleBox.Foreground(tcell.ColorSilver)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow).Bold(true)
	styleInput    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
)

// session wraps one initialized screen and forwards context cancellation
// into its event loop.
type session struct {
	screen tcell.Screen
	stop   chan struct{}
}

func (t *TUI) open(ctx context.Context) (*session, error) {
	screen, err := t.newScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	s := &session{screen: screen, stop: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-s.stop:
		}
	}()
	if t.ready != nil {
		t.ready(screen)
	}
	return s, nil
}

func (s *session) close() {
	close(s.stop)
	s.screen.Fini()
}

// Confirm shows message with one button per option. Arrow keys or Tab move
// the selection, Enter chooses, a digit picks an option directly and Escape
// dismisses the modal with no selection.
func (t *TUI) Confirm(ctx context.Context, title, message string, options []string) (string, error) {
	s, err := t.open(ctx)
	if err != nil {
		return "", err
	}
	defer s.close()

	// Start on the last option so a stray Enter never picks the first one.
	selected := len(options) - 1
	for {
		drawModal(s.screen, title, message, options, selected, "")
		switch ev := s.screen.PollEvent().(type) {
		case nil:
			return "", nil
		case *tcell.EventInterrupt:
			return "", ctx.Err()
		case *tcell.EventResize:
			s.screen.Sync()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return "", nil
			case tcell.KeyEnter:
				if selected >= 0 {
					return options[selected], nil
				}
			case tcell.KeyLeft, tcell.KeyBacktab:
				if len(options) > 0 {
					selected = (selected - 1 + len(options)) % len(options)
				}
			case tcell.KeyRight, tcell.KeyTab:
				if len(options) > 0 {
					selected = (selected + 1) % len(options)
				}
			case tcell.KeyRune:
				if r := ev.Rune(); r >= '1' && r <= '9' && int(r-'0') <= len(options) {
					return options[r-'1'], nil
				}
			}
		}
	}
}

// Prompt shows a single-line text field. Escape cancels with "".
func (t *TUI) Prompt(ctx context.Context, title, message string) (string, error) {
	s, err := t.open(ctx)
	if err != nil {
		return "", err
	}
	defer s.close()

	var text []rune
	for {
		drawModal(s.screen, title, message, nil, -1, string(text))
		switch ev := s.screen.PollEvent().(type) {
		case nil:
			return "", nil
		case *tcell.EventInterrupt:
			return "", ctx.Err()
		case *tcell.EventResize:
			s.screen.Sync()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return "", nil
			case tcell.KeyEnter:
				return strings.TrimSpace(string(text)), nil
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				if len(text) > 0 {
					text = text[:len(text)-1]
				}
			case tcell.KeyRune:
				text = append(text, ev.Rune())
			}
		}
	}
}

func drawModal(screen tcell.Screen, title, message string, options []string, selected int, input string) {
	screen.Clear()
	w, h := screen.Size()

	lines := strings.Split(message, "\n")
	boxW := utf8.RuneCountInString(title) + 4
	for _, l := range lines {
		if n := utf8.RuneCountInString(l) + 4; n > boxW {
			boxW = n
		}
	}
	buttons := ""
	for _, opt := range options {
		buttons += "[ " + opt + " ]  "
	}
	if n := utf8.RuneCountInString(buttons) + 4; n > boxW {
		boxW = n
	}
	if options == nil && boxW < 40 {
		boxW = 40
	}
	if boxW > w {
		boxW = w
	}
	boxH := len(lines) + 6
	x0 := (w - boxW) / 2
	y0 := (h - boxH) / 2
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}

	for y := y0; y < y0+boxH; y++ {
		for x := x0; x < x0+boxW; x++ {
			screen.SetContent(x, y, ' ', nil, styleBox)
		}
	}
	putString(screen, x0+2, y0+1, title, styleTitle)
	for i, l := range lines {
		putString(screen, x0+2, y0+3+i, l, styleBox)
	}

	row := y0 + 3 + len(lines) + 1
	if options == nil {
		field := input + strings.Repeat(" ", max(0, boxW-4-utf8.RuneCountInString(input)))
		putString(screen, x0+2, row, field, styleInput)
		screen.ShowCursor(x0+2+utf8.RuneCountInString(input), row)
	} else {
		screen.HideCursor()
		x := x0 + 2
		for i, opt := range options {
			label := "[ " + opt + " ]"
			style := styleOption
			if i == selected {
				style = styleSelected
			}
			putString(screen, x, row, label, style)
			x += utf8.RuneCountInString(label) + 2
		}
	}
	screen.Show()
}

func putString(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	for _, r := range s {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
