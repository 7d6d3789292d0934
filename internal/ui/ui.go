// Package ui is the terminal front end: the active view fills the screen,
// a status line sits below it and the prompt is the last line.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/dispatcher/report"
	"github.com/dshills/ctrlshell/internal/host"
	"github.com/dshills/ctrlshell/internal/logging"
)

// Prompt is drawn before the input line.
const Prompt = ": "

// tabWidth is the number of columns a tab expands to.
const tabWidth = 4

// Dispatcher runs prompt text.
type Dispatcher interface {
	Dispatch(ctx context.Context, text string) handler.Result
}

// Window is the part of the host session the UI reads and navigates.
type Window interface {
	ActiveView() host.ViewID
	View(id host.ViewID) (host.View, bool)
	Views() []host.View
	CloseView(id host.ViewID) error
	Cycle(delta int) host.ViewID
}

// History supplies previously entered lines, oldest first.
type History interface {
	Entries() []string
}

// Styles used for drawing.
var (
	styleText   = tcell.StyleDefault
	styleStatus = tcell.StyleDefault.Reverse(true)
	styleError  = tcell.StyleDefault.Reverse(true).Foreground(tcell.ColorRed)
	stylePrompt = tcell.StyleDefault.Bold(true)
)

// UI draws the session and feeds prompt lines to the dispatcher.
type UI struct {
	screen     tcell.Screen
	window     Window
	dispatcher Dispatcher
	history    History
	logger     *logging.Logger

	input   []rune
	cursor  int
	histPos int
	scroll  map[host.ViewID]int

	message string
	isError bool
}

// Option configures a UI.
type Option func(*UI)

// WithHistory enables Ctrl-P / Ctrl-N recall of previous lines.
func WithHistory(h History) Option {
	return func(u *UI) {
		u.history = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(u *UI) {
		if l != nil {
			u.logger = l.WithComponent("ui")
		}
	}
}

// New creates a UI on an initialized screen.
func New(screen tcell.Screen, window Window, d Dispatcher, opts ...Option) *UI {
	u := &UI{
		screen:     screen,
		window:     window,
		dispatcher: d,
		logger:     logging.Nop(),
		histPos:    -1,
		scroll:     make(map[host.ViewID]int),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run processes events until the user quits, the screen is finalized or ctx
// ends.
func (u *UI) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-stop:
		}
	}()

	u.draw()
	for {
		ev := u.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if u.handleEvent(ctx, ev) {
			return nil
		}
		u.draw()
	}
}

// Refresh asks a running UI to redraw, for changes made outside the event
// loop. It is safe to call from any goroutine.
func (u *UI) Refresh() {
	_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Input returns the current prompt text.
func (u *UI) Input() string {
	return string(u.input)
}

// Message returns the status message and whether it reports an error.
func (u *UI) Message() (string, bool) {
	return u.message, u.isError
}

// handleEvent reacts to one event. It returns true when the UI should exit.
func (u *UI) handleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		u.screen.Sync()
	case *tcell.EventKey:
		return u.handleKey(ctx, ev)
	}
	return false
}

func (u *UI) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyCtrlQ:
		return true
	case tcell.KeyEnter:
		u.submit(ctx)
	case tcell.KeyTab:
		u.window.Cycle(1)
	case tcell.KeyBacktab:
		u.window.Cycle(-1)
	case tcell.KeyCtrlW:
		u.closeActive()
	case tcell.KeyUp:
		u.scrollBy(-1)
	case tcell.KeyDown:
		u.scrollBy(1)
	case tcell.KeyPgUp:
		u.scrollBy(-u.pageSize())
	case tcell.KeyPgDn:
		u.scrollBy(u.pageSize())
	case tcell.KeyCtrlP:
		u.recall(-1)
	case tcell.KeyCtrlN:
		u.recall(1)
	case tcell.KeyLeft:
		u.cursor = max(u.cursor-1, 0)
	case tcell.KeyRight:
		u.cursor = min(u.cursor+1, len(u.input))
	case tcell.KeyHome, tcell.KeyCtrlA:
		u.cursor = 0
	case tcell.KeyEnd, tcell.KeyCtrlE:
		u.cursor = len(u.input)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if u.cursor > 0 {
			u.input = append(u.input[:u.cursor-1], u.input[u.cursor:]...)
			u.cursor--
		}
	case tcell.KeyDelete:
		if u.cursor < len(u.input) {
			u.input = append(u.input[:u.cursor], u.input[u.cursor+1:]...)
		}
	case tcell.KeyCtrlU:
		u.setInput("")
	case tcell.KeyEscape:
		u.setInput("")
		u.message, u.isError = "", false
	case tcell.KeyRune:
		u.insert(ev.Rune())
	}
	return false
}

func (u *UI) insert(r rune) {
	u.input = append(u.input, 0)
	copy(u.input[u.cursor+1:], u.input[u.cursor:])
	u.input[u.cursor] = r
	u.cursor++
}

func (u *UI) setInput(s string) {
	u.input = []rune(s)
	u.cursor = len(u.input)
}

// submit dispatches the prompt line.
func (u *UI) submit(ctx context.Context) {
	text := string(u.input)
	u.setInput("")
	u.histPos = -1

	result := u.dispatcher.Dispatch(ctx, text)
	u.showResult(result)
	if !result.View.IsZero() {
		u.scroll[result.View.ID] = 0
	}
}

func (u *UI) showResult(result handler.Result) {
	u.message, u.isError = result.Message, false
	if result.IsError() && result.Error != nil {
		msg, _, _ := strings.Cut(report.Format(result.Error), "\n")
		u.message, u.isError = msg, true
	}
}

func (u *UI) closeActive() {
	id := u.window.ActiveView()
	if id.IsZero() {
		return
	}
	if err := u.window.CloseView(id); err != nil {
		u.logger.Warn("close view", "view", string(id), "error", err)
		return
	}
	delete(u.scroll, id)
}

// recall steps through history. delta -1 moves to older entries.
func (u *UI) recall(delta int) {
	if u.history == nil {
		return
	}
	entries := u.history.Entries()
	if len(entries) == 0 {
		return
	}

	pos := u.histPos
	if pos < 0 {
		pos = len(entries)
	}
	pos += delta
	switch {
	case pos < 0:
		pos = 0
	case pos >= len(entries):
		u.histPos = -1
		u.setInput("")
		return
	}
	u.histPos = pos
	u.setInput(entries[pos])
}

func (u *UI) pageSize() int {
	_, h := u.screen.Size()
	return max(h-3, 1)
}

func (u *UI) scrollBy(delta int) {
	id := u.window.ActiveView()
	if id.IsZero() {
		return
	}
	u.scroll[id] = max(u.scroll[id]+delta, 0)
}

// draw renders the whole screen.
func (u *UI) draw() {
	u.screen.Clear()
	w, h := u.screen.Size()
	if h < 2 {
		u.screen.Show()
		return
	}

	textHeight := h - 2
	if view, ok := u.window.View(u.window.ActiveView()); ok {
		lines := viewLines(view.Text)
		top := u.clampScroll(view.ID, len(lines), textHeight)
		for row := 0; row < textHeight && top+row < len(lines); row++ {
			drawString(u.screen, 0, row, w, lines[top+row], styleText)
		}
	}

	status := styleStatus
	if u.isError {
		status = styleError
	}
	fill(u.screen, h-2, w, status)
	drawString(u.screen, 0, h-2, w, u.statusText(), status)

	drawString(u.screen, 0, h-1, w, Prompt, stylePrompt)
	drawString(u.screen, len(Prompt), h-1, w, string(u.input), styleText)
	u.screen.ShowCursor(len(Prompt)+runewidth.StringWidth(string(u.input[:u.cursor])), h-1)

	u.screen.Show()
}

func (u *UI) clampScroll(id host.ViewID, lines, height int) int {
	top := min(u.scroll[id], max(lines-height, 0))
	u.scroll[id] = top
	return top
}

// statusText is " name [i/n]  message".
func (u *UI) statusText() string {
	views := u.window.Views()
	active := u.window.ActiveView()

	name := "(no view)"
	pos := 0
	for i, v := range views {
		if v.ID == active {
			name, pos = v.Name, i+1
			break
		}
	}

	s := fmt.Sprintf(" %s [%d/%d]", name, pos, len(views))
	if u.message != "" {
		s += "  " + u.message
	}
	return s
}

func viewLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
	return strings.Split(text, "\n")
}

// drawString draws text from column x, clipped at width. Wide runes take
// two columns.
func drawString(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x += rw
	}
}

func fill(s tcell.Screen, y, width int, style tcell.Style) {
	for x := 0; x < width; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}
