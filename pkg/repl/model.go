// Package repl implements the interactive terminal calculator.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lemonberrylabs/timecalc/pkg/expr"
	"github.com/lemonberrylabs/timecalc/pkg/store"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// maxEntries bounds the scrollback kept by the model.
const maxEntries = 200

// Evaluator evaluates a single expression. *runtime.Engine implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, input string) (*store.Evaluation, error)
}

// Entry is one line of the session: the submitted expression and what it
// produced.
type Entry struct {
	Input   string
	Output  string // formatted result or error message
	Tag     string // error tag, empty on success
	Verdict bool   // Output is Correct! or Incorrect!
}

// Failed reports whether the entry holds an error.
func (e Entry) Failed() bool {
	return e.Tag != ""
}

// Model is the Bubble Tea model of the calculator session.
type Model struct {
	ctx   context.Context
	eval  Evaluator
	input textinput.Model

	entries []Entry

	// Input history
	history      []string
	historyIndex int    // -1 when not navigating
	currentInput string // input saved while navigating the history

	width  int
	height int
}

// New creates a new calculator model.
func New(ctx context.Context, eval Evaluator) Model {
	ti := textinput.New()
	ti.Placeholder = "17:30 - 8:45"
	ti.Prompt = "> "
	ti.CharLimit = 400
	ti.Focus()

	return Model{
		ctx:          ctx,
		eval:         eval,
		input:        ti,
		historyIndex: -1,
	}
}

// Entries returns the session so far, oldest first.
func (m Model) Entries() []Entry {
	return m.entries
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyCtrlL:
		m.entries = nil
		return m, nil

	case tea.KeyUp:
		m.historyBack()
		return m, nil

	case tea.KeyDown:
		m.historyForward()
		return m, nil

	case tea.KeyEnter:
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.historyIndex = -1
	m.currentInput = ""
	if line == "" {
		return m, nil
	}

	switch line {
	case ":q", ":quit", "exit":
		return m, tea.Quit
	case ":clear":
		m.entries = nil
		return m, nil
	}

	if len(m.history) == 0 || m.history[len(m.history)-1] != line {
		m.history = append(m.history, line)
	}

	m.entries = append(m.entries, m.evaluate(line))
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
	return m, nil
}

func (m Model) evaluate(line string) Entry {
	entry := Entry{Input: line}
	ev, err := m.eval.Evaluate(m.ctx, line)
	if err != nil {
		entry.Output = err.Error()
		entry.Tag = types.TagOf(err)
		if entry.Tag == "" {
			entry.Tag = "Error"
		}
		return entry
	}
	entry.Output = ev.Display
	entry.Verdict = ev.Verdict()
	return entry
}

func (m *Model) historyBack() {
	if len(m.history) == 0 {
		return
	}
	if m.historyIndex == -1 {
		m.currentInput = m.input.Value()
		m.historyIndex = len(m.history) - 1
	} else if m.historyIndex > 0 {
		m.historyIndex--
	}
	m.input.SetValue(m.history[m.historyIndex])
	m.input.CursorEnd()
}

func (m *Model) historyForward() {
	if m.historyIndex == -1 {
		return
	}
	if m.historyIndex < len(m.history)-1 {
		m.historyIndex++
		m.input.SetValue(m.history[m.historyIndex])
	} else {
		m.historyIndex = -1
		m.input.SetValue(m.currentInput)
	}
	m.input.CursorEnd()
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("timecalc"))
	b.WriteString("\n\n")

	entries := m.entries
	if m.height > 0 {
		// Two lines per entry plus header, input and help.
		if fit := (m.height - 6) / 2; fit >= 0 && len(entries) > fit {
			entries = entries[len(entries)-fit:]
		}
	}
	for _, e := range entries {
		b.WriteString(renderEntry(e))
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: evaluate • ↑/↓: history • ctrl+l: clear • esc: quit"))
	b.WriteString("\n")
	return b.String()
}

func renderEntry(e Entry) string {
	var out string
	switch {
	case e.Failed():
		out = errorStyle.Render(e.Output) + " " + tagStyle.Render("("+e.Tag+")")
	case e.Verdict && e.Output == expr.VerdictCorrect:
		out = correctStyle.Render(e.Output)
	case e.Verdict:
		out = incorrectStyle.Render(e.Output)
	default:
		out = resultStyle.Render("= " + e.Output)
	}
	return inputEchoStyle.Render("  "+e.Input) + "\n  " + out + "\n"
}

// Run starts an interactive session on the terminal and blocks until the
// user quits or ctx is cancelled.
func Run(ctx context.Context, eval Evaluator) error {
	p := tea.NewProgram(New(ctx, eval), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// RunPlain evaluates every line of r and writes the results to w, one per
// line. It is used when stdin is not a terminal.
func RunPlain(ctx context.Context, eval Evaluator, r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m := New(ctx, eval)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e := m.evaluate(line)
		if e.Failed() {
			fmt.Fprintf(w, "%s: %s\n", e.Tag, e.Output)
			continue
		}
		fmt.Fprintln(w, e.Output)
	}
	return nil
}
