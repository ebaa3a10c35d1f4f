// Package tui renders a chat session in the terminal with Bubble Tea.
//
// The model never calls the completion client on the UI goroutine. On submit
// it appends the user message, hides the input and runs the request in a
// command; the reply is applied to the session when the command's message
// arrives. Only one turn can be in flight.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"chat-fe/internal/chat"
	"chat-fe/internal/llm"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

type Options struct {
	// Style names the glamour style for assistant replies, e.g. "dark",
	// "light" or "notty".
	Style   string
	Title   string
	Caption string
}

// replyMsg carries the outcome of a completion request back to Update.
type replyMsg struct {
	out chat.Outcome
}

// turnNotice is a notice shown after the first `after` transcript entries.
type turnNotice struct {
	after  int
	notice chat.Notice
}

type Model struct {
	ctrl    *chat.Controller
	ctx     context.Context
	cancel  context.CancelFunc
	startup *chat.Notice
	notices []turnNotice

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer
	styles   styles
	opts     Options

	width   int
	height  int
	waiting bool
}

// New returns a model for ctrl. startup, when set, is shown as a standing
// notice above the input for the whole session.
func New(ctrl *chat.Controller, startup *chat.Notice, opts Options) Model {
	if opts.Style == "" {
		opts.Style = "dark"
	}
	if opts.Title == "" {
		opts.Title = "💬 Chat"
	}
	if opts.Caption == "" {
		opts.Caption = "Type a prompt below to chat"
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your message…"
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		ctrl:     ctrl,
		ctx:      ctx,
		cancel:   cancel,
		startup:  startup,
		input:    ti,
		viewport: viewport.New(defaultWidth, defaultHeight),
		spinner:  sp,
		styles:   defaultStyles(),
		opts:     opts,
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(ctrl *chat.Controller, startup *chat.Notice, opts Options) error {
	p := tea.NewProgram(New(ctrl, startup, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			// Abandon any request still in flight.
			m.cancel()
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case replyMsg:
		m.finish(msg.out)
		return m, textinput.Blink

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	input := m.input.Value()
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	m.input.Reset()
	m.ctrl.Submit(input)

	if !m.ctrl.Store().Ready() {
		m.finish(m.ctrl.Request(m.ctx))
		return m, nil
	}

	m.waiting = true
	m.input.Blur()
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, requestCmd(m.ctx, m.ctrl))
}

func requestCmd(ctx context.Context, ctrl *chat.Controller) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{out: ctrl.Request(ctx)}
	}
}

func (m *Model) finish(out chat.Outcome) {
	m.waiting = false
	m.ctrl.Apply(out)
	if out.Notice != nil {
		m.notices = append(m.notices, turnNotice{
			after:  m.ctrl.Store().Len(),
			notice: *out.Notice,
		})
	}
	m.input.Focus()
	m.refresh()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.Width = max(width-4, 10)
	m.viewport.Width = width
	m.viewport.Height = max(height-lipgloss.Height(m.header())-lipgloss.Height(m.footer()), 3)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.opts.Style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err == nil {
		m.markdown = renderer
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	transcript := m.ctrl.Store().Transcript()
	next := 0
	for i, msg := range transcript {
		switch msg.Role {
		case llm.RoleUser:
			b.WriteString(m.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(m.styles.UserText.Width(max(m.width-2, 10)).Render(msg.Content))
			b.WriteString("\n\n")
		case llm.RoleAssistant:
			b.WriteString(m.styles.BotLabel.Render("Assistant"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Content))
			b.WriteString("\n")
		}
		for next < len(m.notices) && m.notices[next].after == i+1 {
			b.WriteString(m.styles.BotLabel.Render("Assistant"))
			b.WriteString("\n")
			b.WriteString(m.styles.Notice.Render(m.notices[next].notice.Text))
			b.WriteString("\n\n")
			next++
		}
	}
	return b.String()
}

func (m Model) renderMarkdown(content string) string {
	if m.markdown == nil {
		return content + "\n"
	}
	out, err := m.markdown.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}

func (m Model) header() string {
	return m.styles.Title.Render(m.opts.Title) + "\n" + m.styles.Caption.Render(m.opts.Caption) + "\n"
}

func (m Model) footer() string {
	var b strings.Builder
	if m.startup != nil {
		b.WriteString(m.styles.Banner.Render(m.startup.Text))
		b.WriteString("\n")
	}
	if m.waiting {
		b.WriteString(m.spinner.View() + " Thinking…")
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter send • pgup/pgdn scroll • esc quit"))
	return b.String()
}

func (m Model) View() string {
	return m.header() + "\n" + m.viewport.View() + "\n" + m.footer()
}
