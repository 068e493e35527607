// Package tui is the terminal chat client.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/ragcontext/server/service/answer"
)

// Answerer is the chat-facing subset of the answer service.
type Answerer interface {
	Answer(ctx context.Context, sessionID, message string) *answer.Reply
}

// answerTimeout bounds one question, classification to generation.
const answerTimeout = 2 * time.Minute

type entry struct {
	question string
	reply    string
	sources  []string
}

// replyMsg carries a finished answer back into the update loop.
type replyMsg struct {
	question string
	reply    *answer.Reply
}

// Model is the Bubble Tea model of the chat client. One model is one session.
type Model struct {
	service   Answerer
	sessionID string
	input     textinput.Model
	viewport  viewport.Model
	entries   []entry
	status    string
	waiting   bool
	ready     bool
}

// New creates a chat model bound to a fresh session.
func New(service Answerer) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		service:   service,
		sessionID: "tui-" + shortuuid.New(),
		input:     ti,
		viewport:  viewport.New(0, 0),
		status:    "Ready. Ctrl+C to quit.",
	}
}

// SessionID returns the conversation id used for every question.
func (m Model) SessionID() string { return m.sessionID }

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles keys, window resizes and finished answers.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input box
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil
	case replyMsg:
		m.waiting = false
		m.entries = append(m.entries, entry{question: msg.question, reply: msg.reply.Text, sources: msg.reply.Sources})
		if msg.reply.Err != nil {
			m.status = "Generation failed."
		} else {
			m.status = fmt.Sprintf("Answered with %d source(s).", len(msg.reply.Sources))
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.waiting {
				return m, nil
			}
			m.input.SetValue("")
			m.waiting = true
			m.status = "Thinking..."
			return m, m.ask(question)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	service, sessionID := m.service, m.sessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
		defer cancel()
		return replyMsg{question: question, reply: service.Answer(ctx, sessionID, question)}
	}
}

// View renders the header, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("ragcontext chat") + "  " + mutedStyle.Render(m.sessionID)
	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(m.status)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return mutedStyle.Render("No messages yet.")
	}
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("you: " + e.question))
		b.WriteString("\n")
		b.WriteString(e.reply)
		if len(e.sources) > 0 {
			b.WriteString("\n")
			b.WriteString(mutedStyle.Render("sources: " + strings.Join(e.sources, ", ")))
		}
	}
	return b.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
