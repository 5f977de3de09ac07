// Package tui implements the interactive question-answering terminal UI.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driving"
)

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	citationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// answerMsg carries the outcome of one question.
type answerMsg struct {
	question string
	answer   *domain.Answer
	err      error
}

// Model is the Bubble Tea model for the ask session.
type Model struct {
	answerer driving.QuestionAnswerer
	topK     int

	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool
	waiting  bool

	lastQuestion string
	lastAnswer   *domain.Answer
}

// New creates the ask session model.
func New(answerer driving.QuestionAnswerer, topK int, indexed int) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Type a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		answerer: answerer,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   fmt.Sprintf("Index loaded (%d chunks). Ask away.", indexed),
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh // header, status, query frame
		vh := msg.Height - reserved - ah
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.lastAnswer = nil
		} else {
			m.status = fmt.Sprintf("Answered %q", msg.question)
			m.lastQuestion = msg.question
			m.lastAnswer = msg.answer
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.waiting = true
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, m.ask(q)
			}
		case "down":
			m.viewport.ScrollDown(1)
			return m, nil
		case "up":
			m.viewport.ScrollUp(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the session layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docquery")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + answer + "\n" + input + "\n" + status
}

// ask runs the question off the update loop.
func (m Model) ask(question string) tea.Cmd {
	answerer, topK := m.answerer, m.topK
	return func() tea.Msg {
		answer, err := answerer.Ask(context.Background(), question, topK)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

func (m Model) renderAnswer() string {
	if m.lastAnswer == nil {
		return "No answer yet."
	}

	var b strings.Builder
	b.WriteString(m.lastAnswer.Text)

	if len(m.lastAnswer.Citations) > 0 {
		b.WriteString("\n\n")
		b.WriteString(citationStyle.Render("Sources:"))
		for i, c := range m.lastAnswer.Citations {
			line := fmt.Sprintf("\n  [%d] %s", i+1, c.SourceID)
			if c.Pages != "" {
				line += fmt.Sprintf(" (p. %s)", c.Pages)
			}
			line += fmt.Sprintf("  score=%.3f", c.Score)
			b.WriteString(citationStyle.Render(line))
			if c.Snippet != "" {
				b.WriteString(citationStyle.Render("\n      " + c.Snippet))
			}
		}
	}
	return b.String()
}
