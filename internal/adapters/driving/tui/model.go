// Package tui provides an interactive terminal session for querying
// the indexed documentation.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
)

// mode selects which service an Enter press invokes.
type mode int

const (
	modeAsk mode = iota
	modeSearch
)

const requestTimeout = 120 * time.Second

// Model is the Bubble Tea model for the interactive session.
type Model struct {
	agent  driving.AgentService
	search driving.SearchService
	filter domain.SearchFilter

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	mode   mode
	busy   bool
	status string
	ready  bool
}

type answerMsg struct {
	resp *domain.AgentResponse
	err  error
}

type resultsMsg struct {
	query      string
	candidates []domain.Candidate
	err        error
}

// New creates a model wired to the given services.
func New(agent driving.AgentService, search driving.SearchService, filter domain.SearchFilter) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Posez une question et appuyez sur Entrée"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		agent:    agent,
		search:   search,
		filter:   filter,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Prêt. Tab bascule entre question et recherche.",
	}
}

// Run starts the program and blocks until the user quits.
func Run(agent driving.AgentService, search driving.SearchService, filter domain.SearchFilter) error {
	_, err := tea.NewProgram(New(agent, search, filter), tea.WithAltScreen()).Run()
	return err
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := contentStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		vh := msg.Height - fh - qh - 4
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-2)
		m.viewport.Height = vh
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			if m.mode == modeAsk {
				m.mode = modeSearch
				m.input.Placeholder = "Tapez une requête et appuyez sur Entrée"
			} else {
				m.mode = modeAsk
				m.input.Placeholder = "Posez une question et appuyez sur Entrée"
			}
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Recherche en cours..."
			if m.mode == modeAsk {
				return m, tea.Batch(m.spinner.Tick, m.askCmd(q))
			}
			return m, tea.Batch(m.spinner.Tick, m.searchCmd(q))
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Erreur: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Réponse en %s (trace %s)",
			msg.resp.Timings.Total.Round(time.Millisecond), msg.resp.TraceID)
		m.viewport.SetContent(renderAnswer(msg.resp))
		m.viewport.GotoTop()
		return m, nil

	case resultsMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Erreur: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("%d résultat(s) pour %q", len(msg.candidates), msg.query)
		m.viewport.SetContent(renderResults(msg.candidates))
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
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

// View renders the session layout.
func (m Model) View() string {
	if !m.ready {
		return "Chargement..."
	}
	title := "docpilot"
	if m.mode == modeSearch {
		title += " [recherche]"
	} else {
		title += " [question]"
	}
	header := headerStyle.Render(title)
	content := contentStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + content + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) askCmd(question string) tea.Cmd {
	agent, filter := m.agent, m.filter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := agent.Ask(ctx, question, filter)
		return answerMsg{resp: resp, err: err}
	}
}

func (m Model) searchCmd(query string) tea.Cmd {
	search, filter := m.search, m.filter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		candidates, err := search.Retrieve(ctx, query, filter)
		return resultsMsg{query: query, candidates: candidates, err: err}
	}
}

func renderAnswer(resp *domain.AgentResponse) string {
	var b strings.Builder
	b.WriteString(resp.Answer)
	if resp.Error != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("Erreur: " + resp.Error))
	}
	if len(resp.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(sourceHeaderStyle.Render("Sources"))
		for _, src := range resp.Sources {
			b.WriteString(fmt.Sprintf("\n  [%d] %s (%s) - %.2f",
				src.Index, src.Title, src.URI, src.Similarity))
		}
	}
	return b.String()
}

func renderResults(candidates []domain.Candidate) string {
	if len(candidates) == 0 {
		return "Aucun résultat."
	}
	var b strings.Builder
	for i, c := range candidates {
		if i > 0 {
			b.WriteString("\n\n")
		}
		head := fmt.Sprintf("%d. %s (%s)  score=%.3f",
			i+1, c.Document.Title, c.Document.URI, c.Similarity)
		b.WriteString(sourceHeaderStyle.Render(head))
		b.WriteString("\n")
		b.WriteString(excerpt(c.Chunk.Text, 400))
	}
	return b.String()
}

func excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

var (
	headerStyle       = lipgloss.NewStyle().Bold(true)
	contentStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sourceHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
