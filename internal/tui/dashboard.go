// Package tui implements the Bubble Tea dashboard: team roster, task board,
// and a streaming chat with the commander agent.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"agentteam/internal/adapter/llm"
	"agentteam/internal/domain"
	"agentteam/internal/prompt"
	"agentteam/internal/store"
)

// Deps are the collaborators injected into the dashboard.
type Deps struct {
	Store   *store.Store
	Chatter llm.Chatter
	Config  llm.Config
	Options domain.ChatOptions
	Team    string
	Logger  *slog.Logger
}

type entryRole int

const (
	entryUser entryRole = iota
	entryAssistant
	entryError
)

type entry struct {
	role    entryRole
	content string
}

// Dashboard is the root Bubble Tea model.
type Dashboard struct {
	deps Deps

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	commander *domain.Agent
	roster    []domain.Agent
	tasks     []domain.TaskSummary

	history    []domain.Message // user/assistant turns only
	transcript []entry
	pending    string // assistant text accumulated while streaming

	waiting bool
	gen     uint64
	stream  <-chan domain.StreamChunk
	cancel  context.CancelFunc

	width  int
	height int
	ready  bool
}

// New creates the dashboard model.
func New(deps Deps) Dashboard {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	input := textinput.New()
	input.Placeholder = "Message the commander... (esc to quit)"
	input.Focus()

	return Dashboard{
		deps:    deps,
		spinner: s,
		input:   input,
	}
}

// Run starts the dashboard program and blocks until exit.
func Run(deps Deps) error {
	p := tea.NewProgram(New(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init loads the initial team snapshot.
func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadTeam())
}

// Update handles all incoming messages.
func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "enter":
			return m.handleSubmit()
		}

	case teamLoadedMsg:
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{entryError, msg.err.Error()})
		} else {
			m.commander = msg.commander
			m.roster = msg.roster
			m.tasks = msg.tasks
		}
		m.refreshViewport()
		return m, nil

	case streamStartedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.stream = msg.ch
		return m, waitForChunk(msg.ch, msg.gen)

	case streamChunkMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.chunk.Done {
			return m.finishResponse(), m.loadTeam()
		}
		m.pending += msg.chunk.Content
		m.refreshViewport()
		return m, waitForChunk(m.stream, msg.gen)

	case streamClosedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if m.waiting {
			// Channel closed without a Done chunk; keep what arrived.
			return m.finishResponse(), m.loadTeam()
		}
		return m, nil

	case streamFailedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.waiting = false
		if m.deps.Logger != nil {
			m.deps.Logger.Warn("chat stream failed", "error", msg.err)
		}
		m.transcript = append(m.transcript, entry{entryError, msg.err.Error()})
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Dashboard) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}
	m.input.SetValue("")

	m.transcript = append(m.transcript, entry{entryUser, text})
	m.history = append(m.history, domain.Message{Role: domain.RoleUser, Content: text})
	m.pending = ""
	m.waiting = true
	m.gen++
	m.refreshViewport()

	msgs := prompt.BuildCommanderContext(m.commander, m.roster, m.tasks)
	msgs = append(msgs, m.history...)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return m, m.openStream(ctx, msgs, m.gen)
}

func (m Dashboard) finishResponse() Dashboard {
	content := m.pending
	m.pending = ""
	m.waiting = false
	m.stream = nil
	if content != "" {
		m.transcript = append(m.transcript, entry{entryAssistant, content})
		m.history = append(m.history, domain.Message{Role: domain.RoleAssistant, Content: content})
	}
	m.refreshViewport()
	return m
}

// --- commands ---

func (m Dashboard) loadTeam() tea.Cmd {
	s := m.deps.Store
	return func() tea.Msg {
		ctx := context.Background()
		commander, err := s.Commander(ctx)
		if err != nil {
			return teamLoadedMsg{err: err}
		}
		roster, err := s.ListAgents(ctx)
		if err != nil {
			return teamLoadedMsg{err: err}
		}
		tasks, err := s.ActiveTaskSummaries(ctx)
		if err != nil {
			return teamLoadedMsg{err: err}
		}
		return teamLoadedMsg{commander: commander, roster: roster, tasks: tasks}
	}
}

func (m Dashboard) openStream(ctx context.Context, msgs []domain.Message, gen uint64) tea.Cmd {
	chatter := m.deps.Chatter
	cfg := m.deps.Config
	opts := m.deps.Options
	return func() tea.Msg {
		ch, err := chatter.ChatStream(ctx, cfg, msgs, opts)
		if err != nil {
			return streamFailedMsg{err: err, gen: gen}
		}
		return streamStartedMsg{ch: ch, gen: gen}
	}
}

func waitForChunk(ch <-chan domain.StreamChunk, gen uint64) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-ch
		if !ok {
			return streamClosedMsg{gen: gen}
		}
		return streamChunkMsg{chunk: chunk, gen: gen}
	}
}

// --- view ---

const sidebarWidth = 34

func (m *Dashboard) layout() {
	chatWidth := m.width - sidebarWidth - 2
	if chatWidth < 20 {
		chatWidth = 20
	}
	chatHeight := m.height - 6
	if chatHeight < 5 {
		chatHeight = 5
	}
	m.viewport = viewport.New(chatWidth, chatHeight)
	m.input.Width = chatWidth - 4

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(chatWidth-2),
	)
	if err == nil {
		m.renderer = renderer
	}
	m.refreshViewport()
}

func (m *Dashboard) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, e := range m.transcript {
		switch e.role {
		case entryUser:
			b.WriteString(userStyle.Render("You") + ": " + e.content + "\n\n")
		case entryAssistant:
			b.WriteString(commanderStyle.Render(m.commanderName()) + ":\n")
			b.WriteString(m.renderMarkdown(e.content) + "\n")
		case entryError:
			b.WriteString(errorStyle.Render("error: "+e.content) + "\n\n")
		}
	}
	if m.waiting {
		b.WriteString(commanderStyle.Render(m.commanderName()) + ":\n")
		b.WriteString(m.pending)
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// renderMarkdown pretty-prints a completed assistant turn. Streaming text is
// shown raw; glamour only runs once the turn is final.
func (m *Dashboard) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

func (m Dashboard) commanderName() string {
	if m.commander != nil && m.commander.Name != "" {
		return m.commander.Name
	}
	return "Commander"
}

// View renders the full dashboard.
func (m Dashboard) View() string {
	if !m.ready {
		return "loading..."
	}

	title := titleStyle.Render(m.deps.Team)

	sidebar := lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(sidebarWidth).Render(m.rosterPanel()),
		panelStyle.Width(sidebarWidth).Render(m.taskPanel()),
	)

	status := ""
	if m.waiting {
		status = m.spinner.View() + " thinking..."
	}
	chat := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		status,
		m.input.View(),
		hintStyle.Render(fmt.Sprintf("%s · %s", m.deps.Config.Provider, m.deps.Config.Model)),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", chat)
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func (m Dashboard) rosterPanel() string {
	var b strings.Builder
	b.WriteString(panelHeaderStyle.Render("Team") + "\n")
	fmt.Fprintf(&b, "Total Agents: %d\n", len(m.roster))
	for _, a := range m.roster {
		marker := " "
		if a.Commander {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s (%s) ", marker, a.Name, a.Role)
		b.WriteString(line + statusStyle(string(a.Status)).Render(string(a.Status)) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Dashboard) taskPanel() string {
	var b strings.Builder
	b.WriteString(panelHeaderStyle.Render("Active Tasks") + "\n")
	if len(m.tasks) == 0 {
		b.WriteString(hintStyle.Render("No active tasks."))
		return b.String()
	}
	for _, t := range m.tasks {
		fmt.Fprintf(&b, "- %s: %s\n", t.Title, t.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}
