package chatview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	collabdto "peerpad/internal/modules/collab/dto"
	"peerpad/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type CollabPort interface {
	SendChat(project, text string) error
	ChangeUsername(newName string) error
	Quit() error
	Status() collabdto.StatusOutput
	ActivityTail(ctx context.Context, project string, limit int) ([]collabdto.ActivityOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// EventMsg is one live line pushed from the network loop: chat, joins,
// leaves, renames and errors all arrive through the same channel.
type EventMsg struct {
	Project string
	Actor   string
	Kind    string
	Text    string
	At      time.Time
}

// QuitDoneMsg arrives once the network loop has fully stopped.
type QuitDoneMsg struct{}

type statusTickMsg struct{}

type historyMsg struct {
	Events []collabdto.ActivityOutput
	Err    error
}

const statusRefresh = 2 * time.Second

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port   CollabPort
	events <-chan tea.Msg

	log     viewport.Model
	input   textinput.Model
	status  collabdto.StatusOutput
	lines   []string
	project string
	notice  string
	width   int
	height  int
	done    bool
}

func New(port CollabPort, events <-chan tea.Msg) Model {
	ti := textinput.New()
	ti.Placeholder = "message, /nick <name>, /quit"
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(theme.Peach)
	ti.Focus()

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(0, 1)

	return Model{
		port:   port,
		events: events,
		log:    vp,
		input:  ti,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), m.loadHistoryCmd(), statusTick(), textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.log.SetContent(strings.Join(m.lines, "\n"))
		m.log.GotoBottom()

	case EventMsg:
		m.appendLine(renderEvent(msg))
		cmds = append(cmds, m.waitEvent())

	case QuitDoneMsg:
		m.done = true
		return m, tea.Quit

	case historyMsg:
		if msg.Err != nil {
			m.notice = "history load failed: " + msg.Err.Error()
			break
		}
		for _, e := range msg.Events {
			m.appendLine(renderEvent(EventMsg{
				Project: e.Project, Actor: e.Actor, Kind: e.Kind, Text: e.Text, At: e.OccurredAt,
			}))
		}

	case statusTickMsg:
		m.status = m.port.Status()
		if m.project == "" && len(m.status.Projects) > 0 {
			m.project = m.status.Projects[0].Name
		}
		cmds = append(cmds, statusTick())

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.notice = "quitting…"
			cmds = append(cmds, m.quitCmd())
		case "tab":
			m.cycleProject()
		case "enter":
			cmds = append(cmds, m.submit())
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.log, cmd = m.log.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	header := m.renderHeader()
	footer := m.input.View()
	if m.notice != "" {
		footer += "\n" + theme.Muted.Render(m.notice)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.log.View(), footer)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	headerH := 1
	footerH := 2
	logH := m.height - headerH - footerH
	if logH < 1 {
		logH = 1
	}
	m.log.Width = m.width
	m.log.Height = logH
	m.input.Width = m.width - 4
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.log.SetContent(strings.Join(m.lines, "\n"))
	m.log.GotoBottom()
}

func (m *Model) cycleProject() {
	names := make([]string, 0, len(m.status.Projects))
	for _, p := range m.status.Projects {
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		return
	}
	next := 0
	for i, name := range names {
		if name == m.project {
			next = (i + 1) % len(names)
			break
		}
	}
	m.project = names[next]
}

func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return nil
	}

	switch {
	case text == "/quit":
		m.notice = "quitting…"
		return m.quitCmd()
	case strings.HasPrefix(text, "/nick "):
		name := strings.TrimSpace(strings.TrimPrefix(text, "/nick "))
		if err := m.port.ChangeUsername(name); err != nil {
			m.notice = err.Error()
		}
		return nil
	default:
		if m.project == "" {
			m.notice = "no project joined yet"
			return nil
		}
		if err := m.port.SendChat(m.project, text); err != nil {
			m.notice = err.Error()
			return nil
		}
		m.appendLine(renderEvent(EventMsg{
			Project: m.project, Actor: m.status.Username, Kind: "chat", Text: text, At: time.Now(),
		}))
		return nil
	}
}

func (m Model) renderHeader() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("peerpad"))
	if m.status.ListenAddr != "" {
		sb.WriteString(theme.Muted.Render("  " + m.status.ListenAddr))
	}
	for _, p := range m.status.Projects {
		label := fmt.Sprintf(" %s(%d) ", p.Name, len(p.Members)+1)
		if p.Name == m.project {
			sb.WriteString(theme.Hot.Render(label))
		} else {
			sb.WriteString(theme.Muted.Render(label))
		}
	}
	return sb.String()
}

func renderEvent(e EventMsg) string {
	stamp := theme.Muted.Render(e.At.Format("15:04:05"))
	switch e.Kind {
	case "chat":
		return fmt.Sprintf("%s %s %s", stamp, theme.Title.Render(e.Actor+":"), e.Text)
	case "join":
		return fmt.Sprintf("%s %s", stamp, theme.Muted.Render(e.Actor+" joined "+e.Project))
	case "leave":
		return fmt.Sprintf("%s %s", stamp, theme.Muted.Render(e.Actor+" left "+e.Project))
	case "rename":
		return fmt.Sprintf("%s %s", stamp, theme.Muted.Render(e.Actor+" is now known as "+e.Text))
	case "error":
		return fmt.Sprintf("%s %s", stamp, theme.Hot.Render(e.Text))
	default:
		return fmt.Sprintf("%s %s %s", stamp, theme.Muted.Render(e.Actor), e.Text)
	}
}

func (m Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.events
		if !ok {
			return QuitDoneMsg{}
		}
		return msg
	}
}

func (m Model) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		events, err := m.port.ActivityTail(context.Background(), "", 50)
		return historyMsg{Events: events, Err: err}
	}
}

func (m Model) quitCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.port.Quit()
		return nil
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(statusRefresh, func(time.Time) tea.Msg {
		return statusTickMsg{}
	})
}
