// Package ui provides a terminal board for reviewing team workload.
// Uses Bubbletea to display members with their outstanding-task counters
// next to the group's task list.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Panel represents which panel is currently focused.
type Panel int

const (
	PanelMembers Panel = iota
	PanelTasks
)

// MemberRow is one roster entry on the board.
type MemberRow struct {
	ID             string
	Name           string
	Email          string
	Role           string
	Outstanding    int
	Availability   int
	NeedsReconcile bool
}

// TaskRow is one task on the board.
type TaskRow struct {
	ID         string
	Title      string
	AssigneeID string
	Assignee   string
	Status     string
	Priority   string
}

// Model holds the board state.
type Model struct {
	width       int
	height      int
	activePanel Panel
	quitting    bool

	groupName string
	members   []MemberRow
	tasks     []TaskRow

	selectedMember int
	memberScroll   int
	taskScroll     int
	filterActive   bool

	styles *Styles
}

// Styles holds lipgloss styles for the board.
type Styles struct {
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style

	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Reconcile lipgloss.Style

	LoadLow  lipgloss.Style
	LoadMid  lipgloss.Style
	LoadHigh lipgloss.Style

	StatusOpen lipgloss.Style
	StatusBusy lipgloss.Style
	StatusDone lipgloss.Style

	HelpKey  lipgloss.Style
	HelpText lipgloss.Style
}

func newStyles() *Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#666", Dark: "#888"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	green := lipgloss.AdaptiveColor{Light: "#22863a", Dark: "#3fb950"}
	yellow := lipgloss.AdaptiveColor{Light: "#b08800", Dark: "#d29922"}
	red := lipgloss.AdaptiveColor{Light: "#cb2431", Dark: "#f85149"}
	blue := lipgloss.AdaptiveColor{Light: "#0366d6", Dark: "#58a6ff"}

	return &Styles{
		ActiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight),

		InactiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			MarginBottom(1),

		Label: lipgloss.NewStyle().Foreground(subtle),
		Value: lipgloss.NewStyle().Bold(true),
		Muted: lipgloss.NewStyle().Foreground(subtle),

		Selected: lipgloss.NewStyle().
			Background(highlight).
			Foreground(lipgloss.Color("#fff")).
			Bold(true),

		Reconcile: lipgloss.NewStyle().Foreground(red).Bold(true),

		LoadLow:  lipgloss.NewStyle().Foreground(green),
		LoadMid:  lipgloss.NewStyle().Foreground(yellow),
		LoadHigh: lipgloss.NewStyle().Foreground(red),

		StatusOpen: lipgloss.NewStyle().Foreground(blue),
		StatusBusy: lipgloss.NewStyle().Foreground(yellow),
		StatusDone: lipgloss.NewStyle().Foreground(green),

		HelpKey: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		HelpText: lipgloss.NewStyle().Foreground(subtle),
	}
}

// tickMsg drives the periodic refresh.
type tickMsg time.Time

// New creates a board model for a group.
func New(groupName string) *Model {
	return &Model{
		width:       80,
		height:      24,
		activePanel: PanelMembers,
		groupName:   groupName,
		styles:      newStyles(),
	}
}

// SetMembers replaces the member rows.
func (m *Model) SetMembers(rows []MemberRow) {
	m.members = rows
	if m.selectedMember >= len(rows) {
		m.selectedMember = 0
	}
}

// SetTasks replaces the task rows.
func (m *Model) SetTasks(rows []TaskRow) {
	m.tasks = rows
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "right", "l":
		m.activePanel = (m.activePanel + 1) % 2
		return m, nil

	case "shift+tab", "left", "h":
		m.activePanel = (m.activePanel + 1) % 2
		return m, nil

	case "up", "k":
		return m.handleUp(), nil

	case "down", "j":
		return m.handleDown(), nil

	case "enter":
		if m.activePanel == PanelMembers && len(m.members) > 0 {
			m.filterActive = !m.filterActive
			m.taskScroll = 0
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleUp() Model {
	switch m.activePanel {
	case PanelMembers:
		if m.selectedMember > 0 {
			m.selectedMember--
		}
	case PanelTasks:
		if m.taskScroll > 0 {
			m.taskScroll--
		}
	}
	return m
}

func (m Model) handleDown() Model {
	switch m.activePanel {
	case PanelMembers:
		if m.selectedMember < len(m.members)-1 {
			m.selectedMember++
		}
	case PanelTasks:
		if m.taskScroll < len(m.visibleTasks())-1 {
			m.taskScroll++
		}
	}
	return m
}

// visibleTasks applies the member filter when active.
func (m Model) visibleTasks() []TaskRow {
	if !m.filterActive || len(m.members) == 0 {
		return m.tasks
	}
	selected := m.members[m.selectedMember].ID
	var out []TaskRow
	for _, t := range m.tasks {
		if t.AssigneeID == selected {
			out = append(out, t)
		}
	}
	return out
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	contentHeight := m.height - 3
	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth

	memberPanel := m.renderMemberPanel(leftWidth - 2)
	taskPanel := m.renderTaskPanel(rightWidth-2, contentHeight-2)

	memberBorder := m.getBorder(PanelMembers).Width(leftWidth - 2).Height(contentHeight - 2)
	taskBorder := m.getBorder(PanelTasks).Width(rightWidth - 2).Height(contentHeight - 2)

	row := lipgloss.JoinHorizontal(
		lipgloss.Top,
		memberBorder.Render(memberPanel),
		taskBorder.Render(taskPanel),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		row,
		m.renderHelpBar(),
	)
}

func (m Model) getBorder(panel Panel) lipgloss.Style {
	if m.activePanel == panel {
		return m.styles.ActiveBorder
	}
	return m.styles.InactiveBorder
}

// renderMemberPanel renders the roster with workload bars.
func (m Model) renderMemberPanel(width int) string {
	var b strings.Builder

	title := "Workload"
	if m.groupName != "" {
		title = "Workload: " + m.groupName
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n\n")

	if len(m.members) == 0 {
		b.WriteString(m.styles.Muted.Render("No members"))
		return b.String()
	}

	maxLoad := 0
	for _, row := range m.members {
		if row.Outstanding > maxLoad {
			maxLoad = row.Outstanding
		}
	}

	barWidth := width - 30
	if barWidth < 6 {
		barWidth = 6
	}

	for i, row := range m.members {
		name := row.Name
		if name == "" {
			name = row.Email
		}
		line := fmt.Sprintf(" %-16s %s %2d", truncate(name, 16),
			m.renderLoadBar(row.Outstanding, maxLoad, barWidth), row.Outstanding)

		if row.NeedsReconcile {
			line += m.styles.Reconcile.Render(" !")
		}
		if i == m.selectedMember && m.activePanel == PanelMembers {
			line = m.styles.Selected.Render(line)
		}

		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("   %s, %d%% available", row.Role, row.Availability)))
		b.WriteString("\n")
	}

	return b.String()
}

// renderLoadBar draws an outstanding-task bar scaled to the busiest member.
func (m Model) renderLoadBar(count, max, width int) string {
	if max == 0 {
		max = 1
	}
	filled := width * count / max
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("=", filled) + strings.Repeat("-", width-filled)

	style := m.styles.LoadLow
	pct := count * 100 / max
	if pct > 80 {
		style = m.styles.LoadHigh
	} else if pct > 50 {
		style = m.styles.LoadMid
	}
	return "[" + style.Render(bar) + "]"
}

// renderTaskPanel renders the task list, filtered when a member is selected.
func (m Model) renderTaskPanel(width, height int) string {
	var b strings.Builder

	title := "Tasks"
	if m.filterActive && len(m.members) > 0 {
		title = "Tasks: " + m.members[m.selectedMember].Name
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n\n")

	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		b.WriteString(m.styles.Muted.Render("No tasks"))
		return b.String()
	}

	visible := height - 4
	if visible < 1 {
		visible = 1
	}

	start := m.taskScroll
	if start+visible > len(tasks) {
		start = len(tasks) - visible
		if start < 0 {
			start = 0
		}
	}

	for i := start; i < len(tasks) && i < start+visible; i++ {
		t := tasks[i]

		var statusStyle lipgloss.Style
		switch t.Status {
		case "Done":
			statusStyle = m.styles.StatusDone
		case "In Progress", "Review":
			statusStyle = m.styles.StatusBusy
		default:
			statusStyle = m.styles.StatusOpen
		}

		line := fmt.Sprintf(" %s %s",
			statusStyle.Render(fmt.Sprintf("[%-11s]", t.Status)),
			truncate(t.Title, width-28))
		if t.Assignee != "" {
			line += m.styles.Muted.Render(" -> " + t.Assignee)
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(tasks) > visible {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf(" [%d/%d]", start+1, len(tasks))))
	}

	return b.String()
}

func (m Model) renderHelpBar() string {
	helpItems := []struct {
		key  string
		desc string
	}{
		{"tab", "switch panel"},
		{"j/k", "up/down"},
		{"enter", "filter by member"},
		{"q", "quit"},
	}

	var parts []string
	for _, item := range helpItems {
		parts = append(parts, fmt.Sprintf("%s %s",
			m.styles.HelpKey.Render(item.key),
			m.styles.HelpText.Render(item.desc),
		))
	}

	return "  " + strings.Join(parts, "  |  ")
}

// truncate shortens to max runes, not bytes, so multibyte titles stay intact.
func truncate(s string, max int) string {
	if max < 4 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// Run starts the board.
func (m *Model) Run() error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
