package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/opsdeck/opsdeck/internal/keys"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

var (
	columnColors = map[Column]lipgloss.Color{
		ColTodo:       lipgloss.Color("#FF8787"),
		ColInProgress: lipgloss.Color("#54A0FF"),
		ColCompleted:  lipgloss.Color("#73F59F"),
	}

	priorityColors = map[workflow.Priority]lipgloss.Color{
		workflow.PriorityLow:      lipgloss.Color("#BBBBBB"),
		workflow.PriorityMedium:   lipgloss.Color("#F5D973"),
		workflow.PriorityHigh:     lipgloss.Color("#FFA94D"),
		workflow.PriorityCritical: lipgloss.Color("#FF5555"),
	}

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	selectedCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("#C792EA"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)

	dimStyle = lipgloss.NewStyle().Faint(true)
)

// View implements tea.Model.
func (m Model) View() string {
	var body string
	switch m.view {
	case ViewDetails:
		body = m.viewDetails()
	case ViewPicker:
		body = m.viewPicker()
	case ViewHelp:
		body = m.viewHelp()
	default:
		body = m.viewBoard()
	}

	sections := []string{body}
	if m.opts.ShowStatusBar {
		sections = append(sections, statusBarStyle.Render(m.statusLine()))
	}
	if m.toast.Visible() {
		sections = append(sections, m.toast.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewBoard() string {
	colWidth := 30
	if m.width > 0 {
		if w := m.width/int(columnCount) - 2; w > 20 {
			colWidth = w
		}
	}

	columns := make([]string, 0, columnCount)
	for col := ColTodo; col < columnCount; col++ {
		columns = append(columns, m.renderColumn(col, colWidth))
	}

	board := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	if m.creating {
		board = lipgloss.JoinVertical(lipgloss.Left, board, dimStyle.Render("creating workflow…"))
	}
	return board
}

func (m Model) renderColumn(col Column, width int) string {
	bucket := m.buckets[col]

	title := col.title()
	if m.opts.ShowCounts {
		title = fmt.Sprintf("%s (%d)", title, len(bucket))
	}
	header := headerStyle.Foreground(columnColors[col]).Render(title)

	cards := make([]string, 0, len(bucket)+1)
	cards = append(cards, header)
	for i, w := range bucket {
		style := cardStyle
		if col == m.col && i == m.rows[col] {
			style = selectedCardStyle
		}
		cards = append(cards, style.Width(width).Render(m.renderCard(w, width-4)))
	}
	if len(bucket) == 0 {
		cards = append(cards, dimStyle.Render("  (empty)"))
	}

	return lipgloss.NewStyle().Width(width + 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, cards...))
}

func (m Model) renderCard(w workflow.Workflow, width int) string {
	// Truncation counts terminal cells, not bytes, so wide runes survive
	title := w.Title
	if width > 3 {
		title = runewidth.Truncate(title, width, "…")
	}

	badge := lipgloss.NewStyle().
		Foreground(priorityColors[w.Priority]).
		Render(string(w.Priority))

	meta := dimStyle.Render(w.EstimatedTime)
	if len(w.Tags) > 0 {
		meta += dimStyle.Render(" · " + strings.Join(w.Tags, ", "))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, badge+" "+meta)
}

func (m Model) viewDetails() string {
	w, ok := m.Selected()
	if !ok {
		return dimStyle.Render("nothing selected")
	}

	var b strings.Builder
	b.WriteString("# " + w.Title + "\n\n")
	b.WriteString(w.Description + "\n\n")
	b.WriteString(fmt.Sprintf("**Priority:** %s · **Status:** %s · **Estimate:** %s\n\n",
		w.Priority, w.Status, w.EstimatedTime))
	if len(w.Tags) > 0 {
		b.WriteString("**Tags:** " + strings.Join(w.Tags, ", ") + "\n\n")
	}
	b.WriteString("## Steps\n\n")
	for _, step := range w.Steps {
		box := "[ ]"
		if step.Completed {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("- %s %s\n", box, step.Title))
	}
	b.WriteString("\n" + dimStyle.Render("created "+w.CreatedAt+" · source "+string(w.Source)))

	rendered, err := m.renderMarkdown(b.String())
	if err != nil {
		return b.String()
	}
	return rendered
}

func (m Model) renderMarkdown(text string) (string, error) {
	style := glamour.WithStandardStyle("dark")
	if m.opts.MarkdownStyle == "light" {
		style = glamour.WithStandardStyle("light")
	}
	width := m.width
	if width <= 0 || width > 100 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return renderer.Render(text)
}

func (m Model) viewPicker() string {
	lines := []string{headerStyle.Render("Add to workflow"), ""}
	for i, opt := range m.picker {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.pickerCursor {
			cursor = "> "
			style = style.Foreground(lipgloss.Color("#C792EA"))
		}
		badge := lipgloss.NewStyle().
			Foreground(priorityColors[opt.insight.Severity.DisplayPriority()]).
			Render(string(opt.insight.Severity))
		lines = append(lines, style.Render(cursor+opt.action.Label)+
			dimStyle.Render(" — "+opt.insight.Title+" ")+badge)
	}
	lines = append(lines, "", dimStyle.Render("enter: create · esc: cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewHelp() string {
	h := help.New()
	h.ShowAll = true
	if m.width > 0 {
		h.Width = m.width
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("Keybindings"),
		h.View(keys.DefaultKeyMap()),
	)
}
