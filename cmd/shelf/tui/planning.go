package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// PlanModel renders the planning phase: the source tree is walked and
// every file gets a classification and a destination before anything
// is shown for review.
type PlanModel struct {
	spinner     spinner.Model
	source      string
	dest        string
	startTime   time.Time
	found       int
	planned     int
	currentPath string
	width       int
	height      int
}

// NewPlanModel creates a plan model for the given source and destination.
func NewPlanModel(source, dest string) PlanModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return PlanModel{
		spinner:   s,
		source:    source,
		dest:      dest,
		startTime: time.Now(),
	}
}

// Init starts the spinner animation.
func (m PlanModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// UpdateSpinner advances the spinner animation.
func (m PlanModel) UpdateSpinner(msg tea.Msg) (PlanModel, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// SetProgress records how far planning has come. A zero total means the
// walk is still running and the count of files is not yet known.
func (m *PlanModel) SetProgress(planned, found int, currentPath string) {
	m.planned = planned
	m.found = found
	m.currentPath = currentPath
}

// SetDimensions updates the viewport size.
func (m *PlanModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
}

// View renders the planning screen.
func (m PlanModel) View() string {
	innerWidth := m.width - 6
	if innerWidth < 40 {
		innerWidth = 40
	}

	var sections []string

	title := titleStyle.Render("shelf")
	subtitle := mutedTextStyle.Render(fmt.Sprintf("Planning %s -> %s", truncatePath(m.source, 30), truncatePath(m.dest, 30)))
	sections = append(sections, title+"  "+subtitle)
	sections = append(sections, renderDivider(innerWidth))

	status := fmt.Sprintf("%s Scanning for files...", m.spinner.View())
	if m.found > 0 {
		status = fmt.Sprintf("%s Planning destinations...", m.spinner.View())
	}
	sections = append(sections, "")
	sections = append(sections, status)
	sections = append(sections, "")
	sections = append(sections, m.renderBar(innerWidth))
	sections = append(sections, "")
	sections = append(sections, m.renderStats())

	if m.currentPath != "" {
		sections = append(sections, "")
		sections = append(sections, mutedTextStyle.Render(truncatePath(m.currentPath, innerWidth)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return outerBoxStyle.Width(m.width - 2).Render(content)
}

// renderBar shows an animated pulse while the walk is running and a
// determinate bar once the file count is known.
func (m PlanModel) renderBar(width int) string {
	barWidth := width - 2
	if barWidth < 10 {
		barWidth = 10
	}

	if m.found == 0 {
		pulseWidth := barWidth / 4
		offset := int(time.Since(m.startTime)/(100*time.Millisecond)) % (barWidth + pulseWidth)
		start := offset - pulseWidth

		var bar string
		for i := 0; i < barWidth; i++ {
			if i >= start && i < offset {
				bar += progressFillStyle.Render("█")
			} else {
				bar += progressEmptyStyle.Render("░")
			}
		}
		return bar
	}

	percent := float64(m.planned) / float64(m.found)
	if percent > 1 {
		percent = 1
	}
	filled := int(percent * float64(barWidth))

	var bar string
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += progressFillStyle.Render("█")
		} else {
			bar += progressEmptyStyle.Render("░")
		}
	}
	return fmt.Sprintf("%s %3.0f%%", bar, percent*100)
}

// renderStats shows the running counters as boxed figures.
func (m PlanModel) renderStats() string {
	elapsed := time.Since(m.startTime)

	foundBox := m.statBox("Files", humanize.Comma(int64(m.found)))
	plannedBox := m.statBox("Planned", humanize.Comma(int64(m.planned)))
	timeBox := m.statBox("Elapsed", formatDuration(elapsed))

	return lipgloss.JoinHorizontal(lipgloss.Top, foundBox, " ", plannedBox, " ", timeBox)
}

// statBox renders a single labeled figure.
func (m PlanModel) statBox(label, value string) string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		statsValueStyle.Render(value),
		statsLabelStyle.Render(label),
	)
	return statsBoxStyle.Render(content)
}

// formatDuration formats a duration as M:SS.
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
