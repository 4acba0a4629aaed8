package tui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/shelfkit/shelf/pkg/shelf/organizer"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// PlanItem pairs a collected file with its planned outcome.
type PlanItem struct {
	File types.FileInfo
	Row  organizer.Row
}

// Actionable reports whether applying the plan would touch this file.
func (p PlanItem) Actionable() bool {
	return p.Row.Action == types.ActionPlanned
}

// ReviewModel presents the plan as a selectable list. Every actionable
// file starts selected; skips and duplicates are shown for context but
// cannot be picked.
type ReviewModel struct {
	items       []PlanItem
	cursor      int
	selected    map[int]bool
	offset      int
	width       int
	height      int
	visibleRows int
}

// NewReviewModel creates a review model with all actionable items selected.
func NewReviewModel(items []PlanItem) ReviewModel {
	selected := make(map[int]bool)
	for i, item := range items {
		if item.Actionable() {
			selected[i] = true
		}
	}
	return ReviewModel{
		items:       items,
		selected:    selected,
		visibleRows: 10,
	}
}

// SetDimensions updates the viewport size and recalculates visible rows.
func (m *ReviewModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height

	// Header, divider, detail line, divider, footer, help take
	// roughly ten lines of chrome around the list.
	m.visibleRows = height - 12
	if m.visibleRows < 3 {
		m.visibleRows = 3
	}
	m.clampScroll()
}

// HandleKey processes navigation and selection keys.
func (m *ReviewModel) HandleKey(key string) {
	if len(m.items) == 0 {
		return
	}
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.items) - 1
	case "pgup":
		m.cursor -= m.visibleRows
		if m.cursor < 0 {
			m.cursor = 0
		}
	case "pgdown":
		m.cursor += m.visibleRows
		if m.cursor > len(m.items)-1 {
			m.cursor = len(m.items) - 1
		}
	case " ":
		if m.cursor < len(m.items) && m.items[m.cursor].Actionable() {
			if m.selected[m.cursor] {
				delete(m.selected, m.cursor)
			} else {
				m.selected[m.cursor] = true
			}
		}
	case "a":
		for i, item := range m.items {
			if item.Actionable() {
				m.selected[i] = true
			}
		}
	case "n":
		m.selected = make(map[int]bool)
	}
	m.clampScroll()
}

// clampScroll keeps the cursor within the visible window.
func (m *ReviewModel) clampScroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.visibleRows {
		m.offset = m.cursor - m.visibleRows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// SelectedFiles returns the selected files in list order. Keeping the
// original order matters: rename suffixes are assigned in apply order.
func (m ReviewModel) SelectedFiles() []types.FileInfo {
	var files []types.FileInfo
	for i, item := range m.items {
		if m.selected[i] {
			files = append(files, item.File)
		}
	}
	return files
}

// SelectedCount returns how many items are selected.
func (m ReviewModel) SelectedCount() int {
	return len(m.selected)
}

// SelectedSize returns the total byte size of the selection.
func (m ReviewModel) SelectedSize() int64 {
	var total int64
	for i, item := range m.items {
		if m.selected[i] {
			total += item.File.Size
		}
	}
	return total
}

// HasSelection reports whether anything is selected.
func (m ReviewModel) HasSelection() bool {
	return len(m.selected) > 0
}

// ActionableCount returns how many items an apply could touch.
func (m ReviewModel) ActionableCount() int {
	count := 0
	for _, item := range m.items {
		if item.Actionable() {
			count++
		}
	}
	return count
}

// View renders the review list.
func (m ReviewModel) View() string {
	innerWidth := m.width - 6
	if innerWidth < 40 {
		innerWidth = 40
	}

	var sections []string

	header := fmt.Sprintf("%s  %s",
		titleStyle.Render("shelf"),
		mutedTextStyle.Render(fmt.Sprintf("%d files, %d to organize", len(m.items), m.ActionableCount())))
	sections = append(sections, header)
	sections = append(sections, renderDivider(innerWidth))

	if len(m.items) == 0 {
		sections = append(sections, "")
		sections = append(sections, mutedTextStyle.Render("Nothing to organize."))
		sections = append(sections, "")
	} else {
		sections = append(sections, m.renderList(innerWidth)...)
	}

	sections = append(sections, renderDivider(innerWidth))
	sections = append(sections, m.renderFooter())
	sections = append(sections, m.renderHelp())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return outerBoxStyle.Width(m.width - 2).Render(content)
}

// renderList renders the visible window of plan rows plus the detail
// line for the row under the cursor.
func (m ReviewModel) renderList(innerWidth int) []string {
	var lines []string

	end := m.offset + m.visibleRows
	if end > len(m.items) {
		end = len(m.items)
	}

	if m.offset > 0 {
		lines = append(lines, mutedTextStyle.Render(fmt.Sprintf("  ... %d more above", m.offset)))
	}

	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(i, innerWidth))
		if i == m.cursor {
			lines = append(lines, m.renderDetail(i, innerWidth))
		}
	}

	if end < len(m.items) {
		lines = append(lines, mutedTextStyle.Render(fmt.Sprintf("  ... %d more below", len(m.items)-end)))
	}

	return lines
}

// renderRow renders a single plan row.
func (m ReviewModel) renderRow(i, innerWidth int) string {
	item := m.items[i]

	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}

	checkbox := uncheckedStyle.Render("[ ]")
	switch {
	case m.selected[i]:
		checkbox = checkedStyle.Render("[x]")
	case !item.Actionable():
		checkbox = uncheckedStyle.Render(" - ")
	}

	size := fileSizeStyle.Render(types.FormatSize(item.File.Size))
	name := filepath.Base(item.File.Path)

	var target string
	switch item.Row.Action {
	case types.ActionPlanned:
		target = categoryStyle.Render(item.Row.Category)
	case types.ActionDuplicate:
		target = mutedTextStyle.Render("duplicate")
	default:
		target = mutedTextStyle.Render(string(item.Row.Action))
	}

	nameWidth := innerWidth - 32
	if nameWidth < 16 {
		nameWidth = 16
	}
	line := fmt.Sprintf("%s%s %s  %s  %s", cursor, checkbox, size, target, truncatePath(name, nameWidth))

	if i == m.cursor {
		return cursorItemStyle.Render(line)
	}
	return normalItemStyle.Render(line)
}

// renderDetail renders the line under the cursor row: the destination
// for actionable files, the reason for skipped ones.
func (m ReviewModel) renderDetail(i, innerWidth int) string {
	item := m.items[i]

	detail := item.Row.Reason
	if item.Actionable() {
		detail = "-> " + item.Row.Destination
	}
	return fileDetailStyle.Render(truncatePath(detail, innerWidth-12))
}

// renderFooter shows the current selection summary.
func (m ReviewModel) renderFooter() string {
	if !m.HasSelection() {
		return mutedTextStyle.Render("Nothing selected")
	}
	return fmt.Sprintf("Selected: %s files (%s)",
		statsValueStyle.Render(fmt.Sprintf("%d", m.SelectedCount())),
		statsValueStyle.Render(types.FormatSize(m.SelectedSize())))
}

// renderHelp shows the key bindings.
func (m ReviewModel) renderHelp() string {
	keys := []struct{ key, desc string }{
		{"space", "toggle"},
		{"a", "all"},
		{"n", "none"},
		{"enter", "organize"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", keyStyle.Render(k.key), keyDescStyle.Render(k.desc)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, joinWithSep(parts, "  ")...)
}

// joinWithSep interleaves a separator between parts for JoinHorizontal.
func joinWithSep(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}
