package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	header := f.formatHeader(r)
	w.WriteString(header)
	w.WriteString("\n")

	table := f.formatTable(r)
	w.WriteString(table)

	footer := f.formatFooter(r)
	w.WriteString(footer)

	if len(r.Warnings) > 0 {
		warnings := f.formatWarnings(r.Warnings)
		w.WriteString("\n")
		w.WriteString(warnings)
	}

	return nil
}

// formatHeader builds the header box with run metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	sourceLabel := LabelStyle.Render("Source:")
	sourceValue := ValueStyle.Render(r.Source)
	lines = append(lines, fmt.Sprintf("%s %s", sourceLabel, sourceValue))

	destLabel := LabelStyle.Render("Dest:")
	destValue := ValueStyle.Render(r.Dest)
	lines = append(lines, fmt.Sprintf("%s %s", destLabel, destValue))

	var infoParts []string

	modeLabel := LabelStyle.Render("Mode:")
	mode := r.Mode
	if r.ByDate {
		mode += " +by-date"
	}
	infoParts = append(infoParts, fmt.Sprintf("%s %s", modeLabel, ValueStyle.Render(mode)))

	processedLabel := LabelStyle.Render("Processed:")
	processedValue := ValueStyle.Render(fmt.Sprintf("%d files in %s",
		r.Stats.Scanned, formatDuration(r.Stats.Duration)))
	infoParts = append(infoParts, fmt.Sprintf("%s %s", processedLabel, processedValue))

	if r.DryRun {
		infoParts = append(infoParts, WarningStyle.Bold(true).Render("DRY RUN"))
	}

	lines = append(lines, strings.Join(infoParts, "  "))

	if r.Interrupted {
		interruptedStyle := WarningStyle.Bold(true)
		lines = append(lines, interruptedStyle.Render("Run interrupted by user"))
	}

	content := strings.Join(lines, "\n")
	return HeaderBox.Render(content)
}

// formatTable builds the per-file table with ACTION, SIZE, and path columns.
func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Rows) == 0 {
		return MutedStyle.Render("  No files to organize\n")
	}

	var sb strings.Builder

	actionHeader := TableHeaderStyle.Render("ACTION")
	sizeHeader := TableHeaderStyle.Render("SIZE")
	fileHeader := TableHeaderStyle.Render("FILE")
	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", actionHeader, sizeHeader, fileHeader))

	maxActionWidth := len("ACTION")
	maxSizeWidth := 8
	for _, row := range r.Rows {
		if len(row.Action) > maxActionWidth {
			maxActionWidth = len(row.Action)
		}
		if len(row.SizeHuman) > maxSizeWidth {
			maxSizeWidth = len(row.SizeHuman)
		}
	}

	for _, row := range r.Rows {
		actionStr := ActionStyle(row.Action).Render(padRight(row.Action, maxActionWidth))
		sizeStr := SizeStyle.Render(padLeft(row.SizeHuman, maxSizeWidth))
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", actionStr, sizeStr, f.formatPaths(row)))
	}

	return sb.String()
}

// formatPaths renders the source-to-destination transition for a row.
func (f *PrettyFormatter) formatPaths(row Row) string {
	source := PathStyle.Render(row.Source)
	if row.Destination == "" {
		if row.Reason != "" {
			return fmt.Sprintf("%s %s", source, MutedStyle.Render("("+row.Reason+")"))
		}
		return source
	}

	arrow := MutedStyle.Render("->")
	dest := PathStyle.Render(row.Destination)
	if row.Reason != "" {
		return fmt.Sprintf("%s %s %s %s", source, arrow, dest,
			MutedStyle.Render("("+row.Reason+")"))
	}
	return fmt.Sprintf("%s %s %s", source, arrow, dest)
}

// formatFooter builds the footer box with summary information.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	for _, counter := range []struct {
		label string
		value int64
		style func() string
	}{
		{"Moved:", r.Stats.Moved, nil},
		{"Copied:", r.Stats.Copied, nil},
		{"Skipped:", r.Stats.Skipped, nil},
	} {
		label := LabelStyle.Render(counter.label)
		value := ValueStyle.Render(fmt.Sprintf("%d", counter.value))
		parts = append(parts, fmt.Sprintf("%s %s", label, value))
	}

	if r.Stats.Planned > 0 {
		plannedLabel := LabelStyle.Render("Planned:")
		plannedValue := ValueStyle.Render(fmt.Sprintf("%d", r.Stats.Planned))
		parts = append(parts, fmt.Sprintf("%s %s", plannedLabel, plannedValue))
	}

	if r.Stats.Failed > 0 {
		failedLabel := LabelStyle.Render("Failed:")
		failedValue := ErrorStyle.Bold(true).Render(fmt.Sprintf("%d", r.Stats.Failed))
		parts = append(parts, fmt.Sprintf("%s %s", failedLabel, failedValue))
	}

	totalSizeLabel := LabelStyle.Render("Total:")
	totalSizeValue := SizeStyle.Render(humanize.IBytes(uint64(r.TotalSize())))
	parts = append(parts, fmt.Sprintf("%s %s", totalSizeLabel, totalSizeValue))

	if r.ManifestPath != "" {
		hint := MutedStyle.Render("Undo with: shelf undo")
		parts = append(parts, hint)
	}

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a time.Duration as a human-friendly string.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
