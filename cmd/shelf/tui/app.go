package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shelfkit/shelf/pkg/shelf/organizer"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// AppState identifies the current screen.
type AppState int

// Application states.
const (
	StatePlanning AppState = iota
	StateReview
	StateConfirm
	StateApplying
	StateComplete
)

// Options configures an interactive run.
type Options struct {
	// Organizer configures the run the review applies. The Progress
	// field is owned by the TUI and overwritten.
	Organizer organizer.Options
}

// planProgress reports how far the planning pass has come.
type planProgress struct {
	planned int
	total   int
	path    string
}

// planProgressMsg carries a planning progress update.
type planProgressMsg planProgress

// planCompleteMsg signals that planning finished.
type planCompleteMsg struct {
	items    []PlanItem
	warnings []string
	err      error
}

// applyProgressMsg carries a per-file progress update during apply.
type applyProgressMsg types.Progress

// applyCompleteMsg signals that the apply finished.
type applyCompleteMsg struct {
	report *organizer.Report
	err    error
}

// Model is the main application model.
type Model struct {
	state AppState

	org *organizer.Organizer

	// ctx is canceled when the user quits or interrupts; the
	// organizer stops after the file in flight.
	ctx    context.Context
	cancel context.CancelFunc

	planModel   PlanModel
	reviewModel ReviewModel

	planCh  chan planProgress
	applyCh chan types.Progress

	warnings []string

	// confirmFocused: 0 = cancel, 1 = organize.
	confirmFocused int

	applySpinner spinner.Model
	processed    int64
	total        int64
	currentPath  string
	bytesDone    int64
	applyStart   time.Time

	report *organizer.Report
	err    error

	width  int
	height int
	ready  bool
}

// NewModel creates the application model and the organizer it drives.
func NewModel(opts Options) (Model, error) {
	applyCh := make(chan types.Progress, 64)
	opts.Organizer.Progress = applyCh

	org, err := organizer.New(opts.Organizer)
	if err != nil {
		return Model{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		state:        StatePlanning,
		org:          org,
		ctx:          ctx,
		cancel:       cancel,
		planModel:    NewPlanModel(org.Source(), org.Dest()),
		planCh:       make(chan planProgress, 64),
		applyCh:      applyCh,
		applySpinner: s,
	}, nil
}

// Init starts planning immediately.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.planModel.Init(),
		m.startPlan(),
		m.listenForPlanProgress(),
	)
}

// startPlan walks the source and plans a destination for every file.
func (m Model) startPlan() tea.Cmd {
	org := m.org
	ctx := m.ctx
	ch := m.planCh

	return func() tea.Msg {
		defer close(ch)

		files, warnings, err := org.Collect(ctx)
		if err != nil {
			return planCompleteMsg{err: err}
		}

		items := make([]PlanItem, 0, len(files))
		for i, fi := range files {
			if ctx.Err() != nil {
				return planCompleteMsg{err: ctx.Err()}
			}
			items = append(items, PlanItem{File: fi, Row: org.PlanFile(fi)})

			select {
			case ch <- planProgress{planned: i + 1, total: len(files), path: fi.Path}:
			default:
			}
		}

		return planCompleteMsg{items: items, warnings: warnings}
	}
}

// listenForPlanProgress waits for the next planning update.
func (m Model) listenForPlanProgress() tea.Cmd {
	ch := m.planCh
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return planProgressMsg(p)
	}
}

// startApply moves the selected files.
func (m Model) startApply(files []types.FileInfo) tea.Cmd {
	org := m.org
	ctx := m.ctx
	ch := m.applyCh

	return func() tea.Msg {
		report, err := org.Apply(ctx, files)
		close(ch)
		return applyCompleteMsg{report: report, err: err}
	}
}

// listenForApplyProgress waits for the next apply update.
func (m Model) listenForApplyProgress() tea.Cmd {
	ch := m.applyCh
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return applyProgressMsg(p)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.planModel.SetDimensions(msg.Width, msg.Height)
		m.reviewModel.SetDimensions(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		switch m.state {
		case StatePlanning:
			m.planModel, cmd = m.planModel.UpdateSpinner(msg)
		case StateApplying:
			m.applySpinner, cmd = m.applySpinner.Update(msg)
		}
		return m, cmd

	case planProgressMsg:
		m.planModel.SetProgress(msg.planned, msg.total, msg.path)
		return m, m.listenForPlanProgress()

	case planCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.warnings = msg.warnings
		m.reviewModel = NewReviewModel(msg.items)
		m.reviewModel.SetDimensions(m.width, m.height)
		m.state = StateReview
		return m, nil

	case applyProgressMsg:
		m.processed = msg.Processed
		m.total = msg.Total
		m.currentPath = msg.CurrentPath
		m.bytesDone = msg.Bytes
		return m, m.listenForApplyProgress()

	case applyCompleteMsg:
		m.report = msg.report
		m.err = msg.err
		m.state = StateComplete
		return m, nil
	}

	return m, nil
}

// handleKey routes key presses by state.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch m.state {
	case StatePlanning:
		switch key {
		case "q", "esc", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}

	case StateReview:
		switch key {
		case "q", "esc", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "enter":
			if m.reviewModel.HasSelection() {
				m.confirmFocused = 0
				m.state = StateConfirm
			}
			return m, nil
		default:
			m.reviewModel.HandleKey(key)
			return m, nil
		}

	case StateConfirm:
		switch key {
		case "left", "right", "tab", "shift+tab":
			m.confirmFocused = 1 - m.confirmFocused
			return m, nil
		case "y":
			return m.beginApply()
		case "enter":
			if m.confirmFocused == 1 {
				return m.beginApply()
			}
			m.state = StateReview
			return m, nil
		case "n", "esc", "q":
			m.state = StateReview
			return m, nil
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}

	case StateApplying:
		switch key {
		case "q", "esc", "ctrl+c":
			// Stop after the file in flight; the partial report
			// still arrives through applyCompleteMsg.
			m.cancel()
			return m, nil
		}

	case StateComplete:
		switch key {
		case "enter", "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	return m, nil
}

// beginApply switches to the applying state and starts the run.
func (m Model) beginApply() (tea.Model, tea.Cmd) {
	files := m.reviewModel.SelectedFiles()
	m.state = StateApplying
	m.applyStart = time.Now()
	m.total = int64(len(files))
	return m, tea.Batch(
		m.applySpinner.Tick,
		m.startApply(files),
		m.listenForApplyProgress(),
	)
}

// View renders the current screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.state {
	case StatePlanning:
		return m.planModel.View()
	case StateReview:
		view := m.reviewModel.View()
		if len(m.warnings) > 0 {
			view += "\n" + warningTextStyle.Render(fmt.Sprintf("%d directories could not be read", len(m.warnings)))
		}
		return view
	case StateConfirm:
		return m.renderConfirm()
	case StateApplying:
		return m.renderApplying()
	case StateComplete:
		return m.renderComplete()
	}
	return ""
}

// renderConfirm renders the confirmation dialog centered on screen.
func (m Model) renderConfirm() string {
	count := m.reviewModel.SelectedCount()
	size := types.FormatSize(m.reviewModel.SelectedSize())

	verb := "Move"
	if m.org.Mode() == types.ModeCopy {
		verb = "Copy"
	}

	title := dialogTitleStyle.Render("Confirm")
	text := dialogTextStyle.Render(fmt.Sprintf("%s %d files (%s)?", verb, count, size))

	cancelBtn := inactiveButtonStyle.Render("Cancel")
	applyBtn := inactiveButtonStyle.Render("Organize")
	if m.confirmFocused == 0 {
		cancelBtn = activeButtonStyle.Render("Cancel")
	} else {
		applyBtn = activeButtonStyle.Render("Organize")
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, cancelBtn, applyBtn)

	dialog := dialogBoxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		text,
		"",
		lipgloss.NewStyle().Align(lipgloss.Center).Width(44).Render(buttons),
	))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

// renderApplying renders the progress screen.
func (m Model) renderApplying() string {
	innerWidth := m.width - 6
	if innerWidth < 40 {
		innerWidth = 40
	}

	var sections []string

	sections = append(sections, titleStyle.Render("shelf")+"  "+mutedTextStyle.Render("Organizing..."))
	sections = append(sections, renderDivider(innerWidth))
	sections = append(sections, "")
	sections = append(sections, fmt.Sprintf("%s %d of %d files  (%s)",
		m.applySpinner.View(), m.processed, m.total, types.FormatSize(m.bytesDone)))
	sections = append(sections, "")
	sections = append(sections, m.renderApplyBar(innerWidth))

	if m.currentPath != "" {
		sections = append(sections, "")
		sections = append(sections, mutedTextStyle.Render(truncatePath(m.currentPath, innerWidth)))
	}

	sections = append(sections, "")
	sections = append(sections, mutedTextStyle.Render(fmt.Sprintf("Elapsed %s   [esc] stop after current file", formatDuration(time.Since(m.applyStart)))))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return outerBoxStyle.Width(m.width - 2).Render(content)
}

// renderApplyBar renders the determinate apply progress bar.
func (m Model) renderApplyBar(width int) string {
	barWidth := width - 8
	if barWidth < 10 {
		barWidth = 10
	}

	var percent float64
	if m.total > 0 {
		percent = float64(m.processed) / float64(m.total)
	}
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

// renderComplete renders the final summary.
func (m Model) renderComplete() string {
	innerWidth := m.width - 6
	if innerWidth < 40 {
		innerWidth = 40
	}

	var sections []string

	banner := successTextStyle.Render("Done")
	if m.report != nil && m.report.Interrupted {
		banner = warningTextStyle.Render("Interrupted")
	}
	if m.err != nil && !errors.Is(m.err, context.Canceled) {
		banner = errorTextStyle.Render("Failed")
	}
	sections = append(sections, titleStyle.Render("shelf")+"  "+banner)
	sections = append(sections, renderDivider(innerWidth))
	sections = append(sections, "")

	if m.report != nil {
		st := m.report.Stats
		sections = append(sections, m.statLine("Moved", st.Moved))
		sections = append(sections, m.statLine("Copied", st.Copied))
		sections = append(sections, m.statLine("Skipped", st.Skipped+st.Duplicates))
		sections = append(sections, m.statLine("Failed", st.Failed))
		sections = append(sections, "")
		sections = append(sections, mutedTextStyle.Render(fmt.Sprintf("Finished in %s", st.Duration.Round(time.Millisecond))))

		if m.report.ManifestPath != "" {
			sections = append(sections, "")
			sections = append(sections, fmt.Sprintf("Manifest: %s", truncatePath(m.report.ManifestPath, innerWidth-10)))
			sections = append(sections, mutedTextStyle.Render("Undo with: shelf undo"))
		}

		failures := m.failedRows()
		if len(failures) > 0 {
			sections = append(sections, "")
			sections = append(sections, errorTextStyle.Render("Failures:"))
			shown := failures
			if len(shown) > 5 {
				shown = shown[:5]
			}
			for _, row := range shown {
				sections = append(sections, errorTextStyle.Render(fmt.Sprintf("  %s: %s", truncatePath(row.Source, innerWidth/2), row.Reason)))
			}
			if len(failures) > 5 {
				sections = append(sections, mutedTextStyle.Render(fmt.Sprintf("  ... and %d more", len(failures)-5)))
			}
		}
	}

	if m.err != nil && !errors.Is(m.err, context.Canceled) {
		sections = append(sections, "")
		sections = append(sections, errorTextStyle.Render(m.err.Error()))
	}

	sections = append(sections, "")
	sections = append(sections, fmt.Sprintf("%s %s", keyStyle.Render("enter"), keyDescStyle.Render("exit")))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return outerBoxStyle.Width(m.width - 2).Render(content)
}

// statLine formats one summary counter.
func (m Model) statLine(label string, value int64) string {
	return fmt.Sprintf("%s %s",
		statsLabelStyle.Render(padLeft(label+":", 9)),
		statsValueStyle.Render(fmt.Sprintf("%d", value)))
}

// failedRows returns the rows that failed during apply.
func (m Model) failedRows() []organizer.Row {
	if m.report == nil {
		return nil
	}
	var failed []organizer.Row
	for _, row := range m.report.Rows {
		if row.Action == types.ActionFailed {
			failed = append(failed, row)
		}
	}
	return failed
}

// Run starts the interactive session and blocks until it exits. The
// returned error reflects the run outcome so the process exit code does
// not hide failures behind a pretty screen.
func Run(opts Options) error {
	m, err := NewModel(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	m.cancel()
	if err != nil {
		return fmt.Errorf("failed to run interactive session: %w", err)
	}

	fm, ok := final.(Model)
	if !ok {
		return nil
	}
	if fm.err != nil && !errors.Is(fm.err, context.Canceled) {
		return fm.err
	}
	if fm.report != nil && fm.report.HasFailures() {
		return fmt.Errorf("%d of %d files failed", fm.report.Stats.Failed, fm.report.Stats.Scanned)
	}
	if fm.report != nil && fm.report.Interrupted {
		return fmt.Errorf("run interrupted")
	}
	return nil
}
