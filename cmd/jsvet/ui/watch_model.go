package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"jsvet/internal/engine"
	"jsvet/internal/rules"
)

// Messages delivered to the watch model. The command layer sends them
// with Program.Send as the watcher reports changes.
type (
	// RunStartedMsg announces a full lint run in progress.
	RunStartedMsg struct{}

	// RunFinishedMsg carries the report of a completed full run.
	RunFinishedMsg struct {
		Report *engine.Report
	}

	// RunErrorMsg carries a failed full run.
	RunErrorMsg struct {
		Err error
	}

	// FileResultMsg carries a relinted file.
	FileResultMsg struct {
		Result *engine.FileResult
	}

	// FileRemovedMsg announces a deleted or renamed file.
	FileRemovedMsg struct {
		Path string
	}
)

// fileRow is the live state for one file with problems.
type fileRow struct {
	path       string
	errors     int
	warnings   int
	violations []rules.Violation
	checkedAt  time.Time
}

// WatchModel is the bubbletea model behind `jsvet watch`.
type WatchModel struct {
	dir    string
	styles Styles

	table   table.Model
	spinner spinner.Model

	// relint reruns the full lint and resolves to a RunFinishedMsg
	// or RunErrorMsg.
	relint tea.Cmd

	rows         map[string]*fileRow
	filesChecked int
	cacheHits    int
	lastEvent    string
	linting      bool
	showDetail   bool
	err          error

	width  int
	height int
}

// NewWatchModel creates the watch view for dir. relint is invoked on
// startup and whenever the user presses r.
func NewWatchModel(dir string, relint tea.Cmd) WatchModel {
	styles := DefaultStyles()

	t := table.New(
		table.WithColumns(watchColumns(80)),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return WatchModel{
		dir:     dir,
		styles:  styles,
		table:   t,
		spinner: sp,
		relint:  relint,
		rows:    make(map[string]*fileRow),
		linting: true,
		width:   80,
		height:  24,
	}
}

func watchColumns(width int) []table.Column {
	fileWidth := width - 30
	if fileWidth < 20 {
		fileWidth = 20
	}
	return []table.Column{
		{Title: "File", Width: fileWidth},
		{Title: "Errors", Width: 7},
		{Title: "Warnings", Width: 9},
		{Title: "Checked", Width: 8},
	}
}

// Init starts the spinner and the initial full run.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.relint)
}

// Update handles messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(watchColumns(m.width - 4))
		tableHeight := m.height - 9
		if tableHeight < 3 {
			tableHeight = 3
		}
		m.table.SetHeight(tableHeight)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.linting {
				return m, nil
			}
			m.linting = true
			return m, tea.Batch(m.spinner.Tick, m.relint)
		case "enter":
			m.showDetail = !m.showDetail
			return m, nil
		}

	case spinner.TickMsg:
		if !m.linting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RunStartedMsg:
		m.linting = true
		return m, m.spinner.Tick

	case RunFinishedMsg:
		m.linting = false
		m.err = nil
		m.ingestReport(msg.Report)
		return m, nil

	case RunErrorMsg:
		m.linting = false
		m.err = msg.Err
		return m, nil

	case FileResultMsg:
		m.ingestResult(msg.Result)
		return m, nil

	case FileRemovedMsg:
		delete(m.rows, msg.Path)
		m.lastEvent = msg.Path + " (removed)"
		m.refreshTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// ingestReport replaces all rows with a full run's findings.
func (m *WatchModel) ingestReport(rep *engine.Report) {
	m.rows = make(map[string]*fileRow)
	m.filesChecked = rep.Files
	m.cacheHits = rep.CacheHits

	now := time.Now()
	for _, v := range rep.Violations {
		row, ok := m.rows[v.Path]
		if !ok {
			row = &fileRow{path: v.Path, checkedAt: now}
			m.rows[v.Path] = row
		}
		row.violations = append(row.violations, v)
		if v.Severity == rules.SeverityError {
			row.errors++
		} else {
			row.warnings++
		}
	}
	m.refreshTable()
}

// ingestResult upserts one file's findings after a change.
func (m *WatchModel) ingestResult(res *engine.FileResult) {
	m.lastEvent = res.Path
	if len(res.Violations) == 0 {
		delete(m.rows, res.Path)
		m.refreshTable()
		return
	}

	row := &fileRow{path: res.Path, checkedAt: time.Now()}
	for _, v := range res.Violations {
		row.violations = append(row.violations, v)
		if v.Severity == rules.SeverityError {
			row.errors++
		} else {
			row.warnings++
		}
	}
	m.rows[res.Path] = row
	m.refreshTable()
}

// refreshTable rebuilds the table rows sorted by path.
func (m *WatchModel) refreshTable() {
	paths := make([]string, 0, len(m.rows))
	for p := range m.rows {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rows := make([]table.Row, 0, len(paths))
	for _, p := range paths {
		row := m.rows[p]
		rows = append(rows, table.Row{
			row.path,
			fmt.Sprintf("%d", row.errors),
			fmt.Sprintf("%d", row.warnings),
			row.checkedAt.Format("15:04:05"),
		})
	}
	m.table.SetRows(rows)
}

// tally sums problems across the live rows.
func (m WatchModel) tally() (errors, warnings int) {
	for _, row := range m.rows {
		errors += row.errors
		warnings += row.warnings
	}
	return errors, warnings
}

// View renders the watch screen.
func (m WatchModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" jsvet watch "))
	sb.WriteString(" ")
	sb.WriteString(m.styles.Muted.Render(m.dir))
	sb.WriteString("\n\n")

	sb.WriteString(m.statusLine())
	sb.WriteString("\n\n")

	if len(m.rows) > 0 {
		sb.WriteString(m.table.View())
		sb.WriteString("\n")
		if m.showDetail {
			sb.WriteString(m.detailView())
		}
	}

	if m.lastEvent != "" {
		sb.WriteString(m.styles.Muted.Render("last change: " + m.lastEvent))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Footer.Render(
		"q quit · r relint · enter details · ↑/↓ select"))
	sb.WriteString("\n")

	return sb.String()
}

// statusLine renders the spinner or the current problem summary.
func (m WatchModel) statusLine() string {
	if m.linting {
		return m.spinner.View() + " linting..."
	}
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("lint failed: %v", m.err))
	}

	errors, warnings := m.tally()
	checked := fmt.Sprintf("%d %s checked",
		m.filesChecked, plural("file", m.filesChecked))
	if m.cacheHits > 0 {
		checked += fmt.Sprintf(" (%d from cache)", m.cacheHits)
	}

	if errors+warnings == 0 {
		return m.styles.Success.Render("no problems") +
			m.styles.Muted.Render("  "+checked)
	}

	summary := fmt.Sprintf("%d %s (%d %s, %d %s)",
		errors+warnings, plural("problem", errors+warnings),
		errors, plural("error", errors),
		warnings, plural("warning", warnings))
	style := m.styles.Warning
	if errors > 0 {
		style = m.styles.Error
	}
	return style.Render(summary) + m.styles.Muted.Render("  "+checked)
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// detailView lists the selected file's violations.
func (m WatchModel) detailView() string {
	selected := m.table.SelectedRow()
	if selected == nil {
		return ""
	}
	row, ok := m.rows[selected[0]]
	if !ok {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(m.styles.Bold.Render(row.path))
	sb.WriteString("\n")

	const maxShown = 10
	for i, v := range row.violations {
		if i == maxShown {
			sb.WriteString(m.styles.Muted.Render(
				fmt.Sprintf("  ... and %d more\n",
					len(row.violations)-maxShown)))
			break
		}
		sevStyle := m.styles.Warning
		if v.Severity == rules.SeverityError {
			sevStyle = m.styles.Error
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			m.styles.Muted.Render(fmt.Sprintf("%d:%d", v.Line, v.Col)),
			sevStyle.Render(string(v.Severity)),
			v.Message))
	}
	return sb.String()
}
