package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/adbx/internal/collection"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GridView ViewState = iota
	DetailView
	RunView
	ResultView
)

// runKind names which bulk operation the RunView is tracking.
type runKind int

const (
	runLinkCheck runKind = iota
	runRebuild
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	collection *collection.Engine
	engine     *tasks.TableEngine
	romaji     bool

	width  int
	height int
	tbl    table.Model

	detail models.Song

	run          runKind
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	linkResult   *tasks.LinkCheckResult
	buildResult  *tasks.RebuildResult
	runErr       error
	complete     runCompleteMsg

	// lastSort tracks the active sort key so a third press clears it.
	lastSort    string
	lastSortDir collection.Direction

	err  error
	help help.Model
	keys keyMap
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	link  *tasks.LinkCheckResult
	build *tasks.RebuildResult
	err   error
}

// NewModel creates a new TUI model over an already-populated collection.
func NewModel(ctx context.Context, coll *collection.Engine, engine *tasks.TableEngine, romaji bool) *Model {
	tbl := table.New(
		table.WithColumns(gridColumns(100)),
		table.WithRows(gridRows(coll.Visible(), romaji)),
		table.WithFocused(true),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	ts.Selected = ts.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	tbl.SetStyles(ts)

	return &Model{
		ctx:        ctx,
		view:       GridView,
		collection: coll,
		engine:     engine,
		romaji:     romaji,
		tbl:        tbl,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tbl.SetColumns(gridColumns(msg.Width - 4))
		m.tbl.SetWidth(msg.Width - 2)
		m.tbl.SetHeight(msg.Height - 6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case GridView:
			return m.handleGridKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.linkResult = msg.link
		m.buildResult = msg.build
		m.runErr = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.refreshRows()
		return m, nil
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case GridView:
		return m.renderGrid()
	case DetailView:
		return m.renderDetail()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := msg.String()
	switch {
	case s == "q" || s == "ctrl+c":
		return m, tea.Quit

	case s == "enter":
		if h, ok := m.selectedHandle(); ok {
			song, err := m.collection.Resolve(h)
			if err == nil {
				m.detail = song
				m.view = DetailView
			}
		}
		return m, nil

	case s == "d" || s == "delete":
		if h, ok := m.selectedHandle(); ok {
			m.collection.Remove(h)
			m.refreshRows()
		}
		return m, nil

	case s == "S":
		m.collection.Shuffle()
		m.lastSort = ""
		m.refreshRows()
		return m, nil

	case s == "R":
		m.collection.Reverse()
		m.lastSort = ""
		m.refreshRows()
		return m, nil

	case s == "c":
		return m.startRun(runLinkCheck)

	case s == "b":
		return m.startRun(runRebuild)
	}

	if column, ok := sortKeys[s]; ok {
		m.cycleSort(column)
		return m, nil
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

// cycleSort advances one column through ascending, descending, and cleared.
func (m *Model) cycleSort(column string) {
	switch {
	case m.lastSort != column:
		m.lastSort, m.lastSortDir = column, collection.Ascending
		m.err = m.collection.Sort(column, collection.Ascending)
	case m.lastSortDir == collection.Ascending:
		m.lastSortDir = collection.Descending
		m.err = m.collection.Sort(column, collection.Descending)
	default:
		m.lastSort = ""
		m.collection.ClearSort()
	}
	m.refreshRows()
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.view = GridView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "x", "esc":
		m.engine.Cancel()
		return m, nil
	case "q", "ctrl+c":
		m.engine.Cancel()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.view = GridView
		m.linkResult = nil
		m.buildResult = nil
		m.runErr = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) selectedHandle() (collection.Handle, bool) {
	handles := m.collection.VisibleHandles()
	cursor := m.tbl.Cursor()
	if cursor < 0 || cursor >= len(handles) {
		return 0, false
	}
	return handles[cursor], true
}

func (m *Model) refreshRows() {
	m.tbl.SetRows(gridRows(m.collection.Visible(), m.romaji))
}

func (m *Model) startRun(kind runKind) (tea.Model, tea.Cmd) {
	m.run = kind
	m.progress = tasks.ProgressUpdate{}
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.view = RunView

	progress := m.progressChan
	go func() {
		var msg runCompleteMsg
		switch kind {
		case runRebuild:
			msg.build, msg.err = m.engine.Rebuild(m.ctx, progress)
		default:
			msg.link, msg.err = m.engine.CheckLinks(m.ctx, progress)
		}
		m.complete = msg
		close(progress)
	}()

	return m, m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return m.complete
		}
		update, ok := <-m.progressChan
		if !ok {
			return m.complete
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderGrid() string {
	mode, sortState := m.collection.Mode()
	status := fmt.Sprintf("%d rows · %s order", m.collection.VisibleLen(), mode)
	if sortState.Column != "" {
		status = fmt.Sprintf("%s (%s %s)", status, sortState.Column, sortState.Dir)
	}
	return fmt.Sprintf("%s\n%s\n\n%s",
		m.tbl.View(),
		styles.help.Render(status),
		m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *Model) renderDetail() string {
	title := styles.title.Render(fmt.Sprintf("%s — %s", m.detail.SongName, m.detail.SongArtist))
	body := ""
	for _, line := range detailLines(m.detail, m.romaji) {
		if line[1] == "" {
			continue
		}
		body += fmt.Sprintf("%-12s %s\n", line[0], line[1])
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, body, helpView)
}

func (m *Model) renderRun() string {
	var title string
	if m.run == runRebuild {
		title = styles.title.Render("Re-downloading visible rows")
	} else {
		title = styles.title.Render("Checking media links")
	}
	progress := fmt.Sprintf("%d/%d", m.progress.Step, m.progress.Total)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.cancel, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, progress, m.progress.Message, helpView)
}

func (m *Model) renderResult() string {
	if m.runErr != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress esc to go back, q to quit", m.runErr))
	}

	var body string
	switch {
	case m.linkResult != nil:
		dead := 0
		for _, row := range m.linkResult.Rows {
			if row.Dead() {
				dead++
			}
		}
		title := styles.ok.Render("Link check complete")
		if m.linkResult.StoppedEarly {
			title = styles.warn.Render("Link check stopped early")
		}
		body = fmt.Sprintf("%s\n\nChecked %d/%d rows, %d fully dead",
			title, m.linkResult.Processed, m.linkResult.Total, dead)
	case m.buildResult != nil:
		if m.buildResult.Applied {
			body = fmt.Sprintf("%s\n\nReplaced %d rows across %d chunks",
				styles.ok.Render("Rebuild complete"), m.buildResult.Rows, m.buildResult.TotalChunks)
		} else {
			body = fmt.Sprintf("%s\n\nFinished %d/%d chunks; grid left untouched",
				styles.warn.Render("Rebuild did not apply"), m.buildResult.ProcessedChunks, m.buildResult.TotalChunks)
		}
	default:
		body = "No result available"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}
