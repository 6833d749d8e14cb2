package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mtx/internal/tasks"
	"github.com/desertthunder/mtx/internal/viewmodel"
)

// Engine is the subset of [tasks.ProgressEngine] the TUI drives.
type Engine interface {
	View() *viewmodel.Progress
	Verified() bool
	UserID() string
	Refresh(ctx context.Context, progress chan<- tasks.ProgressUpdate) error
	Mark(ctx context.Context, action tasks.Action, mediaID string, progress chan<- tasks.ProgressUpdate) error
}

var _ Engine = (*tasks.ProgressEngine)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	engine Engine
	root   string
	width  int
	height int
	list   list.Model
	op     *operation
	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model over engine, optionally filtered to root.
func NewModel(ctx context.Context, engine Engine, root string) *Model {
	m := &Model{
		ctx:    ctx,
		engine: engine,
		root:   root,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.list = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.list.SetShowHelp(false)
	m.reload()
	return m
}

// Init loads media and progress.
func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			data := msg.data.(struct {
				op     *operation
				update tasks.ProgressUpdate
			})
			m.status = data.update.Message
			return m, waitForProgress(data.op)

		case MsgOperationComplete:
			data := msg.data.(struct {
				op  *operation
				err error
			})
			if data.op == m.op {
				m.op = nil
			}
			m.err = data.err
			if data.err == nil && m.status == "" {
				m.status = data.op.label + " done"
			}
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the media list with a status line and contextual help.
func (m *Model) View() string {
	var status string
	switch {
	case m.err != nil:
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.op != nil:
		status = styles.warn.Render(m.op.label + "... " + m.status)
	case !m.engine.Verified():
		status = styles.help.Render("Not signed in: progress is read-only")
	default:
		status = styles.ok.Render(m.status)
	}

	return fmt.Sprintf("%s\n%s\n%s", m.list.View(), status, m.help.ShortHelpView(m.keys.ShortHelp()))
}

// Busy reports whether an engine call is in flight.
func (m *Model) Busy() bool {
	return m.op != nil
}

// Err returns the error from the last engine call.
func (m *Model) Err() error {
	return m.err
}

// Root returns the active root filter, "" for all roots.
func (m *Model) Root() string {
	return m.root
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.root):
		m.nextRoot()
		return m, m.reload()
	case key.Matches(msg, m.keys.start):
		return m, m.mark(tasks.ActionStart)
	case key.Matches(msg, m.keys.finish):
		return m, m.mark(tasks.ActionFinish)
	case key.Matches(msg, m.keys.clear):
		return m, m.mark(tasks.ActionClear)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) refresh() tea.Cmd {
	return m.run("refresh", func(ch chan<- tasks.ProgressUpdate) error {
		return m.engine.Refresh(m.ctx, ch)
	})
}

func (m *Model) mark(action tasks.Action) tea.Cmd {
	item, ok := m.list.SelectedItem().(mediaItem)
	if !ok {
		return nil
	}
	mediaID := item.row.Media.MediaID
	return m.run(string(action), func(ch chan<- tasks.ProgressUpdate) error {
		return m.engine.Mark(m.ctx, action, mediaID, ch)
	})
}

// run starts fn in the background unless another call is in flight.
func (m *Model) run(label string, fn func(chan<- tasks.ProgressUpdate) error) tea.Cmd {
	if m.op != nil {
		return nil
	}

	op := &operation{
		label:    label,
		progress: make(chan tasks.ProgressUpdate, 16),
		done:     make(chan error, 1),
	}
	m.op = op
	m.err = nil
	m.status = ""

	go func() {
		op.done <- fn(op.progress)
		close(op.progress)
	}()

	return waitForProgress(op)
}

func waitForProgress(op *operation) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-op.progress
		if !ok {
			return operationCompleteMsg(op, <-op.done)
		}
		return progressUpdateMsg(op, update)
	}
}

func (m *Model) nextRoot() {
	roots := m.engine.View().Roots()
	if len(roots) == 0 {
		m.root = ""
		return
	}
	if m.root == "" {
		m.root = roots[0]
		return
	}
	for i, r := range roots {
		if r == m.root {
			if i+1 < len(roots) {
				m.root = roots[i+1]
			} else {
				m.root = ""
			}
			return
		}
	}
	m.root = ""
}

func (m *Model) reload() tea.Cmd {
	snap := m.engine.View().Snapshot(m.root)

	title := "Media"
	if m.root != "" {
		title = fmt.Sprintf("Media in %s", m.root)
	}
	if user := m.engine.UserID(); user != "" {
		title = fmt.Sprintf("%s (%s)", title, user)
	}
	m.list.Title = title

	return m.list.SetItems(itemsFrom(snap))
}
