package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/tasks"
	"github.com/desertthunder/mtx/internal/viewmodel"
)

type fakeEngine struct {
	mu       sync.Mutex
	view     *viewmodel.Progress
	verified bool
	marks    []string
	markErr  error
	refreshs int
}

func newFakeEngine() *fakeEngine {
	view := viewmodel.New()
	view.SetUser("u1")
	view.SetMedia([]models.MediaItem{
		{MediaID: "m1", Root: "movies", Path: "movies/heat.mkv"},
		{MediaID: "m2", Root: "shows", Path: "shows/e01.mkv"},
	})
	return &fakeEngine{view: view, verified: true}
}

func (f *fakeEngine) View() *viewmodel.Progress { return f.view }
func (f *fakeEngine) Verified() bool            { return f.verified }
func (f *fakeEngine) UserID() string            { return f.view.User() }

func (f *fakeEngine) Refresh(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
	f.mu.Lock()
	f.refreshs++
	f.mu.Unlock()
	progress <- tasks.ProgressUpdate{Phase: tasks.FetchMedia, Message: "Loaded 2 media items"}
	return nil
}

func (f *fakeEngine) Mark(ctx context.Context, action tasks.Action, mediaID string, progress chan<- tasks.ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.marks = append(f.marks, string(action)+":"+mediaID)
	if action == tasks.ActionFinish {
		f.view.SetProgress([]models.ProgressRecord{{UserID: "u1", MediaID: mediaID, Finished: true}})
	}
	return nil
}

// drain runs cmd and feeds every resulting message back into m until the operation completes.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if _, ok := msg.(Msg); !ok {
			return
		}
		_, cmd = m.Update(msg)
		if !m.Busy() {
			return
		}
	}
}

func newTestModel(engine Engine) *Model {
	m := NewModel(context.Background(), engine, "")
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	t.Run("Init Refreshes", func(t *testing.T) {
		engine := newFakeEngine()
		m := newTestModel(engine)

		drain(t, m, m.Init())

		if engine.refreshs != 1 {
			t.Errorf("expected 1 refresh, got %d", engine.refreshs)
		}
		if m.Busy() {
			t.Error("expected operation to finish")
		}
		if m.status != "Loaded 2 media items" {
			t.Errorf("unexpected status %q", m.status)
		}
		if len(m.list.Items()) != 2 {
			t.Errorf("expected 2 items, got %d", len(m.list.Items()))
		}
	})

	t.Run("Finish Selected", func(t *testing.T) {
		engine := newFakeEngine()
		m := newTestModel(engine)

		_, cmd := m.Update(keyPress("f"))
		if !m.Busy() {
			t.Fatal("expected mark to be in flight")
		}
		drain(t, m, cmd)

		if len(engine.marks) != 1 || engine.marks[0] != "finish:m1" {
			t.Errorf("unexpected marks %v", engine.marks)
		}
		item := m.list.Items()[0].(mediaItem)
		if item.row.Status != viewmodel.Finished {
			t.Errorf("expected finished row, got %v", item.row.Status)
		}
	})

	t.Run("Mark Error Shown", func(t *testing.T) {
		engine := newFakeEngine()
		engine.markErr = errors.New("boom")
		m := newTestModel(engine)

		_, cmd := m.Update(keyPress("s"))
		drain(t, m, cmd)

		if m.Err() == nil || !strings.Contains(m.View(), "boom") {
			t.Errorf("expected error in view, got %v", m.Err())
		}
	})

	t.Run("Ignores Keys While Busy", func(t *testing.T) {
		engine := newFakeEngine()
		m := newTestModel(engine)

		_, first := m.Update(keyPress("s"))
		_, second := m.Update(keyPress("c"))
		if second != nil {
			t.Error("expected no command while busy")
		}
		drain(t, m, first)

		if len(engine.marks) != 1 {
			t.Errorf("expected 1 mark, got %v", engine.marks)
		}
	})

	t.Run("Cycle Roots", func(t *testing.T) {
		m := newTestModel(newFakeEngine())

		want := []string{"movies", "shows", ""}
		for _, root := range want {
			m.Update(tea.KeyMsg{Type: tea.KeyTab})
			if m.Root() != root {
				t.Errorf("expected root %q, got %q", root, m.Root())
			}
		}

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if len(m.list.Items()) != 1 {
			t.Errorf("expected 1 item under movies, got %d", len(m.list.Items()))
		}
	})

	t.Run("Unverified View", func(t *testing.T) {
		engine := newFakeEngine()
		engine.verified = false
		m := newTestModel(engine)

		if !strings.Contains(m.View(), "read-only") {
			t.Error("expected read-only hint")
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := newTestModel(newFakeEngine())
		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestMediaItem(t *testing.T) {
	item := mediaItem{row: viewmodel.Row{
		Media:      models.MediaItem{MediaID: "m1", Root: "movies", Path: "movies/heat.mkv"},
		Status:     viewmodel.Started,
		InProgress: []string{"u1", "u2"},
	}}

	if item.FilterValue() != "movies/heat.mkv" {
		t.Errorf("unexpected filter value %q", item.FilterValue())
	}
	if !strings.Contains(item.Title(), "heat.mkv") {
		t.Errorf("unexpected title %q", item.Title())
	}
	if item.Description() != "movies • watching: u1, u2" {
		t.Errorf("unexpected description %q", item.Description())
	}
}
