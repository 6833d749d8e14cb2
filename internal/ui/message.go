package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mtx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgOperationComplete
)

// operation tracks one engine call running in the background.
type operation struct {
	label    string
	progress chan tasks.ProgressUpdate
	done     chan error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(op *operation, update tasks.ProgressUpdate) Msg {
	return Msg{
		kind: MsgProgressUpdate,
		data: struct {
			op     *operation
			update tasks.ProgressUpdate
		}{op, update},
	}
}

// operationCompleteMsg is the constructor for [MsgOperationComplete]
func operationCompleteMsg(op *operation, err error) Msg {
	return Msg{
		kind: MsgOperationComplete,
		data: struct {
			op  *operation
			err error
		}{op, err},
	}
}
