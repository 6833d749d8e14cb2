package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mtx/internal/viewmodel"
)

var _ list.Item = mediaItem{}

// mediaItem wraps [viewmodel.Row] to implement [list.Item].
type mediaItem struct {
	row viewmodel.Row
}

func (i mediaItem) FilterValue() string { return i.row.Media.Path }
func (i mediaItem) Title() string       { return styles.Badge(i.row.Status) + " " + i.row.Media.Basename() }
func (i mediaItem) Description() string {
	desc := i.row.Media.Root
	if len(i.row.InProgress) > 0 {
		desc += " • watching: " + strings.Join(i.row.InProgress, ", ")
	}
	if len(i.row.Finished) > 0 {
		desc += " • finished: " + strings.Join(i.row.Finished, ", ")
	}
	return desc
}

func itemsFrom(snap viewmodel.Snapshot) []list.Item {
	rows := snap.Rows()
	items := make([]list.Item, len(rows))
	for i, row := range rows {
		items[i] = mediaItem{row: row}
	}
	return items
}
