// package formatter renders progress snapshots and records as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/desertthunder/mtx/internal/viewmodel"
	"github.com/dustin/go-humanize"
)

// Output formats accepted by [Export].
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// namedLayouts are the layout shortcuts accepted by [FormatTime] besides "ago".
var namedLayouts = map[string]string{
	"date":     "2006-01-02",
	"datetime": "2006-01-02 15:04",
	"rfc3339":  time.RFC3339,
	"kitchen":  time.Kitchen,
}

// FormatTime renders t relative to now for the "ago" directive, and with the directive as a layout
// otherwise. A zero time renders as "".
func FormatTime(t time.Time, directive string) string {
	return FormatTimeAt(t, directive, time.Now())
}

// FormatTimeAt is [FormatTime] with an explicit reference time.
func FormatTimeAt(t time.Time, directive string, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if directive == "ago" {
		return humanize.RelTime(t, now, "ago", "from now")
	}
	if layout, ok := namedLayouts[directive]; ok {
		directive = layout
	}
	if directive == "" {
		directive = namedLayouts["datetime"]
	}
	return t.Local().Format(directive)
}

// StatusIcon is the single-character marker used in listings.
func StatusIcon(s viewmodel.Status) string {
	switch s {
	case viewmodel.Finished:
		return "✓"
	case viewmodel.Started:
		return "▶"
	default:
		return "·"
	}
}

// Export renders snap in format.
func Export(snap viewmodel.Snapshot, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return ExportToText(snap)
	case FormatMarkdown, "md":
		return ExportToMarkdown(snap)
	case FormatCSV:
		return ExportToCSV(snap)
	case FormatJSON:
		return shared.MarshalJSON(toJSON(snap), true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (text, markdown, csv, json)", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders snap in format and writes it to path, creating parent directories.
func WriteExport(snap viewmodel.Snapshot, format, path string) error {
	data, err := Export(snap, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ExportToText lists each root with its media, one line per item.
func ExportToText(snap viewmodel.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	for i, g := range snap.Groups {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "%s (%d)\n", g.Root, len(g.Rows))
		for _, row := range g.Rows {
			fmt.Fprintf(&buf, "  %s %s  [%s]%s\n", StatusIcon(row.Status), row.Media.Basename(), row.Media.MediaID, others(row))
		}
	}

	if len(snap.Groups) == 0 {
		buf.WriteString("No media.\n")
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading per root and a task list of media.
func ExportToMarkdown(snap viewmodel.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	title := "Media progress"
	if snap.UserID != "" {
		title = fmt.Sprintf("Media progress for %s", snap.UserID)
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)

	counts := snap.Counts()
	fmt.Fprintf(&buf, "**Finished**: %d · **Started**: %d · **Unwatched**: %d\n",
		counts[viewmodel.Finished], counts[viewmodel.Started], counts[viewmodel.Unwatched])

	for _, g := range snap.Groups {
		fmt.Fprintf(&buf, "\n## %s\n\n", g.Root)
		for _, row := range g.Rows {
			box := " "
			if row.Status == viewmodel.Finished {
				box = "x"
			}
			suffix := ""
			if row.Status == viewmodel.Started {
				suffix = " _(in progress)_"
			}
			fmt.Fprintf(&buf, "- [%s] `%s`%s%s\n", box, row.Media.Path, suffix, others(row))
		}
	}

	return buf.Bytes(), nil
}

// ExportToCSV converts a snapshot to CSV with columns: MediaID, Root, Path, Basename, Status, InProgress, Finished
func ExportToCSV(snap viewmodel.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"MediaID", "Root", "Path", "Basename", "Status", "InProgress", "Finished"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range snap.Rows() {
		record := []string{
			row.Media.MediaID,
			row.Media.Root,
			row.Media.Path,
			row.Media.Basename(),
			row.Status.String(),
			strings.Join(row.InProgress, ";"),
			strings.Join(row.Finished, ";"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// FormatRecords lists progress records, resolving media ids through lookup when it knows them.
func FormatRecords(records []models.ProgressRecord, lookup func(string) (models.MediaItem, bool), directive string) []byte {
	var buf bytes.Buffer

	for _, r := range records {
		name := r.MediaID
		if lookup != nil {
			if m, ok := lookup(r.MediaID); ok {
				name = m.Basename()
			}
		}

		when := r.StartedAt
		verb := "started"
		if r.Finished {
			when, verb = r.FinishedAt, "finished"
		}

		line := fmt.Sprintf("%-12s %s %s", r.UserID, verb, name)
		if ts := FormatTime(when, directive); ts != "" {
			line += " " + ts
		}
		buf.WriteString(line + "\n")
	}

	if len(records) == 0 {
		buf.WriteString("No records.\n")
	}
	return buf.Bytes()
}

func others(row viewmodel.Row) string {
	var parts []string
	if len(row.InProgress) > 0 {
		parts = append(parts, "watching: "+strings.Join(row.InProgress, ", "))
	}
	if len(row.Finished) > 0 {
		parts = append(parts, "finished: "+strings.Join(row.Finished, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  (" + strings.Join(parts, "; ") + ")"
}

type jsonRow struct {
	MediaID    string   `json:"mediaId"`
	Root       string   `json:"root"`
	Path       string   `json:"path"`
	Basename   string   `json:"basename"`
	Status     string   `json:"status"`
	InProgress []string `json:"inProgress,omitempty"`
	Finished   []string `json:"finished,omitempty"`
}

type jsonGroup struct {
	Root  string    `json:"root"`
	Media []jsonRow `json:"media"`
}

type jsonSnapshot struct {
	UserID string      `json:"userId,omitempty"`
	Roots  []jsonGroup `json:"roots"`
}

func toJSON(snap viewmodel.Snapshot) jsonSnapshot {
	out := jsonSnapshot{UserID: snap.UserID, Roots: []jsonGroup{}}
	for _, g := range snap.Groups {
		group := jsonGroup{Root: g.Root, Media: []jsonRow{}}
		for _, row := range g.Rows {
			group.Media = append(group.Media, jsonRow{
				MediaID:    row.Media.MediaID,
				Root:       row.Media.Root,
				Path:       row.Media.Path,
				Basename:   row.Media.Basename(),
				Status:     row.Status.String(),
				InProgress: row.InProgress,
				Finished:   row.Finished,
			})
		}
		out.Roots = append(out.Roots, group)
	}
	return out
}
