package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during an engine operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchMedia Phase = iota
	FetchProgress
	Verify
	Logout
	StartMedia
	FinishMedia
	ClearMedia
	BulkMark
)

func (p Phase) String() string {
	switch p {
	case FetchMedia:
		return "fetch_media"
	case FetchProgress:
		return "fetch_progress"
	case Verify:
		return "verify"
	case Logout:
		return "logout"
	case StartMedia:
		return "start_media"
	case FinishMedia:
		return "finish_media"
	case ClearMedia:
		return "clear_media"
	case BulkMark:
		return "bulk_mark"
	default:
		return ""
	}
}

func fetchMediaUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMedia,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d media items", count),
		Data:    count,
	}
}

func fetchProgressUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProgress,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d progress records", count),
		Data:    count,
	}
}

func verifyUpdate(email string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Verify,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Signed in as %s", email),
	}
}

func logoutUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Logout, Step: 1, Total: 1, Message: "Signed out"}
}

func markUpdate(action Action, mediaID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   action.Phase(),
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s %s", action.Past(), mediaID),
		Data:    mediaID,
	}
}

func bulkMarkUpdate(step, total int, action Action, mediaID string, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s %s", step, total, action.Past(), mediaID)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, mediaID, err)
	}
	return ProgressUpdate{
		Phase:   BulkMark,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    mediaID,
	}
}
