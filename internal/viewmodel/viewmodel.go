// Package viewmodel derives what the views display from the last fetched catalog and progress list.
//
// Every Set call recomputes its derived state wholesale; nothing is patched incrementally and
// progress records are never cross-checked against the catalog.
package viewmodel

import (
	"sync"

	"github.com/desertthunder/mtx/internal/models"
)

// Status is the current user's state for one media item.
type Status int

const (
	Unwatched Status = iota
	Started
	Finished
)

func (s Status) String() string {
	switch s {
	case Started:
		return "started"
	case Finished:
		return "finished"
	default:
		return "unwatched"
	}
}

// Progress holds the catalog grouped by root and the per-media progress buckets.
//
// It is safe for concurrent use.
type Progress struct {
	mu sync.RWMutex

	userID string

	media       []models.MediaItem
	mediaByID   map[string]models.MediaItem
	mediaByRoot map[string][]models.MediaItem
	roots       []string

	usersInProgress map[string][]models.ProgressRecord
	usersFinished   map[string][]models.ProgressRecord
}

// New creates an empty [Progress] with no current user.
func New() *Progress {
	return &Progress{
		mediaByID:       map[string]models.MediaItem{},
		mediaByRoot:     map[string][]models.MediaItem{},
		usersInProgress: map[string][]models.ProgressRecord{},
		usersFinished:   map[string][]models.ProgressRecord{},
	}
}

// SetUser sets the user the status helpers answer for. An empty id means nobody is signed in.
func (p *Progress) SetUser(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userID = userID
}

// User returns the current user id.
func (p *Progress) User() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userID
}

// SetMedia replaces the catalog and recomputes the by-id map, the root grouping and the root list.
// Roots keep the order in which they first appear.
func (p *Progress) SetMedia(items []models.MediaItem) {
	media := make([]models.MediaItem, len(items))
	copy(media, items)

	byID := make(map[string]models.MediaItem, len(media))
	byRoot := make(map[string][]models.MediaItem)
	var roots []string

	for _, m := range media {
		byID[m.MediaID] = m
		if _, seen := byRoot[m.Root]; !seen {
			roots = append(roots, m.Root)
		}
		byRoot[m.Root] = append(byRoot[m.Root], m)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.media = media
	p.mediaByID = byID
	p.mediaByRoot = byRoot
	p.roots = roots
}

// SetProgress replaces the progress buckets.
//
// Records with a finished mark go to the finished bucket, the rest to in-progress. When a user has
// both for the same media the in-progress record is dropped.
func (p *Progress) SetProgress(records []models.ProgressRecord) {
	inProgress := make(map[string][]models.ProgressRecord)
	finished := make(map[string][]models.ProgressRecord)

	for _, r := range records {
		if r.Finished {
			finished[r.MediaID] = append(finished[r.MediaID], r)
		}
	}
	for _, r := range records {
		if r.Finished || containsUser(finished[r.MediaID], r.UserID) {
			continue
		}
		inProgress[r.MediaID] = append(inProgress[r.MediaID], r)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.usersInProgress = inProgress
	p.usersFinished = finished
}

// Roots returns the distinct roots in first-appearance order.
func (p *Progress) Roots() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.roots...)
}

// Media returns the whole catalog in fetch order.
func (p *Progress) Media() []models.MediaItem {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.MediaItem(nil), p.media...)
}

// MediaByRoot returns the items under root in fetch order.
func (p *Progress) MediaByRoot(root string) []models.MediaItem {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.MediaItem(nil), p.mediaByRoot[root]...)
}

// Lookup finds a media item by id.
func (p *Progress) Lookup(mediaID string) (models.MediaItem, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.mediaByID[mediaID]
	return m, ok
}

// UsersInProgress returns the in-progress records for mediaID.
func (p *Progress) UsersInProgress(mediaID string) []models.ProgressRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.ProgressRecord(nil), p.usersInProgress[mediaID]...)
}

// UsersFinished returns the finished records for mediaID.
func (p *Progress) UsersFinished(mediaID string) []models.ProgressRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.ProgressRecord(nil), p.usersFinished[mediaID]...)
}

// Started reports whether the current user has started mediaID without finishing it.
func (p *Progress) Started(mediaID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userID != "" && containsUser(p.usersInProgress[mediaID], p.userID)
}

// Finished reports whether the current user has finished mediaID.
func (p *Progress) Finished(mediaID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userID != "" && containsUser(p.usersFinished[mediaID], p.userID)
}

// Unwatched reports whether mediaID is neither started nor finished by the current user.
func (p *Progress) Unwatched(mediaID string) bool {
	return !p.Started(mediaID) && !p.Finished(mediaID)
}

// Status combines [Progress.Started] and [Progress.Finished].
func (p *Progress) Status(mediaID string) Status {
	switch {
	case p.Finished(mediaID):
		return Finished
	case p.Started(mediaID):
		return Started
	default:
		return Unwatched
	}
}

// Row is one media item as rendered: its status for the current user and everyone's progress.
type Row struct {
	Media      models.MediaItem
	Status     Status
	InProgress []string
	Finished   []string
}

// RootGroup is the rows under one root.
type RootGroup struct {
	Root string
	Rows []Row
}

// Snapshot is an immutable copy of the view for rendering.
type Snapshot struct {
	UserID string
	Groups []RootGroup
}

// Counts tallies the current user's statuses across the snapshot.
func (s Snapshot) Counts() map[Status]int {
	counts := map[Status]int{Unwatched: 0, Started: 0, Finished: 0}
	for _, g := range s.Groups {
		for _, row := range g.Rows {
			counts[row.Status]++
		}
	}
	return counts
}

// Rows flattens the groups in display order.
func (s Snapshot) Rows() []Row {
	var rows []Row
	for _, g := range s.Groups {
		rows = append(rows, g.Rows...)
	}
	return rows
}

// Snapshot copies the current grouping. An empty root filter selects every root.
func (p *Progress) Snapshot(root string) Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := Snapshot{UserID: p.userID}
	for _, r := range p.roots {
		if root != "" && r != root {
			continue
		}
		group := RootGroup{Root: r}
		for _, m := range p.mediaByRoot[r] {
			group.Rows = append(group.Rows, Row{
				Media:      m,
				Status:     p.statusLocked(m.MediaID),
				InProgress: userIDs(p.usersInProgress[m.MediaID]),
				Finished:   userIDs(p.usersFinished[m.MediaID]),
			})
		}
		snap.Groups = append(snap.Groups, group)
	}
	return snap
}

func (p *Progress) statusLocked(mediaID string) Status {
	if p.userID == "" {
		return Unwatched
	}
	if containsUser(p.usersFinished[mediaID], p.userID) {
		return Finished
	}
	if containsUser(p.usersInProgress[mediaID], p.userID) {
		return Started
	}
	return Unwatched
}

func containsUser(records []models.ProgressRecord, userID string) bool {
	for _, r := range records {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

func userIDs(records []models.ProgressRecord) []string {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.UserID)
	}
	return ids
}
