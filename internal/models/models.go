package models

import (
	"encoding/json"
	"strings"
	"time"
)

// StatusUnauthenticated is the status reported by a session that was never stored or has ended.
const StatusUnauthenticated = "unauthenticated"

// MediaItem is one entry of the media catalog.
type MediaItem struct {
	MediaID  string    `json:"mediaId"`
	Root     string    `json:"root"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified,omitzero"`
}

// Basename is the substring of the path after its last separator.
func (m MediaItem) Basename() string {
	return Basename(m.Path)
}

// Basename returns the substring of path after the last "/", or path itself when it has none.
func Basename(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ProgressRecord marks a media item as started or finished by a user.
//
// Finished is a presence flag: a record is finished when its JSON object carries a "finished" key,
// whatever the value.
type ProgressRecord struct {
	UserID     string
	MediaID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Finished   bool
}

type progressJSON struct {
	UserID   string `json:"userId"`
	MediaID  string `json:"mediaId"`
	Started  any    `json:"started,omitempty"`
	Finished any    `json:"finished,omitempty"`
}

// UnmarshalJSON decodes a record, detecting "finished" by key presence.
func (p *ProgressRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var rec ProgressRecord
	if raw, ok := fields["userId"]; ok {
		if err := json.Unmarshal(raw, &rec.UserID); err != nil {
			return err
		}
	}
	if raw, ok := fields["mediaId"]; ok {
		if err := json.Unmarshal(raw, &rec.MediaID); err != nil {
			return err
		}
	}
	if raw, ok := fields["started"]; ok {
		rec.StartedAt = parseMoment(raw)
	}
	if raw, ok := fields["finished"]; ok {
		rec.Finished = true
		rec.FinishedAt = parseMoment(raw)
	}

	*p = rec
	return nil
}

// MarshalJSON writes the "finished" key only for finished records.
func (p ProgressRecord) MarshalJSON() ([]byte, error) {
	out := progressJSON{UserID: p.UserID, MediaID: p.MediaID}
	if !p.StartedAt.IsZero() {
		out.Started = p.StartedAt
	}
	if p.Finished {
		if p.FinishedAt.IsZero() {
			out.Finished = true
		} else {
			out.Finished = p.FinishedAt
		}
	}
	return json.Marshal(out)
}

// parseMoment reads an RFC 3339 timestamp, leaving anything else zero.
func parseMoment(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Session is the verified identity of the current user.
type Session struct {
	UserID      string `json:"userId,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	Email       string `json:"email,omitempty"`
	Status      string `json:"status"`
}

// Unauthenticated returns the session reported when none is stored.
func Unauthenticated() Session {
	return Session{Status: StatusUnauthenticated}
}

// Authenticated reports whether the session carries an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}
