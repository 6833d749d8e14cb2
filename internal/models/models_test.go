package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBasename(t *testing.T) {
	tc := []struct {
		path string
		want string
	}{
		{"movies/2019/heat.mkv", "heat.mkv"},
		{"heat.mkv", "heat.mkv"},
		{"shows/", ""},
		{"", ""},
		{"/a", "a"},
	}

	for _, tt := range tc {
		t.Run(tt.path, func(t *testing.T) {
			if got := Basename(tt.path); got != tt.want {
				t.Errorf("Basename(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	t.Run("MediaItem", func(t *testing.T) {
		m := MediaItem{MediaID: "m1", Root: "movies", Path: "movies/heat.mkv"}
		if m.Basename() != "heat.mkv" {
			t.Errorf("expected heat.mkv, got %s", m.Basename())
		}
	})
}

func TestProgressRecord(t *testing.T) {
	t.Run("Started Record", func(t *testing.T) {
		var rec ProgressRecord
		data := `{"mediaId":"m1","userId":"u1","started":"2014-03-01T10:00:00Z"}`
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Finished {
			t.Error("expected record without finished key to be in progress")
		}
		if rec.UserID != "u1" || rec.MediaID != "m1" {
			t.Errorf("unexpected ids: %+v", rec)
		}
		want := time.Date(2014, 3, 1, 10, 0, 0, 0, time.UTC)
		if !rec.StartedAt.Equal(want) {
			t.Errorf("expected started %v, got %v", want, rec.StartedAt)
		}
	})

	t.Run("Finished Is A Presence Flag", func(t *testing.T) {
		for _, data := range []string{
			`{"mediaId":"m1","userId":"u1","finished":"2014-03-01T10:00:00Z"}`,
			`{"mediaId":"m1","userId":"u1","finished":null}`,
			`{"mediaId":"m1","userId":"u1","finished":false}`,
			`{"mediaId":"m1","userId":"u1","finished":1393668000000}`,
		} {
			var rec ProgressRecord
			if err := json.Unmarshal([]byte(data), &rec); err != nil {
				t.Fatalf("unexpected error for %s: %v", data, err)
			}
			if !rec.Finished {
				t.Errorf("expected %s to be finished", data)
			}
		}
	})

	t.Run("Unparseable Timestamps Stay Zero", func(t *testing.T) {
		var rec ProgressRecord
		if err := json.Unmarshal([]byte(`{"mediaId":"m1","userId":"u1","started":"yesterday"}`), &rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !rec.StartedAt.IsZero() {
			t.Errorf("expected zero time, got %v", rec.StartedAt)
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		var rec ProgressRecord
		if err := json.Unmarshal([]byte(`["m1"]`), &rec); err == nil {
			t.Error("expected error for non-object record")
		}
	})

	t.Run("MarshalJSON Keeps Finished Key", func(t *testing.T) {
		data, err := json.Marshal(ProgressRecord{UserID: "u1", MediaID: "m1", Finished: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var back ProgressRecord
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !back.Finished {
			t.Errorf("expected finished key in %s", data)
		}
	})
}

func TestSession(t *testing.T) {
	t.Run("Unauthenticated", func(t *testing.T) {
		s := Unauthenticated()
		if s.Status != StatusUnauthenticated || s.Authenticated() {
			t.Errorf("unexpected session %+v", s)
		}
	})

	t.Run("Decodes Verify Response", func(t *testing.T) {
		var s Session
		data := `{"status":"okay","email":"a@example.com","userId":"u1","accessToken":"tok"}`
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Authenticated() || s.UserID != "u1" || s.Email != "a@example.com" {
			t.Errorf("unexpected session %+v", s)
		}
	})
}
