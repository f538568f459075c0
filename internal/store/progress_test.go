package store

import (
	"encoding/json"
	"reflect"
	"testing"

	tu "github.com/desertthunder/learnx/internal/testing"
)

func TestProgressStore(t *testing.T) {
	t.Run("Empty On First Run", func(t *testing.T) {
		p := NewProgressStore(tu.NewMemoryStorage(), quietLogger())

		if p.IsVideoCompleted("v1") || p.IsVideoStarred("v1") || p.IsCourseStarred("c1") {
			t.Error("expected empty progress")
		}
		if p.Stats() != (ProgressStats{}) {
			t.Errorf("expected zero stats, got %+v", p.Stats())
		}
	})

	t.Run("MarkVideoComplete Is Idempotent", func(t *testing.T) {
		storage := tu.NewMemoryStorage()
		p := NewProgressStore(storage, quietLogger())

		p.MarkVideoComplete("v1")
		once := p.Snapshot()
		writes := storage.Writes()

		p.MarkVideoComplete("v1")
		if !reflect.DeepEqual(once, p.Snapshot()) {
			t.Error("second mark must not change state")
		}
		if storage.Writes() != writes {
			t.Error("no-op mark must not write")
		}
		if !p.IsVideoCompleted("v1") {
			t.Error("expected v1 completed")
		}
	})

	t.Run("MarkVideoIncomplete", func(t *testing.T) {
		p := NewProgressStore(tu.NewMemoryStorage(), quietLogger())
		p.MarkVideoComplete("v1")
		p.MarkVideoIncomplete("v1")
		p.MarkVideoIncomplete("v1")

		if p.IsVideoCompleted("v1") {
			t.Error("expected v1 incomplete")
		}
	})

	t.Run("Toggle Twice Restores", func(t *testing.T) {
		p := NewProgressStore(tu.NewMemoryStorage(), quietLogger())

		if !p.ToggleVideoStarred("v1") {
			t.Error("first toggle should star")
		}
		if p.ToggleVideoStarred("v1") {
			t.Error("second toggle should unstar")
		}
		if p.IsVideoStarred("v1") {
			t.Error("expected original state")
		}

		p.ToggleCourseStarred("c1")
		if !p.IsCourseStarred("c1") {
			t.Error("expected course starred")
		}
		p.ToggleCourseStarred("c1")
		if p.IsCourseStarred("c1") {
			t.Error("expected course unstarred")
		}
	})

	t.Run("Empty IDs Are Ignored", func(t *testing.T) {
		storage := tu.NewMemoryStorage()
		p := NewProgressStore(storage, quietLogger())
		p.MarkVideoComplete("")
		p.ToggleCourseStarred("")

		if storage.Writes() != 0 || p.Stats() != (ProgressStats{}) {
			t.Error("empty ids must not change progress")
		}
	})

	t.Run("Write Through Round Trip", func(t *testing.T) {
		storage := tu.NewMemoryStorage()
		p := NewProgressStore(storage, quietLogger())
		p.MarkVideoComplete("v2")
		p.MarkVideoComplete("v1")
		p.ToggleVideoStarred("v3")
		p.ToggleCourseStarred("c1")

		reloaded := NewProgressStore(storage, quietLogger())
		if !reflect.DeepEqual(p.Snapshot(), reloaded.Snapshot()) {
			t.Errorf("reloaded %+v, want %+v", reloaded.Snapshot(), p.Snapshot())
		}
	})

	t.Run("Persisted Format", func(t *testing.T) {
		storage := tu.NewMemoryStorage()
		p := NewProgressStore(storage, quietLogger())
		p.MarkVideoComplete("b")
		p.MarkVideoComplete("a")

		var env struct {
			State   map[string][]string `json:"state"`
			Version int                 `json:"version"`
		}
		if err := json.Unmarshal([]byte(storage.Raw(ProgressKey)), &env); err != nil {
			t.Fatalf("invalid persisted JSON: %v", err)
		}
		if !reflect.DeepEqual(env.State["completedVideos"], []string{"a", "b"}) {
			t.Errorf("expected sorted completed ids, got %v", env.State["completedVideos"])
		}
		if env.State["starredVideos"] == nil || env.State["starredCourses"] == nil {
			t.Error("expected empty sets to persist as empty lists")
		}
	})

	t.Run("Corrupt Storage Loads Empty", func(t *testing.T) {
		storage := tu.NewMemoryStorage()
		storage.Put(ProgressKey, "[[[")

		p := NewProgressStore(storage, quietLogger())
		if p.Stats() != (ProgressStats{}) {
			t.Error("expected empty progress")
		}

		p.MarkVideoComplete("v1")
		if !NewProgressStore(storage, quietLogger()).IsVideoCompleted("v1") {
			t.Error("expected corrupt value to be replaced on next write")
		}
	})

	t.Run("Duplicate Persisted IDs Collapse", func(t *testing.T) {
		storage := tu.NewMemoryStorage()
		storage.Put(ProgressKey, `{"state":{"completedVideos":["v1","v1",""]},"version":0}`)

		p := NewProgressStore(storage, quietLogger())
		if p.Stats().CompletedVideos != 1 {
			t.Errorf("expected one completed video, got %d", p.Stats().CompletedVideos)
		}
	})

	t.Run("Write Failure Is Swallowed", func(t *testing.T) {
		p := NewProgressStore(&tu.FailingStorage{}, quietLogger())

		p.MarkVideoComplete("v1")
		if !p.IsVideoCompleted("v1") {
			t.Error("expected in-memory state to stay correct")
		}
	})

	t.Run("CompletedIn", func(t *testing.T) {
		p := NewProgressStore(tu.NewMemoryStorage(), quietLogger())
		p.MarkVideoComplete("v1")
		p.MarkVideoComplete("v3")
		p.MarkVideoComplete("other")

		if got := p.CompletedIn([]string{"v1", "v2", "v3"}); got != 2 {
			t.Errorf("CompletedIn() = %d, want 2", got)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		storage := tu.NewMemoryStorage()
		p := NewProgressStore(storage, quietLogger())
		p.MarkVideoComplete("v1")
		p.ToggleCourseStarred("c1")

		p.Reset()
		if p.Stats() != (ProgressStats{}) {
			t.Error("expected empty progress after reset")
		}
		if NewProgressStore(storage, quietLogger()).Stats() != (ProgressStats{}) {
			t.Error("expected reset to be persisted")
		}
	})
}
