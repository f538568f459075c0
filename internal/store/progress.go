package store

import (
	"errors"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/shared"
)

// ProgressSnapshot is the persisted and exported form of progress, with ids sorted.
type ProgressSnapshot struct {
	CompletedVideos []string `json:"completedVideos"`
	StarredVideos   []string `json:"starredVideos"`
	StarredCourses  []string `json:"starredCourses"`
}

// ProgressStats holds set sizes.
type ProgressStats struct {
	CompletedVideos int `json:"completedVideos"`
	StarredVideos   int `json:"starredVideos"`
	StarredCourses  int `json:"starredCourses"`
}

type idSet map[string]struct{}

func newIDSet(ids []string) idSet {
	set := make(idSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ProgressStore tracks completed and starred content for this device.
//
// Every mutation is written through to storage before it returns.
type ProgressStore struct {
	storage Storage
	logger  *log.Logger

	mu             sync.RWMutex
	completed      idSet
	starredVideos  idSet
	starredCourses idSet
}

// NewProgressStore loads persisted progress, starting empty when it is absent or unreadable.
func NewProgressStore(storage Storage, logger *log.Logger) *ProgressStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	p := &ProgressStore{storage: storage, logger: shared.WithLogger(logger, "store", "progress")}

	var snap ProgressSnapshot
	if err := loadState(storage, ProgressKey, &snap); err != nil && !errors.Is(err, shared.ErrNotFound) {
		p.logger.Warn("ignoring persisted progress", "error", err)
		snap = ProgressSnapshot{}
	}

	p.completed = newIDSet(snap.CompletedVideos)
	p.starredVideos = newIDSet(snap.StarredVideos)
	p.starredCourses = newIDSet(snap.StarredCourses)
	return p
}

// persist must be called with mu held for writing.
func (p *ProgressStore) persist() {
	data, err := encodeState(p.snapshot())
	if err != nil {
		p.logger.Error("failed to encode progress", "error", err)
		return
	}
	if err := p.storage.Set(ProgressKey, data); err != nil {
		p.logger.Error("failed to persist progress", "error", err)
	}
}

func (p *ProgressStore) snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		CompletedVideos: p.completed.sorted(),
		StarredVideos:   p.starredVideos.sorted(),
		StarredCourses:  p.starredCourses.sorted(),
	}
}

// set adds or removes id and persists when membership changed.
func (p *ProgressStore) set(s idSet, id string, member bool) {
	if id == "" || s.has(id) == member {
		return
	}
	if member {
		s[id] = struct{}{}
	} else {
		delete(s, id)
	}
	p.persist()
}

func (p *ProgressStore) IsVideoCompleted(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completed.has(id)
}

// MarkVideoComplete is idempotent.
func (p *ProgressStore) MarkVideoComplete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(p.completed, id, true)
}

// MarkVideoIncomplete is idempotent.
func (p *ProgressStore) MarkVideoIncomplete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(p.completed, id, false)
}

func (p *ProgressStore) IsVideoStarred(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.starredVideos.has(id)
}

// ToggleVideoStarred flips membership and returns the new state.
func (p *ProgressStore) ToggleVideoStarred(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(p.starredVideos, id, !p.starredVideos.has(id))
	return p.starredVideos.has(id)
}

func (p *ProgressStore) IsCourseStarred(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.starredCourses.has(id)
}

// ToggleCourseStarred flips membership and returns the new state.
func (p *ProgressStore) ToggleCourseStarred(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(p.starredCourses, id, !p.starredCourses.has(id))
	return p.starredCourses.has(id)
}

// CompletedIn counts how many of ids are completed.
func (p *ProgressStore) CompletedIn(ids []string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, id := range ids {
		if p.completed.has(id) {
			n++
		}
	}
	return n
}

func (p *ProgressStore) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ProgressStats{
		CompletedVideos: len(p.completed),
		StarredVideos:   len(p.starredVideos),
		StarredCourses:  len(p.starredCourses),
	}
}

// Snapshot returns sorted copies of all three sets.
func (p *ProgressStore) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot()
}

// Reset clears all progress. Only reachable from an explicit user command.
func (p *ProgressStore) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = idSet{}
	p.starredVideos = idSet{}
	p.starredCourses = idSet{}
	p.persist()
}
