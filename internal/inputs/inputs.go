// Package inputs keeps the test data ("massa") each worker is currently
// driving the page with, so a failure report can show exactly which inputs
// were in play when an interaction broke.
package inputs

import (
	"fmt"
	"sync"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/pagekit/internal/browser/registry"
)

// snapshotAPI sorts keys so the same data always renders the same way.
var snapshotAPI = json.Config{
	SortMapKeys:            true,
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// Store maps each worker to its current data set. Workers only ever touch
// their own entry; the lock guards the map itself.
type Store struct {
	mu   sync.RWMutex
	sets map[registry.WorkerID]map[string]any
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sets: make(map[registry.WorkerID]map[string]any)}
}

// Set records one named input for w, replacing any previous value.
func (s *Store) Set(w registry.WorkerID, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[w]
	if !ok {
		set = make(map[string]any)
		s.sets[w] = set
	}
	set[key] = value
}

// Merge records every entry of values for w.
func (s *Store) Merge(w registry.WorkerID, values map[string]any) {
	for k, v := range values {
		s.Set(w, k, v)
	}
}

// Load replaces w's data set with the JSON object in data.
func (s *Store) Load(w registry.WorkerID, data []byte) error {
	var set map[string]any
	if err := snapshotAPI.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("inputs: decoding data set: %w", err)
	}
	if set == nil {
		return fmt.Errorf("inputs: data set must be a JSON object")
	}
	s.mu.Lock()
	s.sets[w] = set
	s.mu.Unlock()
	return nil
}

// Get returns one input of w.
func (s *Store) Get(w registry.WorkerID, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sets[w][key]
	return v, ok
}

// Reset forgets w's data set, typically when its scenario ends.
func (s *Store) Reset(w registry.WorkerID) {
	s.mu.Lock()
	delete(s.sets, w)
	s.mu.Unlock()
}

// Snapshot renders w's data set as indented JSON with sorted keys. A worker
// with no data yields "".
func (s *Store) Snapshot(w registry.WorkerID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.sets[w]
	if len(set) == 0 {
		return ""
	}
	b, err := snapshotAPI.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Sprintf("<unrenderable input data: %v>", err)
	}
	return string(b)
}
