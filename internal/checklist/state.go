package checklist

import (
	"encoding/json"
	"time"
)

// StorageKey is the single key the completion map is persisted under.
const StorageKey = "deployment-checklist-state"

// State maps item IDs to completion.
type State struct {
	Items       map[string]bool `json:"items"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// Initialize returns a state with every catalog item incomplete.
func Initialize(c *Catalog, now time.Time) State {
	s := State{Items: make(map[string]bool, c.Len()), LastUpdated: now.UTC()}
	for _, it := range c.items {
		s.Items[it.ID] = false
	}
	return s
}

// Clone returns a deep copy.
func (s State) Clone() State {
	items := make(map[string]bool, len(s.Items))
	for k, v := range s.Items {
		items[k] = v
	}
	return State{Items: items, LastUpdated: s.LastUpdated}
}

// backfill adds catalog items missing from s as incomplete.
func (s *State) backfill(c *Catalog) {
	if s.Items == nil {
		s.Items = make(map[string]bool, c.Len())
	}
	for _, it := range c.items {
		if _, ok := s.Items[it.ID]; !ok {
			s.Items[it.ID] = false
		}
	}
}

func decodeState(blob []byte) (State, error) {
	var s State
	if err := json.Unmarshal(blob, &s); err != nil {
		return State{}, err
	}
	return s, nil
}

func encodeState(s State) ([]byte, error) {
	return json.Marshal(s)
}

// Source says who asked for a transition.
type Source int

const (
	SourceUser Source = iota
	SourceCheck
)

// Transition returns the item's state after a request to move it from
// `from` to `to`. Users may move either way; a check may only complete.
func Transition(from, to bool, src Source) bool {
	if src == SourceCheck && !to {
		return from
	}
	return to
}
