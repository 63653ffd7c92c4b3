// In file: internal/claims/store.go
package claims

import (
	"sync/atomic"
	"time"
)

// Snapshot is a table together with the query that produced it.
type Snapshot struct {
	Table     *Table
	Params    map[string]string
	FetchedAt time.Time
}

// Store holds the current snapshot. Fetching builds a new table and swaps it
// in; readers keep whatever snapshot they loaded.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	return &Store{}
}

// Load returns the current snapshot, or nil before anything was loaded.
func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

// Table returns the current table, or nil before anything was loaded.
func (s *Store) Table() *Table {
	if snap := s.current.Load(); snap != nil {
		return snap.Table
	}
	return nil
}

// Replace installs a new snapshot built from t and params.
func (s *Store) Replace(t *Table, params map[string]string) *Snapshot {
	p := make(map[string]string, len(params))
	for k, v := range params {
		p[k] = v
	}
	snap := &Snapshot{Table: t, Params: p, FetchedAt: time.Now()}
	s.current.Store(snap)
	return snap
}
