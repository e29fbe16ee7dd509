// Package commit keeps track of the connections that run under commitment
// control and the record lock level each one uses.
package commit

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Lock levels. Inactive is what a file records when its connection is not
// under commitment control.
const Inactive = -1

const (
	ReadUncommitted = iota
	ReadCommitted
	RepeatableRead
	Serializable
)

var (
	ErrAlreadyActive = errors.New("commitment control already active")
	ErrNotActive     = errors.New("commitment control not active")
	ErrLockLevel     = errors.New("invalid commit lock level")
)

// Registry maps a connection id to its commit lock level. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.Mutex
	levels map[string]int
}

func NewRegistry() *Registry {
	return &Registry{levels: make(map[string]int)}
}

// Start puts conn under commitment control at the given lock level.
func (r *Registry) Start(conn string, level int) error {
	if level < ReadUncommitted || level > Serializable {
		return fmt.Errorf("%w: %d", ErrLockLevel, level)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.levels[conn]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyActive, conn)
	}
	r.levels[conn] = level
	return nil
}

// End takes conn out of commitment control.
func (r *Registry) End(conn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.levels[conn]; !ok {
		return fmt.Errorf("%w: %s", ErrNotActive, conn)
	}
	delete(r.levels, conn)
	return nil
}

// LockLevel returns the lock level of conn, or Inactive.
func (r *Registry) LockLevel(conn string) (int, bool) {
	if r == nil {
		return Inactive, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	level, ok := r.levels[conn]
	if !ok {
		return Inactive, false
	}
	return level, true
}

func (r *Registry) IsActive(conn string) bool {
	_, ok := r.LockLevel(conn)
	return ok
}

// Active lists the connections under commitment control.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]string, 0, len(r.levels))
	for conn := range r.levels {
		conns = append(conns, conn)
	}
	sort.Strings(conns)
	return conns
}
