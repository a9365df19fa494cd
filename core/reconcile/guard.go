package reconcile

import (
	"strings"
	"sync"
)

// Guard allows one run per key at a time. A second caller does not wait;
// it gets ErrInProgress so two runs never interleave writes to the same rows.
type Guard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{running: make(map[string]struct{})}
}

func guardKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Acquire marks key as running. The returned release must be called once the run ends.
func (g *Guard) Acquire(key string) (release func(), err error) {
	key = guardKey(key)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[key]; busy {
		return nil, ErrInProgress
	}
	g.running[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, key)
			g.mu.Unlock()
		})
	}, nil
}

// Do runs fn unless a run for key is already in flight. Keys are case-insensitive.
func (g *Guard) Do(key string, fn func() error) error {
	release, err := g.Acquire(key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Running reports whether a run for key is in flight.
func (g *Guard) Running(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.running[guardKey(key)]
	return busy
}
