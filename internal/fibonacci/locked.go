package fibonacci

import "sync"

// Locked serializes access to a Generator shared between goroutines.
type Locked struct {
	mu sync.Mutex
	g  *Generator
}

// NewLocked wraps g. The caller must stop using g directly.
func NewLocked(g *Generator) *Locked {
	return &Locked{g: g}
}

// Next returns the next term under the lock.
func (l *Locked) Next() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Next()
}

// Index returns the index of the term the next call to Next produces.
func (l *Locked) Index() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Index()
}
