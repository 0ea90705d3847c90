package mem

import "sync/atomic"

// Scope is a validity window. Once ended it stays ended.
type Scope struct {
	name  string
	ended atomic.Bool
}

func newScope(name string) *Scope {
	return &Scope{name: name}
}

func (s *Scope) Name() string {
	return s.name
}

func (s *Scope) Alive() bool {
	return !s.ended.Load()
}

// End closes the window. Calling End more than once is harmless.
func (s *Scope) End() {
	s.ended.Store(true)
}

type liveScope struct{}

func (liveScope) Alive() bool { return true }
