package core

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"goftpd/internal/session"
)

// registry tracks live sessions so shutdown can stop them all.
type registry struct {
	mu       sync.Mutex
	sessions map[uint64]*session.Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[uint64]*session.Session)}
}

func (r *registry) Add(s *session.Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
}

// Remove is installed as every session's OnClosed callback.
func (r *registry) Remove(s *session.Session) {
	r.mu.Lock()
	delete(r.sessions, s.ID())
	r.mu.Unlock()
}

func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StopAll stops every live session in parallel and waits until each
// has released its connection.  The lock is not held while stopping
// because OnClosed calls back into Remove.
func (r *registry) StopAll() {
	r.mu.Lock()
	live := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	var g errgroup.Group
	for _, s := range live {
		g.Go(func() error {
			s.Stop()
			<-s.Done()
			return nil
		})
	}
	_ = g.Wait()
}
