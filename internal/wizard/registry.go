// internal/wizard/registry.go
package wizard

import (
	"sync"
	"time"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/common/metrics"

	"github.com/google/uuid"
)

// Registry holds the live sessions of the process. Sessions exist only in
// memory and are evicted after ttl without activity.
type Registry struct {
	deps   Deps
	opts   Options
	ttl    time.Duration
	logger logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Controller
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	janitor  sync.WaitGroup
}

func NewRegistry(deps Deps, opts Options, ttl time.Duration, log logger.Logger) *Registry {
	return &Registry{
		deps:     deps,
		opts:     opts,
		ttl:      ttl,
		logger:   log.WithFields(map[string]interface{}{"component": "session-registry"}),
		sessions: make(map[string]*Controller),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (r *Registry) Create() *Controller {
	c := NewController(uuid.NewString(), r.deps, r.opts, r.logger)
	c.now = r.now
	c.lastActive = r.now()

	r.mu.Lock()
	r.sessions[c.ID()] = c
	r.mu.Unlock()

	metrics.ActiveSessions.Inc()
	r.logger.Info("session created", map[string]interface{}{"sessionId": c.ID()})
	return c
}

func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	c, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewSessionNotFoundError(id)
	}
	return c, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts idle sessions and returns how many were removed. Sessions
// with remote work still running are kept until it finishes.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	var expired []*Controller
	r.mu.Lock()
	for id, c := range r.sessions {
		if c.LastActive().Before(cutoff) && !c.Busy() {
			expired = append(expired, c)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, c := range expired {
		metrics.ActiveSessions.Dec()
		c.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("expired idle sessions", map[string]interface{}{"count": len(expired)})
	}
	return len(expired)
}

// Start runs Sweep every interval until Close.
func (r *Registry) Start(interval time.Duration) {
	r.janitor.Add(1)
	go func() {
		defer r.janitor.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.stop:
				return
			}
		}
	}()
}

// Close stops the janitor and closes every session.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.janitor.Wait()

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Controller)
	r.mu.Unlock()

	for _, c := range sessions {
		metrics.ActiveSessions.Dec()
		c.Close()
	}
}
