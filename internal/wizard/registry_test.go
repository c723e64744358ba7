// internal/wizard/registry_test.go
package wizard

import (
	"sync"
	"testing"
	"time"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRegistry(t *testing.T, deps Deps) (*Registry, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	r := NewRegistry(deps, testOptions(), 2*time.Hour, logger.NewNoOpLogger())
	r.now = clock.Now
	t.Cleanup(r.Close)
	return r, clock
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(t, newTestEnv().deps)

	a := r.Create()
	b := r.Create()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, r.Len())

	got, err := r.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = r.Get("missing")
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.CodeOf(err))
}

func TestRegistry_SweepEvictsIdleSessions(t *testing.T) {
	r, clock := newTestRegistry(t, newTestEnv().deps)

	idle := r.Create()
	active := r.Create()

	clock.Advance(time.Hour)
	_, err := active.UpdateDraft(models.DraftPatch{Email: str("a@b.com")})
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Minute)
	assert.Equal(t, 1, r.Sweep())

	_, err = r.Get(idle.ID())
	assert.Error(t, err)
	_, err = r.Get(active.ID())
	assert.NoError(t, err)
}

func TestRegistry_BusySessionSurvivesSweep(t *testing.T) {
	env := newTestEnv()
	env.estimator.gate = make(chan struct{})
	r, clock := newTestRegistry(t, env.deps)

	c := r.Create()
	completeForm(t, c)

	clock.Advance(3 * time.Hour)
	assert.Equal(t, 0, r.Sweep())

	close(env.estimator.gate)
	c.Wait()
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_JanitorRunsUntilClose(t *testing.T) {
	r, clock := newTestRegistry(t, newTestEnv().deps)
	r.Create()
	clock.Advance(3 * time.Hour)

	r.Start(5 * time.Millisecond)
	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)

	r.Close()
	r.Close()
}
