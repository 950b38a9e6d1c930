package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleStartStop(t *testing.T) {
	l := NewLifecycle()
	assert.False(t, l.IsLive(), "fresh lifecycle is not live until Start")

	l.Start()
	assert.True(t, l.IsLive())

	l.Stop()
	assert.False(t, l.IsLive())
	assert.Error(t, l.Context().Err(), "Stop cancels the session context")
}

func TestLifecycleStopIsIrreversible(t *testing.T) {
	l := NewLifecycle()
	l.Start()
	l.Stop()

	// Restarting a dead session must not work.
	l.Start()
	assert.False(t, l.IsLive())

	// And stopping again is harmless.
	l.Stop()
	assert.False(t, l.IsLive())
}

func TestLifecycleDoGatesMutations(t *testing.T) {
	l := NewLifecycle()
	var count int

	assert.False(t, l.Do(func() { count++ }), "not started yet")
	assert.Equal(t, 0, count)

	l.Start()
	assert.True(t, l.Do(func() { count++ }))
	assert.Equal(t, 1, count)

	l.Stop()
	assert.False(t, l.Do(func() { count++ }), "suppressed after Stop")
	assert.Equal(t, 1, count, "suppression is a silent no-op")
}
