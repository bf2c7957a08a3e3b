package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(0, 0)

	conv := m.Create()
	require.NotEmpty(t, conv.ID)
	assert.Same(t, conv, m.Get(conv.ID))
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.Delete(conv.ID))
	assert.Nil(t, m.Get(conv.ID))
	assert.ErrorContains(t, m.Delete(conv.ID), "session not found")
}

func TestManagerGetOrCreate(t *testing.T) {
	m := NewManager(0, 0)

	// Unknown IDs are adopted, matching clients that survive a restart.
	conv := m.GetOrCreate("client-kept-this-id")
	assert.Equal(t, "client-kept-this-id", conv.ID)
	assert.Same(t, conv, m.GetOrCreate("client-kept-this-id"))

	// An empty ID mints a fresh session.
	fresh := m.GetOrCreate("")
	assert.NotEmpty(t, fresh.ID)
	assert.Equal(t, 2, m.Count())
}

func TestManagerReset(t *testing.T) {
	m := NewManager(0, 0)
	conv := m.Create()
	conv.AddUserTurn("hello", "/uploads/a.jpg", "general")

	require.NoError(t, m.Reset(conv.ID))
	assert.Zero(t, conv.Len())
	assert.Empty(t, conv.CurrentImage())
	assert.ErrorContains(t, m.Reset("nope"), "session not found")
}

func TestManagerMaxTurns(t *testing.T) {
	m := NewManager(0, 3)

	// Both creation paths honor the configured cap.
	for _, conv := range []*Conversation{m.Create(), m.GetOrCreate("adopted-id")} {
		for i := 0; i < 6; i++ {
			conv.AddUserTurn("q", "", "")
		}
		assert.Equal(t, 3, conv.Len())
	}

	// Zero falls back to the default.
	conv := NewManager(0, 0).Create()
	for i := 0; i < DefaultMaxTurns+5; i++ {
		conv.AddUserTurn("q", "", "")
	}
	assert.Equal(t, DefaultMaxTurns, conv.Len())
}

func TestManagerSweep(t *testing.T) {
	m := NewManager(50*time.Millisecond, 0)

	stale := m.Create()
	var evicted []string
	m.OnEvict = func(c *Conversation) { evicted = append(evicted, c.ID) }

	time.Sleep(80 * time.Millisecond)
	fresh := m.Create()

	assert.Equal(t, 1, m.Sweep())
	assert.Nil(t, m.Get(stale.ID))
	assert.NotNil(t, m.Get(fresh.ID))
	assert.Equal(t, []string{stale.ID}, evicted)
}

func TestManagerStartCleanup(t *testing.T) {
	m := NewManager(0, 0)
	assert.ErrorContains(t, m.StartCleanup("not a schedule"), "invalid cleanup schedule")

	require.NoError(t, m.StartCleanup("@every 1h"))
	m.StopCleanup()
}
