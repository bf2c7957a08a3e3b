package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationTurnCap(t *testing.T) {
	conv := newConversation("c1", 4)
	for i := 0; i < 10; i++ {
		conv.AddUserTurn(fmt.Sprintf("q%d", i), "", "")
	}

	require.Equal(t, 4, conv.Len())
	// Oldest turns fall off first.
	assert.Equal(t, "q6", conv.History()[0].Content)
	assert.Equal(t, "q9", conv.History()[3].Content)
}

func TestContextPrompt(t *testing.T) {
	t.Run("no history returns query as is", func(t *testing.T) {
		conv := newConversation("c1", DefaultMaxTurns)
		assert.Equal(t, "where is the cup", conv.ContextPrompt("where is the cup"))
	})

	t.Run("frames recent turns", func(t *testing.T) {
		conv := newConversation("c1", DefaultMaxTurns)
		conv.AddUserTurn("what is on the table", "/uploads/a.jpg", "general")
		conv.AddAssistantTurn("A red cup.", "general", nil)

		got := conv.ContextPrompt("point to it")
		assert.Contains(t, got, "[Previous conversation context]")
		assert.Contains(t, got, "User (with image): what is on the table")
		assert.Contains(t, got, "Assistant: A red cup.")
		assert.True(t, strings.HasSuffix(got, "[Current query]\npoint to it"))
	})

	t.Run("only recent turns feed the prompt", func(t *testing.T) {
		conv := newConversation("c1", DefaultMaxTurns)
		for i := 0; i < 15; i++ {
			conv.AddUserTurn(fmt.Sprintf("q%d", i), "", "")
		}

		got := conv.ContextPrompt("next")
		assert.NotContains(t, got, "q4\n")
		assert.Contains(t, got, "q5")
		assert.Contains(t, got, "q14")
	})
}

func TestConversationImageTracking(t *testing.T) {
	conv := newConversation("c1", DefaultMaxTurns)
	assert.Empty(t, conv.CurrentImage())

	conv.AddUserTurn("look", "/uploads/a.jpg", "general")
	assert.Equal(t, "/uploads/a.jpg", conv.CurrentImage())

	// A turn without an image keeps the previous one active.
	conv.AddUserTurn("and now", "", "general")
	assert.Equal(t, "/uploads/a.jpg", conv.CurrentImage())

	conv.Clear()
	assert.Empty(t, conv.CurrentImage())
	assert.Zero(t, conv.Len())
}
