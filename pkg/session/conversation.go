package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMaxTurns bounds a conversation's retained history.
	DefaultMaxTurns = 20

	// contextTurns is how many recent turns feed the context prompt.
	contextTurns = 10
)

// Turn is one user or assistant message in a conversation.
type Turn struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	ImagePath string            `json:"image_path,omitempty"`
	Task      string            `json:"task,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Conversation holds the rolling dialog history for one session. Old
// turns fall off the front once the history exceeds its cap.
type Conversation struct {
	ID       string
	RemoteID string

	mu           sync.RWMutex
	turns        []Turn
	currentImage string
	lastActive   time.Time
	maxTurns     int
}

func newConversation(id string, maxTurns int) *Conversation {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Conversation{
		ID:         id,
		turns:      make([]Turn, 0, maxTurns),
		lastActive: time.Now(),
		maxTurns:   maxTurns,
	}
}

// SetImage records the active image for subsequent turns.
func (c *Conversation) SetImage(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentImage = path
	c.lastActive = time.Now()
}

// CurrentImage returns the active image path, if any.
func (c *Conversation) CurrentImage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentImage
}

// AddUserTurn appends a user message. A non-empty imagePath also
// becomes the conversation's active image.
func (c *Conversation) AddUserTurn(content, imagePath, task string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if imagePath != "" {
		c.currentImage = imagePath
	}
	c.turns = append(c.turns, Turn{
		Role:      "user",
		Content:   content,
		ImagePath: imagePath,
		Task:      task,
		Timestamp: time.Now(),
	})
	c.trim()
	c.lastActive = time.Now()
}

// AddAssistantTurn appends an assistant reply.
func (c *Conversation) AddAssistantTurn(content, task string, metadata map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Turn{
		Role:      "assistant",
		Content:   content,
		Task:      task,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	c.trim()
	c.lastActive = time.Now()
}

// trim drops the oldest turns past the cap. Caller holds the lock.
func (c *Conversation) trim() {
	if len(c.turns) > c.maxTurns {
		c.turns = c.turns[len(c.turns)-c.maxTurns:]
	}
}

// ContextPrompt frames query with the recent dialog so the model sees
// what was already discussed. With no history it returns query as is.
func (c *Conversation) ContextPrompt(query string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.turns) == 0 {
		return query
	}

	recent := c.turns
	if len(recent) > contextTurns {
		recent = recent[len(recent)-contextTurns:]
	}

	var b strings.Builder
	b.WriteString("[Previous conversation context]\n")
	for _, t := range recent {
		role := "User"
		if t.Role == "assistant" {
			role = "Assistant"
		}
		if t.Role == "user" && t.ImagePath != "" {
			role = "User (with image)"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}
	b.WriteString("\n[Current query]\n")
	b.WriteString(query)
	return b.String()
}

// History returns a copy of the retained turns, oldest first.
func (c *Conversation) History() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Clear drops all history and the active image.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = c.turns[:0]
	c.currentImage = ""
	c.lastActive = time.Now()
}

// LastActive reports when the conversation last changed.
func (c *Conversation) LastActive() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastActive
}

// Len returns the number of retained turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}
