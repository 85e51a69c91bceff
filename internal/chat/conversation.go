package chat

import (
	"sync"
	"time"

	"github.com/mfachrulrazy/smartgotrack-app/internal/assistant"
)

// Conversation is one user's message history. All access goes through
// its methods.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

func newConversation(now time.Time) *Conversation {
	return &Conversation{
		messages: []Message{SystemMessage{newMeta(welcomeText, now)}},
	}
}

func (c *Conversation) append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

// Messages returns a copy of the history, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// history returns the user and model turns for the reply prompt. System
// messages are app chrome, not conversation.
func (c *Conversation) history() []assistant.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	turns := make([]assistant.Turn, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role() == RoleSystem {
			continue
		}
		turns = append(turns, assistant.Turn{Role: m.Role(), Content: m.Content()})
	}
	return turns
}

// takePending removes and returns the pending purchase from the newest
// model message that carries one. The message content is rewritten to
// resolvedText so the card disappears from the UI.
func (c *Conversation) takePending(resolvedText string) (*assistant.ParsedPurchase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		mm, ok := c.messages[i].(ModelMessage)
		if !ok || mm.Pending == nil {
			continue
		}
		pending := mm.Pending
		mm.Pending = nil
		mm.text = resolvedText
		c.messages[i] = mm
		return pending, true
	}
	return nil, false
}
