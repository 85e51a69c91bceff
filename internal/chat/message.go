// Package chat holds the assistant conversation: message history, the
// purchase confirmation flow and the canned copy shown when the model
// backend is unavailable.
package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mfachrulrazy/smartgotrack-app/internal/assistant"
)

// Message roles.
const (
	RoleUser   = "user"
	RoleModel  = "model"
	RoleSystem = "system"
)

// Canned copy for the conversation flow.
const (
	welcomeText = "Hi! I can help you track expenses. Just tell me what you bought.\n\nTry: \"Bought 5lbs of apples at Walmart for $7\""

	savedText     = "✅ Saved!"
	discardedText = "Okay, I won't save that."
	notUnderstood = "I'm not sure I understood that."
	processingErr = "Sorry, I had trouble processing that. Please check your internet connection."
)

// Message is one entry in a conversation. The three variants are
// UserMessage, ModelMessage and SystemMessage; only a ModelMessage can
// carry a pending purchase.
type Message interface {
	ID() string
	Role() string
	Content() string
	Timestamp() time.Time
}

type meta struct {
	id   string
	text string
	at   time.Time
}

func newMeta(text string, at time.Time) meta {
	return meta{id: uuid.NewString(), text: text, at: at}
}

func (m meta) ID() string           { return m.id }
func (m meta) Content() string      { return m.text }
func (m meta) Timestamp() time.Time { return m.at }

// UserMessage is text typed by the user.
type UserMessage struct{ meta }

func (UserMessage) Role() string { return RoleUser }

// ModelMessage is the assistant's reply. Pending is non-nil while the
// message is waiting for the user to confirm or reject an extracted
// purchase.
type ModelMessage struct {
	meta
	Pending *assistant.ParsedPurchase
}

func (ModelMessage) Role() string { return RoleModel }

// SystemMessage is app-generated copy such as the welcome text.
type SystemMessage struct{ meta }

func (SystemMessage) Role() string { return RoleSystem }

// messageJSON is the wire shape of a message.
type messageJSON struct {
	ID              string                    `json:"id"`
	Role            string                    `json:"role"`
	Content         string                    `json:"content"`
	Timestamp       int64                     `json:"timestamp"`
	PendingPurchase *assistant.ParsedPurchase `json:"pendingPurchase,omitempty"`
}

func encodeMessage(m Message) messageJSON {
	out := messageJSON{
		ID:        m.ID(),
		Role:      m.Role(),
		Content:   m.Content(),
		Timestamp: m.Timestamp().UnixMilli(),
	}
	if mm, ok := m.(ModelMessage); ok {
		out.PendingPurchase = mm.Pending
	}
	return out
}

func (m UserMessage) MarshalJSON() ([]byte, error)   { return json.Marshal(encodeMessage(m)) }
func (m ModelMessage) MarshalJSON() ([]byte, error)  { return json.Marshal(encodeMessage(m)) }
func (m SystemMessage) MarshalJSON() ([]byte, error) { return json.Marshal(encodeMessage(m)) }
