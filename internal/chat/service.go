package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mfachrulrazy/smartgotrack-app/internal/assistant"
	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/intake"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
	"github.com/mfachrulrazy/smartgotrack-app/internal/session"
)

// ErrNoPendingPurchase is returned by Confirm and Reject when the
// conversation has nothing waiting for a decision.
var ErrNoPendingPurchase = errors.New("no pending purchase to resolve")

// ErrEmptyMessage is returned when the user sends blank text.
var ErrEmptyMessage = errors.New("empty message")

// Service drives conversations: it routes user text through the
// assistant, stages extracted purchases for confirmation and hands
// confirmed ones to intake.
type Service struct {
	assistant assistant.Assistant
	intake    *intake.Service
	logger    *log.Logger
	now       func() time.Time

	mu    sync.Mutex
	convs map[string]*Conversation
}

func NewService(a assistant.Assistant, in *intake.Service, logger *log.Logger) *Service {
	return &Service{
		assistant: a,
		intake:    in,
		logger:    logger.WithComponent(log.ComponentChat),
		now:       time.Now,
		convs:     make(map[string]*Conversation),
	}
}

// Conversation returns the user's conversation, creating it with the
// welcome message on first access.
func (s *Service) Conversation(userID string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[userID]; ok {
		return c
	}
	c := newConversation(s.now())
	s.convs[userID] = c
	return c
}

// HandleText processes one user message and returns the messages this
// turn appended, user message first.
func (s *Service) HandleText(ctx context.Context, userID, text string) ([]Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	conv := s.Conversation(userID)
	history := conv.history()

	userMsg := UserMessage{newMeta(text, s.now())}
	conv.append(userMsg)

	reply := s.respond(ctx, userID, history, text)
	conv.append(reply)
	return []Message{userMsg, reply}, nil
}

func (s *Service) respond(ctx context.Context, userID string, history []assistant.Turn, text string) Message {
	parsed, message, err := s.assistant.Parse(ctx, text)
	if err != nil {
		s.logger.Warn("assistant parse failed",
			log.FieldOperation, log.OpParse,
			log.FieldUserID, userID,
			log.FieldError, err)
		return ModelMessage{meta: newMeta(processingErr, s.now())}
	}

	if parsed != nil {
		content := fmt.Sprintf("I found a purchase!\n%v %s of %s from %s for $%.2f each.\n\nSave this?",
			parsed.Quantity, parsed.Unit, parsed.ItemName, parsed.StoreName, parsed.Price)
		return ModelMessage{meta: newMeta(content, s.now()), Pending: parsed}
	}

	// Not a purchase. Prefer the extraction prompt's conversational
	// message, otherwise ask the model for a free-form reply.
	if strings.TrimSpace(message) == "" {
		message, err = s.assistant.Reply(ctx, history, text)
		if err != nil {
			s.logger.Warn("assistant reply failed",
				log.FieldOperation, log.OpReply,
				log.FieldUserID, userID,
				log.FieldError, err)
			message = assistant.FallbackReply
		}
	}
	if strings.TrimSpace(message) == "" {
		message = notUnderstood
	}
	return ModelMessage{meta: newMeta(message, s.now())}
}

// Confirm saves the newest pending purchase into the user's session and
// returns the created record.
func (s *Service) Confirm(ctx context.Context, sess *session.Session) (core.Purchase, error) {
	conv := s.Conversation(sess.UserID())
	pending, ok := conv.takePending(savedText)
	if !ok {
		return core.Purchase{}, ErrNoPendingPurchase
	}

	p, err := s.intake.Create(ctx, sess, intake.Input{
		ItemName:  pending.ItemName,
		StoreName: pending.StoreName,
		Date:      pending.Date,
		Price:     pending.Price,
		Quantity:  pending.Quantity,
		Unit:      pending.Unit,
	})
	if err != nil {
		conv.append(SystemMessage{newMeta("That purchase could not be saved: "+err.Error(), s.now())})
		return core.Purchase{}, err
	}

	s.logger.Info("purchase confirmed from chat",
		log.FieldUserID, sess.UserID(),
		log.FieldPurchaseID, p.ID,
		log.FieldItemName, p.ItemName,
		log.FieldAmount, p.TotalCents)
	return p, nil
}

// Reject discards the newest pending purchase.
func (s *Service) Reject(userID string) error {
	conv := s.Conversation(userID)
	if _, ok := conv.takePending(discardedText); !ok {
		return ErrNoPendingPurchase
	}
	return nil
}
