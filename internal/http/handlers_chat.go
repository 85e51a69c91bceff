package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/mfachrulrazy/smartgotrack-app/internal/auth"
	"github.com/mfachrulrazy/smartgotrack-app/internal/chat"
)

type chatMessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	respondJSON(w, http.StatusOK, s.chat.Conversation(userID).Messages())
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msgs, err := s.chat.HandleText(r.Context(), userID, sanitizeInput(req.Text))
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			respondError(w, http.StatusBadRequest, "Message text is required")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	atomic.AddInt64(&s.metrics.chatMessages, 1)
	respondJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleChatConfirm(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sess := s.sessions.Get(r.Context(), userID)

	p, err := s.chat.Confirm(r.Context(), sess)
	if err != nil {
		if errors.Is(err, chat.ErrNoPendingPurchase) {
			respondError(w, http.StatusConflict, "No purchase is waiting for confirmation")
			return
		}
		s.respondIntakeError(w, userID, err)
		return
	}

	atomic.AddInt64(&s.metrics.totalPurchases, 1)
	s.invalidateUserCaches(userID)
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleChatReject(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := s.chat.Reject(userID); err != nil {
		respondError(w, http.StatusConflict, "No purchase is waiting for confirmation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
