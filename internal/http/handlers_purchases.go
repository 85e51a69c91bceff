package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/mfachrulrazy/smartgotrack-app/internal/auth"
	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/intake"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
)

type purchaseRequest struct {
	ItemName  string  `json:"itemName"`
	StoreName string  `json:"storeName"`
	Date      string  `json:"date"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
}

func (pr purchaseRequest) input() intake.Input {
	return intake.Input{
		ItemName:  sanitizeInput(pr.ItemName),
		StoreName: sanitizeInput(pr.StoreName),
		Date:      pr.Date,
		Price:     pr.Price,
		Quantity:  pr.Quantity,
		Unit:      sanitizeInput(pr.Unit),
	}
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sess := s.sessions.Get(r.Context(), userID)

	purchases := sess.Snapshot()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		purchases = core.Recent(purchases, limit)
	}
	if purchases == nil {
		purchases = []core.Purchase{}
	}
	respondJSON(w, http.StatusOK, purchases)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess := s.sessions.Get(r.Context(), userID)
	p, err := s.intake.Create(r.Context(), sess, req.input())
	if err != nil {
		s.respondIntakeError(w, userID, err)
		return
	}

	atomic.AddInt64(&s.metrics.totalPurchases, 1)
	s.invalidateUserCaches(userID)
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess := s.sessions.Get(r.Context(), userID)
	p, err := s.intake.Update(r.Context(), sess, id, req.input())
	if err != nil {
		if errors.Is(err, core.ErrPurchaseNotFound) {
			respondError(w, http.StatusNotFound, "Purchase not found")
			return
		}
		s.respondIntakeError(w, userID, err)
		return
	}

	s.invalidateUserCaches(userID)
	respondJSON(w, http.StatusOK, p)
}

// respondIntakeError maps domain validation sentinels to 422 and anything
// else to 500.
func (s *Server) respondIntakeError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyItemName):
		respondError(w, http.StatusUnprocessableEntity, "Item name is required")
	case errors.Is(err, core.ErrNegativePrice):
		respondError(w, http.StatusUnprocessableEntity, "Price cannot be negative")
	case errors.Is(err, core.ErrInvalidQuantity):
		respondError(w, http.StatusUnprocessableEntity, "Quantity must be greater than zero")
	case errors.Is(err, core.ErrInvalidDate):
		respondError(w, http.StatusUnprocessableEntity, "Date must be in YYYY-MM-DD format")
	case errors.Is(err, core.ErrEmptyPurchaseID):
		respondError(w, http.StatusUnprocessableEntity, "Purchase id is required")
	default:
		s.logger.Error("purchase intake failed", log.FieldUserID, userID, log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to save purchase")
	}
}
