package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mfachrulrazy/smartgotrack-app/internal/auth"
	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
)

type dashboardResponse struct {
	RunningTotalCents int64           `json:"runningTotalCents"`
	Recent            []core.Purchase `json:"recent"`
	WeekDays          []string        `json:"weekDays"`
	WeekTotalsCents   []int64         `json:"weekTotalsCents"`
	Favorites         []core.Favorite `json:"favorites"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if cached, ok := s.dashboardCache.Get(userID); ok {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		respondJSON(w, http.StatusOK, cached)
		return
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	sess := s.sessions.Get(r.Context(), userID)
	purchases := sess.Snapshot()

	days := core.LastNDays(core.DateOf(time.Now()), 7)
	resp := dashboardResponse{
		RunningTotalCents: core.RunningTotal(purchases),
		Recent:            core.Recent(purchases, 5),
		WeekDays:          days,
		WeekTotalsCents:   core.DailyTotals(purchases, days),
		Favorites:         core.Favorites(purchases, 4),
	}
	if resp.Recent == nil {
		resp.Recent = []core.Purchase{}
	}
	if resp.Favorites == nil {
		resp.Favorites = []core.Favorite{}
	}

	s.dashboardCache.Set(userID, resp)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sess := s.sessions.Get(r.Context(), userID)

	groups := core.CompareByItem(sess.Snapshot())
	if groups == nil {
		groups = []core.ComparisonGroup{}
	}
	respondJSON(w, http.StatusOK, groups)
}
