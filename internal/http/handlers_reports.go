package http

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mfachrulrazy/smartgotrack-app/internal/assistant"
	"github.com/mfachrulrazy/smartgotrack-app/internal/auth"
	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
)

type reportResponse struct {
	Start              string            `json:"start"`
	End                string            `json:"end"`
	TotalCents         int64             `json:"totalCents"`
	PreviousTotalCents int64             `json:"previousTotalCents"`
	DeltaCents         int64             `json:"deltaCents"`
	Trend              []core.TrendPoint `json:"trend"`
	TopItems           []core.ItemTotal  `json:"topItems"`
}

// handleReport builds the spending report for a date range. The range
// defaults to the last 30 days and is compared against the same range one
// year earlier.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	end := core.DateOf(time.Now())
	start := end.AddDays(-29)

	if raw := r.URL.Query().Get("start"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "start must be in YYYY-MM-DD format")
			return
		}
		start = d
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "end must be in YYYY-MM-DD format")
			return
		}
		end = d
	}
	if end.BeforeDate(start) {
		respondError(w, http.StatusBadRequest, "end must not precede start")
		return
	}

	cacheKey := userID + "|" + start.Key() + "|" + end.Key()
	if cached, ok := s.reportCache.Get(cacheKey); ok {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		respondJSON(w, http.StatusOK, cached)
		return
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	sess := s.sessions.Get(r.Context(), userID)
	purchases := sess.Snapshot()

	trend := core.Trend(purchases, start, end)
	var total, previous int64
	for _, pt := range trend {
		total += pt.CurrentCents
		previous += pt.PreviousCents
	}

	resp := reportResponse{
		Start:              start.Key(),
		End:                end.Key(),
		TotalCents:         total,
		PreviousTotalCents: previous,
		DeltaCents:         total - previous,
		Trend:              trend,
		TopItems:           core.TopItems(purchases, start, end, 5),
	}
	if resp.Trend == nil {
		resp.Trend = []core.TrendPoint{}
	}
	if resp.TopItems == nil {
		resp.TopItems = []core.ItemTotal{}
	}

	s.reportCache.Set(cacheKey, resp)
	respondJSON(w, http.StatusOK, resp)
}

type insightsRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// handleInsights asks the assistant for a narrative summary of the user's
// purchases, optionally restricted to a date range. Assistant failures
// degrade to a canned message instead of an error status.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req insightsRequest
	if r.Body != nil {
		// The body is optional; decode errors just mean no range filter.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	sess := s.sessions.Get(r.Context(), userID)
	purchases := sess.Snapshot()

	if req.Start != "" && req.End != "" {
		start, errStart := core.ParseDate(req.Start)
		end, errEnd := core.ParseDate(req.End)
		if errStart != nil || errEnd != nil {
			respondError(w, http.StatusBadRequest, "start and end must be in YYYY-MM-DD format")
			return
		}
		filtered := purchases[:0:0]
		for _, p := range purchases {
			if p.Date.BeforeDate(start) || p.Date.AfterDate(end) {
				continue
			}
			filtered = append(filtered, p)
		}
		purchases = filtered
	}

	if len(purchases) == 0 || s.assistant == nil {
		respondJSON(w, http.StatusOK, map[string]string{"insights": assistant.NoInsights})
		return
	}

	text, err := s.assistant.Insights(r.Context(), purchases)
	if err != nil {
		s.logger.Error("insights generation failed", log.FieldUserID, userID, log.FieldError, err)
		text = assistant.FallbackInsights
	}
	if text == "" {
		text = assistant.NoInsights
	}
	respondJSON(w, http.StatusOK, map[string]string{"insights": text})
}
